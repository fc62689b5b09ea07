package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"go-vis-pipeline/internal/ingest"
	"go-vis-pipeline/internal/logger"
	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/internal/pipeline"
	"go-vis-pipeline/internal/store"
	"go-vis-pipeline/pkg/utils"
)

// Store is the persistence the handlers need
type Store interface {
	SaveSource(src *model.Source) error
	GetSource(name string) (*model.Source, error)
	ListSources() ([]store.SourceInfo, error)
	SaveSpec(pipeline string, specs []model.DataflowSpec) (int64, error)
	ListSpecs(pipeline string) ([]store.SpecSnapshot, error)
}

// Handler exposes one Registry over HTTP. The registry is not safe for
// concurrent use, so every handler holds mu while it touches it.
type Handler struct {
	mu       sync.Mutex
	registry *pipeline.Registry
	store    Store
	loader   *ingest.Loader
	outputs  *utils.OutputManager
	log      logger.Logger
}

func New(registry *pipeline.Registry, st Store, loader *ingest.Loader, outputs *utils.OutputManager, log logger.Logger) *Handler {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Handler{
		registry: registry,
		store:    st,
		loader:   loader,
		outputs:  outputs,
		log:      log,
	}
}

// Restore registers every persisted source with the registry
func (h *Handler) Restore() error {
	infos, err := h.store.ListSources()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, info := range infos {
		src, err := h.store.GetSource(info.Name)
		if err != nil {
			return err
		}
		if err := h.registry.RegisterSource(src); err != nil {
			return err
		}
	}
	h.log.Info("sources restored", "count", len(infos))
	return nil
}

// Traced tags a request with an id, echoed in X-Request-ID, and a logger
// carrying it.
func (h *Handler) Traced(next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logger.ContextWithLogger(r.Context(), h.log.With("request_id", requestID))
		next(w, r.WithContext(ctx))
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), RequestID: w.Header().Get("X-Request-ID")})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &model.ValidationError{Subject: "request", Reason: "invalid JSON payload", Err: err}
	}
	return nil
}

// rangeParams reads the begin/end query parameters of Values and Schema
func rangeParams(r *http.Request) (int, int, error) {
	begin, end := 0, pipeline.End
	q := r.URL.Query()
	if s := q.Get("begin"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, &model.ValidationError{Subject: "begin", Reason: "must be an integer", Err: err}
		}
		begin = n
	}
	if s := q.Get("end"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, &model.ValidationError{Subject: "end", Reason: "must be an integer", Err: err}
		}
		end = n
	}
	return begin, end, nil
}
