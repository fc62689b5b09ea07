package handler

import (
	"net/http"

	"go-vis-pipeline/internal/ingest"
	"go-vis-pipeline/internal/logger"
	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/pkg/router"
)

// CreateSource registers a data source
// @Summary Register a data source
// @Description Load a CSV or JSON source from a path or URL, or take inline values, and register it under its name
// @Tags sources
// @Accept json
// @Produce json
// @Param source body model.SourceRequest true "Source definition"
// @Success 201 {object} store.SourceInfo "Source registered"
// @Failure 400 {object} ErrorResponse "Invalid source"
// @Failure 404 {object} ErrorResponse "Source file not found"
// @Router /sources [post]
func (h *Handler) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req model.SourceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rules := &ingest.Rules{RequiredFields: req.RequiredFields, NumericFields: req.NumericFields}

	var src *model.Source
	if req.Path != "" {
		loaded, err := h.loader.Load(r.Context(), req.Path, ingest.Options{
			Name:   req.Name,
			Format: req.Format,
			Parse:  req.Parse,
			Rules:  rules,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		src = loaded
	} else {
		if req.Values == nil {
			req.Values = []*model.Record{}
		}
		if err := rules.Check(req.Values); err != nil {
			writeError(w, r, err)
			return
		}
		src = &model.Source{
			Name:   req.Name,
			Values: req.Values,
			Format: model.Format{Type: req.Format, Parse: req.Parse},
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.registry.RegisterSource(src); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.SaveSource(src); err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("source registered", "source", src.Name, "records", len(src.Values))
	writeJSON(w, http.StatusCreated, map[string]any{
		"name":    src.Name,
		"url":     src.URL,
		"format":  src.Format.Type,
		"records": len(src.Values),
	})
}

// ListSources lists the persisted sources
// @Summary List sources
// @Tags sources
// @Produce json
// @Success 200 {array} store.SourceInfo "Sources"
// @Router /sources [get]
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.store.ListSources()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

// GetSource returns a registered source with its values
// @Summary Get source
// @Tags sources
// @Produce json
// @Param name path string true "Source name"
// @Success 200 {object} model.Source "Source"
// @Failure 404 {object} ErrorResponse "Source not found"
// @Router /sources/{name} [get]
func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	name := router.Param(r, 0)

	h.mu.Lock()
	src, ok := h.registry.Source(name)
	h.mu.Unlock()

	if !ok {
		writeError(w, r, &model.NotFoundError{Kind: "source", Name: name})
		return
	}
	writeJSON(w, http.StatusOK, src)
}
