package handler

import (
	"fmt"
	"net/http"
	"strings"

	"go-vis-pipeline/internal/export"
	"go-vis-pipeline/internal/logger"
	"go-vis-pipeline/internal/model"
	"go-vis-pipeline/internal/pipeline"
	"go-vis-pipeline/internal/transform"
	"go-vis-pipeline/pkg/router"
)

// lookup resolves the pipeline named by the first path segment. h.mu must
// be held.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*pipeline.Pipeline, bool) {
	p, err := h.registry.Pipeline(router.Param(r, 0))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return p, true
}

func detail(p *pipeline.Pipeline) model.PipelineDetail {
	d := model.PipelineDetail{PipelineInfo: p.Info(), Transforms: []model.TransformInfo{}}
	for _, t := range p.Transforms() {
		d.Transforms = append(d.Transforms, model.TransformInfo{ID: t.ID(), Type: t.Type(), Spec: t.Spec()})
	}
	return d
}

// CreatePipeline creates a pipeline over a source
// @Summary Create a new pipeline
// @Description Create an empty pipeline reading from the named source
// @Tags pipelines
// @Accept json
// @Produce json
// @Param pipeline body model.CreatePipelineRequest true "Pipeline source"
// @Success 201 {object} model.PipelineInfo "Pipeline created"
// @Failure 400 {object} ErrorResponse "Invalid request payload"
// @Router /pipelines [post]
func (h *Handler) CreatePipeline(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePipelineRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		writeError(w, r, &model.ValidationError{Subject: "pipeline", Reason: "source is required"})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p := h.registry.NewPipeline(req.Source)
	logger.FromContext(r.Context()).Info("pipeline created", "pipeline", p.Name(), "source", req.Source)
	writeJSON(w, http.StatusCreated, p.Info())
}

// ListPipelines lists every pipeline
// @Summary List all pipelines
// @Tags pipelines
// @Produce json
// @Success 200 {array} model.PipelineInfo "List of pipelines"
// @Router /pipelines [get]
func (h *Handler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	infos := []model.PipelineInfo{}
	for _, p := range h.registry.Pipelines() {
		infos = append(infos, p.Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

// GetPipeline returns a pipeline with its transform chain
// @Summary Get pipeline
// @Tags pipelines
// @Produce json
// @Param name path string true "Pipeline name"
// @Success 200 {object} model.PipelineDetail "Pipeline details"
// @Failure 404 {object} ErrorResponse "Pipeline not found"
// @Router /pipelines/{name} [get]
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, detail(p))
}

// DeletePipeline removes a pipeline
// @Summary Delete pipeline
// @Tags pipelines
// @Param name path string true "Pipeline name"
// @Success 204 "Pipeline removed"
// @Failure 404 {object} ErrorResponse "Pipeline not found"
// @Router /pipelines/{name} [delete]
func (h *Handler) DeletePipeline(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.registry.RemovePipeline(router.Param(r, 0)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTransform appends a transform to a pipeline
// @Summary Add transform
// @Description Decode a transform declaration and place it on the branch its fields belong to
// @Tags transforms
// @Accept json
// @Produce json
// @Param name path string true "Pipeline name"
// @Param transform body model.TransformRequest true "Transform declaration"
// @Success 201 {object} map[string]interface{} "Transform added"
// @Failure 400 {object} ErrorResponse "Invalid transform"
// @Failure 404 {object} ErrorResponse "Pipeline not found"
// @Failure 422 {object} ErrorResponse "Field from a foreign pipeline"
// @Router /pipelines/{name}/transforms [post]
func (h *Handler) AddTransform(w http.ResponseWriter, r *http.Request) {
	var req model.TransformRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	t, err := transform.Decode(p.Name(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	idx, err := p.AddTransform(t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        t.ID(),
		"type":      t.Type(),
		"index":     idx,
		"forkName":  p.ForkName(),
		"forkIndex": p.ForkIndex(),
	})
}

// RemoveTransform removes a transform from a pipeline
// @Summary Remove transform
// @Tags transforms
// @Param name path string true "Pipeline name"
// @Param id path string true "Transform id"
// @Success 204 "Transform removed"
// @Failure 404 {object} ErrorResponse "Pipeline or transform not found"
// @Router /pipelines/{name}/transforms/{id} [delete]
func (h *Handler) RemoveTransform(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := p.RemoveTransform(router.Param(r, 1)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Aggregate attaches a statistic to a field
// @Summary Aggregate field
// @Description Make sure one stats transform covers the field and attach the statistic to it
// @Tags transforms
// @Accept json
// @Produce json
// @Param name path string true "Pipeline name"
// @Param aggregate body model.AggregateRequest true "Field and statistic"
// @Success 200 {object} model.Field "Aggregated field"
// @Failure 400 {object} ErrorResponse "Unknown statistic"
// @Router /pipelines/{name}/aggregate [post]
func (h *Handler) Aggregate(w http.ResponseWriter, r *http.Request) {
	var req model.AggregateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	field := req.Field
	if err := p.Aggregate(&field, req.Stat); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"field": field, "spec": field.Spec()})
}

// GetSpec compiles the dataflow of a pipeline
// @Summary Get dataflow spec
// @Tags specs
// @Produce json
// @Param name path string true "Pipeline name"
// @Success 200 {array} model.DataflowSpec "Compiled dataflow"
// @Router /pipelines/{name}/spec [get]
func (h *Handler) GetSpec(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p.Spec())
}

// SaveSnapshot stores the current dataflow of a pipeline
// @Summary Snapshot dataflow spec
// @Tags specs
// @Produce json
// @Param name path string true "Pipeline name"
// @Success 201 {object} store.SpecSnapshot "Saved snapshot"
// @Router /pipelines/{name}/snapshots [post]
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	specs := p.Spec()
	id, err := h.store.SaveSpec(p.Name(), specs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "pipeline": p.Name(), "specs": specs})
}

// ListSnapshots lists stored dataflow snapshots of a pipeline
// @Summary List dataflow snapshots
// @Tags specs
// @Produce json
// @Param name path string true "Pipeline name"
// @Success 200 {array} store.SpecSnapshot "Snapshots, newest first"
// @Router /pipelines/{name}/snapshots [get]
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.store.ListSpecs(router.Param(r, 0))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// GetSchema infers the fields of a pipeline's output
// @Summary Get schema
// @Tags data
// @Produce json
// @Param name path string true "Pipeline name"
// @Param begin query int false "First transform"
// @Param end query int false "Transform bound, -1 for all"
// @Success 200 {object} map[string]interface{} "Fields and value count"
// @Router /pipelines/{name}/schema [get]
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	begin, end, err := rangeParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	fields, values, err := p.Schema(begin, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if fields == nil {
		fields = []*model.Field{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields, "count": values.Len()})
}

// GetValues materializes a pipeline's output
// @Summary Get values
// @Description Run the transforms in [begin, end) over the source. format=csv or format=json return flat records.
// @Tags data
// @Produce json
// @Produce text/csv
// @Param name path string true "Pipeline name"
// @Param begin query int false "First transform"
// @Param end query int false "Transform bound, -1 for all"
// @Param format query string false "csv or json"
// @Success 200 {object} model.Values "Values"
// @Router /pipelines/{name}/values [get]
func (h *Handler) GetValues(w http.ResponseWriter, r *http.Request) {
	begin, end, err := rangeParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	values, err := p.Values(begin, end)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "":
		if values.Rows == nil && values.Groups == nil {
			values.Rows = []*model.Record{}
		}
		writeJSON(w, http.StatusOK, values)
	case "csv", "json":
		contentType := "application/json"
		if format == "csv" {
			contentType = "text/csv"
		}
		w.Header().Set("Content-Type", contentType)
		if _, err := export.Write(w, format, values); err != nil {
			logger.FromContext(r.Context()).Error("failed to write values", "err", err)
		}
	default:
		writeError(w, r, &model.ValidationError{Subject: "format", Reason: fmt.Sprintf("unsupported format %q", format)})
	}
}

// ExportValues writes a pipeline's output to a file
// @Summary Export values
// @Tags data
// @Accept json
// @Produce json
// @Param name path string true "Pipeline name"
// @Param export body model.ExportRequest true "Export target"
// @Success 201 {object} map[string]interface{} "Export result and download URL"
// @Router /pipelines/{name}/exports [post]
func (h *Handler) ExportValues(w http.ResponseWriter, r *http.Request) {
	var req model.ExportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if h.outputs.FileType(req.FileName) == "unknown" {
		writeError(w, r, &model.ValidationError{Subject: "export", Reason: fmt.Sprintf("unsupported file %q", req.FileName)})
		return
	}
	end := pipeline.End
	if req.End != nil {
		end = *req.End
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	values, err := p.Values(req.Begin, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	path, err := h.outputs.FilePath(p.Name(), req.FileName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := export.ToFile(path, values)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Info("values exported", "pipeline", p.Name(), "path", path, "records", res.RecordCount)
	writeJSON(w, http.StatusCreated, map[string]any{
		"result":      res,
		"downloadUrl": h.outputs.DownloadURL(p.Name(), req.FileName),
	})
}

// DownloadExport serves an exported file
// @Summary Download export
// @Tags data
// @Param name path string true "Pipeline name"
// @Param file path string true "File name"
// @Success 200 {file} file "Exported file"
// @Failure 404 {object} ErrorResponse "File not found"
// @Router /exports/{name}/{file} [get]
func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	pipelineName, fileName := router.Param(r, 0), router.Param(r, 1)
	path, ok := h.outputs.Lookup(pipelineName, fileName)
	if !ok {
		writeError(w, r, &model.NotFoundError{Kind: "export", Name: pipelineName + "/" + fileName})
		return
	}
	http.ServeFile(w, r, path)
}

// ResolveScale returns the pipeline scale matching a definition, creating it
// when none matches
// @Summary Resolve scale
// @Tags scales
// @Accept json
// @Produce json
// @Param name path string true "Pipeline name"
// @Param scale body model.ScaleRequest true "Scale search and defaults"
// @Success 200 {object} pipeline.Scale "Scale"
// @Failure 400 {object} ErrorResponse "Malformed definition"
// @Router /pipelines/{name}/scales [post]
func (h *Handler) ResolveScale(w http.ResponseWriter, r *http.Request) {
	var req model.ScaleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	s, err := p.Scale(req.Definition, req.Defaults, req.DisplayName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Used {
		s.Used = true
	}
	if req.Manual {
		s.Manual = true
	}
	writeJSON(w, http.StatusOK, s)
}

// ListScales lists the scales of a pipeline
// @Summary List scales
// @Tags scales
// @Produce json
// @Param name path string true "Pipeline name"
// @Success 200 {array} pipeline.Scale "Scales in creation order"
// @Router /pipelines/{name}/scales [get]
func (h *Handler) ListScales(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p.Scales())
}

// Bookkeep drops scales that are neither used nor manual
// @Summary Collect unused scales
// @Tags scales
// @Produce json
// @Param name path string true "Pipeline name"
// @Success 200 {object} map[string]interface{} "Removed count"
// @Router /pipelines/{name}/bookkeep [post]
func (h *Handler) Bookkeep(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	removed := p.Bookkeep()
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed, "scales": len(p.Scales())})
}
