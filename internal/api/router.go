package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-vis-pipeline/docs"
	"go-vis-pipeline/internal/api/handler"
	"go-vis-pipeline/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	t := h.Traced

	r.POST("/api/v1/sources", t(h.CreateSource))
	r.GET("/api/v1/sources", t(h.ListSources))
	r.GET("/api/v1/sources/*", t(h.GetSource))

	r.POST("/api/v1/pipelines", t(h.CreatePipeline))
	r.GET("/api/v1/pipelines", t(h.ListPipelines))
	// More specific routes first
	r.POST("/api/v1/pipelines/*/transforms", t(h.AddTransform))
	r.DELETE("/api/v1/pipelines/*/transforms/*", t(h.RemoveTransform))
	r.POST("/api/v1/pipelines/*/aggregate", t(h.Aggregate))
	r.GET("/api/v1/pipelines/*/spec", t(h.GetSpec))
	r.POST("/api/v1/pipelines/*/snapshots", t(h.SaveSnapshot))
	r.GET("/api/v1/pipelines/*/snapshots", t(h.ListSnapshots))
	r.GET("/api/v1/pipelines/*/schema", t(h.GetSchema))
	r.GET("/api/v1/pipelines/*/values", t(h.GetValues))
	r.POST("/api/v1/pipelines/*/exports", t(h.ExportValues))
	r.POST("/api/v1/pipelines/*/scales", t(h.ResolveScale))
	r.GET("/api/v1/pipelines/*/scales", t(h.ListScales))
	r.POST("/api/v1/pipelines/*/bookkeep", t(h.Bookkeep))
	// Generic pipeline routes last
	r.GET("/api/v1/pipelines/*", t(h.GetPipeline))
	r.DELETE("/api/v1/pipelines/*", t(h.DeletePipeline))

	r.GET("/api/v1/exports/*/*", t(h.DownloadExport))

	r.Mount("/swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
