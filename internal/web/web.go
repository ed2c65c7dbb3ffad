// Package web serves the workbench API to the local UI.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfplatypus/internal/metrics"
	"github.com/local/pdfplatypus/internal/orchestrator"
	"github.com/local/pdfplatypus/internal/statuscheck"
)

// HealthChecker reports subsystem readiness.
type HealthChecker interface {
	Summary(ctx context.Context) statuscheck.Summary
}

// Options configures the API.
type Options struct {
	// MaxUploadBytes caps a whole upload request.
	MaxUploadBytes int64
}

type Web struct {
	orch      *orchestrator.Orchestrator
	health    HealthChecker
	maxUpload int64
}

func New(orch *orchestrator.Orchestrator, health HealthChecker, opts Options) *Web {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 512 << 20
	}
	return &Web{orch: orch, health: health, maxUpload: opts.MaxUploadBytes}
}

// Handler builds the gin engine with every route registered.
func (w *Web) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	w.RegisterRoutes(r)
	return r
}

func (w *Web) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", w.handleHealth)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/session", w.handleSession)
		api.POST("/files", w.handleUpload)
		api.DELETE("/files", w.handleClear)
		api.DELETE("/files/:scope/:id", w.handleRemove)
		api.PUT("/selection", w.handleSelect)
		api.PUT("/tab", w.handleTab)

		api.PUT("/output/order", w.handleOutputOrder)
		api.GET("/output/download", w.handleDownloadAll)
		api.GET("/output/:id/download", w.handleDownload)
		api.GET("/output/:id/pages", w.handlePages)
		api.GET("/output/:id/pages/:page/thumbnail", w.handleThumbnail)
		api.GET("/output/:id/metadata", w.handleMetadata)
		api.PATCH("/output/:id/metadata", w.handleEditMetadata)
		api.POST("/output/:id/metadata/flush", w.handleFlushMetadata)
		api.POST("/output/:id/metadata/reset", w.handleResetMetadata)

		pages := api.Group("/pages")
		pages.POST("/merge", w.handleMerge)
		pages.POST("/split", w.handleSplit)
		pages.POST("/delete", w.handleDeletePages)
		pages.POST("/rotate", w.handleRotate)
		pages.POST("/reorder", w.handleReorder)
		pages.POST("/images", w.handleImages)

		enhance := api.Group("/enhance")
		enhance.POST("/watermark", w.handleWatermark)
		enhance.POST("/page-numbers", w.handlePageNumbers)
		enhance.POST("/compress", w.handleCompress)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		ev := log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
