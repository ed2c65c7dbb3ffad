package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/local/pdfplatypus/internal/autosave"
	cfgpkg "github.com/local/pdfplatypus/internal/config"
	"github.com/local/pdfplatypus/internal/filetype"
	"github.com/local/pdfplatypus/internal/imagerender"
	"github.com/local/pdfplatypus/internal/limiter"
	logpkg "github.com/local/pdfplatypus/internal/logger"
	"github.com/local/pdfplatypus/internal/metrics"
	"github.com/local/pdfplatypus/internal/orchestrator"
	"github.com/local/pdfplatypus/internal/session"
	"github.com/local/pdfplatypus/internal/statuscheck"
	"github.com/local/pdfplatypus/internal/web"
)

func main() {
	cfg := cfgpkg.Load()

	// Init logging
	if err := logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to init logging")
	}
	defer logpkg.Close()
	metrics.Init()

	store := session.New(session.Options{
		MaxFileSize: cfg.Session.MaxFileSize(),
		Acceptor:    filetype.New(),
	})
	renderer := imagerender.New(imagerender.Options{
		Scale:          cfg.Render.Scale,
		JPEGQuality:    cfg.Render.JPEGQuality,
		ThumbnailWidth: cfg.Render.ThumbnailWidth,
		Slots:          limiter.New(limiter.Options{MaxInflight: cfg.Render.MaxConcurrentRenders}),
	})
	saves := autosave.New(cfg.Session.AutosaveDelay)
	orch := orchestrator.New(orchestrator.Dependencies{
		Store:    store,
		Renderer: renderer,
		Autosave: saves,
	})
	health := statuscheck.New(statuscheck.Options{Session: store})

	if !cfg.Logging.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}
	api := web.New(orch, health, web.Options{MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20})
	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// edits still waiting for their autosave are written before exit
		if n := saves.FlushAll(); n > 0 {
			log.Info().Int("saves", n).Msg("flushed pending metadata saves")
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		logpkg.Close()
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
