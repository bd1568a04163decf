package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vytor/chesscoach/internal/api"
	"github.com/vytor/chesscoach/internal/config"
	"github.com/vytor/chesscoach/internal/db"
	"github.com/vytor/chesscoach/internal/engine"
	"github.com/vytor/chesscoach/internal/jobs"
	"github.com/vytor/chesscoach/internal/logger"
	"github.com/vytor/chesscoach/internal/repository/sqlite"
	"github.com/vytor/chesscoach/internal/services"
	"github.com/vytor/chesscoach/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with background analysis workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg := config.Load()
	log := setupLogger(cfg, os.Stdout, true)

	log.Info("===========================================")
	log.Info("chesscoach server starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("stockfish_path=%s", cfg.StockfishPath)
	log.Debug("analysis_depth=%d deep=%d lines=%d", cfg.AnalysisDepth, cfg.AnalysisDeepDepth, cfg.AnalysisLines)
	log.Debug("eval_timeout=%v", cfg.EvalTimeout)
	log.Debug("engine_pool_size=%d", cfg.EnginePoolSize)
	log.Debug("analysis_worker_count=%d", cfg.AnalysisWorkerCount)
	log.Debug("analysis_queue_size=%d", cfg.AnalysisQueueSize)
	log.Debug("thresholds_path=%s", cfg.ThresholdsPath)

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		return err
	}
	analysisCfg, err := analysisConfig(cfg)
	if err != nil {
		log.Error("failed to load thresholds: %v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.NewContext(ctx, log)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		return err
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	engines, err := engine.NewStockfishPool(ctx, cfg.StockfishPath, cfg.EnginePoolSize)
	if err != nil {
		log.Error("failed to start engine pool: %v", err)
		return err
	}
	defer engines.Close()

	gameRepo := sqlite.NewGameRepository(database.DB)
	analysisRepo := sqlite.NewAnalysisRepository(database.DB)
	metricsRepo := sqlite.NewMetricsRepository(database.DB)

	analysisService := services.NewAnalysisService(gameRepo, analysisRepo, metricsRepo, engines, analysisCfg)
	analysisPool := worker.NewPool(cfg.AnalysisWorkerCount, cfg.AnalysisQueueSize)
	queue := jobs.NewWorkerQueue(analysisPool, analysisService)
	gameService := services.NewGameService(gameRepo, queue)

	srv := &api.Server{
		DB:              database,
		GameService:     gameService,
		AnalysisService: analysisService,
		ProfileService:  services.NewProfileService(metricsRepo),
		RequestTimeout:  30 * time.Second,
	}

	// Worker context outlives request contexts and ends on shutdown.
	workerCtx, cancelWorkers := context.WithCancel(logger.NewContext(context.Background(), log))
	defer cancelWorkers()
	analysisPool.Start(workerCtx)

	if n, err := gameService.ResumeAnalysis(ctx); err != nil {
		log.Warn("failed to resume pending analyses: %v", err)
	} else if n > 0 {
		log.Info("resumed %d pending analyses", n)
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, initiating graceful shutdown")
	case err := <-serveErr:
		if err != nil {
			log.Error("HTTP server error: %v", err)
			analysisPool.Stop()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("stopping analysis pool")
	analysisPool.Stop()

	log.Info("===========================================")
	log.Info("chesscoach server stopped")
	log.Info("===========================================")
	return nil
}
