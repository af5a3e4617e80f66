package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	httpadapter "atrium/internal/adapters/http"
	pg "atrium/internal/adapters/postgres"
	"atrium/internal/config"
	"atrium/internal/ports"
	healthsvc "atrium/internal/services/health"
	searchsvc "atrium/internal/services/search"
	"atrium/internal/workers/rescorer"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		log.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.RunMigrations {
		if err := pg.Migrate(ctx, cfg.DatabaseURL); err != nil {
			log.Error("migrate", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	// Wire repositories to services (ports)
	var _ ports.ProjectRepository = db
	var _ ports.TaskRepository = db
	var _ ports.SearchRepository = db

	scorer := healthsvc.New(db, db, log)
	searcher := searchsvc.New(db, log)

	// Daily batch recompute
	go rescorer.Run(ctx, scorer, cfg.RecomputeInterval, cfg.RecomputeOnStart, log)

	srv := httpadapter.New(scorer, searcher, log)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	errCh := make(chan error, 1)
	go func() { errCh <- http.ListenAndServe(cfg.ListenAddr, r) }()
	log.Info("listening", slog.String("addr", cfg.ListenAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", slog.String("signal", sig.String()))
		cancel()
		time.Sleep(300 * time.Millisecond)
	case err := <-errCh:
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
