package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"puzzlechess/internal/analysis"
	"puzzlechess/internal/config"
	"puzzlechess/internal/game"
	"puzzlechess/internal/handlers"
	"puzzlechess/internal/logging"
	"puzzlechess/internal/provider"
	"puzzlechess/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		os.Exit(configExit(os.Stderr, err))
	}
	if err := logging.Init(cfg.Debug); err != nil {
		os.Exit(1)
	}
	defer logging.Sync()

	var store *storage.Store
	if cfg.DSN != "" {
		db, err := storage.New(cfg.DSN)
		if err != nil {
			logging.Errorf("database: %v", err)
			os.Exit(1)
		}
		store = storage.NewStore(db)
	}

	var engine analysis.Engine
	if cfg.Engine != "" {
		e, err := analysis.StartUCI(cfg.Engine)
		if err != nil {
			logging.Warnf("analysis disabled: %v", err)
		} else {
			engine = e
			defer e.Close()
		}
	}

	// Initialize session hub
	hub := game.NewHub(cfg.ReplyDelay, store)

	// Initialize HTTP handlers
	h := handlers.NewHandler(hub, provider.NewHTTPSource(cfg.SourceURL), engine)
	h.Store = store
	h.Commit = commit
	h.BuildDate = buildDate

	// no WriteTimeout: SSE streams stay open
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logging.Infof("puzzlechess %s (%s) listening on %s", commit, buildDate, cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Errorf("listen: %v", err)
		os.Exit(1)
	}
}

// configExit reports a configuration error on w and returns the exit code.
// -h has already printed the usage.
func configExit(w io.Writer, err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(w, "puzzlechess: %v\n", err)
	return 2
}
