package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lairnan/LairnanChat/internal/auth"
	"github.com/Lairnan/LairnanChat/internal/config"
	"github.com/Lairnan/LairnanChat/internal/db"
	"github.com/Lairnan/LairnanChat/internal/server"
	"github.com/Lairnan/LairnanChat/internal/translate"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file")
	addr := flag.String("addr", "", "listen address, overrides config")
	flag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenURL = *addr
	}

	authSvc, cleanup, err := buildAuthService(log, cfg)
	if err != nil {
		log.Error("initializing auth backend", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	srv := server.New(log, *cfg, authSvc, translate.NewIdentity())
	if err := srv.Start(cfg.ListenURL, cfg.EnableAuth); err != nil {
		log.Error("starting server", "error", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			log.Error("stopping server", "error", err)
		}
	}()

	srv.Wait()
}

// buildAuthService picks the credential backend: Postgres when a DSN is
// configured, in-memory when auth is enabled without one, and an
// accept-anyone service otherwise.
func buildAuthService(log *slog.Logger, cfg *config.Config) (auth.Service, func(), error) {
	noop := func() {}

	if cfg.DatabaseDSN != "" {
		database, err := db.NewDatabase(cfg.DatabaseDSN)
		if err != nil {
			return nil, noop, err
		}
		store, err := auth.NewPostgresStore(database)
		if err != nil {
			database.Close()
			return nil, noop, err
		}
		log.Info("credential store ready", "backend", "postgres")
		return auth.NewStoreService(store), func() { store.Close() }, nil
	}

	if cfg.EnableAuth {
		log.Info("credential store ready", "backend", "memory")
		return auth.NewStoreService(auth.NewMemoryStore()), noop, nil
	}

	return auth.NewAllowAll(), noop, nil
}
