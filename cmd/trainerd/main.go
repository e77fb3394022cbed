package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/config"
	trainermcp "github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/mcp"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/recommend"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/server"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/session"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/storage"
	"github.com/YisroelArnson/AI-PERSONAL-TRAINER-sub003/internal/timer"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// defaultUserID scopes persisted sessions on a single-user install.
const defaultUserID = 1

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("trainerd starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Open the session repository
	var repo storage.Repository
	switch cfg.Database.Driver {
	case "postgres":
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}
		repo, err = storage.OpenPostgres(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
	default:
		if *migrateOnly {
			log.Info("migrate-only: sqlite needs no migrations, exiting")
			return
		}
		repo, err = storage.OpenSQLite(cfg.Database.Path)
		if err != nil {
			log.Error("failed to open session db", "error", err)
			os.Exit(1)
		}
	}
	defer repo.Close()
	log.Info("session repository ready", "driver", cfg.Database.Driver)

	// Session store, recommendation client, and interval timer
	store := session.NewStore(ctx, repo, defaultUserID, cfg.Session.MaxAge, log)
	client := recommend.NewClient(cfg.Recommender.BaseURL, cfg.Recommender.Token, log)

	// Finishing a work phase auto-completes that set on the exercise under
	// the cursor.
	tm := timer.New(func(p timer.Phase) {
		if p.Kind != timer.PhaseWork {
			return
		}
		if ex, ok := store.Current(); ok {
			store.ToggleSet(ctx, ex.ID, p.SetIndex)
		}
	})

	timerCtx, stopTimer := context.WithCancel(ctx)
	defer stopTimer()
	go tm.Run(timerCtx)

	// HTTP surface for the UI shell, with the MCP server mounted alongside
	srv := server.New(store, tm, client, cfg.Auth.APIKey, log)
	mcpSrv := trainermcp.New(store, tm, Version, log)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv))
	mux.Handle("/", srv)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: mux}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	store.CancelFetch()
	stopTimer()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
