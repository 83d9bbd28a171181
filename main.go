package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ieeesou/config"
	"ieeesou/config/database"
	"ieeesou/internal/auth"
	"ieeesou/internal/contact"
	"ieeesou/internal/tasks"
	"ieeesou/pkg/logger"
	"ieeesou/router"
	"ieeesou/socket"
	"ieeesou/store"
)

func main() {
	// 1. Load .env (optional), then the config file and environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	defer logger.Log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Open the document store. Without a usable database the site keeps
	// serving and every content operation reports the store as unavailable.
	docs, db := openStore(ctx, cfg.Store)
	if db != nil {
		defer db.Close()
	}

	// 3. The Hub owns the admin sessions; its loop runs for the process lifetime.
	hub := socket.NewHub(docs, cfg.Admin.BannerTTL, auth.SignInPath)
	go hub.Run()

	authService := auth.NewService(cfg.Auth)
	stopSessions := authService.Subscribe(func(ev auth.SessionEvent) {
		if ev.Kind == auth.SignedOut {
			hub.SignOut(ev.UserID)
		}
	})
	defer stopSessions()

	// 4. Nightly maintenance.
	scheduler, err := tasks.InitScheduler(ctx, cfg.Tasks.UpcomingCron, docs)
	if err != nil {
		logger.Sugar.Errorf("Cron scheduler not started: %v", err)
	} else {
		defer scheduler.Stop()
	}

	handler, err := router.Setup(router.Deps{
		Config: cfg,
		Store:  docs,
		Hub:    hub,
		Auth:   authService,
		Sender: newSender(cfg.Contact),
	})
	if err != nil {
		logger.Sugar.Fatalf("Failed to set up routes: %v", err)
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Sugar.Infof("Go Backend listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar.Fatalf("HTTP server: %v", err)
		}
	}()

	// 5. Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Sugar.Info("Shutting down...")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Sugar.Errorf("Shutdown: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Store) (store.Store, *sql.DB) {
	switch strings.ToLower(cfg.Driver) {
	case "memory":
		logger.Sugar.Warn("Using the in-memory store; content is lost on restart")
		return store.NewMemory(), nil

	case "sqlite":
		db, err := database.Connect(ctx, "sqlite", cfg.SQLitePath)
		if err != nil {
			logger.Sugar.Errorf("SQLite unavailable: %v", err)
			return store.Unavailable{}, nil
		}
		s := store.NewSQLite(db)
		if err := s.Migrate(ctx); err != nil {
			logger.Sugar.Errorf("SQLite migration failed: %v", err)
			db.Close()
			return store.Unavailable{}, nil
		}
		return s, db

	default:
		if cfg.DSN == "" {
			logger.Sugar.Warn("DATABASE_URL is not set; content is unavailable")
			return store.Unavailable{}, nil
		}
		db, err := database.Connect(ctx, "postgres", cfg.DSN)
		if err != nil {
			logger.Sugar.Errorf("Postgres unavailable: %v", err)
			return store.Unavailable{}, nil
		}
		s := store.NewPostgres(db)
		if err := s.Migrate(ctx); err != nil {
			logger.Sugar.Errorf("Postgres migration failed: %v", err)
			db.Close()
			return store.Unavailable{}, nil
		}
		if err := s.Listen(ctx, cfg.DSN); err != nil {
			logger.Sugar.Warnf("Live updates limited to this instance: %v", err)
		}
		return s, db
	}
}

func newSender(cfg config.Contact) contact.Sender {
	if cfg.ResendAPIKey == "" || cfg.To == "" {
		logger.Sugar.Warn("RESEND_API_KEY or CONTACT_TO not set; contact messages are only logged")
		return contact.NoopSender{}
	}
	return contact.NewResendSender(cfg.ResendAPIKey, cfg.From, strings.Split(cfg.To, ","))
}
