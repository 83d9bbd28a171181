package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ieeesou/config"
	"ieeesou/internal/auth"
	contentHandler "ieeesou/internal/content"
	"ieeesou/internal/content/service"
	"ieeesou/internal/contact"
	"ieeesou/internal/site"
	"ieeesou/middleware"
	"ieeesou/pkg/logger"
	"ieeesou/pkg/metrics"
	"ieeesou/socket"
	"ieeesou/store"
	"ieeesou/web"
)

// Deps are the long-lived services the routes are built on.
type Deps struct {
	Config *config.Config
	Store  store.Store
	Hub    *socket.Hub
	Auth   *auth.Service
	Sender contact.Sender
}

type adminPage struct {
	Socket string
}

func Setup(d Deps) (http.Handler, error) {
	cfg := d.Config
	csrfKey, err := csrfKey(cfg.Auth.CSRFKey)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()

	mux.Handle("/static/", web.Static())
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", health(d.Store))

	// Auth
	authHandler := auth.NewHandler(d.Auth, cfg.Server.AdminPath, cfg.Auth.SecureCookies)
	mux.HandleFunc(auth.SignInPath, authHandler.SignIn)
	mux.HandleFunc("/api/login", authHandler.Login)
	mux.HandleFunc("/auth/logout", authHandler.Logout)

	// Admin panel
	requireAdmin := middleware.RequireAdmin(d.Auth)
	mux.Handle("GET "+cfg.Server.AdminPath, requireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		web.Render(w, r, http.StatusOK, "admin.html", "Admin Panel", adminPage{Socket: "/ws"})
	})))

	// WebSocket
	authAPI := middleware.AuthMiddleware(d.Auth)
	socket.AllowOrigins(cfg.Server.AllowedOrigins)
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r.Context())
		socket.ServeWs(d.Hub, w, r, userID)
	})
	mux.Handle("GET /ws", authAPI(wsHandler))

	// REST API
	contentHandler.NewContentHandler(service.NewContentService(d.Store)).Register(mux, authAPI)
	contact.NewHandler(d.Sender).Register(mux)

	// Public site, including the not-found fallback
	site.NewHandler(site.NewService(d.Store)).Register(mux)

	return middleware.Chain(mux,
		middleware.CORSMiddleware(cfg.Server.AllowedOrigins),
		middleware.CSRF(csrfKey, cfg.Auth.SecureCookies, originHosts(cfg.Server.AllowedOrigins)),
	), nil
}

// csrfKey decodes the 32-byte hex key. Without one a random key is used, so
// forms stop validating across restarts.
func csrfKey(hexKey string) ([]byte, error) {
	if hexKey == "" {
		logger.Sugar.Warn("CSRF_KEY is not set; using a random key for this process")
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate csrf key: %w", err)
		}
		return key, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != 32 {
		return nil, errors.New("CSRF_KEY must be 64 hex characters")
	}
	return key, nil
}

// originHosts turns allowed origins into the host list gorilla/csrf trusts.
func originHosts(origins []string) []string {
	var hosts []string
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}

func health(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}
}
