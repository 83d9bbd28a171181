package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ieeesou/config"
	"ieeesou/internal/auth"
	"ieeesou/internal/contact"
	"ieeesou/socket"
	"ieeesou/store"
)

func newApp(t *testing.T, s store.Store) http.Handler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		Server: config.Server{AdminPath: config.DefaultAdminPath},
		Auth: config.Auth{
			JWTSecret:         "test-secret",
			TokenTTL:          time.Hour,
			AdminEmail:        "admin@ieee.example",
			AdminPasswordHash: string(hash),
		},
	}
	hub := socket.NewHub(s, time.Second, "/authentication")
	go hub.Run()

	h, err := Setup(Deps{Config: cfg, Store: s, Hub: hub, Auth: auth.NewService(cfg.Auth), Sender: contact.NoopSender{}})
	require.NoError(t, err)
	return h
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"email":"admin@ieee.example","password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := serve(h, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Token
}

func TestAdminRoutes(t *testing.T) {
	h := newApp(t, store.NewMemory())

	// 1. The admin page sends visitors to sign in
	rr := serve(h, httptest.NewRequest(http.MethodGet, config.DefaultAdminPath, nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/authentication", rr.Header().Get("Location"))

	// 2. With a session it renders the panel
	token := login(t, h)
	req := httptest.NewRequest(http.MethodGet, config.DefaultAdminPath, nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	rr = serve(h, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `data-socket="/ws"`)

	// 3. The content API needs a token and skips CSRF for bearer requests
	req = httptest.NewRequest(http.MethodGet, "/api/admin/events", nil)
	rr = serve(h, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/events",
		strings.NewReader(`{"name":"Conf","date":"2025-01-01","time":"10:00","image":"https://x/c.png","description":"d","speakers":"A"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rr = serve(h, req)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// 4. The public site sees the new event
	rr = serve(h, httptest.NewRequest(http.MethodGet, "/events", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Conf")
}

func TestFormsNeedCSRFToken(t *testing.T) {
	h := newApp(t, store.NewMemory())

	form := url.Values{"name": {"A"}, "email": {"a@example.com"}, "subject": {"s"}, "message": {"m"}}
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := serve(h, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/contact", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="gorilla.csrf.Token"`)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newApp(t, store.NewMemory())
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ieeesou_admin_sessions_active")

	down := newApp(t, store.Unavailable{})
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, httptest.NewRequest(http.MethodGet, "/events", nil)).Code)
}

func TestWebSocketNeedsSession(t *testing.T) {
	h := newApp(t, store.NewMemory())
	server := httptest.NewServer(h)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+login(t, h), nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg socket.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == socket.RenderType {
			assert.Contains(t, string(msg.Payload), `"tab":"dashboard"`)
			return
		}
	}
}

func TestCSRFKey(t *testing.T) {
	key, err := csrfKey(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Len(t, key, 32)

	_, err = csrfKey("short")
	assert.Error(t, err)

	key, err = csrfKey("")
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestOriginHosts(t *testing.T) {
	assert.Equal(t, []string{"ieee.example", "localhost:5173"},
		originHosts([]string{"https://ieee.example", "*", "http://localhost:5173"}))
}
