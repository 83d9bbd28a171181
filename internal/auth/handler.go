package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ieeesou/pkg/logger"
	"ieeesou/web"
)

// SignInPath serves the sign-in form; signed-out visitors end up here.
const SignInPath = "/authentication"

type Handler struct {
	Service   *Service
	AdminPath string
	Secure    bool
}

func NewHandler(service *Service, adminPath string, secure bool) *Handler {
	return &Handler{Service: service, AdminPath: adminPath, Secure: secure}
}

type signInForm struct {
	Email string
	Error string
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignIn serves the sign-in form on GET and signs in on POST.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if t := TokenFromRequest(r); t != "" {
			if _, err := h.Service.Verify(t); err == nil {
				http.Redirect(w, r, h.AdminPath, http.StatusSeeOther)
				return
			}
		}
		web.Render(w, r, http.StatusOK, "signin.html", "Admin Sign In", signInForm{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		email := r.PostFormValue("email")
		token, err := h.Service.SignIn(email, r.PostFormValue("password"))
		if err != nil {
			logger.Sugar.Warnf("Sign-in rejected for %q: %v", email, err)
			web.Render(w, r, statusFor(err), "signin.html", "Admin Sign In", signInForm{Email: email, Error: messageFor(err)})
			return
		}
		h.setCookie(w, token, time.Now().Add(h.Service.TTL()))
		http.Redirect(w, r, h.AdminPath, http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Login is the JSON twin of SignIn for scripts and the API.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	token, err := h.Service.SignIn(req.Email, req.Password)
	if err != nil {
		logger.Sugar.Warnf("API sign-in rejected for %q: %v", req.Email, err)
		http.Error(w, messageFor(err), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{Token: token, ExpiresAt: time.Now().Add(h.Service.TTL())})
}

// Logout revokes the session and sends the browser back to the sign-in page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if t := TokenFromRequest(r); t != "" {
		if err := h.Service.SignOut(t); err != nil {
			logger.Sugar.Warnf("Sign-out with unusable token: %v", err)
		}
	}
	h.setCookie(w, "", time.Unix(0, 0))
	http.Redirect(w, r, SignInPath, http.StatusSeeOther)
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func statusFor(err error) int {
	if errors.Is(err, ErrNotConfigured) {
		return http.StatusServiceUnavailable
	}
	return http.StatusUnauthorized
}

func messageFor(err error) string {
	if errors.Is(err, ErrNotConfigured) {
		return "Sign-in is not available right now."
	}
	return "Invalid email or password."
}
