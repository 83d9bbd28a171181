package contact

import (
	"encoding/json"
	"net/http"

	"ieeesou/pkg/logger"
	"ieeesou/web"
)

type Handler struct {
	Sender Sender
}

func NewHandler(sender Sender) *Handler {
	return &Handler{Sender: sender}
}

type formPage struct {
	Message Message
	Fields  map[string]string
	Error   string
	Sent    bool
}

type response struct {
	Status string            `json:"status,omitempty"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

const sendFailed = "We could not send your message. Please try again later."

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	web.Render(w, r, http.StatusOK, "contact.html", "Contact", formPage{Sent: r.URL.Query().Get("sent") == "1"})
}

// Submit handles the HTML form and redirects back on success.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	m := Message{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Subject: r.PostFormValue("subject"),
		Body:    r.PostFormValue("message"),
	}
	if errs := m.Validate(); errs != nil {
		web.Render(w, r, http.StatusBadRequest, "contact.html", "Contact", formPage{Message: m, Fields: errs})
		return
	}
	if err := h.Sender.Send(r.Context(), m); err != nil {
		logger.Sugar.Errorf("Contact: %v", err)
		web.Render(w, r, http.StatusBadGateway, "contact.html", "Contact", formPage{Message: m, Error: sendFailed})
		return
	}
	http.Redirect(w, r, "/contact?sent=1", http.StatusSeeOther)
}

// SubmitJSON is the API twin of Submit.
func (h *Handler) SubmitJSON(w http.ResponseWriter, r *http.Request) {
	var m Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&m); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: "Invalid request body"})
		return
	}
	if errs := m.Validate(); errs != nil {
		writeJSON(w, http.StatusBadRequest, response{Error: "validation failed", Fields: errs})
		return
	}
	if err := h.Sender.Send(r.Context(), m); err != nil {
		logger.Sugar.Errorf("Contact: %v", err)
		writeJSON(w, http.StatusBadGateway, response{Error: sendFailed})
		return
	}
	writeJSON(w, http.StatusAccepted, response{Status: "sent"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /contact", h.Page)
	mux.HandleFunc("POST /contact", h.Submit)
	mux.HandleFunc("POST /api/contact", h.SubmitJSON)
}
