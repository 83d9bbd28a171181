package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"ieeesou/internal/admin/editor"
	"ieeesou/internal/content/model"
	"ieeesou/internal/content/service"
	"ieeesou/middleware"
	"ieeesou/pkg/logger"
	"ieeesou/store"
)

// ContentHandler is the admin JSON API over events, awards and members.
type ContentHandler struct {
	Service *service.ContentService
}

func NewContentHandler(service *service.ContentService) *ContentHandler {
	return &ContentHandler{Service: service}
}

type SaveResponse struct {
	ID string `json:"id"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps store and validation errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var verr *editor.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, service.ErrUnknownField), errors.Is(err, store.ErrInvalidQuery):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		logger.Sugar.Errorf("Handler: content request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func kindOf(w http.ResponseWriter, r *http.Request) (model.Kind, bool) {
	kind, err := model.ParseKind(r.PathValue("collection"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return "", false
	}
	return kind, true
}

func encodeAll(kind model.Kind, docs []store.Document) []any {
	out := make([]any, len(docs))
	for i, d := range docs {
		out[i] = model.Decode(kind, d)
	}
	return out
}

// decodeValues reads a flat JSON object. Numbers and booleans are accepted
// and turned into their text form.
func decodeValues(r *http.Request) (map[string]string, error) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v := v.(type) {
		case string:
			values[k] = v
		case float64:
			values[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			values[k] = strconv.FormatBool(v)
		case nil:
			values[k] = ""
		default:
			return nil, errors.New("field " + k + " must be a string")
		}
	}
	return values, nil
}

func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindOf(w, r)
	if !ok {
		return
	}
	docs, err := h.Service.List(r.Context(), kind, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, encodeAll(kind, docs))
}

func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindOf(w, r)
	if !ok {
		return
	}
	doc, err := h.Service.Get(r.Context(), kind, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Decode(kind, doc))
}

func (h *ContentHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "", http.StatusCreated)
}

func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, r.PathValue("id"), http.StatusOK)
}

func (h *ContentHandler) save(w http.ResponseWriter, r *http.Request, id string, status int) {
	kind, ok := kindOf(w, r)
	if !ok {
		return
	}
	values, err := decodeValues(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	newID, err := h.Service.Save(r.Context(), kind, id, values)
	if err != nil {
		writeError(w, err)
		return
	}
	userID, _ := middleware.UserID(r.Context())
	logger.Sugar.Infof("%s saved %s %s via API", userID, kind, newID)
	writeJSON(w, status, SaveResponse{ID: newID})
}

func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	kind, ok := kindOf(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := h.Service.Delete(r.Context(), kind, id); err != nil {
		writeError(w, err)
		return
	}
	userID, _ := middleware.UserID(r.Context())
	logger.Sugar.Infof("%s deleted %s %s via API", userID, kind, id)
	w.WriteHeader(http.StatusNoContent)
}

// Register mounts the API on mux behind auth.
func (h *ContentHandler) Register(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	mux.Handle("GET /api/admin/{collection}", auth(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/admin/{collection}", auth(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/admin/{collection}/{id}", auth(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/admin/{collection}/{id}", auth(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/admin/{collection}/{id}", auth(http.HandlerFunc(h.Delete)))
}
