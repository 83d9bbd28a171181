package site

import (
	"encoding/json"
	"errors"
	"net/http"

	"ieeesou/internal/content/model"
	"ieeesou/pkg/logger"
	"ieeesou/pkg/page"
	"ieeesou/store"
	"ieeesou/web"
)

// Handler serves the public pages and their JSON twins.
type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Search is the data every searchable listing page renders its form with.
type Search struct {
	Action string
	Query  string
	Year   string
}

type teamPage struct {
	Search
	Heading string
	Intro   string
	Members []model.Member
	Groups  []Group
}

type membersPage struct {
	Search
	MemberPage
}

type eventsPage struct {
	Search
	Events []model.Event
}

type achievementPage struct {
	Search
	Achievements
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func status(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail renders err as a page: missing documents get the not-found page.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	code := status(err)
	if code == http.StatusNotFound {
		NotFound(w, r)
		return
	}
	logger.Sugar.Errorf("Site: %s %s: %v", r.Method, r.URL.Path, err)
	msg := "Something went wrong. Please try again later."
	if code == http.StatusServiceUnavailable {
		msg = "Content is temporarily unavailable. Please try again later."
	}
	web.Render(w, r, code, "error.html", "Error", msg)
}

func failJSON(w http.ResponseWriter, r *http.Request, err error) {
	code := status(err)
	if code == http.StatusInternalServerError {
		logger.Sugar.Errorf("Site: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, code, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

// NotFound renders the not-found page with a 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	web.Render(w, r, http.StatusNotFound, "notfound.html", "Page Not Found", r.URL.Path)
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.Service.Home(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "home.html", "", home)
}

func (h *Handler) HomeJSON(w http.ResponseWriter, r *http.Request) {
	home, err := h.Service.Home(r.Context())
	if err != nil {
		failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, home)
}

func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	q, year := r.URL.Query().Get("q"), r.URL.Query().Get("year")
	events, err := h.Service.Events(r.Context(), q, year)
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "events.html", "Events", eventsPage{
		Search: Search{Action: "/events", Query: q, Year: year},
		Events: events,
	})
}

func (h *Handler) EventsJSON(w http.ResponseWriter, r *http.Request) {
	events, err := h.Service.Events(r.Context(), r.URL.Query().Get("q"), r.URL.Query().Get("year"))
	if err != nil {
		failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	a, err := h.Service.Achievements(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "achievement.html", "Achievements", achievementPage{
		Search:       Search{Action: "/achievement", Query: q},
		Achievements: a,
	})
}

func (h *Handler) AchievementsJSON(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Achievements(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// redirect keeps the query string when moving to target.
func redirect(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		to := target
		if r.URL.RawQuery != "" {
			to += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, to, http.StatusMovedPermanently)
	}
}

func (h *Handler) Faculty(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	members, err := h.Service.Faculty(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "team.html", "Faculty Advisor", teamPage{
		Search:  Search{Action: r.URL.Path, Query: q},
		Heading: "Faculty Advisor",
		Intro:   "The faculty who guide the student branch.",
		Members: members,
	})
}

func (h *Handler) Advisory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	members, err := h.Service.Advisory(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "team.html", "Advisory Board", teamPage{
		Search:  Search{Action: r.URL.Path, Query: q},
		Heading: "Advisory Board",
		Intro:   "Alumni and mentors who advise the branch.",
		Members: members,
	})
}

func (h *Handler) Executive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	groups, err := h.Service.Executive(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "groups.html", "Executive Members", teamPage{
		Search:  Search{Action: r.URL.Path, Query: q},
		Heading: "Executive Members",
		Intro:   "Meet the executive members of each IEEE society.",
		Groups:  groups,
	})
}

func (h *Handler) Core(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	groups, err := h.Service.Core(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "groups.html", "Core Members", teamPage{
		Search:  Search{Action: r.URL.Path, Query: q},
		Heading: "Core Members",
		Intro:   "Meet the core team members of each IEEE committee.",
		Groups:  groups,
	})
}

func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	mp, err := h.Service.Members(r.Context(), q, page.Parse(r.URL.Query()))
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "members.html", "Members", membersPage{
		Search:     Search{Action: r.URL.Path, Query: q},
		MemberPage: mp,
	})
}

// TeamJSON serves every team section under /api/team/{section}.
func (h *Handler) TeamJSON(w http.ResponseWriter, r *http.Request) {
	ctx, q := r.Context(), r.URL.Query().Get("q")
	var (
		out any
		err error
	)
	switch r.PathValue("section") {
	case "faculty-advisor":
		out, err = h.Service.Faculty(ctx, q)
	case "advisory-board":
		out, err = h.Service.Advisory(ctx, q)
	case "executive-members":
		out, err = h.Service.Executive(ctx, q)
	case "core-members":
		out, err = h.Service.Core(ctx, q)
	case "members":
		out, err = h.Service.Members(ctx, q, page.Parse(r.URL.Query()))
	default:
		err = store.ErrNotFound
	}
	if err != nil {
		failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) EventDetails(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.Event(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "event.html", e.Name, e)
}

func (h *Handler) AwardDetails(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Award(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "award.html", a.Title, a)
}

func (h *Handler) MemberDetails(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Member(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	web.Render(w, r, http.StatusOK, "member.html", m.Name, m)
}

func (h *Handler) EventJSON(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.Event(r.Context(), r.PathValue("id"))
	if err != nil {
		failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) AwardJSON(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Award(r.Context(), r.PathValue("id"))
	if err != nil {
		failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) MemberJSON(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Member(r.Context(), r.PathValue("id"))
	if err != nil {
		failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Register mounts the public routes on mux. Paths nothing else claims
// render the not-found page.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /events", h.Events)
	mux.HandleFunc("GET /achievement", h.Achievements)
	mux.HandleFunc("GET /achievements", redirect("/achievement"))
	mux.HandleFunc("GET /awards", redirect("/achievement"))
	mux.HandleFunc("GET /team/faculty-advisor", h.Faculty)
	mux.HandleFunc("GET /team/advisory-board", h.Advisory)
	mux.HandleFunc("GET /team/executive-members", h.Executive)
	mux.HandleFunc("GET /team/core-members", h.Core)
	mux.HandleFunc("GET /team/members", h.Members)
	mux.HandleFunc("GET /eventdetails/{id}", h.EventDetails)
	mux.HandleFunc("GET /awarddetails/{id}", h.AwardDetails)
	mux.HandleFunc("GET /memberdetails/{id}", h.MemberDetails)

	mux.HandleFunc("GET /api/home", h.HomeJSON)
	mux.HandleFunc("GET /api/events", h.EventsJSON)
	mux.HandleFunc("GET /api/events/{id}", h.EventJSON)
	mux.HandleFunc("GET /api/achievements", h.AchievementsJSON)
	mux.HandleFunc("GET /api/awards/{id}", h.AwardJSON)
	mux.HandleFunc("GET /api/team/{section}", h.TeamJSON)
	mux.HandleFunc("GET /api/members/{id}", h.MemberJSON)

	mux.HandleFunc("/", NotFound)
}
