package api

import (
	"net/http"

	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/auth"
	"github.com/teampulse/pulse/internal/mood"
	"github.com/teampulse/pulse/internal/tenant"
)

// moodHandler groups mood entry HTTP handlers. Entries are create-and-read
// only.
type moodHandler struct {
	moods     MoodService
	onCreated func()
}

func newMoodHandler(moods MoodService, onCreated func()) *moodHandler {
	if onCreated == nil {
		onCreated = func() {}
	}
	return &moodHandler{moods: moods, onCreated: onCreated}
}

func writeEntries(w http.ResponseWriter, entries []*mood.Entry) {
	if entries == nil {
		entries = []*mood.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// List handles GET /api/moodentries (admin).
func (h *moodHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.moods.List(r.Context(), companyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeEntries(w, entries)
}

// Create handles POST /api/moodentries for the caller.
func (h *moodHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in mood.CreateEntryInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.moods.Create(r.Context(), scope, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.onCreated()
	writeJSON(w, http.StatusCreated, e)
}

// ListByUser handles GET /api/moodentries/user/{userId}.
func (h *moodHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := pathID(r, "userId", "user")
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.moods.ListByUser(r.Context(), companyID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeEntries(w, entries)
}

// UserToday handles GET /api/moodentries/user/{userId}/today?date=.
func (h *moodHandler) UserToday(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := pathID(r, "userId", "user")
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.moods.ForUserOn(r.Context(), companyID, userID, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ListByTeam handles GET /api/moodentries/team/{id}.
func (h *moodHandler) ListByTeam(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	teamID, err := pathID(r, "id", "team")
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries, err := h.moods.ListByTeam(r.Context(), companyID, teamID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeEntries(w, entries)
}

// Today handles GET /api/moodentries/today?date=. Admins see the whole
// company, everyone else their own team.
func (h *moodHandler) Today(w http.ResponseWriter, r *http.Request) {
	viewer := auth.AccountFromContext(r.Context())
	if viewer == nil {
		writeError(w, r, apperr.Authentication("Token not provided or not valid"))
		return
	}

	entries, err := h.moods.Today(r.Context(), viewer, r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeEntries(w, entries)
}

// Get handles GET /api/moodentries/{id}.
func (h *moodHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id", "mood entry")
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := h.moods.Get(r.Context(), companyID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}
