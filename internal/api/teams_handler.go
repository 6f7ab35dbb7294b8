package api

import (
	"net/http"

	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/team"
	"github.com/teampulse/pulse/internal/tenant"
)

// teamsHandler groups team HTTP handlers. Every operation is confined to the
// caller's company.
type teamsHandler struct {
	teams     TeamService
	integrity Integrity
}

func newTeamsHandler(teams TeamService, integrity Integrity) *teamsHandler {
	return &teamsHandler{teams: teams, integrity: integrity}
}

// List handles GET /api/teams.
func (h *teamsHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	teams, err := h.teams.List(r.Context(), companyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if teams == nil {
		teams = []*team.Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

// Create handles POST /api/teams.
func (h *teamsHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in team.CreateTeamInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.teams.Create(r.Context(), scope, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Get handles GET /api/teams/{id}.
func (h *teamsHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id", "team")
	if err != nil {
		writeError(w, r, err)
		return
	}

	d, err := h.teams.Detail(r.Context(), companyID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Update handles PUT /api/teams/{id}. A teamLeads array replaces the whole
// lead set; a rename sent with it commits only if the leads are accepted.
func (h *teamsHandler) Update(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id", "team")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in team.UpdateTeamInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.TeamName == nil && in.TeamLeads == nil {
		writeError(w, r, apperr.Validation("Nothing to update."))
		return
	}

	var t *team.Team
	if in.TeamLeads == nil {
		t, err = h.teams.Rename(r.Context(), companyID, id, *in.TeamName)
	} else {
		var rename *string
		if in.TeamName != nil {
			name, nameErr := h.teams.CheckName(*in.TeamName)
			if nameErr != nil {
				writeError(w, r, nameErr)
				return
			}
			rename = &name
		}
		t, err = h.integrity.AssignTeamLeads(r.Context(), companyID, id, *in.TeamLeads, rename)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	auditLog(r, "update", "team", id.String(),
		"renamed", in.TeamName != nil,
		"leads_replaced", in.TeamLeads != nil,
	)
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/teams/{id}. A team with members answers 409 and
// lists them.
func (h *teamsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id", "team")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.integrity.DeleteTeam(r.Context(), companyID, id); err != nil {
		writeError(w, r, err)
		return
	}

	auditLog(r, "delete", "team", id.String())
	w.WriteHeader(http.StatusNoContent)
}
