package api

import (
	"net/http"

	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/tenant"
	"github.com/teampulse/pulse/internal/user"
)

// usersHandler groups the admin user-management handlers.
type usersHandler struct {
	users     UserService
	integrity Integrity
}

func newUsersHandler(users UserService, integrity Integrity) *usersHandler {
	return &usersHandler{users: users, integrity: integrity}
}

// updateUserRequest is the body of PUT /api/users/{id}: profile fields plus
// an optional team move.
type updateUserRequest struct {
	user.UpdateProfileInput
	user.MembershipChange
}

// List handles GET /api/users.
func (h *usersHandler) List(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	users, err := h.users.List(r.Context(), companyID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []*user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Get handles GET /api/users/{id}.
func (h *usersHandler) Get(w http.ResponseWriter, r *http.Request) {
	companyID, err := tenant.CompanyID(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id", "user")
	if err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.Get(r.Context(), companyID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Update handles PUT /api/users/{id}. The team move runs first since it is
// the part most likely to be rejected.
func (h *usersHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id", "user")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in updateUserRequest
	if err := readJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	profile, membership := in.UpdateProfileInput, in.MembershipChange
	if profile.Empty() && membership.Empty() {
		writeError(w, r, apperr.Validation("Nothing to update."))
		return
	}

	var u *user.User
	if !membership.Empty() {
		if u, err = h.integrity.ReassignUser(r.Context(), scope.CompanyID, id, membership); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if !profile.Empty() {
		if u, err = h.users.UpdateProfile(r.Context(), scope.CompanyID, scope.UserID, id, profile); err != nil {
			writeError(w, r, err)
			return
		}
	}

	auditLog(r, "update", "user", id.String(),
		"profile_changed", !profile.Empty(),
		"membership_changed", !membership.Empty(),
	)
	writeJSON(w, http.StatusOK, u)
}

// Delete handles DELETE /api/users/{id}. Admins cannot delete themselves.
func (h *usersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "id", "user")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.integrity.DeleteUser(r.Context(), scope.CompanyID, scope.UserID, id); err != nil {
		writeError(w, r, err)
		return
	}

	auditLog(r, "delete", "user", id.String())
	w.WriteHeader(http.StatusNoContent)
}
