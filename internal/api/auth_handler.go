package api

import (
	"log/slog"
	"net/http"

	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/auth"
	"github.com/teampulse/pulse/internal/tenant"
	"github.com/teampulse/pulse/internal/user"
)

// authHandler groups signup, login and session HTTP handlers.
type authHandler struct {
	users     UserService
	onSuccess func(kind string)
}

func newAuthHandler(users UserService, onSuccess func(kind string)) *authHandler {
	if onSuccess == nil {
		onSuccess = func(string) {}
	}
	return &authHandler{users: users, onSuccess: onSuccess}
}

// Signup handles POST /api/auth/signup.
func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in user.SignupInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.Signup(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.onSuccess("signup")
	slog.Info("user signed up", "user_id", u.ID, "company_id", u.CompanyID, "role", u.Role)
	writeJSON(w, http.StatusCreated, map[string]any{"user": u})
}

// Login handles POST /api/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in user.LoginInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.users.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.onSuccess("login")
	writeJSON(w, http.StatusOK, map[string]string{"authToken": token})
}

// Me handles GET /api/auth/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.FromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.users.Profile(r.Context(), scope.CompanyID, scope.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": p})
}

// Verify handles GET /api/auth/verify and echoes the decoded token claims.
func (h *authHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, r, apperr.Authentication("Token not provided or not valid"))
		return
	}
	writeJSON(w, http.StatusOK, claims)
}
