package api

import (
	"log/slog"
	"net/http"

	"github.com/teampulse/pulse/internal/auth"
	"github.com/teampulse/pulse/internal/ratelimit"
)

// auditLog emits a structured audit record for an admin mutation.
func auditLog(r *http.Request, action, resourceType, resourceID string, detail ...any) {
	attrs := []any{
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", ratelimit.ClientKey(r),
		"request_id", RequestIDFromContext(r.Context()),
	}

	if a := auth.AccountFromContext(r.Context()); a != nil {
		attrs = append(attrs, "actor_id", a.ID, "actor_email", a.Email, "company_id", a.CompanyID)
	}

	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}
