// Package tenant binds every scoped operation to the company of the
// authenticated caller.
package tenant

import (
	"context"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/auth"
)

// Scope is the company and user an operation runs on behalf of.
type Scope struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
}

// FromContext derives the scope from the verified token claims. Client input
// never selects the company.
func FromContext(ctx context.Context) (Scope, error) {
	claims := auth.ClaimsFromContext(ctx)
	if claims == nil || claims.CompanyID == uuid.Nil {
		return Scope{}, apperr.Authentication("Token not provided or not valid")
	}
	return Scope{CompanyID: claims.CompanyID, UserID: claims.UserID}, nil
}

// CompanyID returns the caller's company id.
func CompanyID(ctx context.Context) (uuid.UUID, error) {
	s, err := FromContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return s.CompanyID, nil
}
