package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/auth"
	"github.com/teampulse/pulse/internal/database"
)

// AuthAdapter adapts user.Store to the auth.AccountLookup interface.
type AuthAdapter struct {
	store *Store
}

// NewAuthAdapter creates a new AuthAdapter wrapping the given user store.
func NewAuthAdapter(store *Store) *AuthAdapter {
	return &AuthAdapter{store: store}
}

// LookupAccount returns the user's current account, or auth.ErrUnknownAccount
// when the user is gone from the company.
func (a *AuthAdapter) LookupAccount(ctx context.Context, companyID, userID uuid.UUID) (*auth.Account, error) {
	u, err := a.store.GetByID(ctx, companyID, userID)
	if database.IsNoRows(err) {
		return nil, auth.ErrUnknownAccount
	}
	if err != nil {
		return nil, err
	}
	return u.Account(), nil
}

// Account adapts a stored user to the access guard's live view.
func (u *User) Account() *auth.Account {
	return &auth.Account{
		ID:         u.ID,
		CompanyID:  u.CompanyID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		TeamID:     u.TeamID,
		IsTeamlead: u.IsTeamlead,
	}
}
