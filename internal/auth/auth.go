package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Role is a user's role within their company.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Account is the live view of an authenticated user, re-read from the
// database on every request that needs role or team.
type Account struct {
	ID         uuid.UUID
	CompanyID  uuid.UUID
	Email      string
	FirstName  string
	LastName   string
	Role       Role
	TeamID     *uuid.UUID
	IsTeamlead bool
}

// IsAdmin returns true if the account has the admin role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ErrUnknownAccount is returned by an AccountLookup when the user no longer
// exists in the company.
var ErrUnknownAccount = errors.New("unknown account")

// AccountLookup resolves a token's subject to its current account.
type AccountLookup interface {
	LookupAccount(ctx context.Context, companyID, userID uuid.UUID) (*Account, error)
}
