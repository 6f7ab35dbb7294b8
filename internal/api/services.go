package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/auth"
	"github.com/teampulse/pulse/internal/company"
	"github.com/teampulse/pulse/internal/mood"
	"github.com/teampulse/pulse/internal/team"
	"github.com/teampulse/pulse/internal/tenant"
	"github.com/teampulse/pulse/internal/user"
)

// The handlers depend on these views of the domain services.

type UserService interface {
	Signup(ctx context.Context, in user.SignupInput) (*user.User, error)
	Login(ctx context.Context, in user.LoginInput) (string, error)
	Profile(ctx context.Context, companyID, id uuid.UUID) (*user.Profile, error)
	List(ctx context.Context, companyID uuid.UUID) ([]*user.User, error)
	Get(ctx context.Context, companyID, id uuid.UUID) (*user.User, error)
	UpdateProfile(ctx context.Context, companyID, actorID, id uuid.UUID, in user.UpdateProfileInput) (*user.User, error)
}

type CompanyService interface {
	Create(ctx context.Context, in company.CreateCompanyInput) (*company.Company, error)
	Get(ctx context.Context, id uuid.UUID) (*company.Company, error)
}

type TeamService interface {
	Create(ctx context.Context, scope tenant.Scope, in team.CreateTeamInput) (*team.Team, error)
	List(ctx context.Context, companyID uuid.UUID) ([]*team.Team, error)
	Get(ctx context.Context, companyID, id uuid.UUID) (*team.Team, error)
	Detail(ctx context.Context, companyID, id uuid.UUID) (*team.Detail, error)
	Rename(ctx context.Context, companyID, id uuid.UUID, name string) (*team.Team, error)
	CheckName(name string) (string, error)
}

type MoodService interface {
	Create(ctx context.Context, scope tenant.Scope, in mood.CreateEntryInput) (*mood.Entry, error)
	Get(ctx context.Context, companyID, id uuid.UUID) (*mood.Entry, error)
	List(ctx context.Context, companyID uuid.UUID) ([]*mood.Entry, error)
	ListByUser(ctx context.Context, companyID, userID uuid.UUID) ([]*mood.Entry, error)
	ForUserOn(ctx context.Context, companyID, userID uuid.UUID, date string) (*mood.Entry, error)
	ListByTeam(ctx context.Context, companyID, teamID uuid.UUID) ([]*mood.Entry, error)
	Today(ctx context.Context, viewer *auth.Account, date string) ([]*mood.Entry, error)
}

// Integrity performs the cascading mutations.
type Integrity interface {
	DeleteUser(ctx context.Context, companyID, actorID, userID uuid.UUID) error
	DeleteTeam(ctx context.Context, companyID, teamID uuid.UUID) error
	AssignTeamLeads(ctx context.Context, companyID, teamID uuid.UUID, leadIDs []uuid.UUID, rename *string) (*team.Team, error)
	ReassignUser(ctx context.Context, companyID, userID uuid.UUID, change user.MembershipChange) (*user.User, error)
}
