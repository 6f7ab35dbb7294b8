package team

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/database"
	"github.com/teampulse/pulse/internal/tenant"
	"github.com/teampulse/pulse/internal/user"
	"github.com/teampulse/pulse/internal/validate"
)

const (
	msgNotFound  = "Team not found."
	msgNameTaken = "Team name already exists."
)

// Repository is the subset of Store used by the service.
type Repository interface {
	Create(ctx context.Context, companyID, createdBy uuid.UUID, name string) (*Team, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*Team, error)
	List(ctx context.Context, companyID uuid.UUID) ([]*Team, error)
	Rename(ctx context.Context, companyID, id uuid.UUID, name string) error
}

// MemberLister lists a team's members.
type MemberLister interface {
	ListByTeam(ctx context.Context, companyID, teamID uuid.UUID) ([]*user.User, error)
}

// Service implements team creation, lookup and renaming. Lead assignment and
// deletion go through the integrity coordinator.
type Service struct {
	repo     Repository
	members  MemberLister
	validate *validate.Validator
}

// NewService creates a team service.
func NewService(repo Repository, members MemberLister, v *validate.Validator) *Service {
	return &Service{repo: repo, members: members, validate: v}
}

// Create adds a team to the caller's company.
func (s *Service) Create(ctx context.Context, scope tenant.Scope, in CreateTeamInput) (*Team, error) {
	in.TeamName = strings.TrimSpace(in.TeamName)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	t, err := s.repo.Create(ctx, scope.CompanyID, scope.UserID, in.TeamName)
	if database.IsUniqueViolation(err, NameKey) {
		return nil, apperr.Wrap(apperr.KindConflict, msgNameTaken, err)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the company's teams.
func (s *Service) List(ctx context.Context, companyID uuid.UUID) ([]*Team, error) {
	return s.repo.List(ctx, companyID)
}

// Get returns a team of the company.
func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Team, error) {
	t, err := s.repo.GetByID(ctx, companyID, id)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound(msgNotFound)
	}
	return t, err
}

// Detail returns a team of the company with its members.
func (s *Service) Detail(ctx context.Context, companyID, id uuid.UUID) (*Detail, error) {
	t, err := s.Get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	members, err := s.members.ListByTeam(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Team: *t, Members: members}, nil
}

// CheckName trims name and validates it as a team name.
func (s *Service) CheckName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := s.validate.Struct(UpdateTeamInput{TeamName: &name}); err != nil {
		return "", err
	}
	return name, nil
}

// Rename changes a team's name within the company.
func (s *Service) Rename(ctx context.Context, companyID, id uuid.UUID, name string) (*Team, error) {
	name, err := s.CheckName(name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Rename(ctx, companyID, id, name); err != nil {
		return nil, RenameError(err)
	}
	return s.Get(ctx, companyID, id)
}

// RenameError maps a Store.Rename failure to the error reported to clients.
func RenameError(err error) error {
	switch {
	case database.IsNoRows(err):
		return apperr.NotFound(msgNotFound)
	case database.IsUniqueViolation(err, NameKey):
		return apperr.Wrap(apperr.KindConflict, msgNameTaken, err)
	}
	return err
}
