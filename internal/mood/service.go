package mood

import (
	"context"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/auth"
	"github.com/teampulse/pulse/internal/database"
	"github.com/teampulse/pulse/internal/tenant"
	"github.com/teampulse/pulse/internal/validate"
)

const msgDuplicate = "Mood entry for this date already exists"

// Repository is the subset of Store used by the service.
type Repository interface {
	Create(ctx context.Context, p CreateParams) (*Entry, error)
	ExistsForAuthorOn(ctx context.Context, authorID uuid.UUID, day Date) (bool, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*Entry, error)
	GetByAuthorAndDate(ctx context.Context, companyID, authorID uuid.UUID, day Date) (*Entry, error)
	List(ctx context.Context, companyID uuid.UUID) ([]*Entry, error)
	ListByAuthor(ctx context.Context, companyID, authorID uuid.UUID) ([]*Entry, error)
	ListByTeam(ctx context.Context, companyID, teamID uuid.UUID, day *Date) ([]*Entry, error)
	ListByDate(ctx context.Context, companyID uuid.UUID, day Date) ([]*Entry, error)
}

// TeamChecker confirms a team belongs to a company.
type TeamChecker interface {
	Exists(ctx context.Context, companyID, id uuid.UUID) (bool, error)
}

// Service records and queries mood entries.
type Service struct {
	repo     Repository
	teams    TeamChecker
	validate *validate.Validator
}

// NewService creates a mood entry service.
func NewService(repo Repository, teams TeamChecker, v *validate.Validator) *Service {
	return &Service{repo: repo, teams: teams, validate: v}
}

// Create records the caller's entry for a day. The existence check only
// produces the friendly message; the unique index on (author, day) is what
// rejects a concurrent duplicate.
func (s *Service) Create(ctx context.Context, scope tenant.Scope, in CreateEntryInput) (*Entry, error) {
	day, err := ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsForAuthorOn(ctx, scope.UserID, day)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict(msgDuplicate)
	}

	e, err := s.repo.Create(ctx, CreateParams{
		AuthorID:  scope.UserID,
		CompanyID: scope.CompanyID,
		Score:     in.Score,
		Note:      in.Note,
		Date:      day,
	})
	if database.IsUniqueViolation(err, AuthorDateKey) {
		return nil, apperr.Wrap(apperr.KindConflict, msgDuplicate, err)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Get returns one entry of the company.
func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*Entry, error) {
	e, err := s.repo.GetByID(ctx, companyID, id)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("Mood entry not found.")
	}
	return e, err
}

// List returns every entry of the company.
func (s *Service) List(ctx context.Context, companyID uuid.UUID) ([]*Entry, error) {
	return s.repo.List(ctx, companyID)
}

// ListByUser returns a user's entries within the company.
func (s *Service) ListByUser(ctx context.Context, companyID, userID uuid.UUID) ([]*Entry, error) {
	return s.repo.ListByAuthor(ctx, companyID, userID)
}

// ForUserOn returns a user's entry for the given day.
func (s *Service) ForUserOn(ctx context.Context, companyID, userID uuid.UUID, date string) (*Entry, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	e, err := s.repo.GetByAuthorAndDate(ctx, companyID, userID, day)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("No mood entry for this date.")
	}
	return e, err
}

// ListByTeam returns the entries of a team's current members.
func (s *Service) ListByTeam(ctx context.Context, companyID, teamID uuid.UUID) ([]*Entry, error) {
	ok, err := s.teams.Exists(ctx, companyID, teamID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("Team not found.")
	}
	return s.repo.ListByTeam(ctx, companyID, teamID, nil)
}

// Today returns the entries for a day visible to viewer: the whole company for
// an admin, the viewer's own team otherwise.
func (s *Service) Today(ctx context.Context, viewer *auth.Account, date string) ([]*Entry, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	if viewer.IsAdmin() {
		return s.repo.ListByDate(ctx, viewer.CompanyID, day)
	}
	if viewer.TeamID == nil {
		return nil, apperr.Validation("User is not assigned to a team.")
	}
	return s.repo.ListByTeam(ctx, viewer.CompanyID, *viewer.TeamID, &day)
}
