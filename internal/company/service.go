package company

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/database"
	"github.com/teampulse/pulse/internal/validate"
)

// Repository is the subset of Store used by the service.
type Repository interface {
	Create(ctx context.Context, name string) (*Company, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
}

// Service implements the public company operations.
type Service struct {
	repo     Repository
	validate *validate.Validator
}

// NewService creates a company service.
func NewService(repo Repository, v *validate.Validator) *Service {
	return &Service{repo: repo, validate: v}
}

// Create registers a standalone company.
func (s *Service) Create(ctx context.Context, in CreateCompanyInput) (*Company, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.repo.Create(ctx, in.Name)
	if database.IsUniqueViolation(err, NameIndex) {
		return nil, apperr.Wrap(apperr.KindConflict, "Company already exists.", err)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a company by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Company, error) {
	c, err := s.repo.GetByID(ctx, id)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("Company not found.")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
