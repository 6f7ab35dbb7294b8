package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/auth"
	"github.com/teampulse/pulse/internal/company"
	"github.com/teampulse/pulse/internal/database"
	"github.com/teampulse/pulse/internal/validate"
)

const msgBadCredentials = "Invalid email or password."

// Repository is the subset of Store used by the service.
type Repository interface {
	CreateMember(ctx context.Context, p CreateParams) (*User, error)
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*User, error)
	GetProfile(ctx context.Context, companyID, id uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, companyID uuid.UUID) ([]*User, error)
	UpdateProfile(ctx context.Context, companyID, id uuid.UUID, in UpdateProfileInput) (*User, error)
}

// CompanyResolver finds the company a signup joins.
type CompanyResolver interface {
	GetByID(ctx context.Context, id uuid.UUID) (*company.Company, error)
	GetOrCreateByName(ctx context.Context, name string) (*company.Company, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(claims auth.Claims) (string, error)
}

// Service implements signup, login and profile operations.
type Service struct {
	repo       Repository
	companies  CompanyResolver
	tokens     TokenIssuer
	validate   *validate.Validator
	bcryptCost int
	dummyHash  string
}

// NewService creates a user service. The dummy hash is compared against when
// a login names an unknown email so both paths cost one bcrypt comparison.
func NewService(repo Repository, companies CompanyResolver, tokens TokenIssuer, v *validate.Validator, bcryptCost int) (*Service, error) {
	dummy, err := auth.HashPassword("pulse-dummy-password", bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Service{
		repo:       repo,
		companies:  companies,
		tokens:     tokens,
		validate:   v,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}, nil
}

// Signup registers a user. The first user of a company becomes its admin.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*User, error) {
	in.Email = NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Company.IsZero() {
		return nil, apperr.Validation("company is required.")
	}

	_, err := s.repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("User already exists.")
	case !database.IsNoRows(err):
		return nil, err
	}

	co, err := s.resolveCompany(ctx, in.Company)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.CreateMember(ctx, CreateParams{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CompanyID:    co.ID,
		AvatarURL:    DefaultAvatarURL(in.FirstName, in.LastName),
	})
	if database.IsUniqueViolation(err, EmailKey) {
		return nil, apperr.Wrap(apperr.KindConflict, "User already exists.", err)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) resolveCompany(ctx context.Context, ref CompanyRef) (*company.Company, error) {
	if ref.ID != uuid.Nil {
		co, err := s.companies.GetByID(ctx, ref.ID)
		if database.IsNoRows(err) {
			return nil, apperr.Validation("Company does not exist.")
		}
		return co, err
	}
	if len(ref.Name) > 100 {
		return nil, apperr.Validation("company must be at most 100 characters.")
	}
	return s.companies.GetOrCreateByName(ctx, ref.Name)
}

// Login verifies credentials and issues a session token. Unknown emails and
// wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return "", apperr.Wrap(apperr.KindValidation, "Provide email and password.", err)
	}

	u, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil && !database.IsNoRows(err) {
		return "", err
	}
	if u == nil {
		auth.VerifyPassword(in.Password, s.dummyHash)
		return "", apperr.Authentication(msgBadCredentials)
	}
	if !auth.VerifyPassword(in.Password, u.PasswordHash) {
		return "", apperr.Authentication(msgBadCredentials)
	}

	token, err := s.tokens.Issue(auth.Claims{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CompanyID: u.CompanyID,
	})
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}

// Get returns a user of the company.
func (s *Service) Get(ctx context.Context, companyID, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, companyID, id)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("User not found.")
	}
	return u, err
}

// Profile returns a user of the company with its team populated.
func (s *Service) Profile(ctx context.Context, companyID, id uuid.UUID) (*Profile, error) {
	p, err := s.repo.GetProfile(ctx, companyID, id)
	if database.IsNoRows(err) {
		return nil, apperr.NotFound("User not found.")
	}
	return p, err
}

// List returns the company's users.
func (s *Service) List(ctx context.Context, companyID uuid.UUID) ([]*User, error) {
	return s.repo.List(ctx, companyID)
}

// UpdateProfile applies a partial profile update made by actorID. An admin
// cannot change their own role.
func (s *Service) UpdateProfile(ctx context.Context, companyID, actorID, id uuid.UUID, in UpdateProfileInput) (*User, error) {
	if in.Email != nil {
		e := NormalizeEmail(*in.Email)
		in.Email = &e
	}
	if in.FirstName != nil {
		f := strings.TrimSpace(*in.FirstName)
		in.FirstName = &f
	}
	if in.LastName != nil {
		l := strings.TrimSpace(*in.LastName)
		in.LastName = &l
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Role != nil && actorID == id {
		return nil, apperr.Authorization("You cannot change your own role.")
	}

	u, err := s.repo.UpdateProfile(ctx, companyID, id, in)
	switch {
	case database.IsNoRows(err):
		return nil, apperr.NotFound("User not found.")
	case database.IsUniqueViolation(err, EmailKey):
		return nil, apperr.Wrap(apperr.KindConflict, "Email already in use.", err)
	case err != nil:
		return nil, err
	}
	return u, nil
}
