package company

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/database"
)

// NameIndex is the unique index enforcing case-insensitive company names.
const NameIndex = "companies_name_lower_idx"

const companyColumns = `id, name, created_by, created_at`

// Store provides database operations for companies.
type Store struct {
	db database.DBTX
}

// NewStore creates a new company store backed by the given pool or transaction.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

func scanCompany(scan func(dest ...any) error) (*Company, error) {
	c := &Company{}
	if err := scan(&c.ID, &c.Name, &c.CreatedBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new company.
func (s *Store) Create(ctx context.Context, name string) (*Company, error) {
	c, err := scanCompany(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`INSERT INTO companies (name) VALUES ($1) RETURNING `+companyColumns, name,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating company: %w", err)
	}
	return c, nil
}

// GetByID retrieves a company by primary key.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	c, err := scanCompany(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting company by id: %w", err)
	}
	return c, nil
}

// GetOrCreateByName returns the company with the given name, compared
// case-insensitively, creating it when absent.
func (s *Store) GetOrCreateByName(ctx context.Context, name string) (*Company, error) {
	c, err := scanCompany(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`INSERT INTO companies (name) VALUES ($1)
			 ON CONFLICT ((lower(name))) DO NOTHING
			 RETURNING `+companyColumns, name,
		).Scan(dest...)
	})
	if err == nil {
		return c, nil
	}
	if !database.IsNoRows(err) {
		return nil, fmt.Errorf("creating company by name: %w", err)
	}

	c, err = scanCompany(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`SELECT `+companyColumns+` FROM companies WHERE lower(name) = lower($1)`, name,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting company by name: %w", err)
	}
	return c, nil
}

// Lock takes a row lock on the company for the rest of the transaction.
func (s *Store) Lock(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM companies WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		return fmt.Errorf("locking company: %w", err)
	}
	return nil
}

// SetCreatorIfEmpty records userID as the company's creator unless one is
// already set.
func (s *Store) SetCreatorIfEmpty(ctx context.Context, id, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE companies SET created_by = $2 WHERE id = $1 AND created_by IS NULL`, id, userID)
	if err != nil {
		return fmt.Errorf("setting company creator: %w", err)
	}
	return nil
}

// ClearCreator nulls created_by on the company when it points at userID.
func (s *Store) ClearCreator(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE companies SET created_by = NULL WHERE id = $1 AND created_by = $2`, id, userID)
	if err != nil {
		return 0, fmt.Errorf("clearing company creator: %w", err)
	}
	return tag.RowsAffected(), nil
}
