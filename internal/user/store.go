package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/teampulse/pulse/internal/company"
	"github.com/teampulse/pulse/internal/database"
)

// EmailKey is the unique constraint on users.email.
const EmailKey = "users_email_key"

const userColumns = `id, email, password_hash, first_name, last_name, company_id, team_id, role, is_teamlead, avatar_url, created_at, updated_at`

// Store provides database operations for users. Every read and write except
// GetByEmail is scoped to a company.
type Store struct {
	db database.DBTX
}

// NewStore creates a new user store backed by the given pool or transaction.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

func scanUser(scan func(dest ...any) error) (*User, error) {
	u := &User{}
	err := scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CompanyID,
		&u.TeamID, &u.Role, &u.IsTeamlead, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func collectUsers(rows pgx.Rows) ([]*User, error) {
	defer rows.Close()
	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateMember inserts a user into its company. The company row is locked
// while members are counted so that exactly one first member becomes admin,
// and that member is recorded as the company's creator.
func (s *Store) CreateMember(ctx context.Context, p CreateParams) (*User, error) {
	var created *User
	err := database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		companies := company.NewStore(tx)
		if err := companies.Lock(ctx, p.CompanyID); err != nil {
			return err
		}

		var existing int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM users WHERE company_id = $1`, p.CompanyID,
		).Scan(&existing); err != nil {
			return fmt.Errorf("counting company members: %w", err)
		}

		u, err := scanUser(func(dest ...any) error {
			return tx.QueryRow(ctx,
				`INSERT INTO users (email, password_hash, first_name, last_name, company_id, role, avatar_url)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 RETURNING `+userColumns,
				p.Email, p.PasswordHash, p.FirstName, p.LastName, p.CompanyID,
				string(RoleForNewMember(existing)), p.AvatarURL,
			).Scan(dest...)
		})
		if err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}

		if existing == 0 {
			if err := companies.SetCreatorIfEmpty(ctx, p.CompanyID, u.ID); err != nil {
				return err
			}
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return created, nil
}

// GetByID retrieves a user of the company by primary key.
func (s *Store) GetByID(ctx context.Context, companyID, id uuid.UUID) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 AND company_id = $2`, id, companyID,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return u, nil
}

// GetByIDForUpdate is GetByID holding a row lock until the transaction ends.
func (s *Store) GetByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("locking user: %w", err)
	}
	return u, nil
}

// GetProfile retrieves a user of the company with its team populated.
func (s *Store) GetProfile(ctx context.Context, companyID, id uuid.UUID) (*Profile, error) {
	var (
		teamID   *uuid.UUID
		teamName *string
	)
	u, err := scanUser(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name, u.company_id, u.team_id,
			        u.role, u.is_teamlead, u.avatar_url, u.created_at, u.updated_at, t.id, t.team_name
			 FROM users u
			 LEFT JOIN teams t ON t.id = u.team_id AND t.company_id = u.company_id
			 WHERE u.id = $1 AND u.company_id = $2`, id, companyID,
		).Scan(append(dest, &teamID, &teamName)...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting user profile: %w", err)
	}
	p := &Profile{User: *u}
	if teamID != nil && teamName != nil {
		p.Team = &TeamBrief{ID: *teamID, TeamName: *teamName}
	}
	return p, nil
}

// GetByEmail retrieves a user by normalized email address across companies;
// used only to authenticate.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// List returns the company's users ordered by last then first name.
func (s *Store) List(ctx context.Context, companyID uuid.UUID) ([]*User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1
		 ORDER BY last_name, first_name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return collectUsers(rows)
}

// ListByTeam returns the company's users assigned to teamID.
func (s *Store) ListByTeam(ctx context.Context, companyID, teamID uuid.UUID) ([]*User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 AND team_id = $2
		 ORDER BY last_name, first_name`, companyID, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}
	return collectUsers(rows)
}

// ListByIDsForUpdate returns the company's users among ids and locks their
// rows until the transaction ends. Ids from other companies are silently
// absent from the result. Rows are locked in id order.
func (s *Store) ListByIDsForUpdate(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]*User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE company_id = $1 AND id = ANY($2)
		 ORDER BY id FOR UPDATE`, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("locking users by id: %w", err)
	}
	return collectUsers(rows)
}

// UpdateProfile performs a partial update of profile fields.
func (s *Store) UpdateProfile(ctx context.Context, companyID, id uuid.UUID, in UpdateProfileInput) (*User, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if in.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argIdx))
		args = append(args, *in.Email)
		argIdx++
	}
	if in.FirstName != nil {
		setClauses = append(setClauses, fmt.Sprintf("first_name = $%d", argIdx))
		args = append(args, *in.FirstName)
		argIdx++
	}
	if in.LastName != nil {
		setClauses = append(setClauses, fmt.Sprintf("last_name = $%d", argIdx))
		args = append(args, *in.LastName)
		argIdx++
	}
	if in.AvatarURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("avatar_url = $%d", argIdx))
		args = append(args, *in.AvatarURL)
		argIdx++
	}
	if in.Role != nil {
		setClauses = append(setClauses, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, string(*in.Role))
		argIdx++
	}

	if len(setClauses) == 0 {
		return s.GetByID(ctx, companyID, id)
	}
	setClauses = append(setClauses, "updated_at = now()")

	args = append(args, id, companyID)
	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d AND company_id = $%d RETURNING `+userColumns,
		strings.Join(setClauses, ", "), argIdx, argIdx+1,
	)

	u, err := scanUser(func(dest ...any) error {
		return s.db.QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return u, nil
}

// SetMembership sets the user's team and teamlead flag.
func (s *Store) SetMembership(ctx context.Context, companyID, id uuid.UUID, teamID *uuid.UUID, isTeamlead bool) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.db.QueryRow(ctx,
			`UPDATE users SET team_id = $3, is_teamlead = $4, updated_at = now()
			 WHERE id = $1 AND company_id = $2
			 RETURNING `+userColumns, id, companyID, teamID, isTeamlead,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("setting user membership: %w", err)
	}
	return u, nil
}

// SyncTeamleadFlags marks exactly the given members of teamID as team leads.
func (s *Store) SyncTeamleadFlags(ctx context.Context, companyID, teamID uuid.UUID, leadIDs []uuid.UUID) error {
	if leadIDs == nil {
		leadIDs = []uuid.UUID{}
	}
	_, err := s.db.Exec(ctx,
		`UPDATE users SET is_teamlead = (id = ANY($3)), updated_at = now()
		 WHERE company_id = $1 AND team_id = $2 AND is_teamlead <> (id = ANY($3))`,
		companyID, teamID, leadIDs)
	if err != nil {
		return fmt.Errorf("syncing teamlead flags: %w", err)
	}
	return nil
}

// Delete removes a user of the company. It reports how many rows were removed.
func (s *Store) Delete(ctx context.Context, companyID, id uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return 0, fmt.Errorf("deleting user: %w", err)
	}
	return tag.RowsAffected(), nil
}
