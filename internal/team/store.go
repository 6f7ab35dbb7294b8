package team

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/teampulse/pulse/internal/database"
)

// NameKey is the unique constraint on (company_id, team_name).
const NameKey = "teams_company_name_key"

// MembersKey is the foreign key that blocks deleting a team with members.
const MembersKey = "users_team_id_fkey"

const teamSelect = `SELECT t.id, t.team_name, t.company_id, t.created_by,
	COALESCE((SELECT array_agg(tl.user_id ORDER BY tl.user_id) FROM team_leads tl WHERE tl.team_id = t.id), '{}'),
	t.created_at, t.updated_at
	FROM teams t`

// Store provides database operations for teams and their lead sets.
type Store struct {
	db database.DBTX
}

// NewStore creates a new team store backed by the given pool or transaction.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

func scanTeam(scan func(dest ...any) error) (*Team, error) {
	t := &Team{}
	if err := scan(&t.ID, &t.TeamName, &t.CompanyID, &t.CreatedBy, &t.TeamLeads, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if t.TeamLeads == nil {
		t.TeamLeads = []uuid.UUID{}
	}
	return t, nil
}

// Create inserts a new team into the company.
func (s *Store) Create(ctx context.Context, companyID, createdBy uuid.UUID, name string) (*Team, error) {
	t := &Team{TeamName: name, CompanyID: companyID, CreatedBy: &createdBy, TeamLeads: []uuid.UUID{}}
	err := s.db.QueryRow(ctx,
		`INSERT INTO teams (company_id, team_name, created_by) VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		companyID, name, createdBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating team: %w", err)
	}
	return t, nil
}

// GetByID retrieves a team of the company by primary key.
func (s *Store) GetByID(ctx context.Context, companyID, id uuid.UUID) (*Team, error) {
	t, err := scanTeam(func(dest ...any) error {
		return s.db.QueryRow(ctx, teamSelect+` WHERE t.id = $1 AND t.company_id = $2`, id, companyID).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("getting team by id: %w", err)
	}
	return t, nil
}

// Exists reports whether the team belongs to the company.
func (s *Store) Exists(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM teams WHERE id = $1 AND company_id = $2)`, id, companyID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking team: %w", err)
	}
	return ok, nil
}

// List returns the company's teams ordered by name.
func (s *Store) List(ctx context.Context, companyID uuid.UUID) ([]*Team, error) {
	rows, err := s.db.Query(ctx, teamSelect+` WHERE t.company_id = $1 ORDER BY t.team_name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	teams := []*Team{}
	for rows.Next() {
		t, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// Rename changes the team's name.
func (s *Store) Rename(ctx context.Context, companyID, id uuid.UUID, name string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE teams SET team_name = $3, updated_at = now() WHERE id = $1 AND company_id = $2`,
		id, companyID, name)
	if err != nil {
		return fmt.Errorf("renaming team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("renaming team: %w", pgx.ErrNoRows)
	}
	return nil
}

// ReplaceLeads sets the team's lead set to exactly leadIDs.
func (s *Store) ReplaceLeads(ctx context.Context, teamID uuid.UUID, leadIDs []uuid.UUID) error {
	if leadIDs == nil {
		leadIDs = []uuid.UUID{}
	}
	if _, err := s.db.Exec(ctx,
		`DELETE FROM team_leads WHERE team_id = $1 AND NOT (user_id = ANY($2))`, teamID, leadIDs); err != nil {
		return fmt.Errorf("removing team leads: %w", err)
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO team_leads (team_id, user_id)
		 SELECT $1, unnest($2::uuid[])
		 ON CONFLICT DO NOTHING`, teamID, leadIDs); err != nil {
		return fmt.Errorf("adding team leads: %w", err)
	}
	if _, err := s.db.Exec(ctx, `UPDATE teams SET updated_at = now() WHERE id = $1`, teamID); err != nil {
		return fmt.Errorf("touching team: %w", err)
	}
	return nil
}

// AddLead adds userID to the team's lead set.
func (s *Store) AddLead(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO team_leads (team_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, teamID, userID)
	if err != nil {
		return fmt.Errorf("adding team lead: %w", err)
	}
	return nil
}

// RemoveLead removes userID from the team's lead set.
func (s *Store) RemoveLead(ctx context.Context, teamID, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM team_leads WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("removing team lead: %w", err)
	}
	return nil
}

// RemoveLeadEverywhere removes userID from every lead set in the company.
func (s *Store) RemoveLeadEverywhere(ctx context.Context, companyID, userID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM team_leads tl USING teams t
		 WHERE tl.team_id = t.id AND t.company_id = $1 AND tl.user_id = $2`, companyID, userID)
	if err != nil {
		return 0, fmt.Errorf("removing user from team leads: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClearCreator nulls created_by on every team of the company created by userID.
func (s *Store) ClearCreator(ctx context.Context, companyID, userID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE teams SET created_by = NULL, updated_at = now() WHERE company_id = $1 AND created_by = $2`,
		companyID, userID)
	if err != nil {
		return 0, fmt.Errorf("clearing team creator: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes a team of the company. It reports how many rows were removed.
func (s *Store) Delete(ctx context.Context, companyID, id uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM teams WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return 0, fmt.Errorf("deleting team: %w", err)
	}
	return tag.RowsAffected(), nil
}
