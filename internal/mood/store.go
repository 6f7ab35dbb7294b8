package mood

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/database"
)

// AuthorDateKey is the unique constraint allowing one entry per author per day.
const AuthorDateKey = "mood_entries_author_date_key"

const entrySelect = `SELECT m.id, m.created_by, m.company_id, m.score, m.note, m.entry_date, m.created_at,
	u.id, u.first_name, u.last_name, u.email, u.avatar_url, u.team_id
	FROM mood_entries m
	LEFT JOIN users u ON u.id = m.created_by`

// Store provides database operations for mood entries. All reads are scoped
// to a company.
type Store struct {
	db database.DBTX
}

// NewStore creates a new mood entry store backed by the given pool or transaction.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	e := &Entry{}
	var (
		day       time.Time
		authorID  *uuid.UUID
		firstName *string
		lastName  *string
		email     *string
		avatarURL *string
		teamID    *uuid.UUID
	)
	err := scan(&e.ID, &e.AuthorID, &e.CompanyID, &e.Score, &e.Note, &day, &e.CreatedAt,
		&authorID, &firstName, &lastName, &email, &avatarURL, &teamID)
	if err != nil {
		return nil, err
	}
	e.Date = NewDate(day)
	if authorID != nil {
		e.Author = &Author{
			ID:        *authorID,
			FirstName: deref(firstName),
			LastName:  deref(lastName),
			Email:     deref(email),
			AvatarURL: deref(avatarURL),
			TeamID:    teamID,
		}
	}
	return e, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *Store) query(ctx context.Context, where string, args ...any) ([]*Entry, error) {
	rows, err := s.db.Query(ctx, entrySelect+" "+where+" ORDER BY m.entry_date DESC, m.created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning mood entry row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) queryOne(ctx context.Context, where string, args ...any) (*Entry, error) {
	return scanEntry(func(dest ...any) error {
		return s.db.QueryRow(ctx, entrySelect+" "+where, args...).Scan(dest...)
	})
}

// Create inserts an entry and returns it with its author populated.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Entry, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`INSERT INTO mood_entries (created_by, company_id, score, note, entry_date)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.AuthorID, p.CompanyID, p.Score, p.Note, p.Date.Time,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating mood entry: %w", err)
	}
	return s.GetByID(ctx, p.CompanyID, id)
}

// ExistsForAuthorOn reports whether the author already has an entry that day.
func (s *Store) ExistsForAuthorOn(ctx context.Context, authorID uuid.UUID, day Date) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM mood_entries WHERE created_by = $1 AND entry_date = $2)`,
		authorID, day.Time,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking mood entry: %w", err)
	}
	return ok, nil
}

// GetByID retrieves an entry of the company.
func (s *Store) GetByID(ctx context.Context, companyID, id uuid.UUID) (*Entry, error) {
	e, err := s.queryOne(ctx, `WHERE m.id = $1 AND m.company_id = $2`, id, companyID)
	if err != nil {
		return nil, fmt.Errorf("getting mood entry by id: %w", err)
	}
	return e, nil
}

// GetByAuthorAndDate retrieves the author's entry for a day.
func (s *Store) GetByAuthorAndDate(ctx context.Context, companyID, authorID uuid.UUID, day Date) (*Entry, error) {
	e, err := s.queryOne(ctx,
		`WHERE m.company_id = $1 AND m.created_by = $2 AND m.entry_date = $3`, companyID, authorID, day.Time)
	if err != nil {
		return nil, fmt.Errorf("getting mood entry by author and date: %w", err)
	}
	return e, nil
}

// List returns every entry of the company.
func (s *Store) List(ctx context.Context, companyID uuid.UUID) ([]*Entry, error) {
	entries, err := s.query(ctx, `WHERE m.company_id = $1`, companyID)
	if err != nil {
		return nil, fmt.Errorf("listing mood entries: %w", err)
	}
	return entries, nil
}

// ListByAuthor returns the author's entries within the company.
func (s *Store) ListByAuthor(ctx context.Context, companyID, authorID uuid.UUID) ([]*Entry, error) {
	entries, err := s.query(ctx, `WHERE m.company_id = $1 AND m.created_by = $2`, companyID, authorID)
	if err != nil {
		return nil, fmt.Errorf("listing mood entries by author: %w", err)
	}
	return entries, nil
}

// ListByTeam returns entries whose author currently belongs to teamID,
// optionally restricted to one day.
func (s *Store) ListByTeam(ctx context.Context, companyID, teamID uuid.UUID, day *Date) ([]*Entry, error) {
	var (
		entries []*Entry
		err     error
	)
	if day == nil {
		entries, err = s.query(ctx, `WHERE m.company_id = $1 AND u.team_id = $2`, companyID, teamID)
	} else {
		entries, err = s.query(ctx, `WHERE m.company_id = $1 AND u.team_id = $2 AND m.entry_date = $3`,
			companyID, teamID, day.Time)
	}
	if err != nil {
		return nil, fmt.Errorf("listing mood entries by team: %w", err)
	}
	return entries, nil
}

// ListByDate returns the company's entries for one day.
func (s *Store) ListByDate(ctx context.Context, companyID uuid.UUID, day Date) ([]*Entry, error) {
	entries, err := s.query(ctx, `WHERE m.company_id = $1 AND m.entry_date = $2`, companyID, day.Time)
	if err != nil {
		return nil, fmt.Errorf("listing mood entries by date: %w", err)
	}
	return entries, nil
}

// DetachAuthor nulls the author of every entry written by userID.
func (s *Store) DetachAuthor(ctx context.Context, companyID, userID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE mood_entries SET created_by = NULL WHERE company_id = $1 AND created_by = $2`, companyID, userID)
	if err != nil {
		return 0, fmt.Errorf("detaching mood entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByAuthor removes every entry written by userID.
func (s *Store) DeleteByAuthor(ctx context.Context, companyID, userID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM mood_entries WHERE company_id = $1 AND created_by = $2`, companyID, userID)
	if err != nil {
		return 0, fmt.Errorf("deleting mood entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

