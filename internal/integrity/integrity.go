// Package integrity keeps users, teams and mood entries consistent when one
// of them changes. Every cascade runs in a single transaction.
package integrity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/teampulse/pulse/internal/company"
	"github.com/teampulse/pulse/internal/database"
	"github.com/teampulse/pulse/internal/mood"
	"github.com/teampulse/pulse/internal/team"
	"github.com/teampulse/pulse/internal/user"
)

// UserRepo is the user storage the coordinator mutates. The ForUpdate reads
// hold row locks until the transaction ends, so membership checked there
// cannot change before the write that depends on it.
type UserRepo interface {
	GetByIDForUpdate(ctx context.Context, companyID, id uuid.UUID) (*user.User, error)
	ListByTeam(ctx context.Context, companyID, teamID uuid.UUID) ([]*user.User, error)
	ListByIDsForUpdate(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]*user.User, error)
	SetMembership(ctx context.Context, companyID, id uuid.UUID, teamID *uuid.UUID, isTeamlead bool) (*user.User, error)
	SyncTeamleadFlags(ctx context.Context, companyID, teamID uuid.UUID, leadIDs []uuid.UUID) error
	Delete(ctx context.Context, companyID, id uuid.UUID) (int64, error)
}

// TeamRepo is the team storage the coordinator mutates.
type TeamRepo interface {
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*team.Team, error)
	Rename(ctx context.Context, companyID, id uuid.UUID, name string) error
	ReplaceLeads(ctx context.Context, teamID uuid.UUID, leadIDs []uuid.UUID) error
	AddLead(ctx context.Context, teamID, userID uuid.UUID) error
	RemoveLead(ctx context.Context, teamID, userID uuid.UUID) error
	RemoveLeadEverywhere(ctx context.Context, companyID, userID uuid.UUID) (int64, error)
	ClearCreator(ctx context.Context, companyID, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) (int64, error)
}

// MoodRepo is the mood entry storage the coordinator mutates.
type MoodRepo interface {
	DetachAuthor(ctx context.Context, companyID, userID uuid.UUID) (int64, error)
	DeleteByAuthor(ctx context.Context, companyID, userID uuid.UUID) (int64, error)
}

// CompanyRepo is the company storage the coordinator mutates.
type CompanyRepo interface {
	ClearCreator(ctx context.Context, companyID, userID uuid.UUID) (int64, error)
}

// Repos bundles the stores bound to one transaction.
type Repos struct {
	Users     UserRepo
	Teams     TeamRepo
	Moods     MoodRepo
	Companies CompanyRepo
}

// TxRunner runs fn with stores bound to a single transaction, committing when
// fn returns nil.
type TxRunner interface {
	InTx(ctx context.Context, fn func(r Repos) error) error
}

// PgxRunner is the PostgreSQL TxRunner.
type PgxRunner struct {
	db database.DBTX
}

// NewPgxRunner creates a runner opening transactions on db.
func NewPgxRunner(db database.DBTX) *PgxRunner {
	return &PgxRunner{db: db}
}

// InTx implements TxRunner.
func (r *PgxRunner) InTx(ctx context.Context, fn func(r Repos) error) error {
	return database.InTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(Repos{
			Users:     user.NewStore(tx),
			Teams:     team.NewStore(tx),
			Moods:     mood.NewStore(tx),
			Companies: company.NewStore(tx),
		})
	})
}

// Retention decides what happens to a deleted user's mood entries.
type Retention string

const (
	// RetainDetached keeps the entries with their author nulled.
	RetainDetached Retention = "detach"
	// RetainNone deletes the entries with their author.
	RetainNone Retention = "delete"
)

// ParseRetention validates a configured retention policy.
func ParseRetention(s string) (Retention, error) {
	switch r := Retention(s); r {
	case RetainDetached, RetainNone:
		return r, nil
	case "":
		return RetainDetached, nil
	default:
		return "", fmt.Errorf("unknown mood entry retention %q (want %q or %q)", s, RetainDetached, RetainNone)
	}
}
