package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("getting user: %w", pgx.ErrNoRows)) {
		t.Error("expected wrapped ErrNoRows to match")
	}
	if IsNoRows(errors.New("other")) {
		t.Error("unexpected match")
	}
}

func TestConstraintClassification(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "users_team_id_fkey"}

	tests := []struct {
		name       string
		err        error
		constraint string
		unique     bool
		foreignKey bool
	}{
		{"unique any", unique, "", true, false},
		{"unique named", fmt.Errorf("inserting: %w", unique), "users_email_key", true, false},
		{"unique other constraint", unique, "teams_company_name_key", false, false},
		{"fk any", fk, "", false, true},
		{"fk named", fk, "users_team_id_fkey", false, true},
		{"plain", errors.New("boom"), "", false, false},
		{"nil", nil, "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.unique {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.unique)
			}
			if got := IsForeignKeyViolation(tt.err, tt.constraint); got != tt.foreignKey {
				t.Errorf("IsForeignKeyViolation() = %v, want %v", got, tt.foreignKey)
			}
		})
	}
}
