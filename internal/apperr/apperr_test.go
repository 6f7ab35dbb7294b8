package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad"), KindValidation},
		{"conflict wrapped", fmt.Errorf("creating team: %w", Conflict("dup")), KindConflict},
		{"not found", NotFound("missing"), KindNotFound},
		{"plain error", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	if Is(nil, KindInternal) {
		t.Error("nil error should never match a kind")
	}
	if !Is(Authorization("no"), KindAuthorization) {
		t.Error("expected authorization kind to match")
	}
	if Is(Authorization("no"), KindAuthentication) {
		t.Error("authorization should not match authentication")
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("unique violation")
	err := Wrap(KindConflict, "Team name already exists.", cause)

	if !errors.Is(err, cause) {
		t.Error("expected wrapped error to unwrap to cause")
	}
	if err.Error() != "Team name already exists.: unique violation" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestConflictWithUsers(t *testing.T) {
	err := ConflictWithUsers("Team has members", []UserRef{{Name: "A B", Email: "a@x.com"}})

	e, ok := As(fmt.Errorf("deleting team: %w", err))
	if !ok {
		t.Fatal("expected *Error")
	}
	if e.Kind != KindConflict || len(e.Users) != 1 || e.Users[0].Email != "a@x.com" {
		t.Errorf("unexpected error %+v", e)
	}
}
