package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/auth"
)

// User represents a registered account. Company is a strong reference, team a
// weak one.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	CompanyID    uuid.UUID  `json:"company"`
	TeamID       *uuid.UUID `json:"team"`
	Role         auth.Role  `json:"role"`
	IsTeamlead   bool       `json:"isTeamlead"`
	AvatarURL    string     `json:"avatarUrl"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// FullName returns "First Last".
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Ref returns the user's identifying triple for conflict reports.
func (u *User) Ref() apperr.UserRef {
	return apperr.UserRef{ID: u.ID, Name: u.FullName(), Email: u.Email}
}

// InTeam reports whether the user is a member of teamID.
func (u *User) InTeam(teamID uuid.UUID) bool {
	return u.TeamID != nil && *u.TeamID == teamID
}

// TeamBrief is the populated team on a profile.
type TeamBrief struct {
	ID       uuid.UUID `json:"id"`
	TeamName string    `json:"teamName"`
}

// Profile is a user with its team populated.
type Profile struct {
	User
	Team *TeamBrief `json:"team"`
}

// CompanyRef identifies the company a signup joins. Clients send either an id
// string, a company name, or an object carrying "id", "_id" or "name".
type CompanyRef struct {
	ID   uuid.UUID
	Name string
}

// IsZero reports whether no company was given.
func (c CompanyRef) IsZero() bool {
	return c.ID == uuid.Nil && c.Name == ""
}

func (c *CompanyRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = CompanyRef{}
		return nil
	}
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			ID    string `json:"id"`
			MgoID string `json:"_id"`
			Name  string `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		id := obj.ID
		if id == "" {
			id = obj.MgoID
		}
		if id != "" {
			parsed, err := uuid.Parse(id)
			if err != nil {
				return fmt.Errorf("company id: %w", err)
			}
			*c = CompanyRef{ID: parsed}
			return nil
		}
		*c = CompanyRef{Name: strings.TrimSpace(obj.Name)}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if id, err := uuid.Parse(s); err == nil {
		*c = CompanyRef{ID: id}
		return nil
	}
	*c = CompanyRef{Name: s}
	return nil
}

// SignupInput holds the fields required to register a user.
type SignupInput struct {
	Email     string     `json:"email" validate:"required,max=254,emailaddr"`
	Password  string     `json:"password" validate:"required,max=72,password"`
	FirstName string     `json:"firstName" validate:"required,max=50"`
	LastName  string     `json:"lastName" validate:"required,max=50"`
	Company   CompanyRef `json:"company"`
}

// LoginInput holds login credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileInput holds optional fields for a partial profile update.
type UpdateProfileInput struct {
	Email     *string    `json:"email,omitempty" validate:"omitnil,max=254,emailaddr"`
	FirstName *string    `json:"firstName,omitempty" validate:"omitnil,min=1,max=50"`
	LastName  *string    `json:"lastName,omitempty" validate:"omitnil,min=1,max=50"`
	AvatarURL *string    `json:"avatarUrl,omitempty" validate:"omitnil,max=2048"`
	Role      *auth.Role `json:"role,omitempty" validate:"omitnil,oneof=admin user"`
}

// Empty reports whether no field is set.
func (in UpdateProfileInput) Empty() bool {
	return in.Email == nil && in.FirstName == nil && in.LastName == nil && in.AvatarURL == nil && in.Role == nil
}

// NullableID distinguishes an absent JSON field from an explicit null.
type NullableID struct {
	Set bool
	ID  *uuid.UUID
}

func (n *NullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.ID = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(b, &id); err != nil {
		return err
	}
	n.ID = &id
	return nil
}

// MembershipChange moves a user between teams or toggles team leadership.
type MembershipChange struct {
	Team       NullableID `json:"team"`
	IsTeamlead *bool      `json:"isTeamlead,omitempty"`
}

// Empty reports whether the change touches nothing.
func (c MembershipChange) Empty() bool {
	return !c.Team.Set && c.IsTeamlead == nil
}

// CreateParams are the stored fields of a new member. Role is decided inside
// the creating transaction.
type CreateParams struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CompanyID    uuid.UUID
	AvatarURL    string
}

// RoleForNewMember returns the role of a company's next member given how many
// members it already has.
func RoleForNewMember(existing int) auth.Role {
	if existing == 0 {
		return auth.RoleAdmin
	}
	return auth.RoleUser
}

// DefaultAvatarURL builds the generated-initials avatar for a name.
func DefaultAvatarURL(firstName, lastName string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(firstName) + "+" + url.QueryEscape(lastName) + "&background=random"
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
