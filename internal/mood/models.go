package mood

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one user's mood for one calendar day. Entries are never edited;
// only their author reference is nulled when the author is deleted.
type Entry struct {
	ID        uuid.UUID  `json:"id"`
	AuthorID  *uuid.UUID `json:"-"`
	Author    *Author    `json:"createdBy"`
	CompanyID uuid.UUID  `json:"company"`
	Score     int        `json:"score"`
	Note      *string    `json:"note"`
	Date      Date       `json:"date"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Author is the populated author of an entry.
type Author struct {
	ID        uuid.UUID  `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	AvatarURL string     `json:"avatarUrl"`
	TeamID    *uuid.UUID `json:"team"`
}

// CreateEntryInput holds the fields of a new entry.
type CreateEntryInput struct {
	Score int     `json:"score" validate:"required,gte=1,lte=5"`
	Note  *string `json:"note,omitempty" validate:"omitnil,max=500"`
	Date  string  `json:"date"`
}

// CreateParams are the stored fields of a new entry.
type CreateParams struct {
	AuthorID  uuid.UUID
	CompanyID uuid.UUID
	Score     int
	Note      *string
	Date      Date
}
