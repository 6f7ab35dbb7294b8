package team

import (
	"time"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/user"
)

// Team is a named group of users within a company.
type Team struct {
	ID        uuid.UUID   `json:"id"`
	TeamName  string      `json:"teamName"`
	CompanyID uuid.UUID   `json:"company"`
	CreatedBy *uuid.UUID  `json:"createdBy"`
	TeamLeads []uuid.UUID `json:"teamLeads"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Detail is a team together with its members.
type Detail struct {
	Team
	Members []*user.User `json:"members"`
}

// CreateTeamInput holds the fields required to create a team.
type CreateTeamInput struct {
	TeamName string `json:"teamName" validate:"required,max=50"`
}

// UpdateTeamInput holds optional fields for a team update. TeamLeads, when
// present, replaces the whole lead set.
type UpdateTeamInput struct {
	TeamName  *string      `json:"teamName,omitempty" validate:"omitnil,min=1,max=50"`
	TeamLeads *[]uuid.UUID `json:"teamLeads,omitempty"`
}
