package company

import (
	"time"

	"github.com/google/uuid"
)

// Company is the root of tenant isolation.
type Company struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedBy *uuid.UUID `json:"createdBy"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CreateCompanyInput holds the fields required to create a company.
type CreateCompanyInput struct {
	Name string `json:"name" validate:"required,max=100"`
}
