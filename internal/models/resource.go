package models

import (
	"time"

	"github.com/google/uuid"
)

// Resource categories accepted on create/update.
var ResourceCategories = map[string]bool{
	"tennis":       true,
	"padel":        true,
	"pickleball":   true,
	"squash":       true,
	"table_tennis": true,
}

// Resource is a bookable unit belonging to one organization.
type Resource struct {
	ID              uuid.UUID `json:"id"`
	OrganizationID  uuid.UUID `json:"organization_id"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	HourlyRateCents int64     `json:"hourly_rate_cents"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
