package models

import (
	"time"

	"github.com/google/uuid"
)

// RainfallRecord is one day's measured rainfall at an organization's site.
// One record per (organization, day); recording the same day again
// overwrites the earlier measurement.
type RainfallRecord struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	RecordedOn     time.Time  `json:"recorded_on"`
	AmountMM       float64    `json:"amount_mm"`
	Notes          string     `json:"notes,omitempty"`
	RecordedBy     *uuid.UUID `json:"recorded_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
