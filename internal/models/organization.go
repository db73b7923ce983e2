package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a tenant that owns resources and memberships.
type Organization struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Website     string    `json:"website,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Settings    []byte    `json:"settings,omitempty"` // free-form JSON blob
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership kinds. Kind checks are exact: a member does not satisfy a
// manager requirement and vice versa.
const (
	MembershipManager = "manager"
	MembershipMember  = "member"
	MembershipVisitor = "visitor"
)

// ValidMembershipKind reports whether kind is one of the allowed values.
func ValidMembershipKind(kind string) bool {
	switch kind {
	case MembershipManager, MembershipMember, MembershipVisitor:
		return true
	}
	return false
}

// Membership links a user to an organization with a relationship kind.
// At most one active membership exists per (user, organization) pair.
type Membership struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Kind           string    `json:"kind"`
	IsActive       bool      `json:"is_active"`
	JoinedAt       time.Time `json:"joined_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
