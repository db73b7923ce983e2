package organizations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclub/backend/internal/models"
)

// Repository handles organization and membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orgColumns = `id, name, slug, description, address, phone, email, website, logo_url, settings, is_active, created_at, updated_at`

func scanOrg(row interface{ Scan(...any) error }) (*models.Organization, error) {
	var o models.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Description, &o.Address, &o.Phone, &o.Email,
		&o.Website, &o.LogoURL, &o.Settings, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateWithManager inserts an organization and its creator's manager
// membership in one transaction, so a failed membership write cannot leave
// an organization behind with no manager.
func (r *Repository) CreateWithManager(ctx context.Context, org *models.Organization, managerID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const insertOrg = `INSERT INTO organizations (name, slug, description, address, phone, email, website)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, logo_url, settings, is_active, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertOrg, org.Name, org.Slug, org.Description, org.Address, org.Phone, org.Email, org.Website).
		Scan(&org.ID, &org.LogoURL, &org.Settings, &org.IsActive, &org.CreatedAt, &org.UpdatedAt); err != nil {
		return err
	}
	const insertManager = `INSERT INTO memberships (user_id, organization_id, kind) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(ctx, insertManager, managerID, org.ID, models.MembershipManager); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns an active organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const q = `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1 AND is_active`
	return scanOrg(r.pool.QueryRow(ctx, q, id))
}

// GetBySlug returns an active organization by slug (exact, case-sensitive).
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	const q = `SELECT ` + orgColumns + ` FROM organizations WHERE slug = $1 AND is_active`
	return scanOrg(r.pool.QueryRow(ctx, q, slug))
}

// List returns all active organizations ordered by name.
func (r *Repository) List(ctx context.Context) ([]*models.Organization, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orgColumns+` FROM organizations WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// UpdateParams holds optional organization fields; nil pointers keep stored values.
type UpdateParams struct {
	Name        *string
	Description *string
	Address     *string
	Phone       *string
	Email       *string
	Website     *string
	Settings    []byte
}

// Update applies a partial update and returns the refreshed row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Organization, error) {
	const q = `UPDATE organizations SET
		name = COALESCE($1, name),
		description = COALESCE($2, description),
		address = COALESCE($3, address),
		phone = COALESCE($4, phone),
		email = COALESCE($5, email),
		website = COALESCE($6, website),
		settings = COALESCE($7, settings),
		updated_at = NOW()
		WHERE id = $8 AND is_active
		RETURNING ` + orgColumns
	return scanOrg(r.pool.QueryRow(ctx, q, p.Name, p.Description, p.Address, p.Phone, p.Email, p.Website, p.Settings, id))
}

// SetLogoURL stores the uploaded logo location.
func (r *Repository) SetLogoURL(ctx context.Context, id uuid.UUID, logoURL string) error {
	const q = `UPDATE organizations SET logo_url = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, logoURL, id)
	return err
}

// Deactivate soft-deletes an organization.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE organizations SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const membershipColumns = `id, user_id, organization_id, kind, is_active, joined_at, updated_at`

func scanMembership(row interface{ Scan(...any) error }) (*models.Membership, error) {
	var m models.Membership
	err := row.Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.Kind, &m.IsActive, &m.JoinedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetActiveMembership returns the single active membership for a (user, org)
// pair. Absence is pgx.ErrNoRows.
func (r *Repository) GetActiveMembership(ctx context.Context, userID, organizationID uuid.UUID) (*models.Membership, error) {
	const q = `SELECT ` + membershipColumns + ` FROM memberships
		WHERE user_id = $1 AND organization_id = $2 AND is_active`
	return scanMembership(r.pool.QueryRow(ctx, q, userID, organizationID))
}

// AddMembership inserts an active membership. A second active row for the
// same pair violates the partial unique index and surfaces as a conflict.
func (r *Repository) AddMembership(ctx context.Context, userID, organizationID uuid.UUID, kind string) (*models.Membership, error) {
	const q = `INSERT INTO memberships (user_id, organization_id, kind)
		VALUES ($1, $2, $3)
		RETURNING ` + membershipColumns
	return scanMembership(r.pool.QueryRow(ctx, q, userID, organizationID, kind))
}

// RemoveMembership deactivates a membership; the row is kept for history.
func (r *Repository) RemoveMembership(ctx context.Context, userID, organizationID uuid.UUID) (bool, error) {
	const q = `UPDATE memberships SET is_active = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND organization_id = $2 AND is_active`
	tag, err := r.pool.Exec(ctx, q, userID, organizationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Member is a membership joined with user details for member listings.
type Member struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Kind        string    `json:"kind"`
	JoinedAt    time.Time `json:"joined_at"`
}

// ListMembers returns active members of an organization, oldest first.
func (r *Repository) ListMembers(ctx context.Context, organizationID uuid.UUID) ([]Member, error) {
	const q = `SELECT m.id, m.user_id, u.email, u.display_name, m.kind, m.joined_at
		FROM memberships m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1 AND m.is_active
		ORDER BY m.joined_at`
	rows, err := r.pool.Query(ctx, q, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Email, &m.DisplayName, &m.Kind, &m.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ListForUser returns active organizations the user holds an active membership in.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	const q = `SELECT o.id, o.name, o.slug, o.description, o.address, o.phone, o.email,
		o.website, o.logo_url, o.settings, o.is_active, o.created_at, o.updated_at
		FROM organizations o
		JOIN memberships m ON m.organization_id = o.id
		WHERE m.user_id = $1 AND m.is_active AND o.is_active
		ORDER BY o.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Stats holds per-organization counters for the manager dashboard.
type Stats struct {
	Members           int `json:"members"`
	Resources         int `json:"resources"`
	BookingsLast30Day int `json:"bookings_last_30_days"`
}

// GetStats returns member, resource, and recent booking counts.
func (r *Repository) GetStats(ctx context.Context, organizationID uuid.UUID) (*Stats, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM memberships WHERE organization_id = $1 AND is_active),
		(SELECT COUNT(*) FROM resources WHERE organization_id = $1 AND is_active),
		(SELECT COUNT(*) FROM bookings WHERE organization_id = $1 AND created_at >= NOW() - INTERVAL '30 days')`
	var s Stats
	if err := r.pool.QueryRow(ctx, q, organizationID).Scan(&s.Members, &s.Resources, &s.BookingsLast30Day); err != nil {
		return nil, err
	}
	return &s, nil
}

// UserExists reports whether the user id references an active account.
func (r *Repository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND is_active)`, userID).Scan(&exists)
	return exists, err
}
