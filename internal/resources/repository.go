package resources

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclub/backend/internal/models"
)

// Repository handles resource persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a resources repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const resourceColumns = `id, organization_id, name, category, hourly_rate_cents, is_active, created_at, updated_at`

func scanResource(row interface{ Scan(...any) error }) (*models.Resource, error) {
	var res models.Resource
	err := row.Scan(&res.ID, &res.OrganizationID, &res.Name, &res.Category, &res.HourlyRateCents,
		&res.IsActive, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Create inserts a resource under an organization.
func (r *Repository) Create(ctx context.Context, res *models.Resource) error {
	const q = `INSERT INTO resources (organization_id, name, category, hourly_rate_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, res.OrganizationID, res.Name, res.Category, res.HourlyRateCents).
		Scan(&res.ID, &res.IsActive, &res.CreatedAt, &res.UpdatedAt)
}

// GetByID returns a resource by ID regardless of active flag; callers decide
// how to treat inactive rows.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	return scanResource(r.pool.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id))
}

// GetActive returns an active resource by ID. Absence is pgx.ErrNoRows.
func (r *Repository) GetActive(ctx context.Context, id uuid.UUID) (*models.Resource, error) {
	return scanResource(r.pool.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1 AND is_active`, id))
}

// ListByOrganization returns active resources of an organization ordered by name.
func (r *Repository) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*models.Resource, error) {
	const q = `SELECT ` + resourceColumns + ` FROM resources
		WHERE organization_id = $1 AND is_active ORDER BY name`
	rows, err := r.pool.Query(ctx, q, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// Update applies a partial update; nil pointers keep stored values.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, category *string, hourlyRateCents *int64) (*models.Resource, error) {
	const q = `UPDATE resources SET
		name = COALESCE($1, name),
		category = COALESCE($2, category),
		hourly_rate_cents = COALESCE($3, hourly_rate_cents),
		updated_at = NOW()
		WHERE id = $4
		RETURNING ` + resourceColumns
	return scanResource(r.pool.QueryRow(ctx, q, name, category, hourlyRateCents, id))
}

// Deactivate soft-deletes a resource. Existing bookings are untouched.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE resources SET is_active = FALSE, updated_at = NOW() WHERE id = $1 AND is_active`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
