package rainfall

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclub/backend/internal/models"
)

// Repository handles rainfall persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a rainfall repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, organization_id, recorded_on, amount_mm, notes, recorded_by, created_at`

func scanRecord(row pgx.Row) (*models.RainfallRecord, error) {
	var rec models.RainfallRecord
	err := row.Scan(&rec.ID, &rec.OrganizationID, &rec.RecordedOn, &rec.AmountMM,
		&rec.Notes, &rec.RecordedBy, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert records the rainfall for a day, overwriting an earlier measurement
// of the same (organization, day).
func (r *Repository) Upsert(ctx context.Context, organizationID uuid.UUID, recordedOn time.Time, amountMM float64, notes string, recordedBy uuid.UUID) (*models.RainfallRecord, error) {
	const q = `INSERT INTO rainfall_records (organization_id, recorded_on, amount_mm, notes, recorded_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (organization_id, recorded_on)
		DO UPDATE SET amount_mm = EXCLUDED.amount_mm, notes = EXCLUDED.notes, recorded_by = EXCLUDED.recorded_by
		RETURNING ` + recordColumns
	return scanRecord(r.pool.QueryRow(ctx, q, organizationID, recordedOn, amountMM, notes, recordedBy))
}

// List returns an organization's records, most recent day first.
func (r *Repository) List(ctx context.Context, organizationID uuid.UUID) ([]*models.RainfallRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM rainfall_records
		WHERE organization_id = $1 ORDER BY recorded_on DESC`
	rows, err := r.pool.Query(ctx, q, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.RainfallRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a record; scoped to the organization so a manager cannot
// touch another organization's data. Reports whether a row was removed.
func (r *Repository) Delete(ctx context.Context, organizationID, id uuid.UUID) (bool, error) {
	const q = `DELETE FROM rainfall_records WHERE id = $1 AND organization_id = $2`
	tag, err := r.pool.Exec(ctx, q, id, organizationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MonthlyTotal is one month's aggregated rainfall.
type MonthlyTotal struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	TotalMM float64 `json:"total_mm"`
}

// Summary aggregates rainfall per month, newest year first, months ascending
// within a year.
func (r *Repository) Summary(ctx context.Context, organizationID uuid.UUID) ([]MonthlyTotal, error) {
	const q = `SELECT EXTRACT(YEAR FROM recorded_on)::int,
			EXTRACT(MONTH FROM recorded_on)::int,
			SUM(amount_mm)::float8
		FROM rainfall_records
		WHERE organization_id = $1
		GROUP BY 1, 2
		ORDER BY 1 DESC, 2 ASC`
	rows, err := r.pool.Query(ctx, q, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyTotal
	for rows.Next() {
		var m MonthlyTotal
		if err := rows.Scan(&m.Year, &m.Month, &m.TotalMM); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
