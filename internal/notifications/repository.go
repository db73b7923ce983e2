package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclub/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const emailLogColumns = `id, organization_id, booking_id, recipient, subject, body, status, error, created_at, sent_at`

func scanEmailLog(row interface{ Scan(...any) error }) (*models.EmailLog, error) {
	var el models.EmailLog
	err := row.Scan(&el.ID, &el.OrganizationID, &el.BookingID, &el.Recipient, &el.Subject,
		&el.Body, &el.Status, &el.Error, &el.CreatedAt, &el.SentAt)
	if err != nil {
		return nil, err
	}
	return &el, nil
}

// Create records a queued email attempt.
func (r *Repository) Create(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (organization_id, booking_id, recipient, subject, body, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	if el.Status == "" {
		el.Status = models.EmailQueued
	}
	return r.pool.QueryRow(ctx, q, el.OrganizationID, el.BookingID, el.Recipient, el.Subject, el.Body, el.Status).
		Scan(&el.ID, &el.CreatedAt)
}

// MarkSent flips a queued log entry to sent with a delivery timestamp.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE email_logs SET status = $1, sent_at = NOW() WHERE id = $2`, models.EmailSent, id)
	return err
}

// MarkFailed records a delivery failure.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause string) error {
	_, err := r.pool.Exec(ctx, `UPDATE email_logs SET status = $1, error = $2 WHERE id = $3`, models.EmailFailed, cause, id)
	return err
}

// ListByOrganization returns an organization's email logs, newest first.
func (r *Repository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit int) ([]*models.EmailLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	const q = `SELECT ` + emailLogColumns + ` FROM email_logs
		WHERE organization_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, organizationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		el, err := scanEmailLog(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, el)
	}
	return list, rows.Err()
}
