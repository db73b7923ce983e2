package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclub/backend/internal/models"
)

// Repository handles user and role persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, password_hash, display_name, locale, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.Locale, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash, displayName, locale string) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, display_name, locale)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, displayName, locale))
}

// UpdateProfile updates display name and locale; empty values keep the stored ones.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, locale string) (*models.User, error) {
	const q = `UPDATE users SET
		display_name = COALESCE(NULLIF($1, ''), display_name),
		locale = COALESCE(NULLIF($2, ''), locale),
		updated_at = NOW()
		WHERE id = $3
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, displayName, locale, id))
}

// UpdatePassword replaces the stored credential hash.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, passwordHash, id)
	return err
}

// List returns all users with their global roles, newest first.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	const q = `SELECT u.id, u.email, u.display_name, u.locale, u.created_at,
		COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		GROUP BY u.id
		ORDER BY u.created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Locale, &u.CreatedAt, &u.Roles); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// ListRoleNames returns the names of all global roles bound to the user.
func (r *Repository) ListRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	const q = `SELECT r.name FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// GrantRole binds a global role to the user. Returns false if the role name
// does not exist. Granting an already-held role is a no-op.
func (r *Repository) GrantRole(ctx context.Context, userID uuid.UUID, roleName string) (bool, error) {
	var roleID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, roleName).Scan(&roleID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	const q = `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, userID, roleID); err != nil {
		return false, err
	}
	return true, nil
}

// RevokeRole removes a global role binding.
func (r *Repository) RevokeRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	const q = `DELETE FROM user_roles WHERE user_id = $1
		AND role_id = (SELECT id FROM roles WHERE name = $2)`
	_, err := r.pool.Exec(ctx, q, userID, roleName)
	return err
}
