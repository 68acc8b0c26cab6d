package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bloodlink/bloodlink/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

// RegisterUser inserts a user unless one with the same email already
// exists. The insert is conditional at the store level (single
// statement), so two concurrent registrations with the same email
// cannot both insert; the loser observes the winner's row.
// Returns the stored record and whether this call created it.
func (r *Repository) RegisterUser(ctx context.Context, user *model.User) (*model.User, bool, error) {
	query := `
		INSERT INTO users (id, name, email, role, status, blood_group, district, upazila, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO NOTHING
	`

	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Role,
		user.Status,
		user.BloodGroup,
		user.District,
		user.Upazila,
		user.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to register user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		existing, err := r.GetUserByEmail(ctx, user.Email)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return user, true, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := userSelectColumns + ` WHERE email = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := userSelectColumns + ` WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// ListUsers retrieves all users, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]*model.User, error) {
	query := userSelectColumns + ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// UpdateUserRole sets the role of the user with the given ID.
// Returns the user's email so callers can invalidate cached identities.
func (r *Repository) UpdateUserRole(ctx context.Context, id, role string) (string, error) {
	query := `UPDATE users SET role = $2 WHERE id = $1 RETURNING email`

	var email string
	if err := r.pool.QueryRow(ctx, query, id, role).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to update user role: %w", err)
	}

	return email, nil
}

// UpdateUserStatus sets the status of the user with the given ID.
// Returns the user's email so callers can invalidate cached identities.
func (r *Repository) UpdateUserStatus(ctx context.Context, id, status string) (string, error) {
	query := `UPDATE users SET status = $2 WHERE id = $1 RETURNING email`

	var email string
	if err := r.pool.QueryRow(ctx, query, id, status).Scan(&email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to update user status: %w", err)
	}

	return email, nil
}

// DonorFilter defines optional exact-match filters for donor search.
type DonorFilter struct {
	BloodGroup string
	District   string
	Upazila    string
}

// SearchDonors retrieves active donors matching all supplied filters.
// Only records with role=donor and status=active are considered.
func (r *Repository) SearchDonors(ctx context.Context, filter DonorFilter) ([]*model.User, error) {
	query := userSelectColumns + ` WHERE role = $1 AND status = $2`
	args := []any{model.RoleDonor, model.UserStatusActive}
	argIndex := 3

	if filter.BloodGroup != "" {
		query += fmt.Sprintf(" AND blood_group = $%d", argIndex)
		args = append(args, filter.BloodGroup)
		argIndex++
	}

	if filter.District != "" {
		query += fmt.Sprintf(" AND district = $%d", argIndex)
		args = append(args, filter.District)
		argIndex++
	}

	if filter.Upazila != "" {
		query += fmt.Sprintf(" AND upazila = $%d", argIndex)
		args = append(args, filter.Upazila)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search donors: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// CountUsers returns the total number of registered users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

const userSelectColumns = `
	SELECT id, name, email, role, status, blood_group, district, upazila, created_at
	FROM users`

// scanner abstracts pgx.Row and pgx.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Status,
		&user.BloodGroup,
		&user.District,
		&user.Upazila,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func collectUsers(rows pgx.Rows) ([]*model.User, error) {
	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
