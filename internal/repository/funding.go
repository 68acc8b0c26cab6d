package repository

import (
	"context"
	"fmt"

	"github.com/bloodlink/bloodlink/internal/model"
)

// CreateFunding inserts a new funding record. Fundings are append-only;
// there are no update or delete operations.
func (r *Repository) CreateFunding(ctx context.Context, f *model.Funding) error {
	query := `
		INSERT INTO fundings (id, name, email, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		f.ID,
		f.Name,
		f.Email,
		f.Amount,
		f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create funding: %w", err)
	}

	return nil
}

// ListFundings retrieves funding records, newest first, optionally
// filtered by exact contributor email.
func (r *Repository) ListFundings(ctx context.Context, email string) ([]*model.Funding, error) {
	query := `SELECT id, name, email, amount, created_at FROM fundings`
	var args []any

	if email != "" {
		query += ` WHERE email = $1`
		args = append(args, email)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fundings: %w", err)
	}
	defer rows.Close()

	var fundings []*model.Funding
	for rows.Next() {
		var f model.Funding
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Amount, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan funding: %w", err)
		}
		fundings = append(fundings, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fundings: %w", err)
	}

	return fundings, nil
}

// TotalFunding returns the sum of all funding amounts, zero if none.
func (r *Repository) TotalFunding(ctx context.Context) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(amount), 0) FROM fundings`
	if err := r.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to total fundings: %w", err)
	}
	return total, nil
}
