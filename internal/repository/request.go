package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bloodlink/bloodlink/internal/model"
)

// Common errors for donation request repository operations.
var (
	ErrRequestNotFound = errors.New("donation request not found")
	ErrEmptyPatch      = errors.New("no updatable fields in patch")
)

// CreateRequest inserts a new donation request.
func (r *Repository) CreateRequest(ctx context.Context, req *model.DonationRequest) error {
	query := `
		INSERT INTO donation_requests (
			id, requester_name, requester_email, recipient_name, recipient_district,
			recipient_upazila, hospital_name, full_address, blood_group, donation_date,
			donation_time, request_message, status, donor_name, donor_email, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	var donorName, donorEmail *string
	if req.Donor != nil {
		donorName = &req.Donor.Name
		donorEmail = &req.Donor.Email
	}

	_, err := r.pool.Exec(ctx, query,
		req.ID,
		req.RequesterName,
		req.RequesterEmail,
		req.RecipientName,
		req.RecipientDistrict,
		req.RecipientUpazila,
		req.HospitalName,
		req.FullAddress,
		req.BloodGroup,
		req.DonationDate,
		req.DonationTime,
		req.RequestMessage,
		req.Status,
		donorName,
		donorEmail,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create donation request: %w", err)
	}

	return nil
}

// GetRequestByID retrieves a donation request by its ID.
func (r *Repository) GetRequestByID(ctx context.Context, id string) (*model.DonationRequest, error) {
	query := requestSelectColumns + ` WHERE id = $1`

	req, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get donation request: %w", err)
	}

	return req, nil
}

// RequestFilter defines optional exact-match filters for listing
// donation requests.
type RequestFilter struct {
	RequesterEmail string
	Status         model.RequestStatus
}

// ListRequests retrieves donation requests matching the filter, newest
// first. A limit of 0 means no cap.
func (r *Repository) ListRequests(ctx context.Context, filter RequestFilter, limit int) ([]*model.DonationRequest, error) {
	query := requestSelectColumns + ` WHERE 1=1`
	var args []any
	argIndex := 1

	if filter.RequesterEmail != "" {
		query += fmt.Sprintf(" AND requester_email = $%d", argIndex)
		args = append(args, filter.RequesterEmail)
		argIndex++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list donation requests: %w", err)
	}
	defer rows.Close()

	var reqs []*model.DonationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation request: %w", err)
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating donation requests: %w", err)
	}

	return reqs, nil
}

// UpdateRequestStatus sets the status of a request and, when a donor is
// supplied, records the donor who claimed it.
func (r *Repository) UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus, donor *model.Donor) error {
	var tag pgconn.CommandTag
	var err error

	if donor != nil {
		query := `UPDATE donation_requests SET status = $2, donor_name = $3, donor_email = $4 WHERE id = $1`
		tag, err = r.pool.Exec(ctx, query, id, status, donor.Name, donor.Email)
	} else {
		query := `UPDATE donation_requests SET status = $2 WHERE id = $1`
		tag, err = r.pool.Exec(ctx, query, id, status)
	}
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}

	return nil
}

// RequestPatch holds the fields a caller may change through a partial
// update. Only non-nil fields are written; everything else - status,
// requester, donor, timestamps - is out of reach of this operation.
type RequestPatch struct {
	RequesterName     *string
	RecipientName     *string
	RecipientDistrict *string
	RecipientUpazila  *string
	HospitalName      *string
	FullAddress       *string
	BloodGroup        *string
	DonationDate      *string
	DonationTime      *string
	RequestMessage    *string
}

// columns returns the column/value pairs for the set fields.
func (p *RequestPatch) columns() ([]string, []any) {
	var cols []string
	var vals []any

	add := func(col string, v *string) {
		if v != nil {
			cols = append(cols, col)
			vals = append(vals, *v)
		}
	}

	add("requester_name", p.RequesterName)
	add("recipient_name", p.RecipientName)
	add("recipient_district", p.RecipientDistrict)
	add("recipient_upazila", p.RecipientUpazila)
	add("hospital_name", p.HospitalName)
	add("full_address", p.FullAddress)
	add("blood_group", p.BloodGroup)
	add("donation_date", p.DonationDate)
	add("donation_time", p.DonationTime)
	add("request_message", p.RequestMessage)

	return cols, vals
}

// UpdateRequestFields applies a partial update restricted to the
// allow-listed fields in RequestPatch.
func (r *Repository) UpdateRequestFields(ctx context.Context, id string, patch RequestPatch) error {
	cols, vals := patch.columns()
	if len(cols) == 0 {
		return ErrEmptyPatch
	}

	query := `UPDATE donation_requests SET `
	args := []any{id}
	for i, col := range cols {
		if i > 0 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", col, i+2)
		args = append(args, vals[i])
	}
	query += " WHERE id = $1"

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update donation request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}

	return nil
}

// DeleteRequest removes a donation request by ID.
func (r *Repository) DeleteRequest(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM donation_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete donation request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}

	return nil
}

// CountRequests returns the total number of donation requests.
func (r *Repository) CountRequests(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM donation_requests`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count donation requests: %w", err)
	}
	return count, nil
}

// CountRequestsByStatus returns the number of requests in the given status.
func (r *Repository) CountRequestsByStatus(ctx context.Context, status model.RequestStatus) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM donation_requests WHERE status = $1`
	if err := r.pool.QueryRow(ctx, query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count donation requests by status: %w", err)
	}
	return count, nil
}

const requestSelectColumns = `
	SELECT id, requester_name, requester_email, recipient_name, recipient_district,
	       recipient_upazila, hospital_name, full_address, blood_group, donation_date,
	       donation_time, request_message, status, donor_name, donor_email, created_at
	FROM donation_requests`

func scanRequest(row scanner) (*model.DonationRequest, error) {
	var req model.DonationRequest
	var donorName, donorEmail *string

	err := row.Scan(
		&req.ID,
		&req.RequesterName,
		&req.RequesterEmail,
		&req.RecipientName,
		&req.RecipientDistrict,
		&req.RecipientUpazila,
		&req.HospitalName,
		&req.FullAddress,
		&req.BloodGroup,
		&req.DonationDate,
		&req.DonationTime,
		&req.RequestMessage,
		&req.Status,
		&donorName,
		&donorEmail,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if donorEmail != nil {
		donor := model.Donor{Email: *donorEmail}
		if donorName != nil {
			donor.Name = *donorName
		}
		req.Donor = &donor
	}

	return &req, nil
}
