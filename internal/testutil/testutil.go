// Package testutil provides helpers for database-backed tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bloodlink/bloodlink/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 727272

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates all tables for tests.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	downPath := filepath.Join(root, "migrations", "000001_init.down.sql")
	upPath := filepath.Join(root, "migrations", "000001_init.up.sql")

	downSQL, err := os.ReadFile(downPath)
	if err != nil {
		return fmt.Errorf("read down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(downSQL)); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}

	upSQL, err := os.ReadFile(upPath)
	if err != nil {
		return fmt.Errorf("read up migration: %w", err)
	}
	if _, err := pool.Exec(ctx, string(upSQL)); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}

	return nil
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	return &model.User{
		ID:        UniqueID("user"),
		Name:      "Test User",
		Email:     email,
		Role:      model.RoleDonor,
		Status:    model.UserStatusActive,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestDonor creates an active donor carrying the search attributes.
func NewTestDonor(t testing.TB, email, bloodGroup, district, upazila string) *model.User {
	t.Helper()
	u := NewTestUser(t, email)
	u.BloodGroup = bloodGroup
	u.District = district
	u.Upazila = upazila
	return u
}

// NewTestRequest creates a pending donation request with no donor.
func NewTestRequest(t testing.TB, requesterEmail string) *model.DonationRequest {
	t.Helper()
	return &model.DonationRequest{
		ID:                UniqueID("req"),
		RequesterName:     "Test Requester",
		RequesterEmail:    requesterEmail,
		RecipientName:     "Test Recipient",
		RecipientDistrict: "Dhaka",
		RecipientUpazila:  "Savar",
		HospitalName:      "Test Hospital",
		FullAddress:       "1 Test Road",
		BloodGroup:        "O+",
		DonationDate:      "2026-01-15",
		DonationTime:      "10:00",
		RequestMessage:    "urgent",
		Status:            model.RequestStatusPending,
		CreatedAt:         time.Now().UTC(),
	}
}

// NewTestFunding creates a test funding record.
func NewTestFunding(t testing.TB, email string, amount int64) *model.Funding {
	t.Helper()
	return &model.Funding{
		ID:        UniqueID("fund"),
		Name:      "Test Contributor",
		Email:     email,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
