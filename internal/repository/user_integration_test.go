//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/bloodlink/bloodlink/internal/model"
	"github.com/bloodlink/bloodlink/internal/testutil"
)

// ============================================================================
// User Repository Integration Tests
// ============================================================================

func TestIntegrationUserRepository_RegisterUser(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	email := testutil.UniqueEmail("register")
	user := testutil.NewTestUser(t, email)

	stored, created, err := repo.RegisterUser(ctx, user)
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if !created {
		t.Error("expected created=true for a fresh email")
	}
	if stored.ID != user.ID {
		t.Errorf("ID mismatch: got %q, want %q", stored.ID, user.ID)
	}

	retrieved, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if retrieved.Role != model.RoleDonor || retrieved.Status != model.UserStatusActive {
		t.Errorf("unexpected stored record: %+v", retrieved)
	}
}

func TestIntegrationUserRepository_RegisterUser_DuplicateEmail(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	email := testutil.UniqueEmail("dup")
	first := testutil.NewTestUser(t, email)
	first.Name = "Original"

	if _, _, err := repo.RegisterUser(ctx, first); err != nil {
		t.Fatalf("RegisterUser (first) failed: %v", err)
	}

	second := testutil.NewTestUser(t, email)
	second.Name = "Impostor"
	second.Role = model.RoleAdmin

	stored, created, err := repo.RegisterUser(ctx, second)
	if err != nil {
		t.Fatalf("RegisterUser (second) failed: %v", err)
	}
	if created {
		t.Error("expected created=false for an existing email")
	}
	if stored.ID != first.ID {
		t.Errorf("expected the original record back, got ID %q", stored.ID)
	}
	if stored.Name != "Original" || stored.Role != model.RoleDonor {
		t.Errorf("existing record must not be modified: %+v", stored)
	}

	// Exactly one row for the email survives.
	var count int64
	err = repo.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE email = $1`, email).Scan(&count)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 stored record, got %d", count)
	}
}

func TestIntegrationUserRepository_GetUserByEmail_NotFound(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	_, err := repo.GetUserByEmail(ctx, "nonexistent@example.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}

func TestIntegrationUserRepository_UpdateRoleAndStatus(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	email := testutil.UniqueEmail("patch")
	user := testutil.NewTestUser(t, email)
	if _, _, err := repo.RegisterUser(ctx, user); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}

	gotEmail, err := repo.UpdateUserRole(ctx, user.ID, model.RoleVolunteer)
	if err != nil {
		t.Fatalf("UpdateUserRole failed: %v", err)
	}
	if gotEmail != email {
		t.Errorf("UpdateUserRole returned %q, want %q", gotEmail, email)
	}

	gotEmail, err = repo.UpdateUserStatus(ctx, user.ID, model.UserStatusBlocked)
	if err != nil {
		t.Fatalf("UpdateUserStatus failed: %v", err)
	}
	if gotEmail != email {
		t.Errorf("UpdateUserStatus returned %q, want %q", gotEmail, email)
	}

	retrieved, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if retrieved.Role != model.RoleVolunteer || retrieved.Status != model.UserStatusBlocked {
		t.Errorf("patches not applied: %+v", retrieved)
	}
}

func TestIntegrationUserRepository_UpdateRole_NotFound(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	if _, err := repo.UpdateUserRole(ctx, "nonexistent-id", model.RoleAdmin); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
	if _, err := repo.UpdateUserStatus(ctx, "nonexistent-id", model.UserStatusBlocked); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}

func TestIntegrationUserRepository_SearchDonors_ActiveDonorsOnly(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	donor := testutil.NewTestDonor(t, testutil.UniqueEmail("donor"), "A+", "Dhaka", "Savar")
	if _, _, err := repo.RegisterUser(ctx, donor); err != nil {
		t.Fatalf("RegisterUser (donor) failed: %v", err)
	}

	blocked := testutil.NewTestDonor(t, testutil.UniqueEmail("blocked"), "A+", "Dhaka", "Savar")
	blocked.Status = model.UserStatusBlocked
	if _, _, err := repo.RegisterUser(ctx, blocked); err != nil {
		t.Fatalf("RegisterUser (blocked) failed: %v", err)
	}

	volunteer := testutil.NewTestDonor(t, testutil.UniqueEmail("volunteer"), "A+", "Dhaka", "Savar")
	volunteer.Role = model.RoleVolunteer
	if _, _, err := repo.RegisterUser(ctx, volunteer); err != nil {
		t.Fatalf("RegisterUser (volunteer) failed: %v", err)
	}

	results, err := repo.SearchDonors(ctx, DonorFilter{BloodGroup: "A+", District: "Dhaka", Upazila: "Savar"})
	if err != nil {
		t.Fatalf("SearchDonors failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected exactly the active donor, got %d results", len(results))
	}
	if results[0].Email != donor.Email {
		t.Errorf("unexpected donor: %q", results[0].Email)
	}
}

func TestIntegrationUserRepository_SearchDonors_FilterCombinations(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	a := testutil.NewTestDonor(t, testutil.UniqueEmail("a"), "O-", "Dhaka", "Savar")
	b := testutil.NewTestDonor(t, testutil.UniqueEmail("b"), "O-", "Chittagong", "Hathazari")
	c := testutil.NewTestDonor(t, testutil.UniqueEmail("c"), "B+", "Dhaka", "Dhamrai")
	for _, u := range []*model.User{a, b, c} {
		if _, _, err := repo.RegisterUser(ctx, u); err != nil {
			t.Fatalf("RegisterUser failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter DonorFilter
		want   []string
	}{
		{"no filters", DonorFilter{}, []string{a.Email, b.Email, c.Email}},
		{"blood group", DonorFilter{BloodGroup: "O-"}, []string{a.Email, b.Email}},
		{"district", DonorFilter{District: "Dhaka"}, []string{a.Email, c.Email}},
		{"all three", DonorFilter{BloodGroup: "O-", District: "Dhaka", Upazila: "Savar"}, []string{a.Email}},
		{"no match", DonorFilter{BloodGroup: "AB-"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := repo.SearchDonors(ctx, tt.filter)
			if err != nil {
				t.Fatalf("SearchDonors failed: %v", err)
			}

			got := make(map[string]bool, len(results))
			for _, u := range results {
				got[u.Email] = true
			}
			if len(results) != len(tt.want) {
				t.Fatalf("expected %d results, got %d", len(tt.want), len(results))
			}
			for _, email := range tt.want {
				if !got[email] {
					t.Errorf("missing expected donor %q", email)
				}
			}
		})
	}
}

func TestIntegrationUserRepository_ListAndCount(t *testing.T) {
	ctx, repo := newRepoTestEnv(t)

	for i := 0; i < 3; i++ {
		if _, _, err := repo.RegisterUser(ctx, testutil.NewTestUser(t, testutil.UniqueEmail("list"))); err != nil {
			t.Fatalf("RegisterUser failed: %v", err)
		}
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 3 {
		t.Errorf("expected 3 users, got %d", len(users))
	}

	count, err := repo.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}
