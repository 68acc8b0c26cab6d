package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bloodlink/bloodlink/internal/auth"
	"github.com/bloodlink/bloodlink/internal/model"
	"github.com/bloodlink/bloodlink/internal/repository"
	"github.com/bloodlink/bloodlink/internal/token"
)

type fakeUserStore struct {
	byEmail     map[string]*model.User
	byID        map[string]*model.User
	invalidated []string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]*model.User),
		byID:    make(map[string]*model.User),
	}
}

func (f *fakeUserStore) add(u *model.User) {
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
}

func (f *fakeUserStore) RegisterUser(ctx context.Context, user *model.User) (*model.User, bool, error) {
	if existing, ok := f.byEmail[user.Email]; ok {
		return existing, false, nil
	}
	f.add(user)
	return user, true, nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	users := make([]*model.User, 0, len(f.byID))
	for _, u := range f.byID {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeUserStore) UpdateUserRole(ctx context.Context, id, role string) (string, error) {
	u, ok := f.byID[id]
	if !ok {
		return "", repository.ErrUserNotFound
	}
	u.Role = role
	return u.Email, nil
}

func (f *fakeUserStore) UpdateUserStatus(ctx context.Context, id, status string) (string, error) {
	u, ok := f.byID[id]
	if !ok {
		return "", repository.ErrUserNotFound
	}
	u.Status = status
	return u.Email, nil
}

func (f *fakeUserStore) DeleteIdentity(ctx context.Context, email string) error {
	f.invalidated = append(f.invalidated, email)
	return nil
}

func newUserHandler(store *fakeUserStore) *UserHandler {
	return NewUserHandler(store, token.NewService("test-secret"), store, testLogger())
}

func TestRegister_NewUser(t *testing.T) {
	store := newFakeUserStore()
	h := newUserHandler(store)

	body := `{"name":"Rahim","email":"rahim@example.com","bloodGroup":"A+","district":"Dhaka","upazila":"Savar"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got model.User
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID == "" {
		t.Error("expected generated ID")
	}
	if got.Role != model.RoleDonor {
		t.Errorf("expected default donor role, got %q", got.Role)
	}
	if got.Status != model.UserStatusActive {
		t.Errorf("expected active status, got %q", got.Status)
	}
	if store.byEmail["rahim@example.com"] == nil {
		t.Error("expected user persisted")
	}
}

func TestRegister_ExistingEmail(t *testing.T) {
	store := newFakeUserStore()
	store.add(&model.User{ID: "u1", Email: "rahim@example.com", Name: "Rahim", Role: model.RoleAdmin, Status: model.UserStatusActive})
	h := newUserHandler(store)

	body := `{"name":"Impostor","email":"rahim@example.com","role":"admin"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "User already exists") {
		t.Errorf("expected already-exists message, got %q", rec.Body.String())
	}
	if store.byEmail["rahim@example.com"].Name != "Rahim" {
		t.Error("existing record must not be modified")
	}
}

func TestRegister_MissingEmail(t *testing.T) {
	h := newUserHandler(newFakeUserStore())

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"NoEmail"}`))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestIssueToken_KnownEmail(t *testing.T) {
	store := newFakeUserStore()
	store.add(&model.User{ID: "u1", Email: "rahim@example.com", Role: model.RoleDonor, Status: model.UserStatusActive})
	tokens := token.NewService("test-secret")
	h := NewUserHandler(store, tokens, store, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/auth/jwt", strings.NewReader(`{"email":"rahim@example.com"}`))
	rec := httptest.NewRecorder()
	h.IssueToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	email, err := tokens.Verify(resp["token"])
	if err != nil {
		t.Fatalf("issued token did not verify: %v", err)
	}
	if email != "rahim@example.com" {
		t.Errorf("token bound to wrong email: %q", email)
	}
}

func TestIssueToken_UnknownEmail(t *testing.T) {
	h := newUserHandler(newFakeUserStore())

	req := httptest.NewRequest(http.MethodPost, "/auth/jwt", strings.NewReader(`{"email":"ghost@example.com"}`))
	rec := httptest.NewRecorder()
	h.IssueToken(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unauthorized") {
		t.Errorf("expected unauthorized message, got %q", rec.Body.String())
	}
}

func TestMe(t *testing.T) {
	store := newFakeUserStore()
	store.add(&model.User{ID: "u1", Email: "rahim@example.com", Name: "Rahim", Role: model.RoleDonor, Status: model.UserStatusActive})
	h := newUserHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req = withIdentity(req, &auth.Identity{Email: "rahim@example.com", Role: model.RoleDonor, Status: model.UserStatusActive})
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got model.User
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Name != "Rahim" {
		t.Errorf("unexpected user: %+v", got)
	}
}

func userRouter(h *UserHandler) http.Handler {
	r := chi.NewRouter()
	r.Patch("/users/role/{id}", h.UpdateRole)
	r.Patch("/users/status/{id}", h.UpdateStatus)
	return r
}

func TestUpdateRole(t *testing.T) {
	store := newFakeUserStore()
	store.add(&model.User{ID: "u1", Email: "rahim@example.com", Role: model.RoleDonor, Status: model.UserStatusActive})
	router := userRouter(newUserHandler(store))

	req := httptest.NewRequest(http.MethodPatch, "/users/role/u1", strings.NewReader(`{"role":"volunteer"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.byID["u1"].Role != model.RoleVolunteer {
		t.Errorf("role not updated: %q", store.byID["u1"].Role)
	}
	if len(store.invalidated) != 1 || store.invalidated[0] != "rahim@example.com" {
		t.Errorf("expected cached identity invalidated, got %v", store.invalidated)
	}
}

func TestUpdateRole_UnknownUser(t *testing.T) {
	router := userRouter(newUserHandler(newFakeUserStore()))

	req := httptest.NewRequest(http.MethodPatch, "/users/role/missing", strings.NewReader(`{"role":"admin"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateStatus(t *testing.T) {
	store := newFakeUserStore()
	store.add(&model.User{ID: "u1", Email: "rahim@example.com", Role: model.RoleDonor, Status: model.UserStatusActive})
	router := userRouter(newUserHandler(store))

	req := httptest.NewRequest(http.MethodPatch, "/users/status/u1", strings.NewReader(`{"status":"blocked"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.byID["u1"].Status != model.UserStatusBlocked {
		t.Errorf("status not updated: %q", store.byID["u1"].Status)
	}
	if len(store.invalidated) != 1 {
		t.Error("expected cached identity invalidated")
	}
}

func TestUpdateStatus_InvalidValue(t *testing.T) {
	store := newFakeUserStore()
	store.add(&model.User{ID: "u1", Email: "rahim@example.com", Role: model.RoleDonor, Status: model.UserStatusActive})
	router := userRouter(newUserHandler(store))

	req := httptest.NewRequest(http.MethodPatch, "/users/status/u1", strings.NewReader(`{"status":"suspended"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if store.byID["u1"].Status != model.UserStatusActive {
		t.Error("status must not change on invalid input")
	}
}
