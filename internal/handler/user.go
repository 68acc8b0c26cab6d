package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bloodlink/bloodlink/internal/auth"
	"github.com/bloodlink/bloodlink/internal/model"
	"github.com/bloodlink/bloodlink/internal/repository"
	"github.com/bloodlink/bloodlink/internal/token"
)

// UserStore defines the user persistence operations the handler needs.
type UserStore interface {
	RegisterUser(ctx context.Context, user *model.User) (*model.User, bool, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUserRole(ctx context.Context, id, role string) (string, error)
	UpdateUserStatus(ctx context.Context, id, status string) (string, error)
}

// IdentityInvalidator drops a cached identity after a role or status
// change so the next bearer request sees the new value.
type IdentityInvalidator interface {
	DeleteIdentity(ctx context.Context, email string) error
}

// UserHandler handles HTTP requests for user accounts and token issuance.
type UserHandler struct {
	store  UserStore
	tokens *token.Service
	cache  IdentityInvalidator
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore, tokens *token.Service, cache IdentityInvalidator, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		store:  store,
		tokens: tokens,
		cache:  cache,
		logger: logger,
	}
}

// registerRequest is the payload for user registration.
type registerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	BloodGroup string `json:"bloodGroup"`
	District   string `json:"district"`
	Upazila    string `json:"upazila"`
}

// Register handles POST /users.
// Registration is idempotent by email: re-registering an existing email
// reports "User already exists" without touching the stored record.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "email is required")
		return
	}

	role := req.Role
	if role == "" {
		role = model.RoleDonor
	}

	user := &model.User{
		ID:         uuid.New().String(),
		Name:       req.Name,
		Email:      req.Email,
		Role:       role,
		Status:     model.UserStatusActive,
		BloodGroup: req.BloodGroup,
		District:   req.District,
		Upazila:    req.Upazila,
		CreatedAt:  time.Now().UTC(),
	}

	stored, created, err := h.store.RegisterUser(r.Context(), user)
	if err != nil {
		h.logger.Error("failed to register user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !created {
		writeMessage(w, http.StatusOK, "User already exists")
		return
	}

	h.logger.Info("user_registered",
		"user_id", stored.ID,
		"role", stored.Role,
	)

	writeJSON(w, http.StatusOK, stored)
}

// tokenRequest is the payload for token issuance.
type tokenRequest struct {
	Email string `json:"email"`
}

// IssueToken handles POST /auth/jwt.
// A token is issued to any email that exists in the store; there is no
// password step, mirroring the platform's social-login front door.
func (h *UserHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.store.GetUserByEmail(r.Context(), req.Email); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.logger.Error("failed to look up user for token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	signed, err := h.tokens.Issue(req.Email)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": signed})
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	email := auth.EmailFromContext(r.Context())

	user, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeMessage(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("failed to load user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
		return
	}

	if users == nil {
		users = []*model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// roleRequest is the payload for a role patch.
type roleRequest struct {
	Role string `json:"role"`
}

// UpdateRole handles PATCH /users/role/{id}.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Role == "" {
		writeMessage(w, http.StatusBadRequest, "role is required")
		return
	}

	email, err := h.store.UpdateUserRole(r.Context(), id, req.Role)
	if err != nil {
		h.handleUserError(w, err, "failed to update role")
		return
	}

	h.invalidateIdentity(r.Context(), email)

	h.logger.Info("user_role_updated", "user_id", id, "role", req.Role)
	writeMessage(w, http.StatusOK, "user role updated")
}

// statusRequest is the payload for a status patch.
type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /users/status/{id}.
func (h *UserHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !model.IsValidUserStatus(req.Status) {
		writeMessage(w, http.StatusBadRequest, "status must be active or blocked")
		return
	}

	email, err := h.store.UpdateUserStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleUserError(w, err, "failed to update status")
		return
	}

	h.invalidateIdentity(r.Context(), email)

	h.logger.Info("user_status_updated", "user_id", id, "status", req.Status)
	writeMessage(w, http.StatusOK, "user status updated")
}

// invalidateIdentity drops the cached identity for email, if a cache
// is configured. Best effort: a failed invalidation only extends the
// cache TTL window.
func (h *UserHandler) invalidateIdentity(ctx context.Context, email string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.DeleteIdentity(ctx, email); err != nil {
		h.logger.Warn("failed to invalidate cached identity", "error", err)
	}
}

func (h *UserHandler) handleUserError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, repository.ErrUserNotFound) {
		writeMessage(w, http.StatusNotFound, "user not found")
		return
	}
	h.logger.Error(logMsg, "error", err)
	writeMessage(w, http.StatusInternalServerError, "internal error")
}
