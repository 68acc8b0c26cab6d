package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bloodlink/bloodlink/internal/auth"
	"github.com/bloodlink/bloodlink/internal/model"
	"github.com/bloodlink/bloodlink/internal/repository"
	"github.com/bloodlink/bloodlink/internal/token"
)

// IdentityStore loads an account by email.
type IdentityStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// IdentityCache caches resolved identities between requests.
// Implementations treat a miss as (nil, nil).
type IdentityCache interface {
	GetIdentity(ctx context.Context, email string) (*auth.Identity, error)
	SetIdentity(ctx context.Context, id *auth.Identity) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Tokens *token.Service
	Store  IdentityStore
	Cache  IdentityCache
}

// Authenticate returns a middleware that authenticates bearer requests.
// It verifies the token from the Authorization header, resolves the
// embedded email to an account (through the identity cache when warm),
// and injects the identity into the request context.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearerToken(r)
			if raw == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			email, err := cfg.Tokens.Verify(raw)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "invalid_token")
				writeAuthError(w)
				return
			}

			// Check cache first
			if cfg.Cache != nil {
				if id, _ := cfg.Cache.GetIdentity(r.Context(), email); id != nil {
					next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), id)))
					return
				}
			}

			user, err := cfg.Store.GetUserByEmail(r.Context(), email)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					// Valid signature but the account no longer exists
					logAuthFailure(cfg.Logger, r, "unknown_account")
				} else {
					cfg.Logger.Error("database error during auth",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				writeAuthError(w)
				return
			}

			id := &auth.Identity{
				Email:  user.Email,
				Role:   user.Role,
				Status: user.Status,
			}

			if cfg.Cache != nil {
				_ = cfg.Cache.SetIdentity(r.Context(), id)
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), id)))
		})
	}
}

// extractBearerToken extracts the token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"unauthorized"}`))
}
