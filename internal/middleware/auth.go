package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crucial707/admin-console/internal/auth"
	"github.com/crucial707/admin-console/internal/models"
	"github.com/crucial707/admin-console/internal/repo"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type key string

const identityKey key = "identity"

// Rejection messages returned by the gate.
const (
	MsgNoToken      = "No token provided"
	MsgInvalidToken = "Invalid token"
	MsgUserNotFound = "User not found"
	MsgForbidden    = "Super admin access required"
)

// Identity is the authenticated caller. Roles is the live role set loaded
// from the store on this request, not the snapshot inside the token.
type Identity struct {
	UserID int
	Email  string
	Roles  []string
}

// HasRole reports whether the caller holds the named role.
func (i Identity) HasRole(name string) bool {
	for _, r := range i.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserLoader resolves a user together with their current roles.
type UserLoader interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity attached by Authenticate.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// Authenticate extracts the bearer token, verifies it, reloads the user with
// their live roles and attaches the Identity to the request context.
func Authenticate(tokens TokenVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, MsgNoToken, http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				writeError(w, MsgInvalidToken, http.StatusUnauthorized)
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					writeError(w, MsgUserNotFound, http.StatusUnauthorized)
					return
				}
				slog.Error("auth: load user",
					"request_id", chimw.GetReqID(r.Context()),
					"user_id", claims.UserID,
					"error", err)
				writeError(w, "internal server error", http.StatusInternalServerError)
				return
			}

			id := Identity{UserID: user.ID, Email: user.Email, Roles: user.RoleNames()}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects callers whose live role set lacks role with 403.
// It must run after Authenticate.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok || !id.HasRole(role) {
				writeError(w, MsgForbidden, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" {
		return "", false
	}
	return tok, true
}
