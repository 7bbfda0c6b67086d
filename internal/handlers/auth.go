package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/crucial707/admin-console/internal/auth"
	"github.com/crucial707/admin-console/internal/metrics"
	"github.com/crucial707/admin-console/internal/models"
	"github.com/crucial707/admin-console/internal/repo"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const msgInvalidCredentials = "Invalid email or password"

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Store  *repo.Store
	Issuer *auth.Issuer
}

type loginUser struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// ==========================
// Login (email + password; touches last login and records a LOGIN audit row)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if !decodeJSON(w, r, &input) {
		return
	}
	input.Email = strings.TrimSpace(input.Email)
	if input.Email == "" || input.Password == "" {
		JSONError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	user, err := h.Store.Users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			metrics.IncLogin("invalid")
			JSONError(w, msgInvalidCredentials, http.StatusUnauthorized)
			return
		}
		metrics.IncLogin("error")
		internalError(w, r, "login: load user", err)
		return
	}

	if err := auth.CheckPassword(user.HashedPassword, input.Password); err != nil {
		metrics.IncLogin("invalid")
		JSONError(w, msgInvalidCredentials, http.StatusUnauthorized)
		return
	}

	now := time.Now()
	if err := h.Store.Users.TouchLastLogin(ctx, user.ID, now); err != nil {
		metrics.IncLogin("error")
		internalError(w, r, "login: touch last login", err)
		return
	}

	roles := user.RoleNames()
	token, err := h.Issuer.Issue(user.ID, user.Email, roles)
	if err != nil {
		metrics.IncLogin("error")
		internalError(w, r, "login: issue token", err)
		return
	}

	if err := h.Store.Audit.Record(ctx, user.ID, models.ActionLogin, models.TargetUser, user.ID, nil); err != nil {
		slog.Warn("login: record audit",
			"request_id", chimw.GetReqID(ctx),
			"user_id", user.ID,
			"error", err)
	} else {
		metrics.IncAudit(models.ActionLogin)
	}
	metrics.IncLogin("success")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   token,
		"user": loginUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Roles: roles,
		},
	})
}
