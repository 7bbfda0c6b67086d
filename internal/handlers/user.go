package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/crucial707/admin-console/internal/auth"
	"github.com/crucial707/admin-console/internal/metrics"
	"github.com/crucial707/admin-console/internal/models"
	"github.com/crucial707/admin-console/internal/repo"
)

const (
	msgUserNotFound   = "User not found"
	msgEmailExists    = "Email already exists"
	msgSelfDeletion   = "Cannot delete your own account"
	defaultUserLimit  = 10
	defaultAuditLimit = 20
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Store *repo.Store
}

// ==========================
// List Users (page, limit, search, role)
// ==========================
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, defaultUserLimit)
	filter := models.UserFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		Role:   strings.TrimSpace(r.URL.Query().Get("role")),
	}

	total, err := h.Store.Users.Count(r.Context(), filter)
	if err != nil {
		internalError(w, r, "list users: count", err)
		return
	}
	users, err := h.Store.Users.List(r.Context(), filter, limit, models.Offset(page, limit))
	if err != nil {
		internalError(w, r, "list users", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users":      users,
		"pagination": models.NewPagination(total, page, limit),
	})
}

// ==========================
// Get User (with roles and activity summary)
// ==========================
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	user, err := h.Store.Users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, msgUserNotFound, http.StatusNotFound)
			return
		}
		internalError(w, r, "get user", err)
		return
	}

	logins, err := h.Store.Audit.CountByActor(r.Context(), id, models.ActionLogin)
	if err != nil {
		internalError(w, r, "get user: login count", err)
		return
	}

	writeJSON(w, http.StatusOK, models.UserDetail{
		User: *user,
		ActivitySummary: models.ActivitySummary{
			LoginCount:   logins,
			LastActivity: user.LastLogin,
		},
	})
}

// ==========================
// Create User (name, email, password required; optional initial roles)
// ==========================
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var input struct {
		Name     string `json:"name" validate:"required,max=255"`
		Email    string `json:"email" validate:"required,email,max=255"`
		Password string `json:"password" validate:"required,max=72"`
		RoleIDs  []int  `json:"roleIds"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if fields := validationFields(input); fields != nil {
		msg := "validation failed"
		if hasRequiredFailure(fields) {
			msg = "Name, email, and password are required"
		}
		JSONValidationError(w, msg, fields, http.StatusBadRequest)
		return
	}
	if input.RoleIDs == nil {
		input.RoleIDs = []int{}
	}

	ctx := r.Context()
	exists, err := h.Store.Users.EmailExists(ctx, input.Email)
	if err != nil {
		internalError(w, r, "create user: check email", err)
		return
	}
	if exists {
		JSONError(w, msgEmailExists, http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		internalError(w, r, "create user: hash password", err)
		return
	}

	var created *models.User
	err = h.Store.InTx(ctx, func(tx repo.Repos) error {
		u, err := tx.Users.Create(ctx, input.Name, input.Email, hash)
		if err != nil {
			return err
		}
		if err := tx.Users.AddRoles(ctx, u.ID, input.RoleIDs); err != nil {
			return err
		}
		err = tx.Audit.Record(ctx, actor.UserID, models.ActionCreateUser, models.TargetUser, u.ID, map[string]interface{}{
			"name":          input.Name,
			"email":         input.Email,
			"assignedRoles": input.RoleIDs,
		})
		if err != nil {
			return err
		}
		created, err = tx.Users.GetByID(ctx, u.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			JSONError(w, msgEmailExists, http.StatusBadRequest)
			return
		}
		internalError(w, r, "create user", err)
		return
	}
	metrics.IncAudit(models.ActionCreateUser)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"user":    created,
	})
}

// ==========================
// Update User (roleIds, when present, replaces the whole role set)
// ==========================
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	var input struct {
		Name    string `json:"name" validate:"max=255"`
		Email   string `json:"email" validate:"omitempty,email,max=255"`
		RoleIDs *[]int `json:"roleIds"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if fields := validationFields(input); fields != nil {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var updated *models.User
	err := h.Store.InTx(ctx, func(tx repo.Repos) error {
		if _, err := tx.Users.Update(ctx, id, input.Name, input.Email); err != nil {
			return err
		}
		// roleIds stays null in the audit details when roles were left untouched.
		var roleIDs []int
		if input.RoleIDs != nil {
			roleIDs = *input.RoleIDs
			if err := tx.Users.SetRoles(ctx, id, roleIDs); err != nil {
				return err
			}
		}
		err := tx.Audit.Record(ctx, actor.UserID, models.ActionUpdateUser, models.TargetUser, id, map[string]interface{}{
			"name":    input.Name,
			"email":   input.Email,
			"roleIds": roleIDs,
		})
		if err != nil {
			return err
		}
		updated, err = tx.Users.GetByID(ctx, id)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			JSONError(w, msgUserNotFound, http.StatusNotFound)
		case errors.Is(err, repo.ErrDuplicateEmail):
			JSONError(w, msgEmailExists, http.StatusBadRequest)
		default:
			internalError(w, r, "update user", err)
		}
		return
	}
	metrics.IncAudit(models.ActionUpdateUser)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User updated successfully",
		"user":    updated,
	})
}

// ==========================
// Delete User (audit row is written before the delete, in the same transaction)
// ==========================
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if id == actor.UserID {
		JSONError(w, msgSelfDeletion, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	err := h.Store.InTx(ctx, func(tx repo.Repos) error {
		target, err := tx.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		err = tx.Audit.Record(ctx, actor.UserID, models.ActionDeleteUser, models.TargetUser, id, map[string]interface{}{
			"deletedUserEmail": target.Email,
		})
		if err != nil {
			return err
		}
		return tx.Users.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, msgUserNotFound, http.StatusNotFound)
			return
		}
		internalError(w, r, "delete user", err)
		return
	}
	metrics.IncAudit(models.ActionDeleteUser)

	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// ==========================
// Assign Role (additive)
// ==========================
func (h *UserHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var input struct {
		UserID int `json:"userId" validate:"required,gt=0"`
		RoleID int `json:"roleId" validate:"required,gt=0"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if fields := validationFields(input); fields != nil {
		JSONValidationError(w, "userId and roleId are required", fields, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	err := h.Store.InTx(ctx, func(tx repo.Repos) error {
		if _, err := tx.Users.GetByID(ctx, input.UserID); err != nil {
			return err
		}
		role, err := tx.Roles.GetByID(ctx, input.RoleID)
		if err != nil {
			return err
		}
		if err := tx.Users.AddRoles(ctx, input.UserID, []int{role.ID}); err != nil {
			return err
		}
		return tx.Audit.Record(ctx, actor.UserID, models.ActionAssignRole, models.TargetUser, input.UserID, map[string]interface{}{
			"assignedRole": role.Name,
			"roleId":       role.ID,
		})
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "User or role not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "assign role", err)
		return
	}
	metrics.IncAudit(models.ActionAssignRole)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Role assigned successfully"})
}
