package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/crucial707/admin-console/internal/metrics"
	"github.com/crucial707/admin-console/internal/models"
	"github.com/crucial707/admin-console/internal/repo"
)

const (
	msgRoleNotFound   = "Role not found"
	msgRoleNameExists = "Role name already exists"
)

// RoleHandler serves role management.
type RoleHandler struct {
	Store *repo.Store
}

// ListRoles returns every role ordered by name.
func (h *RoleHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Store.Roles.List(r.Context())
	if err != nil {
		internalError(w, r, "list roles", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

// CreateRole adds a role with an optional permission list.
func (h *RoleHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var input struct {
		Name        string   `json:"name" validate:"required,max=100"`
		Permissions []string `json:"permissions" validate:"dive,required,max=100"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	if fields := validationFields(input); fields != nil {
		msg := "validation failed"
		if fields["name"] == "required" {
			msg = "Role name is required"
		}
		JSONValidationError(w, msg, fields, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var created *models.Role
	err := h.Store.InTx(ctx, func(tx repo.Repos) error {
		role, err := tx.Roles.Create(ctx, input.Name, input.Permissions)
		if err != nil {
			return err
		}
		created = role
		return tx.Audit.Record(ctx, actor.UserID, models.ActionCreateRole, models.TargetRole, role.ID, map[string]interface{}{
			"name":        role.Name,
			"permissions": role.Permissions,
		})
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateRoleName) {
			JSONError(w, msgRoleNameExists, http.StatusBadRequest)
			return
		}
		internalError(w, r, "create role", err)
		return
	}
	metrics.IncAudit(models.ActionCreateRole)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Role created successfully",
		"role":    created,
	})
}

// UpdateRole renames a role or replaces its permissions. Omitted fields keep
// their current value.
func (h *RoleHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}
	id, ok := pathID(r)
	if !ok {
		JSONError(w, "invalid role id", http.StatusBadRequest)
		return
	}

	var input struct {
		Name        *string   `json:"name" validate:"omitempty,min=1,max=100"`
		Permissions *[]string `json:"permissions" validate:"omitempty,dive,required,max=100"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if fields := validationFields(input); fields != nil {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var updated *models.Role
	err := h.Store.InTx(ctx, func(tx repo.Repos) error {
		current, err := tx.Roles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		name, perms := current.Name, current.Permissions
		if input.Name != nil && *input.Name != "" {
			name = *input.Name
		}
		if input.Permissions != nil {
			perms = *input.Permissions
		}
		updated, err = tx.Roles.Update(ctx, id, name, perms)
		if err != nil {
			return err
		}
		return tx.Audit.Record(ctx, actor.UserID, models.ActionUpdateRole, models.TargetRole, id, map[string]interface{}{
			"name":        updated.Name,
			"permissions": updated.Permissions,
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			JSONError(w, msgRoleNotFound, http.StatusNotFound)
		case errors.Is(err, repo.ErrDuplicateRoleName):
			JSONError(w, msgRoleNameExists, http.StatusBadRequest)
		default:
			internalError(w, r, "update role", err)
		}
		return
	}
	metrics.IncAudit(models.ActionUpdateRole)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Role updated successfully",
		"role":    updated,
	})
}
