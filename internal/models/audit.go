package models

import (
	"encoding/json"
	"time"
)

// Audit action tags.
const (
	ActionLogin      = "LOGIN"
	ActionCreateUser = "CREATE_USER"
	ActionUpdateUser = "UPDATE_USER"
	ActionDeleteUser = "DELETE_USER"
	ActionCreateRole = "CREATE_ROLE"
	ActionUpdateRole = "UPDATE_ROLE"
	ActionAssignRole = "ASSIGN_ROLE"
)

// Audit target types.
const (
	TargetUser = "User"
	TargetRole = "Role"
)

// AuditEntry represents one audit log row.
type AuditEntry struct {
	ID          int             `json:"id"`
	ActorUserID *int            `json:"actorUserId"`
	Action      string          `json:"action"`
	TargetType  string          `json:"targetType"`
	TargetID    *int            `json:"targetId"`
	Details     json.RawMessage `json:"details"`
	CreatedAt   time.Time       `json:"createdAt"`
	Actor       *Actor          `json:"actor,omitempty"`
}

// Actor is the user who performed an audited action, if still present.
type Actor struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuditFilter narrows the audit log list. Zero values mean "no filter";
// Start and End are inclusive.
type AuditFilter struct {
	ActorID int
	Action  string
	Start   *time.Time
	End     *time.Time
}
