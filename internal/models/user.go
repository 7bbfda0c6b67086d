package models

import "time"

// RoleSuperAdmin gates every /superadmin route.
const RoleSuperAdmin = "superadmin"

type User struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	LastLogin      *time.Time `json:"lastLogin"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	Roles          []RoleRef  `json:"roles"`
}

// RoleNames returns the names of the user's roles in their stored order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// ActivitySummary is attached to the user detail view.
type ActivitySummary struct {
	LoginCount   int        `json:"loginCount"`
	LastActivity *time.Time `json:"lastActivity"`
}

// UserDetail is the single-user view.
type UserDetail struct {
	User
	ActivitySummary ActivitySummary `json:"activitySummary"`
}

// UserFilter narrows the user list. Search matches name or email case-insensitively;
// Role is an exact role name.
type UserFilter struct {
	Search string
	Role   string
}
