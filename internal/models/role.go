package models

import "time"

type Role struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RoleRef is the canonical way a role is embedded in a user.
type RoleRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
