package models

import "time"

// RolePermission grants a role per-module CRUD rights. One row per
// (role, module_name) pair; the policy engine reads these.
type RolePermission struct {
	Role       Role      `json:"role"`
	ModuleName string    `json:"module_name"`
	IsRead     bool      `json:"is_read"`
	IsCreate   bool      `json:"is_create"`
	IsUpdate   bool      `json:"is_update"`
	IsDelete   bool      `json:"is_delete"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
