package model

import "time"

// Roles stored in users.role. ANONYMOUS is a caller state, never persisted.
const (
	RoleAnonymous = "ANONYMOUS"
	RoleBuyer     = "BUYER"
	RoleSeller    = "SELLER"
	RoleStaff     = "STAFF"
	RoleSuperuser = "SUPERUSER"
)

// User mirrors the 'users' table. Email is stored lower-cased and trimmed.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email (unique, normalized)
	PasswordHash string    // users.password_hash (bcrypt)
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Permission is a codename granted to a user directly or through a group.
// Superusers implicitly hold every codename.
type Permission struct {
	ID       uint64 // permissions.id
	Codename string // permissions.codename, e.g. "manage_companies"
}

// Capability codenames required on destructive staff routes.
const (
	PermManageUsers     = "manage_users"
	PermManageCompanies = "manage_companies"
	PermManagePosts     = "manage_posts"
	PermManageTracking  = "manage_tracking"
)
