package model

import "time"

// Account roles. Clients, admins and staff share one table and are
// distinguished only by this tag; role-specific behavior is branching
// logic in the handlers, never a type hierarchy.
const (
	RoleClient = "CLIENT"
	RoleAdmin  = "ADMIN"
	RoleStaff  = "STAFF"
)

// Account represents a row of the `accounts` table. Each field
// corresponds to a column in the database. The json tags are omitted
// here because these structs are used internally by the repository
// layer; handlers define separate response types with appropriate
// JSON tags.
//
// Passwords are stored in cleartext. This mirrors the credential
// format of the system being migrated; changing it would invalidate
// every existing credential and is out of scope here. Handlers must
// never serialize the Password field into a response.
//
// Fields:
//  ID        primary key identifier of the account.
//  Login     unique login across all roles (8-20 chars, no whitespace).
//  Password  cleartext password (8-40 chars, no whitespace).
//  Role      one of CLIENT, ADMIN, STAFF.
//  IsActive  whether new tickets may be created for this account.
//  CreatedAt timestamp of creation.
//  UpdatedAt timestamp of last update.
type Account struct {
	ID        uint64    // accounts.id
	Login     string    // accounts.login
	Password  string    // accounts.password
	Role      string    // accounts.role
	IsActive  bool      // accounts.is_active
	CreatedAt time.Time // accounts.created_at
	UpdatedAt time.Time // accounts.updated_at
}

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleClient, RoleAdmin, RoleStaff:
		return true
	}
	return false
}
