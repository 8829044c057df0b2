package users

import "time"

// User represents a user account for management. Every user references
// exactly one role by name; a dangling reference is an error state, not a
// valid one.
type User struct {
	ID        int64
	Email     string
	Name      string
	RoleName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
