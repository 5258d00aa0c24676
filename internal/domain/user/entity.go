package user

import "time"

// User represents a user entity in the system.
type User struct {
	ID        int64     // ID is the store-assigned identifier; never reused or changed
	Name      string    // Name is the full name of the user
	Email     string    // Email is the unique, lower-cased email address of the user
	Age       int       // Age is in the range [0, 150]
	CreatedAt time.Time // CreatedAt is set once on insert
	UpdatedAt time.Time // UpdatedAt is refreshed on every update
}

// UserChanges carries the fields of a partial update. Nil fields are left untouched.
type UserChanges struct {
	Name  *string
	Email *string
	Age   *int
}

// IsEmpty reports whether no field is being changed.
func (c UserChanges) IsEmpty() bool {
	return c.Name == nil && c.Email == nil && c.Age == nil
}
