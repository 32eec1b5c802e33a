// Package types contains common types used across the application
package types

// User is the identity attached to an authenticated session.
type User struct {
	ID    string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Anonymous reports whether u carries no identity.
func (u User) Anonymous() bool {
	return u.ID == ""
}
