// Package model defines domain entities for the application.
package model

import "time"

// UserID identifies a registered user. It is opaque to callers; ownership
// checks compare UserID values, never raw strings.
type UserID string

// String returns the identifier in its wire form.
func (id UserID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is unset.
func (id UserID) IsZero() bool {
	return id == ""
}

// User represents a registered reviewer.
type User struct {
	ID           UserID    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"createdAt"`
}
