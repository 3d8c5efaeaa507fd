// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account.
//
// PasswordHash holds the bcrypt output (salt and cost included) and is never
// serialized. Users are created on registration and never updated or deleted.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Role         string    `json:"role"      db:"role"` // optional, empty by default
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
