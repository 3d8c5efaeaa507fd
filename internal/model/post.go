package model

import "time"

// Post is a blog entry. OwnerID is set at creation and never reassigned.
type Post struct {
	ID        string    `json:"id"        db:"id"`
	Title     string    `json:"title"     db:"title"`
	Body      string    `json:"body"      db:"body"`
	OwnerID   string    `json:"ownerId"   db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
