package models

import "time"

// Notification is an in-app notice (new message, admin reply and so on).
// Link points the client at the relevant page, e.g. /chat/5.
type Notification struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Content   string    `db:"content" json:"content"`
	Link      *string   `db:"link" json:"link,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
