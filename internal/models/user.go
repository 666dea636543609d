package models

import "time"

// User is an account in the marketplace. PasswordHash never leaves the server.
type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	IsBlocked    bool      `db:"is_blocked" json:"is_blocked"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
