package auth

import "time"

// User is an account as stored in the `users` table.
// PasswordHash carries the bcrypt hash and is never serialized.
type User struct {
	ID           int64     `json:"id" example:"1"`
	Name         string    `json:"name" example:"Alice"`
	Email        string    `json:"email" example:"alice@example.com"`
	Phone        string    `json:"phone" example:"081234567890"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
