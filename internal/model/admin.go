package model

import "time"

// Admin is a dashboard login. The credential is stored and compared as
// plain text; hardening the login path is out of scope.
type Admin struct {
	CreatedAt    time.Time `json:"created_at"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ID           int64     `json:"id"`
}
