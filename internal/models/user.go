package models

import "time"

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Avatar       *string   `json:"avatar,omitempty" db:"avatar"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
