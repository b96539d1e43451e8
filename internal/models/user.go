package models

import "time"

type User struct {
	ID            string     `json:"id" db:"id"`
	FullName      string     `json:"full_name" db:"full_name"`
	Email         string     `json:"email" db:"email"`
	PhoneNumber   string     `json:"phone_number" db:"phone_number"`
	EmailVerified bool       `json:"email_verified" db:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
