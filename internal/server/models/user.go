package models

import "time"

// User is an account row. PasswordHash never leaves the service layer;
// transport views are built from the other fields.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	Roles        []Role
	CreatedAt    time.Time
}

// UserUpdate enumerates exactly the fields a directory update may change.
// A nil field means "leave as is". Password carries plaintext and is hashed
// by the service before it reaches a repository.
type UserUpdate struct {
	Email    *string
	Password *string
}
