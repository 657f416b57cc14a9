package types

import "time"

// Account represents a registered user of the catalog.
type Account struct {
	// ID is the unique identifier of the account.
	ID int `json:"id" db:"id"`

	// Username is the unique, sanitized login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the account's unique email address. It is the subject of
	// every access token issued for the account.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
