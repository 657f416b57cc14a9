package types

import "time"

// Novelist represents an author record in the catalog.
type Novelist struct {
	// ID is the unique identifier of the novelist.
	ID int `json:"id" db:"id"`

	// Name is the unique, sanitized name of the novelist.
	Name string `json:"name" db:"name"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
