package types

import "time"

// Book represents a book record in the catalog. Every book belongs to a
// novelist; deleting the novelist deletes their books.
type Book struct {
	// ID is the unique identifier of the book.
	ID int `json:"id" db:"id"`

	// Title is the unique, sanitized title of the book.
	Title string `json:"title" db:"title"`

	// Year is the publication year.
	Year int `json:"year" db:"year"`

	// NovelistID references the novelist who wrote the book.
	NovelistID int `json:"novelist_id" db:"novelist_id"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
