package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/madr-project/apiserver/types"
)

// BookFilter narrows book listings. Zero values mean "no filter"; Title
// matches as a substring of the sanitized title.
type BookFilter struct {
	Title      string
	Year       int
	NovelistID int
}

// BookRepository handles persistence for books.
type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) List(ctx context.Context, filter BookFilter, offset, limit int) ([]types.Book, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	where, args := buildBookWhere(filter)

	countQuery := `SELECT COUNT(1) FROM books` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`
		SELECT id, title, year, novelist_id, created_at
		FROM books%s
		ORDER BY id
		OFFSET $%d LIMIT $%d`, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	books := make([]types.Book, 0, limit)
	for rows.Next() {
		var book types.Book
		if err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Year,
			&book.NovelistID,
			&book.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

func (r *BookRepository) Get(ctx context.Context, id int) (types.Book, error) {
	const query = `
		SELECT id, title, year, novelist_id, created_at
		FROM books
		WHERE id = $1`
	var book types.Book
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID,
		&book.Title,
		&book.Year,
		&book.NovelistID,
		&book.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Book{}, ErrNotFound
		}
		return types.Book{}, err
	}
	return book, nil
}

func (r *BookRepository) Create(ctx context.Context, book types.Book) (types.Book, error) {
	book.CreatedAt = time.Now()

	const query = `
		INSERT INTO books (title, year, novelist_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		book.Title,
		book.Year,
		book.NovelistID,
		book.CreatedAt,
	).Scan(&book.ID); err != nil {
		return types.Book{}, translateError(err)
	}
	return book, nil
}

func (r *BookRepository) Update(ctx context.Context, book types.Book) (types.Book, error) {
	const query = `
		UPDATE books
		SET title = $1,
			year = $2,
			novelist_id = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		book.Title,
		book.Year,
		book.NovelistID,
		book.ID,
	)
	if err != nil {
		return types.Book{}, translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Book{}, err
	}
	if affected == 0 {
		return types.Book{}, ErrNotFound
	}
	return book, nil
}

func (r *BookRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM books WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func buildBookWhere(filter BookFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Title != "" {
		args = append(args, "%"+filter.Title+"%")
		clauses = append(clauses, fmt.Sprintf("title LIKE $%d", len(args)))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		clauses = append(clauses, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.NovelistID != 0 {
		args = append(args, filter.NovelistID)
		clauses = append(clauses, fmt.Sprintf("novelist_id = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
