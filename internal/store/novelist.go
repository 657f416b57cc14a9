package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/madr-project/apiserver/types"
)

// NovelistRepository handles persistence for novelists.
type NovelistRepository struct {
	db *sql.DB
}

func NewNovelistRepository(db *sql.DB) *NovelistRepository {
	return &NovelistRepository{db: db}
}

func (r *NovelistRepository) List(ctx context.Context, name string, offset, limit int) ([]types.Novelist, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	pattern := "%" + name + "%"

	const countQuery = `SELECT COUNT(1) FROM novelists WHERE name LIKE $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, name, created_at
		FROM novelists
		WHERE name LIKE $1
		ORDER BY id
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, listQuery, pattern, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	novelists := make([]types.Novelist, 0, limit)
	for rows.Next() {
		var novelist types.Novelist
		if err := rows.Scan(&novelist.ID, &novelist.Name, &novelist.CreatedAt); err != nil {
			return nil, 0, err
		}
		novelists = append(novelists, novelist)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return novelists, total, nil
}

func (r *NovelistRepository) Get(ctx context.Context, id int) (types.Novelist, error) {
	const query = `
		SELECT id, name, created_at
		FROM novelists
		WHERE id = $1`
	var novelist types.Novelist
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&novelist.ID,
		&novelist.Name,
		&novelist.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Novelist{}, ErrNotFound
		}
		return types.Novelist{}, err
	}
	return novelist, nil
}

func (r *NovelistRepository) Create(ctx context.Context, novelist types.Novelist) (types.Novelist, error) {
	novelist.CreatedAt = time.Now()

	const query = `
		INSERT INTO novelists (name, created_at)
		VALUES ($1, $2)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		novelist.Name,
		novelist.CreatedAt,
	).Scan(&novelist.ID); err != nil {
		return types.Novelist{}, translateError(err)
	}
	return novelist, nil
}

func (r *NovelistRepository) Update(ctx context.Context, novelist types.Novelist) (types.Novelist, error) {
	const query = `
		UPDATE novelists
		SET name = $1
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, novelist.Name, novelist.ID)
	if err != nil {
		return types.Novelist{}, translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Novelist{}, err
	}
	if affected == 0 {
		return types.Novelist{}, ErrNotFound
	}
	return novelist, nil
}

func (r *NovelistRepository) Delete(ctx context.Context, id int) error {
	// Books reference novelists with ON DELETE CASCADE, so deleting a
	// novelist also removes their books.
	const query = `DELETE FROM novelists WHERE id = $1`
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
