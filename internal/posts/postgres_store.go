package posts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// pool は *pgxpool.Pool と pgxmock が満たすクエリ実行インターフェースです。
type pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const postColumns = `id, title, description, is_active, user_id, created_at`

// PostgresStore は posts テーブルを使う Store です。
type PostgresStore struct {
	pool pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore は PostgresStore を作成します。
func NewPostgresStore(p pool) *PostgresStore {
	return &PostgresStore{pool: p}
}

// ListActive は公開中の投稿を新しい順に返します。
func (s *PostgresStore) ListActive(ctx context.Context) ([]Post, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE is_active
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").With("operation", "list active posts").Wrap(err)
	}
	return collect(rows)
}

// ListByUser は userID の投稿を新しい順に返します。
func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]Post, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").
			With("operation", "list posts by user").
			With("user_id", userID).
			Wrap(err)
	}
	return collect(rows)
}

// Get は ID で投稿を返します。
func (s *PostgresStore) Get(ctx context.Context, id int64) (*Post, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE id = $1
	`, id)

	var p Post
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.IsActive, &p.UserID, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("POST_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("POST_GET_FAILED").With("operation", "get post").With("id", id).Wrap(err)
	}
	return &p, nil
}

// Create は投稿を追加し、ID と作成日時を埋めます。
func (s *PostgresStore) Create(ctx context.Context, post *Post) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO posts (title, description, is_active, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, post.Title, post.Description, post.IsActive, post.UserID).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return oops.Code("POST_CREATE_FAILED").
			With("operation", "insert post").
			With("user_id", post.UserID).
			Wrap(err)
	}
	return nil
}

// Update はタイトル・本文・公開状態を更新します。
func (s *PostgresStore) Update(ctx context.Context, post *Post) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE posts
		SET title = $1, description = $2, is_active = $3
		WHERE id = $4 AND user_id = $5
	`, post.Title, post.Description, post.IsActive, post.ID, post.UserID)
	if err != nil {
		return oops.Code("POST_UPDATE_FAILED").
			With("operation", "update post").
			With("id", post.ID).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("POST_NOT_FOUND").With("id", post.ID).Wrap(ErrNotFound)
	}
	return nil
}

// Delete は投稿を削除します。
func (s *PostgresStore) Delete(ctx context.Context, id, userID int64) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM posts
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return oops.Code("POST_DELETE_FAILED").
			With("operation", "delete post").
			With("id", id).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("POST_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	return nil
}

func collect(rows pgx.Rows) ([]Post, error) {
	defer rows.Close()

	result := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.IsActive, &p.UserID, &p.CreatedAt); err != nil {
			return nil, oops.Code("POST_SCAN_FAILED").Wrap(err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("POST_LIST_FAILED").With("operation", "iterate rows").Wrap(err)
	}
	return result, nil
}
