// Package postgres は auth.UserStore の PostgreSQL 実装です。
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/yourusername/postboard/internal/auth"
)

// pool は *pgxpool.Pool と pgxmock が満たすクエリ実行インターフェースです。
type pool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserStore は users テーブルを使う auth.UserStore です。
type UserStore struct {
	pool pool
}

var _ auth.UserStore = (*UserStore)(nil)

// NewUserStore は UserStore を作成します。
func NewUserStore(p pool) *UserStore {
	return &UserStore{pool: p}
}

// FindByUsername はユーザー名で検索します。
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*auth.Identity, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash
		FROM users
		WHERE username = $1
	`, username)

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(unavailable(err))
	}
	return identity, nil
}

// FindByID は ID で検索します。
func (s *UserStore) FindByID(ctx context.Context, id int64) (*auth.Identity, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password_hash
		FROM users
		WHERE id = $1
	`, id)

	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_ID_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(unavailable(err))
	}
	return identity, nil
}

// Create はユーザーを追加します。
// 事前の存在確認をすり抜けた同時サインアップは UNIQUE 制約違反として ErrUsernameConflict になります。
func (s *UserStore) Create(ctx context.Context, candidate auth.Candidate) (*auth.Identity, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)
	`, candidate.Username).Scan(&exists)
	if err != nil {
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "check username").
			With("username", candidate.Username).
			Wrap(unavailable(err))
	}
	if exists {
		return nil, oops.Code("USER_CONFLICT").
			With("username", candidate.Username).
			Wrap(auth.ErrUsernameConflict)
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`, candidate.Username, candidate.PasswordHash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code("USER_CONFLICT").
				With("username", candidate.Username).
				With("constraint", pgErr.ConstraintName).
				Wrap(auth.ErrUsernameConflict)
		}
		return nil, oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", candidate.Username).
			Wrap(unavailable(err))
	}

	return &auth.Identity{
		ID:           id,
		Username:     candidate.Username,
		PasswordHash: candidate.PasswordHash,
	}, nil
}

func scanIdentity(row pgx.Row) (*auth.Identity, error) {
	var identity auth.Identity
	if err := row.Scan(&identity.ID, &identity.Username, &identity.PasswordHash); err != nil {
		return nil, err
	}
	return &identity, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", auth.ErrStoreUnavailable, err)
}
