package posts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := &Post{Title: "a", Description: "x", IsActive: true, UserID: 1}
	second := &Post{Title: "b", Description: "y", IsActive: false, UserID: 1}
	third := &Post{Title: "c", Description: "z", IsActive: true, UserID: 2}
	for _, p := range []*Post{first, second, third} {
		require.NoError(t, store.Create(ctx, p))
	}
	assert.Equal(t, int64(1), first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "c", active[0].Title)
	assert.Equal(t, "a", active[1].Title)

	mine, err := store.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	// 他人の投稿は更新・削除できない
	err = store.Update(ctx, &Post{ID: third.ID, Title: "hijack", Description: "!", UserID: 1})
	assert.True(t, errors.Is(err, ErrNotFound))
	err = store.Delete(ctx, third.ID, 1)
	assert.True(t, errors.Is(err, ErrNotFound))

	update := &Post{ID: second.ID, Title: "b2", Description: "y2", IsActive: true, UserID: 1}
	require.NoError(t, store.Update(ctx, update))
	assert.Equal(t, second.CreatedAt, update.CreatedAt)

	got, err := store.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "b2", got.Title)
	assert.True(t, got.IsActive)

	require.NoError(t, store.Delete(ctx, first.ID, 1))
	_, err = store.Get(ctx, first.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

var postCols = []string{"id", "title", "description", "is_active", "user_id", "created_at"}

func TestPostgresStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM posts\s+WHERE is_active`).
		WillReturnRows(pgxmock.NewRows(postCols).
			AddRow(int64(2), "b", "y", true, int64(1), created).
			AddRow(int64(1), "a", "x", true, int64(2), created))
	mock.ExpectQuery(`FROM posts\s+WHERE user_id`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(postCols))
	mock.ExpectQuery(`FROM posts\s+WHERE is_active`).
		WillReturnError(errors.New("connection refused"))

	store := NewPostgresStore(mock)
	active, err := store.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, int64(2), active[0].ID)

	mine, err := store.ListByUser(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, mine)

	_, err = store.ListActive(context.Background())
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAndCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM posts\s+WHERE id`).
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(postCols))
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs("t", "d", true, int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(6), created))

	store := NewPostgresStore(mock)
	_, err = store.Get(context.Background(), 5)
	assert.True(t, errors.Is(err, ErrNotFound))

	post := &Post{Title: "t", Description: "d", IsActive: true, UserID: 1}
	require.NoError(t, store.Create(context.Background(), post))
	assert.Equal(t, int64(6), post.ID)
	assert.Equal(t, created, post.CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateDeleteOwnership(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		run       func(s *PostgresStore) error
		wantKind  error
		wantErr   bool
	}{
		{
			name: "update own post",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE posts`).
					WithArgs("t", "d", false, int64(3), int64(1)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			run: func(s *PostgresStore) error {
				return s.Update(context.Background(), &Post{ID: 3, Title: "t", Description: "d", UserID: 1})
			},
		},
		{
			name: "update someone else's post",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE posts`).
					WithArgs("t", "d", false, int64(3), int64(2)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			run: func(s *PostgresStore) error {
				return s.Update(context.Background(), &Post{ID: 3, Title: "t", Description: "d", UserID: 2})
			},
			wantKind: ErrNotFound,
			wantErr:  true,
		},
		{
			name: "delete own post",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM posts`).
					WithArgs(int64(3), int64(1)).
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
			run: func(s *PostgresStore) error {
				return s.Delete(context.Background(), 3, 1)
			},
		},
		{
			name: "delete missing post",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM posts`).
					WithArgs(int64(3), int64(1)).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			run: func(s *PostgresStore) error {
				return s.Delete(context.Background(), 3, 1)
			},
			wantKind: ErrNotFound,
			wantErr:  true,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM posts`).
					WithArgs(int64(3), int64(1)).
					WillReturnError(errors.New("connection refused"))
			},
			run: func(s *PostgresStore) error {
				return s.Delete(context.Background(), 3, 1)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)
			err = tt.run(NewPostgresStore(mock))

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantKind != nil {
					assert.True(t, errors.Is(err, tt.wantKind))
				} else {
					assert.False(t, errors.Is(err, ErrNotFound))
				}
			} else {
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}
