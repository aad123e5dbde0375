// Package posts は投稿の保存と一覧・作成・編集・削除のハンドラーを提供します。
//
// 投稿の所有者は常にセッションのユーザー ID から決まり、フォームの値は使いません。
package posts

import (
	"context"
	"errors"
	"time"
)

// MaxTitleLength はタイトルの最大文字数です。
const MaxTitleLength = 200

// ErrNotFound は投稿が存在しない、または所有者が異なる場合のエラーです。
var ErrNotFound = errors.New("post not found")

// Post は 1 件の投稿です。
type Post struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	UserID      int64     `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store は投稿の永続化を担います。
// Update と Delete は userID が一致する投稿だけを対象にし、それ以外は ErrNotFound です。
type Store interface {
	ListActive(ctx context.Context) ([]Post, error)
	ListByUser(ctx context.Context, userID int64) ([]Post, error)
	Get(ctx context.Context, id int64) (*Post, error)
	Create(ctx context.Context, post *Post) error
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id, userID int64) error
}
