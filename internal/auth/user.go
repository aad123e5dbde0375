package auth

import (
	"context"
	"unicode/utf8"
)

// MaxUsernameLength はユーザー名の最大文字数です。
const MaxUsernameLength = 50

// Identity は保存済みのユーザーレコードです。平文パスワードは持ちません。
type Identity struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Candidate は新規作成するユーザーです。ID は UserStore が採番します。
type Candidate struct {
	Username     string
	PasswordHash string
}

// UserStore はユーザーレコードの永続化を担います。
//
// 見つからない場合は ErrNotFound、同名ユーザーがいる場合は ErrUsernameConflict、
// ストアに到達できない場合は ErrStoreUnavailable を（oops でラップして）返します。
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (*Identity, error)
	FindByID(ctx context.Context, id int64) (*Identity, error)
	Create(ctx context.Context, candidate Candidate) (*Identity, error)
}

func validUsername(username string) bool {
	return username != "" && utf8.RuneCountInString(username) <= MaxUsernameLength
}
