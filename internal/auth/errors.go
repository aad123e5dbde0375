package auth

import (
	"errors"
	"fmt"
)

// 認証まわりのエラー種別。呼び出し側は errors.Is で判定します。
var (
	// ErrInvalidCredentialFormat は保存済みハッシュが解析できない場合のエラーです（データ破損）。
	ErrInvalidCredentialFormat = errors.New("invalid credential format")

	// ErrUsernameConflict はサインアップ時に同名ユーザーが存在する場合のエラーです。
	ErrUsernameConflict = errors.New("username already exists")

	// ErrInvalidCredentials はユーザー不在・パスワード不一致のどちらでも返します。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreUnavailable はユーザーストアやセッションストアに到達できない場合のエラーです。
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound は UserStore が対象レコードを見つけられない場合のエラーです。
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput は必須項目の欠落や長さ超過です。
	ErrInvalidInput = errors.New("invalid input")
)

// 画面に表示するメッセージ
const (
	MsgInvalidCredentials = "ユーザー名またはパスワードが正しくありません"
	MsgUsernameConflict   = "このユーザー名は既に使われています。別のユーザー名を選んでください。"
	MsgInvalidInput       = "ユーザー名とパスワードを入力してください（ユーザー名は50文字以内）"
	MsgInternal           = "処理中にエラーが発生しました。しばらくしてから再度お試しください"
)

// UserMessage はエラーを利用者向けのメッセージに変換します。
// 内部エラーの詳細は返さず、汎用メッセージにまとめます。
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, ErrUsernameConflict):
		return MsgUsernameConflict
	case errors.Is(err, ErrInvalidInput):
		return MsgInvalidInput
	default:
		return MsgInternal
	}
}

// withKind は err にエラー種別を付与します。errors.Is は両方に一致します。
func withKind(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}
