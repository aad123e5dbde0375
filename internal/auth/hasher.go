// Package auth は認証・認可機能を提供します。
//
// パスワードのハッシュ化、リクエスト単位のセッション管理、パスごとのアクセス制御ゲート、
// サインアップ／ログインのユースケースをまとめています。
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"strings"

	"github.com/samber/oops"
)

const (
	// saltSize は HMAC-SHA256 のブロックサイズと同じ 64 バイトです。
	saltSize = 64

	hashDelimiter = "."
)

// CredentialHasher はパスワードの一方向ハッシュ化と検証を行います。
type CredentialHasher interface {
	// Hash は新しいソルトでパスワードをハッシュ化し "base64(salt).base64(digest)" を返します。
	Hash(password string) (string, error)

	// Verify は一致すれば (true, nil)、不一致なら (false, nil)、
	// 保存値が壊れている場合は ErrInvalidCredentialFormat を返します。
	Verify(password, stored string) (bool, error)
}

// Hasher は HMAC-SHA256 による CredentialHasher の実装です。
type Hasher struct {
	random io.Reader
}

// NewHasher は Hasher を作成します。random が nil の場合は crypto/rand を使います。
func NewHasher(random io.Reader) *Hasher {
	if random == nil {
		random = rand.Reader
	}
	return &Hasher{random: random}
}

// Hash はパスワードをハッシュ化します。呼び出しごとにソルトを生成します。
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(h.random, salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").
			With("requested_bytes", saltSize).
			Wrap(err)
	}

	digest := computeDigest(password, salt)
	return base64.StdEncoding.EncodeToString(salt) + hashDelimiter + base64.StdEncoding.EncodeToString(digest), nil
}

// Verify は保存済みハッシュとパスワードを照合します。
func (h *Hasher) Verify(password, stored string) (bool, error) {
	saltPart, digestPart, found := strings.Cut(stored, hashDelimiter)
	if !found {
		return false, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidCredentialFormat, "missing delimiter")
	}

	salt, err := base64.StdEncoding.DecodeString(saltPart)
	if err != nil || len(salt) == 0 {
		return false, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidCredentialFormat, "salt is not valid base64")
	}

	expected, err := base64.StdEncoding.DecodeString(digestPart)
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrapf(ErrInvalidCredentialFormat, "digest is not valid base64")
	}
	if len(expected) != sha256.Size {
		return false, oops.Code("AUTH_INVALID_HASH").
			With("digest_length", len(expected)).
			Wrapf(ErrInvalidCredentialFormat, "unexpected digest length")
	}

	return hmac.Equal(computeDigest(password, salt), expected), nil
}

func computeDigest(password string, salt []byte) []byte {
	mac := hmac.New(sha256.New, salt)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}
