package auth

import (
	"encoding/gob"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
)

const (
	// SessionCookieName はセッションクッキー名です。
	SessionCookieName = "pb_session"

	sessionKeyIdentity   = "auth_identity"
	sessionKeyLastActive = "last_activity"

	contextSessionKey = "auth.session"
)

// DefaultIdleTimeout はセッションの無操作タイムアウトの既定値です。
const DefaultIdleTimeout = 30 * time.Minute

// identityRecord はセッションに保存するログイン情報です。
// 2 つの値を 1 つのキーにまとめ、片方だけが見える状態を作らないようにしています。
type identityRecord struct {
	UserID   string
	Username string
}

func init() {
	// cookie / memstore は gob でシリアライズするため登録が必要
	gob.Register(identityRecord{})
}

// SessionStore はリクエストに紐づくセッションの読み書きです。sessions.Session が満たします。
type SessionStore interface {
	Get(key any) any
	Set(key any, val any)
	Delete(key any)
	Save() error
}

// SessionManager はログイン状態の発行・参照・破棄を行います。
type SessionManager interface {
	Login(userID int64, username string) error
	IsLoggedIn() bool
	Logout() error
	CurrentUserID() (string, bool)
	Username() (string, bool)
}

// Session は 1 リクエスト分のセッションに束縛された SessionManager です。
type Session struct {
	store SessionStore
	idle  time.Duration
	now   func() time.Time
}

// NewSession は store に束縛された Session を作成します。
// idle が 0 以下の場合は DefaultIdleTimeout、now が nil の場合は time.Now を使います。
func NewSession(store SessionStore, idle time.Duration, now func() time.Time) *Session {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &Session{store: store, idle: idle, now: now}
}

// Login はユーザー ID とユーザー名を同時に書き込みます。
func (s *Session) Login(userID int64, username string) error {
	s.store.Set(sessionKeyIdentity, identityRecord{
		UserID:   strconv.FormatInt(userID, 10),
		Username: username,
	})
	s.store.Set(sessionKeyLastActive, s.now().Unix())
	return s.save("login")
}

// IsLoggedIn はユーザー ID が存在し、無操作タイムアウトを過ぎていない場合に true を返します。
func (s *Session) IsLoggedIn() bool {
	_, ok := s.active()
	return ok
}

// Logout はログイン情報を削除します。ログインしていない場合は何もしません。
func (s *Session) Logout() error {
	if s.store.Get(sessionKeyIdentity) == nil && s.store.Get(sessionKeyLastActive) == nil {
		return nil
	}
	s.store.Delete(sessionKeyIdentity)
	s.store.Delete(sessionKeyLastActive)
	return s.save("logout")
}

// CurrentUserID はログイン中のユーザー ID を文字列のまま返します。
func (s *Session) CurrentUserID() (string, bool) {
	record, ok := s.active()
	if !ok {
		return "", false
	}
	return record.UserID, true
}

// Username は表示用のユーザー名を返します。
func (s *Session) Username() (string, bool) {
	record, ok := s.active()
	if !ok {
		return "", false
	}
	return record.Username, true
}

// Refresh はリクエストごとに 1 回呼び出します。
// タイムアウトしたセッションは破棄し、有効なセッションは最終操作時刻を更新します。
func (s *Session) Refresh() error {
	if _, ok := s.stored(); !ok {
		return nil
	}
	if s.idleExpired() {
		return s.Logout()
	}
	s.store.Set(sessionKeyLastActive, s.now().Unix())
	return s.save("refresh")
}

func (s *Session) active() (identityRecord, bool) {
	record, ok := s.stored()
	if !ok || s.idleExpired() {
		return identityRecord{}, false
	}
	return record, true
}

func (s *Session) stored() (identityRecord, bool) {
	record, ok := s.store.Get(sessionKeyIdentity).(identityRecord)
	if !ok || record.UserID == "" {
		return identityRecord{}, false
	}
	return record, true
}

func (s *Session) idleExpired() bool {
	lastActive := readUnix(s.store.Get(sessionKeyLastActive))
	if lastActive.IsZero() {
		return true
	}
	return s.now().Sub(lastActive) > s.idle
}

func (s *Session) save(operation string) error {
	if err := s.store.Save(); err != nil {
		return oops.Code("AUTH_SESSION_SAVE_FAILED").
			With("operation", operation).
			Wrapf(withKind(ErrStoreUnavailable, err), "save session")
	}
	return nil
}

// SessionBinder は gin のリクエストごとに Session を束縛します。
// 同じリクエスト内では同じ Session を返します。
type SessionBinder struct {
	idle time.Duration
	now  func() time.Time
}

// NewSessionBinder は SessionBinder を作成します。
func NewSessionBinder(idle time.Duration) *SessionBinder {
	return &SessionBinder{idle: idle, now: time.Now}
}

// Bind は現在のリクエストの Session を返します。sessions.Sessions ミドルウェアが前提です。
func (b *SessionBinder) Bind(c *gin.Context) *Session {
	if v, ok := c.Get(contextSessionKey); ok {
		if session, ok := v.(*Session); ok {
			return session
		}
	}
	session := NewSession(sessions.Default(c), b.idle, b.now)
	c.Set(contextSessionKey, session)
	return session
}

func readUnix(v any) time.Time {
	switch t := v.(type) {
	case int64:
		return time.Unix(t, 0)
	case int:
		return time.Unix(int64(t), 0)
	case float64:
		return time.Unix(int64(t), 0)
	default:
		return time.Time{}
	}
}
