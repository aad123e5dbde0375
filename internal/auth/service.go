package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/yourusername/postboard/internal/metrics"
)

// dummyPassword から作るハッシュは、存在しないユーザーでも検証処理を走らせて
// 応答時間をそろえるためだけに使います。
const dummyPassword = "postboard-timing-dummy"

// Service はサインアップ・ログイン・ログアウトのユースケースです。
type Service struct {
	users     UserStore
	hasher    CredentialHasher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	dummyHash string
}

// NewService は Service を作成します。logger と m は nil でも構いません。
func NewService(users UserStore, hasher CredentialHasher, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	if users == nil {
		return nil, errors.New("users is nil")
	}
	if hasher == nil {
		return nil, errors.New("hasher is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").With("operation", "hash dummy password").Wrap(err)
	}

	return &Service{
		users:     users,
		hasher:    hasher,
		logger:    logger,
		metrics:   m,
		dummyHash: dummyHash,
	}, nil
}

// Signup はユーザーを作成し、成功した場合のみセッションをログイン状態にします。
func (s *Service) Signup(ctx context.Context, session SessionManager, username, password string) (*Identity, error) {
	if !validUsername(username) || password == "" {
		s.metrics.Signup(metrics.ResultFailure)
		return nil, oops.Code("AUTH_INVALID_INPUT").With("operation", "signup").Wrap(ErrInvalidInput)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.Signup(metrics.ResultError)
		return nil, oops.Code("AUTH_SIGNUP_FAILED").With("operation", "hash password").Wrap(err)
	}

	identity, err := s.users.Create(ctx, Candidate{Username: username, PasswordHash: passwordHash})
	if err != nil {
		if errors.Is(err, ErrUsernameConflict) {
			s.metrics.Signup(metrics.ResultConflict)
			return nil, oops.Code("AUTH_USERNAME_CONFLICT").With("username", username).Wrap(err)
		}
		s.metrics.Signup(metrics.ResultError)
		return nil, oops.Code("AUTH_SIGNUP_FAILED").With("operation", "create user").Wrap(err)
	}

	if err := session.Login(identity.ID, identity.Username); err != nil {
		s.metrics.Signup(metrics.ResultError)
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "start session").
			With("user_id", identity.ID).
			Wrap(err)
	}

	s.metrics.Signup(metrics.ResultSuccess)
	s.logger.InfoContext(ctx, "user signed up", "user_id", identity.ID)
	return identity, nil
}

// Login は資格情報を検証してセッションをログイン状態にします。
// ユーザーが存在しない場合とパスワードが違う場合は同じ ErrInvalidCredentials を返します。
func (s *Service) Login(ctx context.Context, session SessionManager, username, password string) (*Identity, error) {
	if username == "" || password == "" {
		s.metrics.Login(metrics.ResultFailure)
		return nil, oops.Code("AUTH_INVALID_INPUT").With("operation", "login").Wrap(ErrInvalidInput)
	}

	identity, lookupErr := s.users.FindByUsername(ctx, username)

	targetHash := s.dummyHash
	exists := false
	switch {
	case lookupErr == nil:
		targetHash = identity.PasswordHash
		exists = true
	case !errors.Is(lookupErr, ErrNotFound):
		s.metrics.Login(metrics.ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find user by username").
			Wrap(lookupErr)
	}

	// ユーザー不在でも検証は必ず行う
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && exists {
		s.metrics.Login(metrics.ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", identity.ID).
			Wrap(verifyErr)
	}

	if !exists || !valid {
		s.metrics.Login(metrics.ResultFailure)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if err := session.Login(identity.ID, identity.Username); err != nil {
		s.metrics.Login(metrics.ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "start session").
			With("user_id", identity.ID).
			Wrap(err)
	}

	s.metrics.Login(metrics.ResultSuccess)
	s.logger.InfoContext(ctx, "user logged in", "user_id", identity.ID)
	return identity, nil
}

// Logout はセッションのログイン情報を破棄します。
func (s *Service) Logout(session SessionManager) error {
	if err := session.Logout(); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").Wrap(err)
	}
	return nil
}
