package auth

import (
	"context"
	"sync"

	"github.com/samber/oops"
)

// MemoryUserStore はプロセス内の UserStore です。DATABASE_URL 未設定時とテストで使います。
// 存在確認と追加を同じロック内で行うため、同名の同時サインアップは片方だけが成功します。
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID int64
	byName map[string]*Identity
	byID   map[int64]*Identity
}

// NewMemoryUserStore は空の MemoryUserStore を作成します。
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byName: make(map[string]*Identity),
		byID:   make(map[int64]*Identity),
	}
}

// FindByUsername はユーザー名で検索します。
func (s *MemoryUserStore) FindByUsername(_ context.Context, username string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byName[username]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("username", username).Wrap(ErrNotFound)
	}
	copied := *identity
	return &copied, nil
}

// FindByID は ID で検索します。
func (s *MemoryUserStore) FindByID(_ context.Context, id int64) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	copied := *identity
	return &copied, nil
}

// Create はユーザーを追加します。
func (s *MemoryUserStore) Create(_ context.Context, candidate Candidate) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[candidate.Username]; exists {
		return nil, oops.Code("USER_CONFLICT").With("username", candidate.Username).Wrap(ErrUsernameConflict)
	}

	s.nextID++
	identity := &Identity{
		ID:           s.nextID,
		Username:     candidate.Username,
		PasswordHash: candidate.PasswordHash,
	}
	s.byName[identity.Username] = identity
	s.byID[identity.ID] = identity

	copied := *identity
	return &copied, nil
}
