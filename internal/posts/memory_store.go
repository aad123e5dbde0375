package posts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"
)

// MemoryStore はプロセス内の Store です。
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	posts  map[int64]Post
	now    func() time.Time
}

// NewMemoryStore は空の MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		posts: make(map[int64]Post),
		now:   time.Now,
	}
}

// ListActive は公開中の投稿を新しい順に返します。
func (s *MemoryStore) ListActive(_ context.Context) ([]Post, error) {
	return s.filter(func(p Post) bool { return p.IsActive }), nil
}

// ListByUser は userID の投稿を新しい順に返します。
func (s *MemoryStore) ListByUser(_ context.Context, userID int64) ([]Post, error) {
	return s.filter(func(p Post) bool { return p.UserID == userID }), nil
}

// Get は ID で投稿を返します。
func (s *MemoryStore) Get(_ context.Context, id int64) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, ok := s.posts[id]
	if !ok {
		return nil, oops.Code("POST_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	return &post, nil
}

// Create は投稿を追加し、ID と作成日時を埋めます。
func (s *MemoryStore) Create(_ context.Context, post *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	post.ID = s.nextID
	post.CreatedAt = s.now().UTC()
	s.posts[post.ID] = *post
	return nil
}

// Update はタイトル・本文・公開状態を更新します。
func (s *MemoryStore) Update(_ context.Context, post *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.posts[post.ID]
	if !ok || existing.UserID != post.UserID {
		return oops.Code("POST_NOT_FOUND").With("id", post.ID).Wrap(ErrNotFound)
	}
	existing.Title = post.Title
	existing.Description = post.Description
	existing.IsActive = post.IsActive
	s.posts[post.ID] = existing
	*post = existing
	return nil
}

// Delete は投稿を削除します。
func (s *MemoryStore) Delete(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.posts[id]
	if !ok || existing.UserID != userID {
		return oops.Code("POST_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	delete(s.posts, id)
	return nil
}

func (s *MemoryStore) filter(keep func(Post) bool) []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result
}
