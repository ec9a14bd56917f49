package auth

import (
	"context"
	"partyrelay/domain"
	"sync"
	"time"
)

// MemoryUserStore keeps login records for the life of the process.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: map[string]domain.User{}}
}

// Register records username with a zero score. Logging in again with the
// same name keeps the existing record.
func (s *MemoryUserStore) Register(ctx context.Context, username string, now time.Time) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[username]; ok {
		return u, nil
	}
	u := domain.User{Username: username, RegisteredAt: now}
	s.users[username] = u
	return u, nil
}

func (s *MemoryUserStore) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	if err := ctx.Err(); err != nil {
		return domain.User{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *MemoryUserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
