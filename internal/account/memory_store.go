package account

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps accounts in process memory. It is meant for development
// and tests; contents are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, exists := s.accounts[email]
	if !exists {
		return nil, ErrNotFound
	}
	// Callers get a copy so their edits only land through Save.
	return acc.clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, acc *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[acc.Email]; exists {
		return ErrDuplicateEmail
	}

	prepareNew(acc, time.Now().UTC())
	s.accounts[acc.Email] = acc.clone()
	return nil
}

func (s *MemoryStore) Save(_ context.Context, acc *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.accounts[acc.Email]
	if !exists || current.ID != acc.ID || current.Version != acc.Version {
		return ErrVersionConflict
	}

	acc.Version++
	acc.UpdatedAt = time.Now().UTC()
	s.accounts[acc.Email] = acc.clone()
	return nil
}
