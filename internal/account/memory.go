package account

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps accounts in a mutex-guarded map. It enforces the
// same email-uniqueness contract as the Postgres store and backs the
// package tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*Account
	byEmail map[string]string // normalized email -> account id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Account),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return clone(s.byID[id]), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return clone(a), nil
}

func (s *MemoryStore) Create(ctx context.Context, a *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := NormalizeEmail(a.Email)
	if _, taken := s.byEmail[email]; taken {
		return nil, ErrConflict
	}

	created := clone(a)
	created.Email = email
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now()
	}
	s.byID[created.ID] = created
	s.byEmail[email] = created.ID
	return clone(created), nil
}

func (s *MemoryStore) Update(ctx context.Context, a *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[a.ID]
	if !ok {
		return nil, ErrConflict
	}
	for provider, subject := range a.LinkedIdentities {
		if existing.LinkedIdentities == nil {
			existing.LinkedIdentities = make(map[string]string)
		}
		existing.LinkedIdentities[provider] = subject
	}
	return clone(existing), nil
}

func clone(a *Account) *Account {
	out := *a
	out.LinkedIdentities = make(map[string]string, len(a.LinkedIdentities))
	for k, v := range a.LinkedIdentities {
		out.LinkedIdentities[k] = v
	}
	return &out
}
