package memory

import (
	"context"
	"sync"

	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/storage"
)

// TokenPriceStore is an in-memory implementation of storage.TokenPriceStore.
type TokenPriceStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenPrice // keyed by token address
}

// NewTokenPriceStore creates a new in-memory token price store.
func NewTokenPriceStore() *TokenPriceStore {
	return &TokenPriceStore{
		data: make(map[string]*domain.TokenPrice),
	}
}

// Upsert inserts or replaces the live price for a token.
func (s *TokenPriceStore) Upsert(_ context.Context, p *domain.TokenPrice) error {
	if p == nil || p.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *p
	s.data[p.Address] = &copy
	return nil
}

// Get retrieves the live price for a token.
func (s *TokenPriceStore) Get(_ context.Context, address string) (*domain.TokenPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

var _ storage.TokenPriceStore = (*TokenPriceStore)(nil)
