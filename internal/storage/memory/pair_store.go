package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/storage"
)

// PairStore is an in-memory implementation of storage.PairStore.
type PairStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TokenPair // keyed by composite key
}

// NewPairStore creates a new in-memory pair store.
func NewPairStore() *PairStore {
	return &PairStore{
		data: make(map[string]*domain.TokenPair),
	}
}

// pairKey generates the unique key for a pair.
func pairKey(baseAddress, pairAddress string) string {
	return fmt.Sprintf("%s|%s", baseAddress, pairAddress)
}

// Upsert inserts a pair or refreshes the existing row in place.
func (s *PairStore) Upsert(_ context.Context, p *domain.TokenPair) error {
	if p == nil || p.BaseAddress == "" || p.PairAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *p
	s.data[pairKey(p.BaseAddress, p.PairAddress)] = &copy
	return nil
}

// GetByPairAddress retrieves one pair by its pool address.
func (s *PairStore) GetByPairAddress(_ context.Context, pairAddress string) (*domain.TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data {
		if p.PairAddress == pairAddress {
			copy := *p
			return &copy, nil
		}
	}
	return nil, storage.ErrNotFound
}

// List retrieves all pairs ordered by base symbol, quote symbol, pair address.
func (s *PairStore) List(_ context.Context) ([]*domain.TokenPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenPair, 0, len(s.data))
	for _, p := range s.data {
		copy := *p
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := derefSymbol(result[i].BaseSymbol), derefSymbol(result[j].BaseSymbol)
		if a != b {
			return a < b
		}
		qa, qb := derefSymbol(result[i].QuoteSymbol), derefSymbol(result[j].QuoteSymbol)
		if qa != qb {
			return qa < qb
		}
		return result[i].PairAddress < result[j].PairAddress
	})

	return result, nil
}

// Delete removes a pair and returns the number of rows removed.
func (s *PairStore) Delete(_ context.Context, baseAddress, pairAddress string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(baseAddress, pairAddress)
	if _, exists := s.data[key]; !exists {
		return 0, nil
	}
	delete(s.data, key)
	return 1, nil
}

func derefSymbol(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ storage.PairStore = (*PairStore)(nil)
