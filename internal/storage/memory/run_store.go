package memory

import (
	"context"
	"sort"
	"sync"

	"dex-liquidity-lab/internal/domain"
	"dex-liquidity-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu     sync.RWMutex
	nextID int64
	runs   map[int64]*domain.LadderRun
	points map[int64]map[int64]*domain.LadderPoint // run id -> usd -> point
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		nextID: 1,
		runs:   make(map[int64]*domain.LadderRun),
		points: make(map[int64]map[int64]*domain.LadderPoint),
	}
}

// CreateRun persists a run header and returns its assigned id.
func (s *RunStore) CreateRun(_ context.Context, run *domain.LadderRun) (int64, error) {
	if run == nil || run.BaseAddress == "" || run.PairAddress == "" {
		return 0, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *run
	copy.ID = s.nextID
	copy.USDLadder = append([]int64(nil), run.USDLadder...)
	s.nextID++

	s.runs[copy.ID] = &copy
	s.points[copy.ID] = make(map[int64]*domain.LadderPoint)
	return copy.ID, nil
}

// SavePoints upserts points keyed by (run_id, usd).
func (s *RunStore) SavePoints(_ context.Context, runID int64, points []*domain.LadderPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[runID]; !exists {
		return storage.ErrNotFound
	}

	for _, p := range points {
		if p == nil {
			return storage.ErrInvalidInput
		}
		copy := *p
		copy.RunID = runID
		s.points[runID][copy.USD] = &copy
	}
	return nil
}

// GetRun retrieves a run header by id.
func (s *RunStore) GetRun(_ context.Context, id int64) (*domain.LadderRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(run), nil
}

// ListRuns retrieves run headers ordered by recency (newest first).
func (s *RunStore) ListRuns(_ context.Context, limit, offset int) ([]*domain.LadderRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.LadderRun, 0, len(s.runs))
	for _, run := range s.runs {
		all = append(all, copyRun(run))
	}
	sortRunsNewestFirst(all)

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// ListRunsByPair retrieves the most recent run headers for one pair.
func (s *RunStore) ListRunsByPair(_ context.Context, pairAddress string, limit int) ([]*domain.LadderRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LadderRun
	for _, run := range s.runs {
		if run.PairAddress == pairAddress {
			result = append(result, copyRun(run))
		}
	}
	sortRunsNewestFirst(result)

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// GetPoints retrieves a run's points ordered by usd ascending.
// A run with no saved points yields an empty list, not an error.
func (s *RunStore) GetPoints(_ context.Context, runID int64) ([]*domain.LadderPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.runs[runID]; !exists {
		return nil, storage.ErrNotFound
	}

	byUSD := s.points[runID]
	result := make([]*domain.LadderPoint, 0, len(byUSD))
	for _, p := range byUSD {
		copy := *p
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].USD < result[j].USD
	})
	return result, nil
}

// DeleteRun removes a run and cascades to all its points.
func (s *RunStore) DeleteRun(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[id]; !exists {
		return 0, nil
	}
	delete(s.runs, id)
	delete(s.points, id)
	return 1, nil
}

func copyRun(run *domain.LadderRun) *domain.LadderRun {
	copy := *run
	copy.USDLadder = append([]int64(nil), run.USDLadder...)
	return &copy
}

func sortRunsNewestFirst(runs []*domain.LadderRun) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].StartedAt != runs[j].StartedAt {
			return runs[i].StartedAt > runs[j].StartedAt
		}
		return runs[i].ID > runs[j].ID
	})
}

var _ storage.RunStore = (*RunStore)(nil)
