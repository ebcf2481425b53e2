package store

import (
	"context"
	"sort"
	"sync"

	"volur/types"
)

// MemoryValuationStore keeps valuations in process. Used when no MongoDB is
// configured, and by tests.
type MemoryValuationStore struct {
	mu         sync.RWMutex
	valuations map[string]types.AnalyzedValuation
}

func NewMemoryValuationStore() *MemoryValuationStore {
	return &MemoryValuationStore{valuations: make(map[string]types.AnalyzedValuation)}
}

func memoryKey(ticker, source string) string {
	return ticker + "|" + source
}

func (s *MemoryValuationStore) Save(_ context.Context, valuation types.AnalyzedValuation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valuations[memoryKey(valuation.Ticker, valuation.Source)] = valuation
	return nil
}

func (s *MemoryValuationStore) Get(_ context.Context, ticker, source string) (types.AnalyzedValuation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	valuation, ok := s.valuations[memoryKey(ticker, source)]
	if !ok {
		return valuation, ErrNotFound
	}
	return valuation, nil
}

func (s *MemoryValuationStore) List(_ context.Context, pageNumber int, interpretation string) ([]types.AnalyzedValuation, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	s.mu.RLock()
	all := make([]types.AnalyzedValuation, 0, len(s.valuations))
	for _, v := range s.valuations {
		if interpretation == "" || v.Interpretation == interpretation {
			all = append(all, v)
		}
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Ticker != all[j].Ticker {
			return all[i].Ticker < all[j].Ticker
		}
		return all[i].Source < all[j].Source
	})

	start := PageSize * (pageNumber - 1)
	if start >= len(all) {
		return []types.AnalyzedValuation{}, nil
	}
	end := start + PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}
