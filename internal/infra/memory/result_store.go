package memory

import (
	"context"
	"sync"

	"quiz-arena-service/internal/domain"
)

// ResultStore is an in-memory, append-only implementation of
// app.ResultPersister for tests and DB-less runs.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.Result
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Save(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// All returns a copy of every stored result.
func (s *ResultStore) All() []domain.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Result, len(s.results))
	copy(out, s.results)
	return out
}
