// Package memory is an in-process ledger mirror used in tests and local
// development when no spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jonatasvm/pagamento-sub000/internal/core"
)

type Store struct {
	mu   sync.Mutex
	rows map[int64]core.PaymentRequest
}

func New() *Store {
	return &Store{rows: make(map[int64]core.PaymentRequest)}
}

func (s *Store) Upsert(_ context.Context, r core.PaymentRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[r.ID] = r
	return fmt.Sprintf("mem:%d", r.ID), nil
}

func (s *Store) Remove(_ context.Context, requestID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, requestID)
	return nil
}

// Get returns the mirrored request, if present.
func (s *Store) Get(requestID int64) (core.PaymentRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[requestID]
	return r, ok
}

// Len reports how many requests are mirrored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
