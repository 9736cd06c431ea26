package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dtroode/authflow/internal/model"
)

var _ model.AttemptStore = (*AttemptStore)(nil)

// AttemptStore keeps failed-login counters in a map. Nothing survives a restart.
type AttemptStore struct {
	mu       sync.Mutex
	counters map[string]model.AttemptState
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{counters: make(map[string]model.AttemptState)}
}

func (s *AttemptStore) Get(_ context.Context, email string) (model.AttemptState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.counters[emailKey(email)]
	if !ok {
		return model.AttemptState{Email: email}, nil
	}
	return state, nil
}

func (s *AttemptStore) RecordFailure(_ context.Context, email string, at time.Time) (model.AttemptState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(email)
	state := s.counters[key]
	state.Email = email
	state.Count++
	state.LastAttemptAt = at
	s.counters[key] = state

	return state, nil
}

func (s *AttemptStore) Clear(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.counters, emailKey(email))
	return nil
}
