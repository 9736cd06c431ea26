package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authflow/internal/model"
)

var _ model.ChallengeStore = (*ChallengeStore)(nil)

// ChallengeStore keeps pending two-factor challenges in a map.
// Expired entries are dropped lazily on access and on Create.
type ChallengeStore struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]model.Challenge
	now        func() time.Time
}

func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{
		challenges: make(map[uuid.UUID]model.Challenge),
		now:        time.Now,
	}
}

func (s *ChallengeStore) Create(_ context.Context, challenge model.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, c := range s.challenges {
		if c.Expired(now) {
			delete(s.challenges, id)
		}
	}
	s.challenges[challenge.ID] = challenge
	return nil
}

func (s *ChallengeStore) Get(_ context.Context, id uuid.UUID) (model.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok {
		return model.Challenge{}, model.ErrNotFound
	}
	if c.Expired(s.now()) {
		delete(s.challenges, id)
		return model.Challenge{}, model.ErrNotFound
	}
	return c, nil
}

func (s *ChallengeStore) Update(_ context.Context, challenge model.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[challenge.ID]; !ok {
		return model.ErrNotFound
	}
	s.challenges[challenge.ID] = challenge
	return nil
}

func (s *ChallengeStore) Consume(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.challenges, id)
	return nil
}
