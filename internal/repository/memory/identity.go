package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/authflow/internal/model"
)

var _ model.IdentityStore = (*IdentityStore)(nil)

// IdentityStore is a fixed in-process identity directory.
type IdentityStore struct {
	mu      sync.RWMutex
	byEmail map[string]model.Identity
	byID    map[uuid.UUID]model.Identity
}

// NewIdentityStore builds a directory from identities. Emails must be unique.
func NewIdentityStore(identities []model.Identity) (*IdentityStore, error) {
	s := &IdentityStore{
		byEmail: make(map[string]model.Identity, len(identities)),
		byID:    make(map[uuid.UUID]model.Identity, len(identities)),
	}
	for _, identity := range identities {
		key := emailKey(identity.Email)
		if _, ok := s.byEmail[key]; ok {
			return nil, fmt.Errorf("duplicate identity email %q", identity.Email)
		}
		s.byEmail[key] = identity
		s.byID[identity.ID] = identity
	}
	return s, nil
}

func (s *IdentityStore) GetByEmail(_ context.Context, email string) (model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byEmail[emailKey(email)]
	if !ok {
		return model.Identity{}, model.ErrNotFound
	}
	return identity, nil
}

func (s *IdentityStore) GetByID(_ context.Context, id uuid.UUID) (model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok {
		return model.Identity{}, model.ErrNotFound
	}
	return identity, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
