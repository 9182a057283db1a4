// Package service tracks scene aspects and keeps their published chat
// entries synchronized with the authoritative store.
package service

import (
	"sort"
	"sync"

	"github.com/fatexengine/fatex/internal/aspect/domain"
	apperrors "github.com/fatexengine/fatex/internal/errors"
	"github.com/fatexengine/fatex/internal/platform/id"
)

// Store is the scene aspect tracker: a session-scoped registry mapping
// aspect identifiers to their mutable state.
//
// The store is an owned, injectable object rather than ambient package
// state, so handlers receive it explicitly and tests get isolated
// instances. Entries are never evicted by this subsystem.
type Store struct {
	mu          sync.Mutex
	aspects     map[string]*domain.Aspect
	idGenerator func() (string, error)
}

// NewStore creates an empty aspect tracker store.
func NewStore() *Store {
	return &Store{
		aspects:     make(map[string]*domain.Aspect),
		idGenerator: id.NewID,
	}
}

// NewStoreWithIDGenerator creates a store with a custom identifier source.
func NewStoreWithIDGenerator(idGenerator func() (string, error)) *Store {
	store := NewStore()
	if idGenerator != nil {
		store.idGenerator = idGenerator
	}
	return store
}

// Create allocates a new tracked aspect with numBoxes unchecked boxes.
func (s *Store) Create(input domain.CreateAspectInput, numBoxes int) (domain.Aspect, error) {
	aspect, err := domain.NewAspect(input, numBoxes, s.idGenerator)
	if err != nil {
		return domain.Aspect{}, err
	}

	s.mu.Lock()
	s.aspects[aspect.ID] = &aspect
	s.mu.Unlock()

	return aspect.Clone(), nil
}

// Get returns a copy of a tracked aspect.
func (s *Store) Get(aspectID string) (domain.Aspect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	aspect, ok := s.aspects[aspectID]
	if !ok {
		return domain.Aspect{}, notFound(aspectID)
	}
	return aspect.Clone(), nil
}

// Toggle flips one box's checked flag in place and returns the full updated
// aspect. Callers re-render from the returned state, never from a stale
// copy. Unknown identifiers leave the store unchanged.
func (s *Store) Toggle(aspectID, boxID string) (domain.Aspect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	aspect, ok := s.aspects[aspectID]
	if !ok {
		return domain.Aspect{}, notFound(aspectID)
	}

	idx := aspect.BoxIndex(boxID)
	if idx < 0 {
		return domain.Aspect{}, apperrors.WithMetadata(
			apperrors.CodeAspectBoxNotFound,
			"aspect box not tracked",
			map[string]string{"AspectID": aspectID, "BoxID": boxID},
		)
	}

	aspect.Boxes[idx].Checked = !aspect.Boxes[idx].Checked
	return aspect.Clone(), nil
}

// IDs returns the identifiers of all tracked aspects, sorted.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.aspects))
	for id := range s.aspects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func notFound(aspectID string) error {
	return apperrors.WithMetadata(
		apperrors.CodeAspectNotFound,
		"aspect not tracked",
		map[string]string{"AspectID": aspectID},
	)
}
