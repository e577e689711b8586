// Package registry holds the ordered challenge catalog and resolves units on demand.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/verte-zerg/notabot/internal/challenge"
	"github.com/verte-zerg/notabot/internal/model"
)

var (
	// ErrDuplicateID reports two catalog entries sharing an id.
	ErrDuplicateID = errors.New("duplicate challenge id")
	// ErrNotFound reports an id absent from the catalog.
	ErrNotFound = errors.New("challenge not found")
	// ErrUnknownUnit reports a descriptor whose unit kind has no loader.
	ErrUnknownUnit = errors.New("unit kind is not registered")
	// ErrInvalidDescriptor reports a malformed catalog entry.
	ErrInvalidDescriptor = errors.New("invalid challenge descriptor")
)

// Registry is an immutable, ordered table of challenge descriptors plus the
// id-keyed unit loaders. Resolution results are cached per id.
type Registry struct {
	descriptors []model.ChallengeDescriptor
	positions   map[int]int
	loaders     map[int]challenge.Loader

	group    singleflight.Group
	mu       sync.RWMutex
	resolved map[int]Resolution
}

// New validates descriptors and binds each one to the loader of its unit kind.
// Duplicate ids are a load-time error; a kind without a loader is not, it
// resolves to Failed so the host can fall back to a placeholder.
func New(descriptors []model.ChallengeDescriptor, loaders map[string]challenge.Loader) (*Registry, error) {
	r := &Registry{
		descriptors: make([]model.ChallengeDescriptor, 0, len(descriptors)),
		positions:   make(map[int]int, len(descriptors)),
		loaders:     make(map[int]challenge.Loader, len(descriptors)),
		resolved:    map[int]Resolution{},
	}
	for i, d := range descriptors {
		if err := validateDescriptor(d); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		if prev, ok := r.positions[d.ID]; ok {
			return nil, fmt.Errorf("%w %d: entries %d (%q) and %d (%q)",
				ErrDuplicateID, d.ID, prev+1, r.descriptors[prev].Name, i+1, d.Name)
		}
		r.positions[d.ID] = len(r.descriptors)
		r.descriptors = append(r.descriptors, d)
		if loader, ok := loaders[strings.ToLower(d.Unit)]; ok && loader != nil {
			r.loaders[d.ID] = loader
		}
	}
	return r, nil
}

func validateDescriptor(d model.ChallengeDescriptor) error {
	switch {
	case d.ID <= 0:
		return fmt.Errorf("%w: id must be > 0, got %d", ErrInvalidDescriptor, d.ID)
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: id %d has no name", ErrInvalidDescriptor, d.ID)
	case d.TimeLimit <= 0:
		return fmt.Errorf("%w: id %d time limit must be > 0", ErrInvalidDescriptor, d.ID)
	case d.MaxScore < 0:
		return fmt.Errorf("%w: id %d max score must be >= 0", ErrInvalidDescriptor, d.ID)
	}
	return nil
}

// GetAll returns descriptors in play order.
func (r *Registry) GetAll() []model.ChallengeDescriptor {
	out := make([]model.ChallengeDescriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// GetByID looks up a descriptor. A miss is recoverable.
func (r *Registry) GetByID(id int) (model.ChallengeDescriptor, bool) {
	pos, ok := r.positions[id]
	if !ok {
		return model.ChallengeDescriptor{}, false
	}
	return r.descriptors[pos], true
}

// At returns the descriptor at a 0-based play position.
func (r *Registry) At(index int) (model.ChallengeDescriptor, bool) {
	if index < 0 || index >= len(r.descriptors) {
		return model.ChallengeDescriptor{}, false
	}
	return r.descriptors[index], true
}

// Count returns the number of challenges in a run.
func (r *Registry) Count() int {
	return len(r.descriptors)
}
