package rng

import (
	"fmt"

	"episim/domain/core"
)

// Registry owns the set of streams for one run. It arbitrates seed
// offsets so no two streams ever resolve to the same absolute seed, and
// propagates per-timestep advancement and resets to every stream.
//
// A registry (and every stream bound to it) is exclusively owned by a
// single run; reuse across runs would break reproducibility because
// stream state is mutated as the run advances.
type Registry struct {
	baseSeed    uint64
	initialized bool
	streams     []*Stream
	used        map[int]bool
}

// NewRegistry creates an uninitialized registry.
func NewRegistry() *Registry {
	return &Registry{used: make(map[int]bool)}
}

// Initialize sets the base seed. Must be called before any stream binds.
func (r *Registry) Initialize(baseSeed uint64) {
	r.baseSeed = baseSeed
	r.initialized = true
}

// Initialized reports whether Initialize has been called.
func (r *Registry) Initialized() bool { return r.initialized }

// BaseSeed returns the run's base seed.
func (r *Registry) BaseSeed() uint64 { return r.baseSeed }

// Add registers a stream and returns its absolute seed (base + offset).
// Auto-assigned offsets are registration-order-determined integers
// 0,1,2,..., advanced past any offset already claimed explicitly so an
// auto stream can never share an absolute seed with a pinned one. An
// explicit offset that is already in use fails with a seed collision
// error. Called by Stream.Bind; not normally used directly.
func (r *Registry) Add(s *Stream) (uint64, error) {
	if !r.initialized {
		return 0, fmt.Errorf("%w: call Initialize before adding stream %q", core.ErrNotInitialized, s.name)
	}

	var offset int
	if s.offset == nil {
		offset = len(r.streams)
		for r.used[offset] {
			offset++
		}
	} else {
		offset = *s.offset
		if r.used[offset] {
			return 0, core.NewSeedCollisionError(offset, s.name)
		}
	}
	r.used[offset] = true
	r.streams = append(r.streams, s)

	return r.baseSeed + uint64(offset), nil
}

// Get returns the registered stream with the given name.
func (r *Registry) Get(name string) (*Stream, error) {
	for _, s := range r.streams {
		if s.name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", core.ErrStreamNotFound, name)
}

// Len returns the number of registered streams.
func (r *Registry) Len() int { return len(r.streams) }

// StepAll advances every registered stream to timestep t. The outcome is
// independent of iteration order by the Stream contract, but execution is
// deliberately sequential: this design is single-threaded per run.
func (r *Registry) StepAll(t int) error {
	for _, s := range r.streams {
		if err := s.Step(t); err != nil {
			return fmt.Errorf("stepping stream %q: %w", s.name, err)
		}
	}
	return nil
}

// ResetAll restores every registered stream to its initial state.
func (r *Registry) ResetAll() error {
	for _, s := range r.streams {
		if err := s.Reset(); err != nil {
			return fmt.Errorf("resetting stream %q: %w", s.name, err)
		}
	}
	return nil
}
