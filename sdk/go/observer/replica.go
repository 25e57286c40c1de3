package observer

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/world"
	"github.com/zeusync/farmlife/internal/server"
)

// Replica mirrors the simulation from the observer feed. It is safe for
// concurrent use.
type Replica struct {
	mu       sync.RWMutex
	version  uint64
	frame    uint64
	synced   bool
	entities map[models.EntityID]world.View
}

func NewReplica() *Replica {
	return &Replica{entities: make(map[models.EntityID]world.View)}
}

// Apply folds one frame into the replica. It reports whether the frame
// changed anything: deltas at or below the current version are stale and
// skipped. Error frames are returned as ErrServerRejected.
func (r *Replica) Apply(f server.Frame) (bool, error) {
	switch f.Type {
	case server.FrameError:
		return false, fmt.Errorf("%w: %s", ErrServerRejected, f.Error)
	case server.FrameSnapshot, server.FrameDelta:
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownFrame, f.Type)
	}
	if f.Delta == nil {
		return false, nil
	}
	d := f.Delta

	r.mu.Lock()
	defer r.mu.Unlock()

	if f.Type == server.FrameSnapshot {
		clear(r.entities)
		r.synced = true
	} else {
		if !r.synced {
			return false, ErrNoSnapshot
		}
		if d.Version <= r.version {
			return false, nil
		}
	}

	for _, v := range d.Upserts {
		r.entities[v.ID] = v
	}
	for _, id := range d.Removals {
		delete(r.entities, id)
	}
	r.version, r.frame = d.Version, d.Frame
	return true, nil
}

func (r *Replica) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

func (r *Replica) Frame() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frame
}

func (r *Replica) Get(id models.EntityID) (world.View, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entities[id]
	return v, ok
}

// Views lists the mirrored entities in id order, optionally filtered by kind.
func (r *Replica) Views(kind models.Kind) []world.View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]world.View, 0, len(r.entities))
	for _, id := range slices.Sorted(maps.Keys(r.entities)) {
		v := r.entities[id]
		if kind == models.KindUnknown || v.Kind == kind.String() {
			out = append(out, v)
		}
	}
	return out
}

// Counts tallies the mirrored entities by kind name.
func (r *Replica) Counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int)
	for _, v := range r.entities {
		out[v.Kind]++
	}
	return out
}

// Species tallies the mirrored creatures by species, sorted by name.
func (r *Replica) Species() []SpeciesCount {
	r.mu.RLock()
	counts := make(map[string]int)
	for _, v := range r.entities {
		if v.Creature != nil {
			counts[v.Creature.Species]++
		}
	}
	r.mu.RUnlock()

	out := make([]SpeciesCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, SpeciesCount{Species: name, Count: n})
	}
	slices.SortFunc(out, func(a, b SpeciesCount) int { return cmp.Compare(a.Species, b.Species) })
	return out
}

type SpeciesCount struct {
	Species string
	Count   int
}
