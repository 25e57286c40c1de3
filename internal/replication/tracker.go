// Package replication turns successive world snapshots into versioned deltas
// for read-only observers.
package replication

import (
	"maps"
	"slices"
	"sync"

	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/world"
	"github.com/zeusync/farmlife/pkg/encoding"
)

// Delta is one replication frame. A full frame carries every entity and no removals.
type Delta struct {
	Version  uint64            `json:"version"`
	Frame    uint64            `json:"frame"`
	Full     bool              `json:"full,omitempty"`
	Upserts  []world.View      `json:"upserts,omitempty"`
	Removals []models.EntityID `json:"removals,omitempty"`
}

func (d Delta) Empty() bool { return len(d.Upserts) == 0 && len(d.Removals) == 0 }

// Tracker remembers the last collected state. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	version uint64
	frame   uint64
	hashes  map[models.EntityID]uint64
	views   map[models.EntityID]world.View
	log     log.Log
}

func NewTracker(logger log.Log) *Tracker {
	return &Tracker{
		hashes: make(map[models.EntityID]uint64),
		views:  make(map[models.EntityID]world.View),
		log:    log.OrNop(logger).With(log.String("component", "replication")),
	}
}

// Collect diffs views against the previous call. It reports false when nothing
// changed; the version only advances on a non-empty delta.
func (t *Tracker) Collect(frame uint64, views []world.View) (Delta, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.frame = frame
	seen := make(map[models.EntityID]struct{}, len(views))
	var d Delta
	for _, v := range views {
		seen[v.ID] = struct{}{}
		h, err := encoding.Hash(v)
		if err != nil {
			// unhashable views are always resent
			t.log.Warn("view hash failed", log.Uint64("entity", uint64(v.ID)), log.Error(err))
		} else if prev, ok := t.hashes[v.ID]; ok && prev == h {
			continue
		}
		t.hashes[v.ID] = h
		t.views[v.ID] = v
		d.Upserts = append(d.Upserts, v)
	}
	for _, id := range slices.Sorted(maps.Keys(t.views)) {
		if _, ok := seen[id]; !ok {
			delete(t.views, id)
			delete(t.hashes, id)
			d.Removals = append(d.Removals, id)
		}
	}

	if d.Empty() {
		return Delta{}, false
	}
	t.version++
	d.Version, d.Frame = t.version, frame
	return d, true
}

// Full is a snapshot of the last collected state at the current version.
func (t *Tracker) Full() Delta {
	t.mu.Lock()
	defer t.mu.Unlock()

	d := Delta{Version: t.version, Frame: t.frame, Full: true, Upserts: make([]world.View, 0, len(t.views))}
	for _, id := range slices.Sorted(maps.Keys(t.views)) {
		d.Upserts = append(d.Upserts, t.views[id])
	}
	return d
}

func (t *Tracker) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}
