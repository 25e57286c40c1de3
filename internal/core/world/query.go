package world

import (
	"maps"
	"slices"

	"github.com/zeusync/farmlife/internal/core/ai"
	"github.com/zeusync/farmlife/internal/core/creature"
	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/nest"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/physics"
)

// OverlapSphere returns the ids on layer within radius of center, ascending.
// At most QueryLimit ids are returned; the lowest ids win.
func (w *World) OverlapSphere(center physics.Vec3, radius float64, layer models.Layer) []models.EntityID {
	w.mu.RLock()
	var out []models.EntityID
	if layer.Has(models.LayerCreatures) {
		for id, e := range w.creatures {
			if physics.Distance(center, e.body.Position()) <= radius {
				out = append(out, id)
			}
		}
	}
	if layer.Has(models.LayerNests) {
		for id, n := range w.nests {
			if physics.Distance(center, n.Position()) <= radius {
				out = append(out, id)
			}
		}
	}
	if layer.Has(models.LayerEggs) {
		for id, e := range w.eggs {
			if physics.Distance(center, e.Position()) <= radius {
				out = append(out, id)
			}
		}
	}
	w.mu.RUnlock()

	slices.Sort(out)
	if len(out) > w.cfg.QueryLimit {
		w.log.Debug("overlap query truncated", log.Int("hits", len(out)), log.Int("limit", w.cfg.QueryLimit))
		out = out[:w.cfg.QueryLimit]
	}
	return out
}

func (w *World) Candidate(id models.EntityID) (ai.Candidate, bool) {
	e, ok := w.creatureEntry(id)
	if !ok {
		return ai.Candidate{}, false
	}
	return ai.Candidate{
		ID:           id,
		Species:      e.creature.Species(),
		Gender:       e.creature.Gender(),
		Position:     e.body.Position(),
		Wandering:    e.brain.Wandering(),
		Reproduction: e.repro,
	}, true
}

func (w *World) Genes(id models.EntityID) ([]*genetics.Gene, bool) {
	e, ok := w.creatureEntry(id)
	if !ok {
		return nil, false
	}
	return e.creature.Genome().Genes(), true
}

func (w *World) Creature(id models.EntityID) (*creature.Creature, bool) {
	e, ok := w.creatureEntry(id)
	if !ok {
		return nil, false
	}
	return e.creature, true
}

// Body is the movement state of a creature.
func (w *World) Body(id models.EntityID) (*Body, bool) {
	e, ok := w.creatureEntry(id)
	if !ok {
		return nil, false
	}
	return e.body, true
}

// Brain is the behavior driving a creature.
func (w *World) Brain(id models.EntityID) (ai.Brain, bool) {
	e, ok := w.creatureEntry(id)
	if !ok {
		return nil, false
	}
	return e.brain, true
}

func (w *World) Nest(id models.EntityID) (*nest.Nest, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n, ok := w.nests[id]
	return n, ok
}

func (w *World) Egg(id models.EntityID) (*egg.Egg, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.eggs[id]
	return e, ok
}

// Creatures lists creature ids in ascending order.
func (w *World) Creatures() []models.EntityID { return w.creatureIDs() }

func (w *World) Nests() []models.EntityID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Sorted(maps.Keys(w.nests))
}

func (w *World) Eggs() []models.EntityID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Sorted(maps.Keys(w.eggs))
}

// GeneTemplate looks up the catalog definition of a gene id.
func (w *World) GeneTemplate(id int) (*genetics.Gene, bool) {
	return w.catalog.GeneByID(id)
}
