// Package world hosts the simulation: it owns every creature, nest and egg,
// drives their ticks in a fixed order and provides the movement, spatial and
// spawning capabilities the behavior code consumes.
//
// A World is ticked by a single goroutine. Its directory is guarded so lookups
// are safe from elsewhere, but entity state (positions, brain states) must be
// read from the ticking goroutine, e.g. through Views after each Tick.
package world

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/zeusync/farmlife/internal/core/ai"
	"github.com/zeusync/farmlife/internal/core/creature"
	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/events/bus"
	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/nest"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/random"
	"github.com/zeusync/farmlife/internal/core/reproduction"
)

type Config struct {
	Seed uint64
	// HalfExtent bounds the square arena to [-HalfExtent, HalfExtent] on X and Z.
	HalfExtent float64
	MoveSpeed  float64
	// QueryLimit caps the ids a single OverlapSphere returns.
	QueryLimit int

	MaxGenes            int
	AllowDuplicateGenes bool
	StartingGenes       int
	MaxEggs             int
	ChickGrowTime       float64

	AI  ai.Config
	Egg egg.Config
}

func DefaultConfig() Config {
	return Config{
		Seed:          1,
		HalfExtent:    25,
		MoveSpeed:     2,
		QueryLimit:    64,
		MaxGenes:      genetics.DefaultMaxGenes,
		StartingGenes: 4,
		MaxEggs:       nest.DefaultMaxEggs,
		ChickGrowTime: 60,
		AI:            ai.DefaultConfig(),
		Egg:           egg.DefaultConfig(),
	}
}

type creatureEntry struct {
	creature *creature.Creature
	body     *Body
	brain    ai.Brain
	// repro is nil for chicks.
	repro *reproduction.Component
}

type World struct {
	cfg     Config
	catalog *genetics.Catalog
	bus     bus.EventBus
	log     log.Log

	ids models.IDAllocator
	rng random.Source

	mu        sync.RWMutex
	creatures map[models.EntityID]*creatureEntry
	nests     map[models.EntityID]*nest.Nest
	eggs      map[models.EntityID]*egg.Egg

	frame   uint64
	elapsed float64

	// order rearranges the creature visit order of a tick; nil keeps id order.
	order func([]models.EntityID) []models.EntityID
}

var (
	_ ai.World    = (*World)(nil)
	_ ai.Spatial  = (*World)(nil)
	_ egg.Spawner = (*World)(nil)
)

func New(cfg Config, catalog *genetics.Catalog, b bus.EventBus, logger log.Log) (*World, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: world needs a gene catalog", fault.ErrInvalidArgument)
	}
	if cfg.QueryLimit <= 0 {
		cfg.QueryLimit = DefaultConfig().QueryLimit
	}
	return &World{
		cfg:       cfg,
		catalog:   catalog,
		bus:       bus.OrDiscard(b),
		log:       log.OrNop(logger).With(log.String("component", "world")),
		rng:       random.Derive(cfg.Seed, 0),
		creatures: make(map[models.EntityID]*creatureEntry),
		nests:     make(map[models.EntityID]*nest.Nest),
		eggs:      make(map[models.EntityID]*egg.Egg),
	}, nil
}

// phase is one ordered step of a world tick.
type phase struct {
	name string
	run  func(w *World, dt float64) error
}

var phases = []phase{
	{name: "brains", run: (*World).tickBrains},
	{name: "bodies", run: (*World).tickBodies},
	{name: "growth", run: (*World).tickGrowth},
	{name: "eggs", run: (*World).tickEggs},
}

// Tick advances the simulation by dt seconds. Entities are visited in id order
// within each phase. A failing entity is logged and skipped; all failures are
// joined into the returned error.
func (w *World) Tick(dt float64) error {
	if dt < 0 {
		return fmt.Errorf("%w: negative dt %v", fault.ErrInvalidArgument, dt)
	}
	var errs []error
	for _, p := range phases {
		if err := p.run(w, dt); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.name, err))
		}
	}
	w.frame++
	w.elapsed += dt
	return errors.Join(errs...)
}

func (w *World) tickBrains(dt float64) error {
	var errs []error
	for _, id := range w.creatureIDs() {
		e, ok := w.creatureEntry(id)
		if !ok {
			continue
		}
		if err := e.brain.Tick(dt); err != nil {
			w.entityFault("brain tick failed", id, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *World) tickBodies(dt float64) error {
	for _, id := range w.creatureIDs() {
		if e, ok := w.creatureEntry(id); ok {
			e.body.step(dt)
		}
	}
	return nil
}

func (w *World) tickGrowth(dt float64) error {
	var errs []error
	for _, id := range w.creatureIDs() {
		e, ok := w.creatureEntry(id)
		if !ok || !e.creature.Grow(dt) {
			continue
		}
		if _, err := w.grow(id, e); err != nil {
			w.entityFault("growth failed", id, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *World) tickEggs(dt float64) error {
	w.mu.RLock()
	ids := slices.Sorted(maps.Keys(w.eggs))
	w.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		e, ok := w.Egg(id)
		if !ok {
			continue
		}
		if err := e.Tick(dt); err != nil {
			w.entityFault("egg tick failed", id, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *World) entityFault(msg string, id models.EntityID, err error) {
	fields := []log.Field{log.Uint64("entity", uint64(id)), log.Error(err)}
	if errors.Is(err, fault.ErrInvalidState) {
		w.log.Error(msg, fields...)
		return
	}
	w.log.Warn(msg, fields...)
}

func (w *World) creatureIDs() []models.EntityID {
	w.mu.RLock()
	ids := slices.Sorted(maps.Keys(w.creatures))
	w.mu.RUnlock()
	if w.order != nil {
		return w.order(ids)
	}
	return ids
}

func (w *World) creatureEntry(id models.EntityID) (*creatureEntry, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.creatures[id]
	return e, ok
}

func (w *World) Config() Config { return w.cfg }

func (w *World) Catalog() *genetics.Catalog { return w.catalog }

// Frame is the number of completed ticks.
func (w *World) Frame() uint64 { return w.frame }

// Elapsed is the simulated time in seconds.
func (w *World) Elapsed() float64 { return w.elapsed }
