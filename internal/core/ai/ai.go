// Package ai implements the tick-driven behavior state machines of roosters,
// hens and chicks.
//
// Every brain is gated by a Cadence: once per interval it first evaluates its
// transitions and then acts in the resulting state. Brains never own other
// entities; targets are ids resolved through World on every use.
package ai

import (
	"fmt"

	"github.com/zeusync/farmlife/internal/core/creature"
	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/nest"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/physics"
	"github.com/zeusync/farmlife/internal/core/random"
	"github.com/zeusync/farmlife/internal/core/reproduction"
)

// Mover is the movement black box: go toward a point, report arrival.
type Mover interface {
	Position() physics.Vec3
	MoveTo(target physics.Vec3)
	HasReached(target physics.Vec3, threshold float64) bool
	StopMoving()
}

// Spatial finds entities near a point. Results are in ascending id order.
type Spatial interface {
	OverlapSphere(center physics.Vec3, radius float64, layer models.Layer) []models.EntityID
}

// Candidate is what a brain may know about another creature.
type Candidate struct {
	ID           models.EntityID
	Species      creature.Species
	Gender       creature.Gender
	Position     physics.Vec3
	Wandering    bool
	Reproduction *reproduction.Component
}

func (c Candidate) Pregnant() bool {
	return c.Reproduction != nil && c.Reproduction.IsPregnant()
}

// World is the directory brains resolve ids through, plus the egg spawner.
type World interface {
	Candidate(id models.EntityID) (Candidate, bool)
	Nest(id models.EntityID) (*nest.Nest, bool)
	// Genes returns the current genes of a creature.
	Genes(id models.EntityID) ([]*genetics.Gene, bool)
	// SpawnEgg creates an initialized egg at n's position. The caller places it in the nest.
	SpawnEgg(n *nest.Nest, genes []genetics.GeneRef, fertilized bool) (*egg.Egg, error)
	Despawn(id models.EntityID)
}

// Brain is a ticking behavior.
type Brain interface {
	Tick(dt float64) error
	State() string
	Wandering() bool
	ForceToWander()
}

// Deps are the capabilities a brain consumes.
type Deps struct {
	Self    models.EntityID
	Mover   Mover
	Spatial Spatial
	World   World
	Rand    random.Source
	Log     log.Log
}

type Config struct {
	TickInterval     float64 `yaml:"tick_interval"`
	WanderRadius     float64 `yaml:"wander_radius"`
	WanderInterval   float64 `yaml:"wander_interval"`
	ArriveThreshold  float64 `yaml:"arrive_threshold"`
	MateSearchRadius float64 `yaml:"mate_search_radius"`
	BreedingDistance float64 `yaml:"breeding_distance"`
	NestSearchRadius float64 `yaml:"nest_search_radius"`
	LayEggDistance   float64 `yaml:"lay_egg_distance"`
}

const DefaultTickInterval = 0.1

func DefaultConfig() Config {
	return Config{
		TickInterval:     DefaultTickInterval,
		WanderRadius:     8,
		WanderInterval:   2,
		ArriveThreshold:  0.25,
		MateSearchRadius: 6,
		BreedingDistance: 1,
		NestSearchRadius: 20,
		LayEggDistance:   0.75,
	}
}

func invalidState(kind string, state fmt.Stringer) error {
	return fmt.Errorf("%w: %s brain in %s", fault.ErrInvalidState, kind, state)
}

const cadenceEpsilon = 1e-9

// Cadence gates brain ticks to a fixed interval. The first Advance always fires.
type Cadence struct {
	interval float64
	elapsed  float64
	started  bool
}

func NewCadence(interval float64) Cadence {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return Cadence{interval: interval}
}

// Advance adds dt and reports whether a tick is due, with the time since the last one.
func (c *Cadence) Advance(dt float64) (elapsed float64, due bool) {
	if dt > 0 {
		c.elapsed += dt
	}
	if c.started && c.elapsed+cadenceEpsilon < c.interval {
		return 0, false
	}
	c.started = true
	elapsed, c.elapsed = c.elapsed, 0
	return elapsed, true
}

func (c *Cadence) Interval() float64 { return c.interval }

// wanderer picks a new random point around the creature every WanderInterval
// seconds, or sooner on arrival.
type wanderer struct {
	dest   physics.Vec3
	active bool
	timer  float64
}

func (w *wanderer) step(elapsed float64, d Deps, cfg Config) {
	w.timer -= elapsed
	if w.active && w.timer > 0 && !d.Mover.HasReached(w.dest, cfg.ArriveThreshold) {
		return
	}
	w.dest = d.Mover.Position().Add(random.InCircle(d.Rand, cfg.WanderRadius))
	w.active = true
	w.timer = cfg.WanderInterval
	d.Mover.MoveTo(w.dest)
}

func (w *wanderer) reset() {
	w.active = false
	w.timer = 0
}

func brainLog(d Deps, kind string) log.Log {
	return log.OrNop(d.Log).With(
		log.Uint64("creature", uint64(d.Self)),
		log.String("brain", kind),
	)
}
