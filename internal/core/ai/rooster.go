package ai

import (
	"errors"
	"fmt"

	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/physics"
	"github.com/zeusync/farmlife/internal/core/reproduction"
	"github.com/zeusync/farmlife/pkg/sequence"
)

type RoosterState uint8

const (
	RoosterIdle RoosterState = iota
	RoosterWander
	RoosterSeekMate
	RoosterBreed
)

func (s RoosterState) String() string {
	switch s {
	case RoosterIdle:
		return "idle"
	case RoosterWander:
		return "wander"
	case RoosterSeekMate:
		return "seek_mate"
	case RoosterBreed:
		return "breed"
	default:
		return fmt.Sprintf("rooster_state(%d)", uint8(s))
	}
}

// Rooster wanders, courts the nearest eligible hen and breeds with her.
type Rooster struct {
	deps    Deps
	cfg     Config
	cadence Cadence
	repro   *reproduction.Component
	log     log.Log

	state  RoosterState
	wander wanderer
	target models.EntityID
}

var _ Brain = (*Rooster)(nil)

// NewRooster builds a rooster brain and binds it to repro as the behavior
// reset after a successful breed.
func NewRooster(deps Deps, cfg Config, repro *reproduction.Component) *Rooster {
	r := &Rooster{
		deps:    deps,
		cfg:     cfg,
		cadence: NewCadence(cfg.TickInterval),
		repro:   repro,
		log:     brainLog(deps, "rooster"),
	}
	repro.BindBehavior(r)
	return r
}

func (r *Rooster) Tick(dt float64) error {
	elapsed, due := r.cadence.Advance(dt)
	if !due {
		return nil
	}
	if err := r.evaluateTransition(); err != nil {
		return err
	}
	return r.act(elapsed)
}

func (r *Rooster) evaluateTransition() error {
	switch r.state {
	case RoosterIdle:
		r.state = RoosterWander
	case RoosterWander:
		if mate, ok := r.findMate(); ok {
			r.target = mate.ID
			r.wander.reset()
			r.state = RoosterSeekMate
			r.log.Debug("mate spotted", log.Uint64("target", uint64(mate.ID)))
		}
	case RoosterSeekMate:
		mate, ok := r.deps.World.Candidate(r.target)
		switch {
		case !ok || mate.Pregnant():
			r.target = models.NoEntity
			r.state = RoosterWander
		case r.deps.Mover.HasReached(mate.Position, r.cfg.BreedingDistance):
			r.state = RoosterBreed
		}
	case RoosterBreed:
	default:
		return invalidState("rooster", r.state)
	}
	return nil
}

func (r *Rooster) act(elapsed float64) error {
	switch r.state {
	case RoosterIdle:
	case RoosterWander:
		r.wander.step(elapsed, r.deps, r.cfg)
	case RoosterSeekMate:
		if mate, ok := r.deps.World.Candidate(r.target); ok {
			r.deps.Mover.MoveTo(mate.Position)
		}
	case RoosterBreed:
		r.breed()
	default:
		return invalidState("rooster", r.state)
	}
	return nil
}

// breed tries once and returns to Wander whatever the outcome.
func (r *Rooster) breed() {
	defer r.ForceToWander()

	mate, ok := r.deps.World.Candidate(r.target)
	if !ok {
		return
	}
	err := reproduction.TryBreed(r.repro, mate.Reproduction)
	switch {
	case err == nil:
		r.log.Info("bred", log.Uint64("mate", uint64(mate.ID)))
	case errors.Is(err, fault.ErrInvalidOperation):
		r.log.Debug("breeding refused", log.Uint64("mate", uint64(mate.ID)), log.Error(err))
	default:
		r.log.Warn("breeding failed", log.Uint64("mate", uint64(mate.ID)), log.Error(err))
	}
}

// findMate returns the nearest adult of the opposite gender that is wandering
// and not pregnant.
func (r *Rooster) findMate() (Candidate, bool) {
	pos := r.deps.Mover.Position()
	ids := r.deps.Spatial.OverlapSphere(pos, r.cfg.MateSearchRadius, models.LayerCreatures)

	candidates := sequence.Map(sequence.From(ids), func(id models.EntityID) Candidate {
		if id == r.deps.Self {
			return Candidate{}
		}
		c, _ := r.deps.World.Candidate(id)
		return c
	}).Filter(r.eligible)

	return sequence.MinBy(candidates, func(c Candidate) float64 {
		return physics.Distance(pos, c.Position)
	})
}

func (r *Rooster) eligible(c Candidate) bool {
	return c.ID.Valid() &&
		c.Species.Adult() &&
		c.Gender.Opposite(r.repro.Gender()) &&
		c.Wandering &&
		c.Reproduction != nil &&
		!c.Pregnant()
}

// ForceToWander drops any courtship and resumes wandering.
func (r *Rooster) ForceToWander() {
	r.target = models.NoEntity
	r.wander.reset()
	r.state = RoosterWander
	r.deps.Mover.StopMoving()
}

func (r *Rooster) State() string { return r.state.String() }

func (r *Rooster) Wandering() bool { return r.state == RoosterWander }

func (r *Rooster) Current() RoosterState { return r.state }

// Target is the courted hen, NoEntity when not courting.
func (r *Rooster) Target() models.EntityID { return r.target }
