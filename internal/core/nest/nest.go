// Package nest implements the exclusive, capacity-bounded slot where a hen lays
// and incubates her eggs.
package nest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/physics"
)

const DefaultMaxEggs = 3

var (
	ErrOccupied    = fmt.Errorf("%w: nest already occupied", fault.ErrInvalidOperation)
	ErrNotOccupant = fmt.Errorf("%w: creature does not occupy nest", fault.ErrInvalidOperation)
	ErrNoOccupant  = fmt.Errorf("%w: occupant id must be set", fault.ErrInvalidArgument)
	ErrNilEgg      = fmt.Errorf("%w: nil egg", fault.ErrInvalidArgument)
	ErrEggInNest   = fmt.Errorf("%w: egg already in nest", fault.ErrInvalidOperation)
	ErrNestFull    = fmt.Errorf("%w: nest at max egg count", fault.ErrResourceExhausted)
)

type Nest struct {
	mu sync.Mutex

	id       models.EntityID
	position physics.Vec3
	maxEggs  int

	occupant   models.EntityID
	eggs       []*egg.Egg
	unsub      map[models.EntityID]func()
	incubating bool

	log log.Log
}

// New builds an empty nest. maxEggs <= 0 falls back to DefaultMaxEggs.
func New(id models.EntityID, position physics.Vec3, maxEggs int, logger log.Log) *Nest {
	if maxEggs <= 0 {
		maxEggs = DefaultMaxEggs
	}
	return &Nest{
		id:       id,
		position: position,
		maxEggs:  maxEggs,
		unsub:    make(map[models.EntityID]func()),
		log:      log.OrNop(logger).With(log.Uint64("nest", uint64(id))),
	}
}

// Assign claims the nest for creature. The check and the set happen under one
// lock, so of two racing callers exactly one wins. A nest still holding eggs
// is occupied even with no hen on it. Re-assigning the current occupant is a
// no-op.
func (n *Nest) Assign(creature models.EntityID) error {
	if !creature.Valid() {
		return ErrNoOccupant
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.occupant == creature {
		return nil
	}
	if n.occupant.Valid() || len(n.eggs) > 0 {
		n.log.Debug("nest claim rejected",
			log.Uint64("creature", uint64(creature)),
			log.Uint64("occupant", uint64(n.occupant)),
		)
		return ErrOccupied
	}
	n.occupant = creature
	return nil
}

// Unassign releases the nest if creature holds it.
func (n *Nest) Unassign(creature models.EntityID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.occupant != creature || !creature.Valid() {
		return ErrNotOccupant
	}
	n.occupant = models.NoEntity
	return nil
}

// AssignEgg places e in the nest. The nest follows the egg until it hatches.
func (n *Nest) AssignEgg(e *egg.Egg) error {
	if e == nil {
		return ErrNilEgg
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.unsub[e.ID()]; ok {
		return ErrEggInNest
	}
	if len(n.eggs) >= n.maxEggs {
		n.log.Warn("nest full, egg rejected",
			log.Uint64("egg", uint64(e.ID())),
			log.Int("max_eggs", n.maxEggs),
		)
		return ErrNestFull
	}

	n.eggs = append(n.eggs, e)
	e.SetPosition(n.position)
	id := e.ID()
	n.unsub[id] = e.OnHatched(func(*egg.Egg) { n.eggHatched(id) })
	return nil
}

func (n *Nest) eggHatched(id models.EntityID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.unsub[id]; !ok {
		return
	}
	delete(n.unsub, id)
	for i, e := range n.eggs {
		if e.ID() == id {
			n.eggs = append(n.eggs[:i], n.eggs[i+1:]...)
			break
		}
	}
	if !n.anyIncubatingLocked() {
		n.incubating = false
	}
}

// SetIncubating starts or stops incubation of every fertilized egg in the nest.
// Unfertilized eggs are left alone. Per-egg failures are logged and joined.
func (n *Nest) SetIncubating(on bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.incubating = on
	var errs []error
	for _, e := range n.eggs {
		if !e.IsFertilized() {
			continue
		}
		var err error
		switch {
		case on && !e.IsIncubating():
			err = e.StartIncubation()
		case !on && e.IsIncubating():
			err = e.StopIncubation()
		}
		if err != nil {
			n.log.Warn("egg incubation toggle failed",
				log.Uint64("egg", uint64(e.ID())),
				log.Bool("on", on),
				log.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear detaches every egg and resets occupancy and incubation. The eggs
// themselves are not destroyed.
func (n *Nest) Clear() {
	n.mu.Lock()
	unsubs := make([]func(), 0, len(n.unsub))
	for _, cancel := range n.unsub {
		unsubs = append(unsubs, cancel)
	}
	n.unsub = make(map[models.EntityID]func())
	n.eggs = nil
	n.occupant = models.NoEntity
	n.incubating = false
	n.mu.Unlock()

	for _, cancel := range unsubs {
		cancel()
	}
}

func (n *Nest) ID() models.EntityID { return n.id }

func (n *Nest) Position() physics.Vec3 { return n.position }

func (n *Nest) MaxEggs() int { return n.maxEggs }

// IsOccupied is true while a hen sits on the nest or any egg remains in it.
func (n *Nest) IsOccupied() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.occupant.Valid() || len(n.eggs) > 0
}

func (n *Nest) Occupant() models.EntityID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.occupant
}

// Eggs returns a snapshot of the eggs in laying order.
func (n *Nest) Eggs() []*egg.Egg {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*egg.Egg(nil), n.eggs...)
}

func (n *Nest) EggCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.eggs)
}

func (n *Nest) IsIncubating() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.incubating
}

func (n *Nest) anyIncubatingLocked() bool {
	for _, e := range n.eggs {
		if e.IsIncubating() {
			return true
		}
	}
	return false
}
