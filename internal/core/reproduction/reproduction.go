// Package reproduction holds per-creature pregnancy and nest state and the
// breeding transaction between two creatures.
package reproduction

import (
	"fmt"
	"sync"

	"github.com/zeusync/farmlife/internal/core/creature"
	"github.com/zeusync/farmlife/internal/core/events/bus"
	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/nest"
	"github.com/zeusync/farmlife/internal/core/observability/log"
)

const EventPregnant = "reproduction.pregnant"

// Pregnant is published when a female becomes pregnant.
type Pregnant struct {
	Mother models.EntityID
	Father models.EntityID
}

var (
	ErrNilParty        = fmt.Errorf("%w: breeding party missing", fault.ErrInvalidOperation)
	ErrSelfBreeding    = fmt.Errorf("%w: creature cannot breed with itself", fault.ErrInvalidOperation)
	ErrSameGender      = fmt.Errorf("%w: same gender breeding", fault.ErrInvalidOperation)
	ErrAlreadyPregnant = fmt.Errorf("%w: female already pregnant", fault.ErrInvalidOperation)
	ErrNestAlreadyHeld = fmt.Errorf("%w: creature already holds a nest", fault.ErrInvalidOperation)
	ErrNilNest         = fmt.Errorf("%w: nil nest", fault.ErrInvalidArgument)
)

// Behavior is the AI side a successful breed resets.
type Behavior interface {
	ForceToWander()
}

// NestSeeker is implemented by behaviors that can be pushed straight to nest seeking.
type NestSeeker interface {
	ForceSeekNest()
}

// Component is one creature's reproduction state. All methods are safe for concurrent use.
type Component struct {
	mu sync.Mutex

	owner    models.EntityID
	gender   creature.Gender
	pregnant bool
	father   models.EntityID
	nest     models.EntityID
	behavior Behavior

	bus bus.EventBus
	log log.Log
}

func New(owner models.EntityID, gender creature.Gender, b bus.EventBus, logger log.Log) *Component {
	return &Component{
		owner:  owner,
		gender: gender,
		bus:    bus.OrDiscard(b),
		log:    log.OrNop(logger).With(log.Uint64("creature", uint64(owner))),
	}
}

// BindBehavior attaches the AI the component resets after breeding.
func (c *Component) BindBehavior(b Behavior) {
	c.mu.Lock()
	c.behavior = b
	c.mu.Unlock()
}

func (c *Component) Owner() models.EntityID  { return c.owner }
func (c *Component) Gender() creature.Gender { return c.gender }

// MarkPregnant records father and reports whether the state changed. It is a
// no-op for a pregnant or male creature and for an unset father.
func (c *Component) MarkPregnant(father models.EntityID) bool {
	c.mu.Lock()
	changed := c.markPregnantLocked(father)
	c.mu.Unlock()

	if changed {
		c.publishPregnant(father)
	}
	return changed
}

func (c *Component) markPregnantLocked(father models.EntityID) bool {
	if c.pregnant || c.gender != creature.Female || !father.Valid() {
		return false
	}
	c.pregnant = true
	c.father = father
	return true
}

// UnmarkPregnant clears the pregnancy. Idempotent.
func (c *Component) UnmarkPregnant() {
	c.mu.Lock()
	c.pregnant = false
	c.father = models.NoEntity
	c.mu.Unlock()
}

func (c *Component) IsPregnant() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pregnant
}

// Father is the recorded father, NoEntity when not pregnant.
func (c *Component) Father() models.EntityID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.father
}

// AssignNest claims n for this creature. An occupied nest rejects the claim.
func (c *Component) AssignNest(n *nest.Nest) error {
	if n == nil {
		return ErrNilNest
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nest.Valid() && c.nest != n.ID() {
		return ErrNestAlreadyHeld
	}
	if err := n.Assign(c.owner); err != nil {
		return err
	}
	c.nest = n.ID()
	return nil
}

// UnassignNest forgets the nest back-reference and, when n is the held nest,
// releases the occupancy. n may be nil when the nest is gone.
func (c *Component) UnassignNest(n *nest.Nest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n != nil && n.ID() == c.nest {
		_ = n.Unassign(c.owner)
	}
	c.nest = models.NoEntity
}

// Nest is the id of the held nest, NoEntity if none.
func (c *Component) Nest() models.EntityID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nest
}

// TryBreed runs the breeding transaction between self and other. Both
// components stay locked until the female is pregnant and the male's
// behavior has been reset, so no observer sees one without the other.
//
// The bound behaviors are called with the locks held and must not call back
// into either component.
func TryBreed(self, other *Component) error {
	switch {
	case self == nil || other == nil:
		return ErrNilParty
	case self == other || self.owner == other.owner:
		return ErrSelfBreeding
	case self.gender == other.gender:
		return ErrSameGender
	}

	male, female := self, other
	if self.gender == creature.Female {
		male, female = other, self
	}

	first, second := male, female
	if second.owner < first.owner {
		first, second = second, first
	}
	first.mu.Lock()
	second.mu.Lock()

	if female.pregnant {
		father := female.father
		second.mu.Unlock()
		first.mu.Unlock()
		female.log.Debug("breeding rejected, already pregnant", log.Uint64("father", uint64(father)))
		return ErrAlreadyPregnant
	}

	female.markPregnantLocked(male.owner)
	if male.behavior != nil {
		male.behavior.ForceToWander()
	}
	if seeker, ok := female.behavior.(NestSeeker); ok {
		seeker.ForceSeekNest()
	}

	second.mu.Unlock()
	first.mu.Unlock()

	female.log.Info("pregnant", log.Uint64("father", uint64(male.owner)))
	female.publishPregnant(male.owner)
	return nil
}

func (c *Component) publishPregnant(father models.EntityID) {
	if err := c.bus.Publish(bus.NewEvent(EventPregnant, "reproduction", Pregnant{
		Mother: c.owner,
		Father: father,
	})); err != nil {
		c.log.Warn("pregnant handler failed", log.Error(err))
	}
}
