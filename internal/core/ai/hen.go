package ai

import (
	"fmt"

	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/nest"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/physics"
	"github.com/zeusync/farmlife/internal/core/reproduction"
	"github.com/zeusync/farmlife/pkg/sequence"
)

type HenState uint8

const (
	HenIdle HenState = iota
	HenWander
	HenSeekNest
	HenLayEgg
	HenIncubate
)

func (s HenState) String() string {
	switch s {
	case HenIdle:
		return "idle"
	case HenWander:
		return "wander"
	case HenSeekNest:
		return "seek_nest"
	case HenLayEgg:
		return "lay_egg"
	case HenIncubate:
		return "incubate"
	default:
		return fmt.Sprintf("hen_state(%d)", uint8(s))
	}
}

// Hen wanders until pregnant, then claims a nest, lays and incubates.
// The held nest lives in the reproduction component.
type Hen struct {
	deps    Deps
	cfg     Config
	cadence Cadence
	repro   *reproduction.Component
	log     log.Log

	state  HenState
	wander wanderer
}

var (
	_ Brain                   = (*Hen)(nil)
	_ reproduction.NestSeeker = (*Hen)(nil)
)

func NewHen(deps Deps, cfg Config, repro *reproduction.Component) *Hen {
	h := &Hen{
		deps:    deps,
		cfg:     cfg,
		cadence: NewCadence(cfg.TickInterval),
		repro:   repro,
		log:     brainLog(deps, "hen"),
	}
	repro.BindBehavior(h)
	return h
}

func (h *Hen) Tick(dt float64) error {
	elapsed, due := h.cadence.Advance(dt)
	if !due {
		return nil
	}
	if err := h.evaluateTransition(); err != nil {
		return err
	}
	return h.act(elapsed)
}

func (h *Hen) evaluateTransition() error {
	switch h.state {
	case HenIdle:
		h.state = HenWander
	case HenWander:
		if h.repro.IsPregnant() {
			h.enterSeekNest()
		}
	case HenSeekNest:
		h.evaluateSeekNest()
	case HenLayEgg:
	case HenIncubate:
		n, ok := h.heldNest()
		if !ok || n.Occupant() != h.deps.Self || n.EggCount() == 0 {
			h.finishCaretaking(n)
		}
	default:
		return invalidState("hen", h.state)
	}
	return nil
}

func (h *Hen) evaluateSeekNest() {
	if !h.repro.IsPregnant() {
		n, _ := h.heldNest()
		h.repro.UnassignNest(n)
		h.state = HenWander
		return
	}

	n, ok := h.heldNest()
	if !ok {
		if h.repro.Nest().Valid() {
			// the claimed nest is gone
			h.repro.UnassignNest(nil)
		}
		if n, ok = h.claimNearestNest(); !ok {
			h.state = HenWander
			return
		}
	}

	if h.deps.Mover.HasReached(n.Position(), h.cfg.LayEggDistance) {
		h.deps.Mover.StopMoving()
		h.state = HenLayEgg
	}
}

// claimNearestNest tries unoccupied nests nearest first until a claim sticks.
func (h *Hen) claimNearestNest() (*nest.Nest, bool) {
	pos := h.deps.Mover.Position()
	queue := sequence.NewPriorityQueue[*nest.Nest]()
	for _, id := range h.deps.Spatial.OverlapSphere(pos, h.cfg.NestSearchRadius, models.LayerNests) {
		if n, ok := h.deps.World.Nest(id); ok && !n.IsOccupied() {
			queue.Enqueue(n, physics.Distance(pos, n.Position()))
		}
	}

	for n, ok := queue.Dequeue(); ok; n, ok = queue.Dequeue() {
		if err := h.repro.AssignNest(n); err != nil {
			h.log.Debug("nest claim lost", log.Uint64("nest", uint64(n.ID())), log.Error(err))
			continue
		}
		h.log.Debug("nest claimed", log.Uint64("nest", uint64(n.ID())))
		return n, true
	}
	return nil, false
}

func (h *Hen) act(elapsed float64) error {
	switch h.state {
	case HenIdle:
	case HenWander:
		h.wander.step(elapsed, h.deps, h.cfg)
	case HenSeekNest:
		if n, ok := h.heldNest(); ok {
			h.deps.Mover.MoveTo(n.Position())
		}
	case HenLayEgg:
		return h.layEgg()
	case HenIncubate:
		// sits still
	default:
		return invalidState("hen", h.state)
	}
	return nil
}

// layEgg crosses the mother's genes with the father's and lays the egg. With
// no father left to resolve, the egg carries the mother's passed genes only,
// is unfertilized and the hen walks away from it.
func (h *Hen) layEgg() error {
	n, ok := h.heldNest()
	if !ok {
		h.repro.UnassignNest(nil)
		h.state = HenSeekNest
		return nil
	}

	mom, _ := h.deps.World.Genes(h.deps.Self)
	if mom == nil {
		mom = []*genetics.Gene{}
	}

	var (
		refs       []genetics.GeneRef
		fertilized bool
		err        error
	)
	if dad, ok := h.deps.World.Genes(h.repro.Father()); ok {
		refs, err = genetics.Cross(h.deps.Rand, mom, dad)
		fertilized = true
	} else {
		refs, err = genetics.SelectPassed(h.deps.Rand, mom)
	}
	if err != nil {
		return err
	}

	e, err := h.deps.World.SpawnEgg(n, refs, fertilized)
	if err != nil {
		h.log.Error("egg spawn failed", log.Uint64("nest", uint64(n.ID())), log.Error(err))
		h.finishCaretaking(n)
		return nil
	}
	h.repro.UnmarkPregnant()

	if !fertilized {
		h.log.Info("laid unfertilized egg", log.Uint64("egg", uint64(e.ID())))
		h.finishCaretaking(n)
		return nil
	}

	if err = n.AssignEgg(e); err != nil {
		h.log.Warn("egg does not fit in nest", log.Uint64("egg", uint64(e.ID())), log.Error(err))
		h.deps.World.Despawn(e.ID())
		h.finishCaretaking(n)
		return nil
	}

	h.log.Info("laid egg",
		log.Uint64("egg", uint64(e.ID())),
		log.Uint64("nest", uint64(n.ID())),
		log.Int("genes", len(refs)),
	)
	h.deps.Mover.StopMoving()
	h.state = HenIncubate
	if err = n.SetIncubating(true); err != nil {
		h.log.Warn("incubation start failed", log.Error(err))
	}
	return nil
}

// finishCaretaking ends a breeding cycle: the nest is reset if the hen still
// sits on it, pregnancy and the nest reference are dropped.
func (h *Hen) finishCaretaking(n *nest.Nest) {
	if n != nil && n.Occupant() == h.deps.Self {
		n.Clear()
	}
	h.repro.UnassignNest(n)
	h.repro.UnmarkPregnant()
	h.wander.reset()
	h.state = HenWander
}

func (h *Hen) heldNest() (*nest.Nest, bool) {
	id := h.repro.Nest()
	if !id.Valid() {
		return nil, false
	}
	return h.deps.World.Nest(id)
}

func (h *Hen) enterSeekNest() {
	h.wander.reset()
	h.state = HenSeekNest
}

// ForceToWander abandons the current cycle step. A held nest is released;
// eggs already in it stay and keep incubating. Pregnancy is kept.
func (h *Hen) ForceToWander() {
	n, _ := h.heldNest()
	h.repro.UnassignNest(n)
	h.wander.reset()
	h.state = HenWander
	h.deps.Mover.StopMoving()
}

// ForceSeekNest pushes the hen straight to nest seeking. It runs inside the
// breeding transaction and only touches brain state.
func (h *Hen) ForceSeekNest() {
	h.enterSeekNest()
	h.deps.Mover.StopMoving()
}

func (h *Hen) State() string { return h.state.String() }

func (h *Hen) Wandering() bool { return h.state == HenWander }

func (h *Hen) Current() HenState { return h.state }
