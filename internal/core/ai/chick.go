package ai

import "fmt"

type ChickState uint8

const (
	ChickIdle ChickState = iota
	ChickWander
)

func (s ChickState) String() string {
	switch s {
	case ChickIdle:
		return "idle"
	case ChickWander:
		return "wander"
	default:
		return fmt.Sprintf("chick_state(%d)", uint8(s))
	}
}

// Chick only wanders until it grows up.
type Chick struct {
	deps    Deps
	cfg     Config
	cadence Cadence

	state  ChickState
	wander wanderer
}

var _ Brain = (*Chick)(nil)

func NewChick(deps Deps, cfg Config) *Chick {
	return &Chick{
		deps:    deps,
		cfg:     cfg,
		cadence: NewCadence(cfg.TickInterval),
	}
}

func (c *Chick) Tick(dt float64) error {
	elapsed, due := c.cadence.Advance(dt)
	if !due {
		return nil
	}

	switch c.state {
	case ChickIdle:
		c.state = ChickWander
	case ChickWander:
	default:
		return invalidState("chick", c.state)
	}

	c.wander.step(elapsed, c.deps, c.cfg)
	return nil
}

func (c *Chick) ForceToWander() {
	c.wander.reset()
	c.state = ChickWander
	c.deps.Mover.StopMoving()
}

func (c *Chick) State() string { return c.state.String() }

func (c *Chick) Wandering() bool { return c.state == ChickWander }
