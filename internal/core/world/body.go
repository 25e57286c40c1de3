package world

import (
	"github.com/zeusync/farmlife/internal/core/physics"
)

// Body moves a creature in a straight line toward its destination at a fixed
// speed, inside the arena bounds.
type Body struct {
	pos    physics.Vec3
	dest   physics.Vec3
	moving bool
	speed  float64
	half   float64
}

func newBody(at physics.Vec3, speed, half float64) *Body {
	b := &Body{speed: speed, half: half}
	b.pos = b.bound(at)
	return b
}

func (b *Body) Position() physics.Vec3 { return b.pos }

// MoveTo sets a new destination. Points outside the arena are clamped to its edge.
func (b *Body) MoveTo(target physics.Vec3) {
	b.dest = b.bound(target)
	b.moving = true
}

// HasReached compares ground positions only.
func (b *Body) HasReached(target physics.Vec3, threshold float64) bool {
	return physics.Distance(b.pos.Flat(), target.Flat()) <= threshold
}

func (b *Body) StopMoving() { b.moving = false }

func (b *Body) Moving() bool { return b.moving }

func (b *Body) Destination() physics.Vec3 { return b.dest }

func (b *Body) step(dt float64) {
	if !b.moving || dt <= 0 {
		return
	}
	b.pos = physics.MoveTowards(b.pos, b.dest, b.speed*dt)
	if b.pos == b.dest {
		b.moving = false
	}
}

func (b *Body) bound(p physics.Vec3) physics.Vec3 {
	if b.half <= 0 {
		return p
	}
	p.X = min(max(p.X, -b.half), b.half)
	p.Z = min(max(p.Z, -b.half), b.half)
	return p
}
