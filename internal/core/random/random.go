// Package random provides the substitutable random source consumed by the
// genetics and AI code.
package random

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/farmlife/internal/core/physics"
)

// Source draws uniform numbers. Implementations need not be safe for concurrent use.
type Source interface {
	// Float64 returns a uniform value in [0,1).
	Float64() float64
	// IntN returns a uniform value in [0,n). n must be > 0.
	IntN(n int) int
}

const streamSalt = 0x9e3779b97f4a7c15

// New returns a PCG-backed source for seed.
func New(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^streamSalt))
}

// Derive returns an independent stream for (seed, stream). Every entity gets
// its own stream so the order entities are ticked in does not change what
// each of them draws.
func Derive(seed, stream uint64) Source {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], seed)
	binary.LittleEndian.PutUint64(buf[8:], stream)
	return New(xxhash.Sum64(buf[:]))
}

// InSphere returns a uniform point inside a sphere of the given radius centred
// on the origin. It always consumes three draws.
func InSphere(src Source, radius float64) physics.Vec3 {
	z := src.Float64()*2 - 1
	phi := 2 * math.Pi * src.Float64()
	r := radius * math.Cbrt(src.Float64())
	ring := math.Sqrt(1 - z*z)
	return physics.V(ring*math.Cos(phi)*r, z*r, ring*math.Sin(phi)*r)
}

// InCircle returns a uniform point inside a horizontal disc of the given
// radius. It always consumes two draws.
func InCircle(src Source, radius float64) physics.Vec3 {
	theta := 2 * math.Pi * src.Float64()
	r := radius * math.Sqrt(src.Float64())
	return physics.V(r*math.Cos(theta), 0, r*math.Sin(theta))
}
