package models

import (
	"strconv"
	"sync/atomic"
)

// EntityID is the stable identifier of a world entity. Back-references between
// entities are always EntityIDs resolved through the world, never pointers.
type EntityID uint64

// NoEntity marks an unset reference.
const NoEntity EntityID = 0

func (id EntityID) Valid() bool { return id != NoEntity }

func (id EntityID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Kind classifies entities sharing the id space.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindCreature
	KindNest
	KindEgg
)

func (k Kind) String() string {
	switch k {
	case KindCreature:
		return "creature"
	case KindNest:
		return "nest"
	case KindEgg:
		return "egg"
	default:
		return "unknown"
	}
}

// Layer filters spatial queries.
type Layer uint8

const (
	LayerCreatures Layer = 1 << iota
	LayerNests
	LayerEggs

	LayerAll = LayerCreatures | LayerNests | LayerEggs
)

func (l Layer) Has(other Layer) bool { return l&other != 0 }

// IDAllocator hands out EntityIDs starting at 1. Safe for concurrent use.
type IDAllocator struct {
	last atomic.Uint64
}

func (a *IDAllocator) Next() EntityID {
	return EntityID(a.last.Add(1))
}
