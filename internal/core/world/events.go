package world

import (
	"github.com/zeusync/farmlife/internal/core/creature"
	"github.com/zeusync/farmlife/internal/core/events/bus"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/observability/log"
)

const (
	EventCreatureSpawned = "world.creature_spawned"
	EventCreatureGrown   = "creature.grown"
	EventEggLaid         = "egg.laid"
	EventDespawned       = "world.despawned"
)

type CreatureSpawned struct {
	Creature models.EntityID
	Species  creature.Species
	Gender   creature.Gender
	Genes    []genetics.GeneRef
}

type CreatureGrown struct {
	Chick   models.EntityID
	Adult   models.EntityID
	Species creature.Species
}

type EggLaid struct {
	Egg        models.EntityID
	Nest       models.EntityID
	Fertilized bool
	Genes      []genetics.GeneRef
}

type Despawned struct {
	Entity models.EntityID
	Kind   models.Kind
}

func (w *World) publish(typ string, payload any) {
	if err := w.bus.Publish(bus.NewEvent(typ, "world", payload)); err != nil {
		w.log.Warn("event handler failed", log.String("event", typ), log.Error(err))
	}
}
