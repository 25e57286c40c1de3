package world

import (
	"fmt"

	"github.com/zeusync/farmlife/internal/core/ai"
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

var ErrNilNest = fmt.Errorf("%w: nil nest", fault.ErrInvalidArgument)

// SpawnCreature builds a creature with the given genes at a position and
// gives it a body, a brain and, for adults, a reproduction component.
// spec.Genome is replaced by a genome owned by the world; a zero GrowTime
// takes the configured one.
func (w *World) SpawnCreature(spec creature.Spec, genes []*genetics.Gene, at physics.Vec3) (models.EntityID, error) {
	id := w.ids.Next()
	rng := w.streamFor(id)

	spec.Genome = genetics.NewGenome(
		genetics.WithMaxGenes(w.cfg.MaxGenes),
		genetics.WithDuplicates(w.cfg.AllowDuplicateGenes),
		genetics.WithLogger(w.log.With(log.Uint64("creature", uint64(id)))),
		genetics.WithBus(w.bus, id),
	)
	if genes == nil {
		genes = []*genetics.Gene{}
	}
	if err := spec.Genome.Init(genes); err != nil {
		return models.NoEntity, err
	}
	if spec.GrowTime == 0 {
		spec.GrowTime = w.cfg.ChickGrowTime
	}

	c, err := creature.New(id, spec, rng)
	if err != nil {
		return models.NoEntity, err
	}

	entry := &creatureEntry{
		creature: c,
		body:     newBody(at, w.cfg.MoveSpeed, w.cfg.HalfExtent),
	}
	deps := ai.Deps{
		Self:    id,
		Mover:   entry.body,
		Spatial: w,
		World:   w,
		Rand:    rng,
		Log:     w.log,
	}
	switch c.Species() {
	case creature.SpeciesRooster:
		entry.repro = reproduction.New(id, c.Gender(), w.bus, w.log)
		entry.brain = ai.NewRooster(deps, w.cfg.AI, entry.repro)
	case creature.SpeciesHen:
		entry.repro = reproduction.New(id, c.Gender(), w.bus, w.log)
		entry.brain = ai.NewHen(deps, w.cfg.AI, entry.repro)
	default:
		entry.brain = ai.NewChick(deps, w.cfg.AI)
	}

	w.mu.Lock()
	w.creatures[id] = entry
	w.mu.Unlock()

	w.log.Info("creature spawned",
		log.Uint64("creature", uint64(id)),
		log.String("name", c.Name()),
		log.String("species", c.Species().String()),
		log.String("gender", c.Gender().String()),
		log.Int("genes", c.Genome().Count()),
	)
	w.publish(EventCreatureSpawned, CreatureSpawned{
		Creature: id,
		Species:  c.Species(),
		Gender:   c.Gender(),
		Genes:    c.Genome().Refs(),
	})
	return id, nil
}

// SpawnRandomCreature rolls stats and picks starting genes from the catalog.
func (w *World) SpawnRandomCreature(species creature.Species, at physics.Vec3) (models.EntityID, error) {
	genes, err := w.catalog.RandomGenes(w.rng, w.cfg.StartingGenes)
	if err != nil {
		return models.NoEntity, err
	}
	return w.SpawnCreature(creature.Spec{
		Species: species,
		Stats:   creature.RandomStats(w.rng),
	}, genes, at)
}

func (w *World) SpawnNest(at physics.Vec3) models.EntityID {
	id := w.ids.Next()
	n := nest.New(id, at, w.cfg.MaxEggs, w.log)

	w.mu.Lock()
	w.nests[id] = n
	w.mu.Unlock()

	w.log.Debug("nest spawned", log.Uint64("nest", uint64(id)))
	return id
}

// SpawnEgg creates an initialized egg at n's position. Placing it in the nest
// is up to the caller.
func (w *World) SpawnEgg(n *nest.Nest, genes []genetics.GeneRef, fertilized bool) (*egg.Egg, error) {
	if n == nil {
		return nil, ErrNilNest
	}
	id := w.ids.Next()
	e := egg.New(id, w.cfg.Egg, egg.Collaborators{
		Spawner: w,
		Destroy: w.Despawn,
		Bus:     w.bus,
		Log:     w.log,
	})
	if err := e.Init(n.ID(), genes, fertilized); err != nil {
		return nil, err
	}
	e.SetPosition(n.Position())

	w.mu.Lock()
	w.eggs[id] = e
	w.mu.Unlock()

	w.publish(EventEggLaid, EggLaid{Egg: id, Nest: n.ID(), Fertilized: fertilized, Genes: e.Genes()})
	return e, nil
}

// SpawnFromEgg hatches a chick carrying the egg's genes with their inherited
// passing chances.
func (w *World) SpawnFromEgg(refs []genetics.GeneRef, at physics.Vec3) (models.EntityID, error) {
	return w.SpawnCreature(creature.Spec{
		Species: creature.SpeciesChick,
		Stats:   creature.RandomStats(w.rng),
	}, w.catalog.Resolve(refs), at)
}

// grow replaces a grown chick with an adult of its gender's species carrying
// the same name, stats and genes.
func (w *World) grow(chickID models.EntityID, chick *creatureEntry) (models.EntityID, error) {
	c := chick.creature
	adult, err := w.SpawnCreature(creature.Spec{
		Name:        c.Name(),
		Species:     c.Gender().AdultSpecies(),
		Stats:       c.Stats(),
		Gender:      c.Gender(),
		FixedGender: true,
	}, c.Genome().Genes(), chick.body.Position())
	if err != nil {
		return models.NoEntity, err
	}
	w.Despawn(chickID)

	w.log.Info("chick grown",
		log.Uint64("chick", uint64(chickID)),
		log.Uint64("adult", uint64(adult)),
		log.String("species", c.Gender().AdultSpecies().String()),
	)
	w.publish(EventCreatureGrown, CreatureGrown{Chick: chickID, Adult: adult, Species: c.Gender().AdultSpecies()})
	return adult, nil
}

// Despawn removes an entity of any kind. A creature releases the nest it
// holds; a nest lets go of its eggs, which stay in the world. Unknown ids are
// ignored.
func (w *World) Despawn(id models.EntityID) {
	w.mu.Lock()
	kind := models.KindUnknown
	var (
		gone *creatureEntry
		n    *nest.Nest
	)
	if e, ok := w.creatures[id]; ok {
		kind, gone = models.KindCreature, e
		delete(w.creatures, id)
	} else if nn, ok := w.nests[id]; ok {
		kind, n = models.KindNest, nn
		delete(w.nests, id)
	} else if _, ok := w.eggs[id]; ok {
		kind = models.KindEgg
		delete(w.eggs, id)
	}
	w.mu.Unlock()

	switch {
	case kind == models.KindUnknown:
		return
	case gone != nil && gone.repro != nil:
		held, _ := w.Nest(gone.repro.Nest())
		gone.repro.UnassignNest(held)
	case n != nil:
		n.Clear()
	}

	w.log.Debug("entity despawned", log.Uint64("entity", uint64(id)), log.String("kind", kind.String()))
	w.publish(EventDespawned, Despawned{Entity: id, Kind: kind})
}

func (w *World) streamFor(id models.EntityID) random.Source {
	return random.Derive(w.cfg.Seed, uint64(id))
}

// RandomPosition picks a ground point inside the arena.
func (w *World) RandomPosition() physics.Vec3 {
	h := w.cfg.HalfExtent
	return physics.V(w.rng.Float64()*2*h-h, 0, w.rng.Float64()*2*h-h)
}
