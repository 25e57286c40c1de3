package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/farmlife/internal/core/creature"
	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/nest"
	"github.com/zeusync/farmlife/internal/core/physics"
	"github.com/zeusync/farmlife/internal/core/reproduction"
)

const (
	henID     models.EntityID = 2
	roosterID models.EntityID = 1
	nestID    models.EntityID = 50
)

type henRig struct {
	world *fakeWorld
	mover *fakeMover
	repro *reproduction.Component
	hen   *Hen
	nest  *nest.Nest
}

func newHenRig(t *testing.T) *henRig {
	t.Helper()
	rig := &henRig{world: newFakeWorld(), mover: &fakeMover{}}
	rig.repro = reproduction.New(henID, creature.Female, nil, nil)
	rig.hen = NewHen(testDeps(henID, rig.mover, rig.world, 11), DefaultConfig(), rig.repro)

	rig.world.genes[henID] = []*genetics.Gene{
		genetics.NewGene(1, "a", "", 0.8),
		genetics.NewGene(2, "b", "", 0.3),
	}
	rig.world.genes[roosterID] = []*genetics.Gene{
		genetics.NewGene(2, "b", "", 0.6),
		genetics.NewGene(3, "c", "", 0.9),
	}
	rig.nest = nest.New(nestID, physics.V(3, 0, 0), nest.DefaultMaxEggs, nil)
	rig.world.addNest(rig.nest)
	return rig
}

// toNest drives a freshly pregnant hen up to the point where she stands on her nest.
func (rig *henRig) toNest(t *testing.T) {
	t.Helper()
	require.NoError(t, rig.hen.Tick(step))
	require.Equal(t, HenWander, rig.hen.Current())

	require.True(t, rig.repro.MarkPregnant(roosterID))
	require.NoError(t, rig.hen.Tick(step))
	require.Equal(t, HenSeekNest, rig.hen.Current())

	require.NoError(t, rig.hen.Tick(step))
	require.Equal(t, HenSeekNest, rig.hen.Current())
	require.Equal(t, nestID, rig.repro.Nest())
	require.Equal(t, henID, rig.nest.Occupant())
	require.Equal(t, rig.nest.Position(), rig.mover.dest)

	rig.mover.pos = physics.V(3, 0, 0)
}

func eggGeneIDs(refs []genetics.GeneRef) []int {
	out := make([]int, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}

func TestHenBreedingCycle(t *testing.T) {
	rig := newHenRig(t)
	rig.toNest(t)

	require.NoError(t, rig.hen.Tick(step))
	assert.Equal(t, HenIncubate, rig.hen.Current())
	assert.False(t, rig.repro.IsPregnant(), "pregnancy ends when the egg is laid")
	assert.False(t, rig.mover.moving)

	require.Len(t, rig.world.laid, 1)
	e := rig.world.laid[0]
	assert.True(t, e.IsFertilized())
	assert.True(t, e.IsIncubating())
	assert.Equal(t, nestID, e.NestID())
	assert.Equal(t, []int{1, 2, 3}, eggGeneIDs(e.Genes()))
	assert.Equal(t, 1, rig.nest.EggCount())
	assert.True(t, rig.nest.IsIncubating())

	// still sitting while the egg is in the nest
	require.NoError(t, rig.hen.Tick(step))
	assert.Equal(t, HenIncubate, rig.hen.Current())

	require.NoError(t, e.Tick(1))
	assert.Zero(t, rig.nest.EggCount())
	assert.False(t, rig.nest.IsIncubating())

	require.NoError(t, rig.hen.Tick(step))
	assert.Equal(t, HenWander, rig.hen.Current())
	assert.False(t, rig.nest.IsOccupied())
	assert.Equal(t, models.NoEntity, rig.repro.Nest())
}

func TestHenUnfertilizedEgg(t *testing.T) {
	rig := newHenRig(t)
	delete(rig.world.genes, roosterID)
	rig.toNest(t)

	require.NoError(t, rig.hen.Tick(step))
	require.Len(t, rig.world.laid, 1)
	e := rig.world.laid[0]
	assert.False(t, e.IsFertilized())
	assert.False(t, e.IsIncubating())
	assert.Subset(t, []int{1, 2}, eggGeneIDs(e.Genes()))

	assert.Equal(t, HenWander, rig.hen.Current())
	assert.Zero(t, rig.nest.EggCount(), "an unfertilized egg is left outside the nest")
	assert.False(t, rig.nest.IsOccupied())
	assert.False(t, rig.repro.IsPregnant())
}

func TestHenSpawnFailure(t *testing.T) {
	rig := newHenRig(t)
	rig.world.spawnErr = errSpawn
	rig.toNest(t)

	require.NoError(t, rig.hen.Tick(step))
	assert.Empty(t, rig.world.laid)
	assert.Equal(t, HenWander, rig.hen.Current())
	assert.False(t, rig.nest.IsOccupied())
	assert.False(t, rig.repro.IsPregnant())
}

func TestHenFullNest(t *testing.T) {
	rig := newHenRig(t)
	rig.nest = nest.New(nestID, physics.V(3, 0, 0), 1, nil)
	rig.world.addNest(rig.nest)
	rig.toNest(t)

	// another egg lands in the claimed nest before the hen lays
	other := egg.New(900, rig.world.eggCfg, egg.Collaborators{})
	require.NoError(t, other.Init(nestID, nil, true))
	require.NoError(t, rig.nest.AssignEgg(other))

	require.NoError(t, rig.hen.Tick(step))
	require.Len(t, rig.world.laid, 1)
	assert.Equal(t, []models.EntityID{rig.world.laid[0].ID()}, rig.world.despawned)
	assert.Equal(t, HenWander, rig.hen.Current())
}

func TestHenSeekNestFallbacks(t *testing.T) {
	t.Run("no nest in range", func(t *testing.T) {
		rig := newHenRig(t)
		delete(rig.world.entries, nestID)

		require.NoError(t, rig.hen.Tick(step))
		rig.repro.MarkPregnant(roosterID)
		require.NoError(t, rig.hen.Tick(step))
		require.Equal(t, HenSeekNest, rig.hen.Current())

		require.NoError(t, rig.hen.Tick(step))
		assert.Equal(t, HenWander, rig.hen.Current())
		assert.True(t, rig.repro.IsPregnant())
	})

	t.Run("occupied nest skipped", func(t *testing.T) {
		rig := newHenRig(t)
		require.NoError(t, rig.nest.Assign(77))
		far := nest.New(51, physics.V(10, 0, 0), nest.DefaultMaxEggs, nil)
		rig.world.addNest(far)

		require.NoError(t, rig.hen.Tick(step))
		rig.repro.MarkPregnant(roosterID)
		require.NoError(t, rig.hen.Tick(step))
		require.NoError(t, rig.hen.Tick(step))

		assert.EqualValues(t, 51, rig.repro.Nest())
		assert.Equal(t, henID, far.Occupant())
		assert.EqualValues(t, 77, rig.nest.Occupant())
	})

	t.Run("pregnancy lost", func(t *testing.T) {
		rig := newHenRig(t)
		rig.toNest(t)
		rig.mover.pos = physics.Vec3{}

		rig.repro.UnmarkPregnant()
		require.NoError(t, rig.hen.Tick(step))
		assert.Equal(t, HenWander, rig.hen.Current())
		assert.False(t, rig.nest.IsOccupied())
		assert.Equal(t, models.NoEntity, rig.repro.Nest())
	})

	t.Run("nest removed", func(t *testing.T) {
		rig := newHenRig(t)
		rig.toNest(t)
		delete(rig.world.nests, nestID)
		delete(rig.world.entries, nestID)

		require.NoError(t, rig.hen.Tick(step))
		assert.Equal(t, HenWander, rig.hen.Current())
		assert.Equal(t, models.NoEntity, rig.repro.Nest())
	})
}

func TestHenIncubateEndsWhenNestTaken(t *testing.T) {
	rig := newHenRig(t)
	rig.toNest(t)
	require.NoError(t, rig.hen.Tick(step))
	require.Equal(t, HenIncubate, rig.hen.Current())

	require.NoError(t, rig.nest.Unassign(henID))
	require.NoError(t, rig.nest.Assign(77))

	require.NoError(t, rig.hen.Tick(step))
	assert.Equal(t, HenWander, rig.hen.Current())
	assert.EqualValues(t, 77, rig.nest.Occupant(), "someone else's nest is not cleared")
	assert.Equal(t, 1, rig.nest.EggCount())
}

func TestHenForceToWanderKeepsEggs(t *testing.T) {
	rig := newHenRig(t)
	rig.toNest(t)
	require.NoError(t, rig.hen.Tick(step))
	require.Equal(t, HenIncubate, rig.hen.Current())

	rig.hen.ForceToWander()
	assert.Equal(t, HenWander, rig.hen.Current())
	assert.False(t, rig.nest.IsOccupied() && rig.nest.Occupant() == henID)
	assert.Equal(t, 1, rig.nest.EggCount())
	assert.True(t, rig.world.laid[0].IsIncubating())
}

func TestBreedingPushesHenToSeekNest(t *testing.T) {
	rig := newHenRig(t)
	require.NoError(t, rig.hen.Tick(step))

	roosterRepro := reproduction.New(roosterID, creature.Male, nil, nil)
	rooster := NewRooster(testDeps(roosterID, &fakeMover{}, rig.world, 3), DefaultConfig(), roosterRepro)
	rooster.state = RoosterBreed

	require.NoError(t, reproduction.TryBreed(roosterRepro, rig.repro))
	assert.Equal(t, HenSeekNest, rig.hen.Current())
	assert.Equal(t, RoosterWander, rooster.Current())
	assert.True(t, rig.repro.IsPregnant())
}

func TestHenInvalidState(t *testing.T) {
	rig := newHenRig(t)
	rig.hen.state = HenState(42)
	require.ErrorIs(t, rig.hen.Tick(step), fault.ErrInvalidState)
}

func TestChick(t *testing.T) {
	m := &fakeMover{}
	c := NewChick(testDeps(9, m, newFakeWorld(), 5), DefaultConfig())
	assert.Equal(t, "idle", c.State())

	require.NoError(t, c.Tick(step))
	assert.True(t, c.Wandering())
	assert.Equal(t, 1, m.moves)
	first := m.dest
	assert.LessOrEqual(t, physics.Distance(physics.Vec3{}, first), DefaultConfig().WanderRadius)

	// below the cadence nothing happens
	require.NoError(t, c.Tick(step/4))
	assert.Equal(t, 1, m.moves)

	// arrival picks a new point
	m.pos = first
	require.NoError(t, c.Tick(step))
	assert.Equal(t, 2, m.moves)

	c.ForceToWander()
	assert.Equal(t, "wander", c.State())
	assert.Equal(t, 1, m.stops)

	c.state = ChickState(42)
	require.ErrorIs(t, c.Tick(step), fault.ErrInvalidState)
}
