package nest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/physics"
)

var eggCfg = egg.Config{HatchTime: 2, MinHatchTime: 1, MaxHatchTime: 10}

func newEgg(t *testing.T, id models.EntityID, nestID models.EntityID, fertilized bool) *egg.Egg {
	t.Helper()
	e := egg.New(id, eggCfg, egg.Collaborators{
		Spawner: egg.SpawnerFunc(func([]genetics.GeneRef, physics.Vec3) (models.EntityID, error) {
			return 999, nil
		}),
	})
	require.NoError(t, e.Init(nestID, []genetics.GeneRef{{ID: 1, PassingChance: 0.5}}, fertilized))
	return e
}

func TestAssign(t *testing.T) {
	n := New(1, physics.V(0, 0, 0), 2, nil)

	require.ErrorIs(t, n.Assign(models.NoEntity), fault.ErrInvalidArgument)
	require.NoError(t, n.Assign(10))
	require.NoError(t, n.Assign(10), "re-assigning the occupant is a no-op")

	err := n.Assign(11)
	require.ErrorIs(t, err, ErrOccupied)
	require.ErrorIs(t, err, fault.ErrInvalidOperation)
	assert.EqualValues(t, 10, n.Occupant())

	require.ErrorIs(t, n.Unassign(11), ErrNotOccupant)
	require.NoError(t, n.Unassign(10))
	assert.False(t, n.IsOccupied())
	require.NoError(t, n.Assign(11))

	t.Run("eggs without a hen", func(t *testing.T) {
		n := New(2, physics.Vec3{}, 2, nil)
		require.NoError(t, n.AssignEgg(newEgg(t, 20, 2, true)))
		require.True(t, n.IsOccupied())

		require.ErrorIs(t, n.Assign(42), ErrOccupied)
		assert.False(t, n.Occupant().Valid())
	})
}

func TestAssignRace(t *testing.T) {
	for round := 0; round < 50; round++ {
		n := New(1, physics.Vec3{}, 2, nil)

		var wg sync.WaitGroup
		results := make([]error, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = n.Assign(models.EntityID(i + 1))
			}()
		}
		wg.Wait()

		winners := 0
		for i, err := range results {
			if err == nil {
				winners++
				assert.EqualValues(t, i+1, n.Occupant())
			} else {
				assert.ErrorIs(t, err, ErrOccupied)
			}
		}
		require.Equal(t, 1, winners)
	}
}

func TestAssignEgg(t *testing.T) {
	n := New(1, physics.V(3, 0, 4), 2, nil)
	assert.False(t, n.IsOccupied())

	require.ErrorIs(t, n.AssignEgg(nil), fault.ErrInvalidArgument)

	a := newEgg(t, 20, 1, true)
	require.NoError(t, n.AssignEgg(a))
	assert.Equal(t, physics.V(3, 0, 4), a.Position())
	assert.True(t, n.IsOccupied(), "eggs alone occupy a nest")
	require.ErrorIs(t, n.AssignEgg(a), ErrEggInNest)

	require.NoError(t, n.AssignEgg(newEgg(t, 21, 1, false)))
	err := n.AssignEgg(newEgg(t, 22, 1, true))
	require.ErrorIs(t, err, ErrNestFull)
	require.ErrorIs(t, err, fault.ErrResourceExhausted)
	assert.Equal(t, 2, n.EggCount())
}

func TestIncubationOnlyFertilized(t *testing.T) {
	n := New(1, physics.Vec3{}, 3, nil)
	fertile := newEgg(t, 20, 1, true)
	barren := newEgg(t, 21, 1, false)
	require.NoError(t, n.AssignEgg(fertile))
	require.NoError(t, n.AssignEgg(barren))

	require.NoError(t, n.SetIncubating(true))
	assert.True(t, n.IsIncubating())
	assert.True(t, fertile.IsIncubating())
	assert.False(t, barren.IsIncubating())

	require.NoError(t, n.SetIncubating(true), "already incubating eggs are skipped")

	require.NoError(t, n.SetIncubating(false))
	assert.False(t, n.IsIncubating())
	assert.False(t, fertile.IsIncubating())
}

func TestHatchRemovesEgg(t *testing.T) {
	n := New(1, physics.Vec3{}, 3, nil)
	require.NoError(t, n.Assign(10))
	e := newEgg(t, 20, 1, true)
	require.NoError(t, n.AssignEgg(e))
	require.NoError(t, n.SetIncubating(true))

	require.NoError(t, e.Tick(5))
	assert.Equal(t, egg.StateHatched, e.State())
	assert.Zero(t, n.EggCount())
	assert.False(t, n.IsIncubating())
	assert.EqualValues(t, 10, n.Occupant(), "hatching leaves the hen on the nest")
}

func TestClear(t *testing.T) {
	n := New(1, physics.Vec3{}, 3, nil)
	require.NoError(t, n.Assign(10))
	e := newEgg(t, 20, 1, true)
	require.NoError(t, n.AssignEgg(e))
	require.NoError(t, n.SetIncubating(true))

	n.Clear()
	assert.False(t, n.IsOccupied())
	assert.False(t, n.IsIncubating())
	assert.Empty(t, n.Eggs())

	// a detached egg hatching later no longer touches the nest
	require.NoError(t, n.AssignEgg(newEgg(t, 21, 1, true)))
	require.NoError(t, e.Tick(5))
	assert.Equal(t, 1, n.EggCount())
}
