package genetics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/farmlife/internal/core/events/bus"
	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/random"
)

func TestGene(t *testing.T) {
	t.Run("clamps passing chance", func(t *testing.T) {
		assert.Equal(t, 1.0, NewGene(1, "a", "", 3).PassingChance())
		assert.Equal(t, 0.0, NewGene(1, "a", "", -1).PassingChance())

		g := NewGene(1, "a", "", 0.5)
		g.OverridePassingChance(1.5)
		assert.Equal(t, 1.0, g.PassingChance())
	})

	t.Run("clone is deep", func(t *testing.T) {
		g := NewGene(7, "hardy", "tough", 0.4, StatFeature{Stat: StatHealth, Value: 5})
		c := g.Clone()
		require.NotSame(t, g, c)
		assert.Equal(t, g.Ref(), c.Ref())
		assert.Equal(t, g.Features(), c.Features())

		c.OverridePassingChance(0.9)
		assert.Equal(t, 0.4, g.PassingChance())
	})

	t.Run("validity", func(t *testing.T) {
		var nilGene *Gene
		assert.False(t, nilGene.Valid())
		assert.False(t, NewGene(0, "a", "", 1).Valid())
		assert.False(t, NewGene(1, "", "", 1).Valid())
		assert.True(t, NewGene(1, "a", "", 1).Valid())
	})

	t.Run("stat bonus", func(t *testing.T) {
		g := NewGene(1, "a", "", 1,
			StatFeature{Stat: StatAgility, Value: 3},
			StatFeature{Stat: StatAgility, Value: 4},
			AppearanceFeature{BodyPart: BodyPartComb, Effect: EffectColor, Color: "red"},
		)
		assert.Equal(t, 7, g.StatBonus(StatAgility))
		assert.Equal(t, 0, g.StatBonus(StatStrength))
	})
}

func TestGenomeSetGenes(t *testing.T) {
	t.Run("nil is an error, empty is not", func(t *testing.T) {
		g := NewGenome()
		require.ErrorIs(t, g.SetGenes(nil), fault.ErrInvalidArgument)
		require.NoError(t, g.SetGenes([]*Gene{}))
		assert.Zero(t, g.Count())
	})

	t.Run("filter pipeline", func(t *testing.T) {
		g := NewGenome(WithMaxGenes(4))
		err := g.SetGenes([]*Gene{
			NewGene(1, "a", "", 0.5),
			nil,
			NewGene(1, "a-dup", "", 0.9),
			NewGene(0, "bad", "", 0.5),
			NewGene(2, "b", "", 0.5), // past the cap
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1}, ids(g.Genes()))
		got, ok := g.Get(1)
		require.True(t, ok)
		assert.Equal(t, "a", got.Name())
	})

	t.Run("duplicates allowed", func(t *testing.T) {
		g := NewGenome(WithDuplicates(true))
		require.NoError(t, g.SetGenes([]*Gene{NewGene(1, "a", "", 1), NewGene(1, "a", "", 1)}))
		assert.Equal(t, 2, g.Count())
	})
}

func TestGenomeAddRemove(t *testing.T) {
	g := NewGenome(WithMaxGenes(2))

	require.ErrorIs(t, g.Add(nil), fault.ErrInvalidArgument)
	require.NoError(t, g.Add(NewGene(1, "a", "", 1)))
	require.ErrorIs(t, g.Add(NewGene(1, "a", "", 1)), fault.ErrInvalidOperation)
	require.NoError(t, g.Add(NewGene(2, "b", "", 1)))

	err := g.Add(NewGene(3, "c", "", 1))
	require.ErrorIs(t, err, ErrGenomeFull)
	require.ErrorIs(t, err, fault.ErrResourceExhausted)

	byName, ok := g.GetByName("b")
	require.True(t, ok)
	assert.Equal(t, 2, byName.ID())

	assert.True(t, g.Remove(1))
	assert.False(t, g.Remove(1))
	assert.Equal(t, []int{2}, ids(g.Genes()))
	_, ok = g.Get(1)
	assert.False(t, ok)
}

func TestGenomeCapacityInvariant(t *testing.T) {
	rng := random.New(9)
	g := NewGenome(WithMaxGenes(5))

	for i := 0; i < 500; i++ {
		switch rng.IntN(3) {
		case 0:
			_ = g.Add(NewGene(rng.IntN(8), "g", "", rng.Float64()))
		case 1:
			batch := make([]*Gene, rng.IntN(12))
			for j := range batch {
				batch[j] = NewGene(rng.IntN(8), "g", "", rng.Float64())
			}
			require.NoError(t, g.SetGenes(batch))
		case 2:
			g.Remove(rng.IntN(8))
		}

		require.LessOrEqual(t, g.Count(), g.MaxGenes())
		seen := map[int]bool{}
		for _, gene := range g.Genes() {
			require.True(t, gene.Valid())
			require.False(t, seen[gene.ID()], "duplicate id %d", gene.ID())
			seen[gene.ID()] = true
		}
	}
}

func TestGenomeNotifications(t *testing.T) {
	b := bus.New()
	var published []GenesUpdated
	_, err := b.Subscribe(EventGenesUpdated, func(e bus.Event) error {
		published = append(published, e.Data().(GenesUpdated))
		return nil
	})
	require.NoError(t, err)

	g := NewGenome(WithBus(b, models.EntityID(5)))

	var calls [][]*Gene
	cancel := g.OnGenesUpdated(func(genes []*Gene) { calls = append(calls, genes) })

	require.NoError(t, g.SetGenes([]*Gene{NewGene(1, "a", "", 0.5)}))
	require.NoError(t, g.Add(NewGene(2, "b", "", 0.5)))
	g.Remove(99)

	require.Len(t, calls, 2)
	assert.Equal(t, []int{1, 2}, ids(calls[1]))

	require.Len(t, published, 2)
	assert.Equal(t, models.EntityID(5), published[1].Owner)
	assert.Equal(t, []GeneRef{{ID: 1, PassingChance: 0.5}, {ID: 2, PassingChance: 0.5}}, published[1].Genes)

	cancel()
	g.Remove(1)
	assert.Len(t, calls, 2)
	assert.Len(t, published, 3)
}
