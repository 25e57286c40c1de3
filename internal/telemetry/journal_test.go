package telemetry

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/farmlife/internal/core/creature"
	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/events/bus"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/reproduction"
	"github.com/zeusync/farmlife/internal/core/world"
)

func publish(t *testing.T, b bus.EventBus, typ string, payload any) {
	t.Helper()
	require.NoError(t, b.Publish(bus.NewEvent(typ, "test", payload)))
}

func TestJournalRecords(t *testing.T) {
	b := bus.New()
	j, err := NewJournal(b, nil)
	require.NoError(t, err)

	genes := []genetics.GeneRef{{ID: 1, PassingChance: 0.8}, {ID: 3, PassingChance: 0.25}}
	publish(t, b, reproduction.EventPregnant, reproduction.Pregnant{Mother: 2, Father: 1})
	publish(t, b, world.EventEggLaid, world.EggLaid{Egg: 10, Nest: 5, Fertilized: true, Genes: genes})
	publish(t, b, egg.EventIncubationStarted, egg.IncubationStarted{Egg: 10, Nest: 5, Duration: 20})
	publish(t, b, egg.EventHatched, egg.Hatched{Egg: 10, Nest: 5, Offspring: 11, Genes: genes})
	publish(t, b, egg.EventHatchFailed, egg.HatchFailed{Egg: 12, Nest: 5, Reason: "boom"})
	publish(t, b, egg.EventSpoiled, egg.Spoiled{Egg: 14, Age: 120})
	publish(t, b, world.EventCreatureGrown, world.CreatureGrown{Chick: 11, Adult: 13, Species: creature.SpeciesHen})
	publish(t, b, genetics.EventGenesUpdated, genetics.GenesUpdated{Owner: 13, Genes: genes[:1]})

	recs := j.Pending()
	require.Len(t, recs, 8)

	tests := []struct {
		idx     int
		event   string
		subject uint64
		other   uint64
		genes   string
		detail  string
	}{
		{0, reproduction.EventPregnant, 2, 1, "", ""},
		{1, world.EventEggLaid, 10, 5, "1:0.80;3:0.25", "fertilized=true"},
		{2, egg.EventIncubationStarted, 10, 5, "", "duration=20.00"},
		{3, egg.EventHatched, 10, 5, "1:0.80;3:0.25", "offspring=11"},
		{4, egg.EventHatchFailed, 12, 5, "", "boom"},
		{5, egg.EventSpoiled, 14, 0, "", "age=120.00"},
		{6, world.EventCreatureGrown, 11, 13, "", "hen"},
		{7, genetics.EventGenesUpdated, 13, 0, "1:0.80", ""},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			r := recs[tt.idx]
			assert.Equal(t, tt.event, r.Event)
			assert.Equal(t, tt.subject, r.Subject)
			assert.Equal(t, tt.other, r.Other)
			assert.Equal(t, tt.genes, r.Genes)
			assert.Equal(t, tt.detail, r.Detail)
			assert.Len(t, r.EventID, 36)
			assert.NotEmpty(t, r.Time)
		})
	}

	t.Run("unknown payload", func(t *testing.T) {
		err := b.Publish(bus.NewEvent(reproduction.EventPregnant, "test", "nope"))
		assert.ErrorIs(t, err, ErrUnknownPayload)
		assert.Len(t, j.Pending(), 8)
	})
}

func TestJournalFlush(t *testing.T) {
	b := bus.New()
	j, err := NewJournal(b, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := j.Flush(&buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len(), "nothing pending writes nothing, not even the header")

	publish(t, b, reproduction.EventPregnant, reproduction.Pregnant{Mother: 2, Father: 1})
	n, err = j.Flush(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, j.Pending())

	publish(t, b, reproduction.EventPregnant, reproduction.Pregnant{Mother: 4, Father: 3})
	publish(t, b, world.EventCreatureGrown, world.CreatureGrown{Chick: 7, Adult: 8, Species: creature.SpeciesRooster})
	n, err = j.Flush(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 1, strings.Count(buf.String(), "event_id"), "header written once")

	var rows []LifecycleRecord
	require.NoError(t, gocsv.UnmarshalBytes(buf.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.EqualValues(t, 4, rows[1].Subject)
	assert.Equal(t, "rooster", rows[2].Detail)
}

func TestJournalClose(t *testing.T) {
	b := bus.New()
	j, err := NewJournal(b, nil)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	publish(t, b, reproduction.EventPregnant, reproduction.Pregnant{Mother: 2, Father: 1})
	assert.Empty(t, j.Pending())
}
