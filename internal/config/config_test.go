package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/farmlife/internal/core/ai"
	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/fault"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "farmlife.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ai.DefaultConfig(), cfg.AI, "embedded ai defaults match the package defaults")
	assert.Equal(t, egg.DefaultConfig(), cfg.Egg)
	assert.Equal(t, 10, cfg.Genome.MaxGenes)
	assert.Equal(t, 3, cfg.Nest.MaxEggs)
	assert.Equal(t, "/observe", cfg.Server.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.BroadcastInterval)
	assert.Equal(t, 50*time.Millisecond, cfg.TickInterval())

	w := cfg.World()
	assert.Equal(t, cfg.Simulation.Seed, w.Seed)
	assert.Equal(t, cfg.Chick.GrowTime, w.ChickGrowTime)
	assert.Equal(t, cfg.AI, w.AI)
}

func TestLoadOverlay(t *testing.T) {
	path := writeFile(t, `
simulation:
  seed: 99
egg:
  hatch_time: 7
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.EqualValues(t, 99, cfg.Simulation.Seed)
	assert.Equal(t, 7.0, cfg.Egg.HatchTime)
	assert.Equal(t, 5.0, cfg.Egg.MinHatchTime, "untouched keys keep their default")
	assert.Equal(t, 20.0, cfg.Simulation.TickRate)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "simulation: [1, 2"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"tick rate", func(c *Config) { c.Simulation.TickRate = 0 }, "simulation.tick_rate"},
		{"hatch bounds", func(c *Config) { c.Egg.MinHatchTime = 90 }, "egg.min_hatch_time"},
		{"inert lifetime", func(c *Config) { c.Egg.InertLifetime = -1 }, "egg.inert_lifetime"},
		{"max genes", func(c *Config) { c.Genome.MaxGenes = 0 }, "genome.max_genes"},
		{"nest size", func(c *Config) { c.Nest.MaxEggs = -1 }, "nest.max_eggs"},
		{"server path", func(c *Config) { c.Server.Path = "observe" }, "server.path"},
		{"population", func(c *Config) { c.Population.Hens = -2 }, "population"},
		{"search radius", func(c *Config) { c.AI.MateSearchRadius = 0.5 }, "mate_search_radius"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, fault.ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("all reported", func(t *testing.T) {
		cfg := Default()
		cfg.Simulation.TickRate = 0
		cfg.Chick.GrowTime = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tick_rate")
		assert.Contains(t, err.Error(), "grow_time")
	})
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Population.Hens = 9
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
