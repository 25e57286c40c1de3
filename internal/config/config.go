// Package config loads the simulation settings: embedded defaults overlaid by
// an optional YAML file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/farmlife/internal/core/ai"
	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/world"
	"github.com/zeusync/farmlife/internal/server"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrInvalidConfig = fmt.Errorf("%w: config", fault.ErrInvalidArgument)

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	AI         ai.Config        `yaml:"ai"`
	Genome     GenomeConfig     `yaml:"genome"`
	Egg        egg.Config       `yaml:"egg"`
	Nest       NestConfig       `yaml:"nest"`
	Chick      ChickConfig      `yaml:"chick"`
	Population PopulationConfig `yaml:"population"`
	Server     ServerConfig     `yaml:"server"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Log        LogConfig        `yaml:"log"`
}

type SimulationConfig struct {
	Seed       uint64  `yaml:"seed"`
	TickRate   float64 `yaml:"tick_rate"`   // ticks per second
	HalfExtent float64 `yaml:"half_extent"` // arena spans [-half_extent, half_extent]
	MoveSpeed  float64 `yaml:"move_speed"`
	QueryLimit int     `yaml:"query_limit"`
}

type GenomeConfig struct {
	MaxGenes        int    `yaml:"max_genes"`
	AllowDuplicates bool   `yaml:"allow_duplicates"`
	StartingGenes   int    `yaml:"starting_genes"`
	Catalog         string `yaml:"catalog"` // gene catalog file, empty for the built-in one
}

type NestConfig struct {
	MaxEggs int `yaml:"max_eggs"`
}

type ChickConfig struct {
	GrowTime float64 `yaml:"grow_time"`
}

// PopulationConfig is what the world is seeded with at startup.
type PopulationConfig struct {
	Roosters int `yaml:"roosters"`
	Hens     int `yaml:"hens"`
	Chicks   int `yaml:"chicks"`
	Nests    int `yaml:"nests"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	Path              string        `yaml:"path"`
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	SendBuffer        int           `yaml:"send_buffer"`
	MaxObservers      int           `yaml:"max_observers"` // 0 means unlimited
	Token             string        `yaml:"token"`         // empty admits every observer
}

type TelemetryConfig struct {
	Journal        string        `yaml:"journal"` // CSV output, empty disables the journal
	FlushInterval  time.Duration `yaml:"flush_interval"`
	ReportInterval time.Duration `yaml:"report_interval"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads path over the embedded defaults; keys missing from the file keep
// their default. An empty path yields the defaults. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every impossible setting at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Simulation.TickRate > 0, "simulation.tick_rate must be positive, got %v", c.Simulation.TickRate)
	check(c.Simulation.HalfExtent > 0, "simulation.half_extent must be positive, got %v", c.Simulation.HalfExtent)
	check(c.Simulation.MoveSpeed > 0, "simulation.move_speed must be positive, got %v", c.Simulation.MoveSpeed)
	check(c.Simulation.QueryLimit > 0, "simulation.query_limit must be positive, got %d", c.Simulation.QueryLimit)

	check(c.AI.TickInterval > 0, "ai.tick_interval must be positive, got %v", c.AI.TickInterval)
	check(c.AI.WanderInterval > 0, "ai.wander_interval must be positive, got %v", c.AI.WanderInterval)
	check(c.AI.WanderRadius >= 0, "ai.wander_radius must not be negative")
	check(c.AI.BreedingDistance > 0, "ai.breeding_distance must be positive")
	check(c.AI.LayEggDistance > 0, "ai.lay_egg_distance must be positive")
	check(c.AI.MateSearchRadius >= c.AI.BreedingDistance, "ai.mate_search_radius below breeding_distance")

	check(c.Genome.MaxGenes > 0, "genome.max_genes must be positive, got %d", c.Genome.MaxGenes)
	check(c.Genome.StartingGenes >= 0, "genome.starting_genes must not be negative")

	check(c.Egg.MinHatchTime >= 0, "egg.min_hatch_time must not be negative")
	check(c.Egg.MinHatchTime <= c.Egg.MaxHatchTime, "egg.min_hatch_time %v above max_hatch_time %v", c.Egg.MinHatchTime, c.Egg.MaxHatchTime)
	check(c.Egg.InertLifetime >= 0, "egg.inert_lifetime must not be negative")
	check(c.Nest.MaxEggs > 0, "nest.max_eggs must be positive, got %d", c.Nest.MaxEggs)
	check(c.Chick.GrowTime > 0, "chick.grow_time must be positive, got %v", c.Chick.GrowTime)

	p := c.Population
	check(p.Roosters >= 0 && p.Hens >= 0 && p.Chicks >= 0 && p.Nests >= 0, "population counts must not be negative")

	check(c.Server.Path != "" && c.Server.Path[0] == '/', "server.path must start with /, got %q", c.Server.Path)
	check(c.Server.BroadcastInterval > 0, "server.broadcast_interval must be positive")
	check(c.Server.SendBuffer > 0, "server.send_buffer must be positive")
	check(c.Server.MaxObservers >= 0, "server.max_observers must not be negative")
	check(c.Telemetry.Journal == "" || c.Telemetry.FlushInterval > 0, "telemetry.flush_interval must be positive when a journal is set")

	return errors.Join(errs...)
}

// TickInterval is the wall-clock period of one world tick.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.Simulation.TickRate)
}

// World maps the settings onto the world host's config.
func (c *Config) World() world.Config {
	return world.Config{
		Seed:                c.Simulation.Seed,
		HalfExtent:          c.Simulation.HalfExtent,
		MoveSpeed:           c.Simulation.MoveSpeed,
		QueryLimit:          c.Simulation.QueryLimit,
		MaxGenes:            c.Genome.MaxGenes,
		AllowDuplicateGenes: c.Genome.AllowDuplicates,
		StartingGenes:       c.Genome.StartingGenes,
		MaxEggs:             c.Nest.MaxEggs,
		ChickGrowTime:       c.Chick.GrowTime,
		AI:                  c.AI,
		Egg:                 c.Egg,
	}
}

// ObserverServer maps the settings onto the observer server's config.
func (c *Config) ObserverServer() server.Config {
	return server.Config{
		Addr:         c.Server.Addr,
		Path:         c.Server.Path,
		WriteTimeout: c.Server.WriteTimeout,
		SendBuffer:   c.Server.SendBuffer,
		MaxObservers: c.Server.MaxObservers,
		Token:        c.Server.Token,
	}
}

// Logger builds the process logger.
func (c *Config) Logger() *log.Logger {
	level := log.ParseLevel(c.Log.Level)
	if c.Log.Development {
		return log.NewConsole(level)
	}
	return log.New(level)
}

// WriteYAML dumps the effective configuration.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
