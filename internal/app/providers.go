package app

import (
	"fmt"
	"os"

	"github.com/zeusync/farmlife/internal/config"
	"github.com/zeusync/farmlife/internal/core/events/bus"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/world"
	"github.com/zeusync/farmlife/internal/replication"
	"github.com/zeusync/farmlife/internal/server"
	"github.com/zeusync/farmlife/internal/telemetry"
)

// NewLogger builds the process logger from cfg.
func NewLogger(cfg *config.Config) log.Log {
	return cfg.Logger()
}

func NewBus() bus.EventBus {
	return bus.New()
}

// NewCatalog loads the configured gene catalog, or the built-in one when no
// file is set.
func NewCatalog(cfg *config.Config, logger log.Log) (*genetics.Catalog, error) {
	if cfg.Genome.Catalog == "" {
		return genetics.DefaultCatalog(logger)
	}
	f, err := os.Open(cfg.Genome.Catalog)
	if err != nil {
		return nil, fmt.Errorf("opening gene catalog: %w", err)
	}
	defer f.Close()
	return genetics.LoadCatalog(f, logger)
}

func NewWorld(cfg *config.Config, catalog *genetics.Catalog, b bus.EventBus, logger log.Log) (*world.World, error) {
	return world.New(cfg.World(), catalog, b, logger)
}

func NewTracker(logger log.Log) *replication.Tracker {
	return replication.NewTracker(logger)
}

func NewServer(cfg *config.Config, tracker *replication.Tracker, logger log.Log) *server.Server {
	return server.New(cfg.ObserverServer(), tracker, logger)
}

// NewJournal subscribes a lifecycle journal when one is configured; it
// returns nil otherwise.
func NewJournal(cfg *config.Config, b bus.EventBus, logger log.Log) (*telemetry.Journal, error) {
	if cfg.Telemetry.Journal == "" {
		return nil, nil
	}
	return telemetry.NewJournal(b, logger)
}

// Build assembles an App from cfg without dependency injection.
func Build(cfg *config.Config, logger log.Log) (*App, error) {
	b := NewBus()
	catalog, err := NewCatalog(cfg, logger)
	if err != nil {
		return nil, err
	}
	w, err := NewWorld(cfg, catalog, b, logger)
	if err != nil {
		return nil, err
	}
	tracker := NewTracker(logger)
	journal, err := NewJournal(cfg, b, logger)
	if err != nil {
		return nil, err
	}
	return New(cfg, logger, w, tracker, NewServer(cfg, tracker, logger), journal), nil
}
