// Package app runs the simulation: the world tick loop, the observer server
// and the telemetry writers, side by side until the context ends.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/zeusync/farmlife/internal/config"
	"github.com/zeusync/farmlife/internal/core/creature"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/world"
	"github.com/zeusync/farmlife/internal/replication"
	"github.com/zeusync/farmlife/internal/server"
	"github.com/zeusync/farmlife/internal/telemetry"
	"github.com/zeusync/farmlife/pkg/concurrent"
)

// maxStepFactor caps the simulated step after a stalled tick, in tick intervals.
const maxStepFactor = 4

type App struct {
	cfg     *config.Config
	log     log.Log
	world   *world.World
	tracker *replication.Tracker
	server  *server.Server
	journal *telemetry.Journal

	seedOnce  sync.Once
	seedErr   error
	sinceSync time.Duration
	faults    uint64
}

// New wires already built components. journal may be nil.
func New(
	cfg *config.Config,
	logger log.Log,
	w *world.World,
	tracker *replication.Tracker,
	srv *server.Server,
	journal *telemetry.Journal,
) *App {
	return &App{
		cfg:     cfg,
		log:     log.OrNop(logger).With(log.String("component", "app")),
		world:   w,
		tracker: tracker,
		server:  srv,
		journal: journal,
	}
}

func (a *App) World() *world.World { return a.world }

func (a *App) Tracker() *replication.Tracker { return a.tracker }

func (a *App) Server() *server.Server { return a.server }

// Seed spawns the configured starting population at random positions. Only
// the first call has an effect.
func (a *App) Seed() error {
	a.seedOnce.Do(func() { a.seedErr = a.seed() })
	return a.seedErr
}

func (a *App) seed() error {
	p := a.cfg.Population
	for range p.Nests {
		a.world.SpawnNest(a.world.RandomPosition())
	}

	groups := []struct {
		species creature.Species
		count   int
	}{
		{creature.SpeciesRooster, p.Roosters},
		{creature.SpeciesHen, p.Hens},
		{creature.SpeciesChick, p.Chicks},
	}
	for _, g := range groups {
		for range g.count {
			if _, err := a.world.SpawnRandomCreature(g.species, a.world.RandomPosition()); err != nil {
				return fmt.Errorf("seeding %s: %w", g.species, err)
			}
		}
	}

	a.log.Info("population seeded",
		log.Int("roosters", p.Roosters),
		log.Int("hens", p.Hens),
		log.Int("chicks", p.Chicks),
		log.Int("nests", p.Nests),
	)
	a.sync(true)
	return nil
}

// Step advances the world by elapsed wall time and, once per broadcast
// interval, pushes the resulting delta to observers. Entity faults are logged
// by the world and counted here; they never stop the simulation.
func (a *App) Step(elapsed time.Duration) {
	if limit := maxStepFactor * a.cfg.TickInterval(); elapsed > limit {
		a.log.Debug("tick step clamped", log.Duration("elapsed", elapsed), log.Duration("limit", limit))
		elapsed = limit
	}
	if err := a.world.Tick(elapsed.Seconds()); err != nil {
		a.faults++
	}

	a.sinceSync += elapsed
	if a.sinceSync >= a.cfg.Server.BroadcastInterval {
		a.sync(false)
	}
}

// sync collects the world views into the tracker and broadcasts a non-empty
// delta. With quiet set nothing is broadcast; observers joining later get the
// snapshot anyway.
func (a *App) sync(quiet bool) {
	a.sinceSync = 0
	d, ok := a.tracker.Collect(a.world.Frame(), a.world.Views())
	if !ok || quiet {
		return
	}
	if err := a.server.Broadcast(d); err != nil {
		a.log.Debug("broadcast skipped", log.Uint64("version", d.Version), log.Error(err))
	}
}

// Faults is the number of ticks that reported at least one entity fault.
func (a *App) Faults() uint64 { return a.faults }

// Report summarizes the gene pool as last replicated.
func (a *App) Report() telemetry.PopulationStats {
	full := a.tracker.Full()
	genomes := make([][]genetics.GeneRef, 0, len(full.Upserts))
	for _, v := range full.Upserts {
		if v.Creature != nil {
			genomes = append(genomes, v.Creature.Genes)
		}
	}
	return telemetry.Population(genomes)
}

func (a *App) logReport() {
	r := a.Report()
	fields := []log.Field{
		log.Int("creatures", r.Creatures),
		log.Float64("mean_genes", r.MeanGenes),
		log.Int("distinct_genes", len(r.Genes)),
	}
	for _, g := range r.Genes {
		fields = append(fields, log.Float64(fmt.Sprintf("gene_%d_freq", g.ID), g.Frequency))
	}
	a.log.Info("population report", fields...)
}

// Run seeds the world and runs every component until ctx is done or one of
// them fails.
func (a *App) Run(ctx context.Context) error {
	if err := a.Seed(); err != nil {
		return err
	}

	tasks := []concurrent.Task{
		concurrent.Every(a.cfg.TickInterval(), func(_ context.Context, elapsed time.Duration) error {
			a.Step(elapsed)
			return nil
		}),
		a.server.Run,
	}
	if d := a.cfg.Telemetry.ReportInterval; d > 0 {
		tasks = append(tasks, concurrent.Every(d, func(context.Context, time.Duration) error {
			a.logReport()
			return nil
		}))
	}

	var out io.WriteCloser
	if a.journal != nil {
		f, err := os.Create(a.cfg.Telemetry.Journal)
		if err != nil {
			return fmt.Errorf("creating journal: %w", err)
		}
		out = f
		tasks = append(tasks, concurrent.Every(a.cfg.Telemetry.FlushInterval, func(context.Context, time.Duration) error {
			_, err := a.journal.Flush(out)
			return err
		}))
	}

	a.log.Info("simulation started",
		log.Duration("tick", a.cfg.TickInterval()),
		log.Uint64("seed", a.cfg.Simulation.Seed),
	)
	err := concurrent.Run(ctx, tasks...)

	if out != nil {
		if _, ferr := a.journal.Flush(out); ferr != nil && err == nil {
			err = ferr
		}
		_ = a.journal.Close()
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	a.log.Info("simulation stopped",
		log.Uint64("frames", a.world.Frame()),
		log.Float64("elapsed", a.world.Elapsed()),
		log.Uint64("faulty_ticks", a.faults),
	)
	return err
}
