package genetics

import (
	"sync"

	"github.com/zeusync/farmlife/internal/core/events/bus"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/observability/log"
)

const DefaultMaxGenes = 10

// EventGenesUpdated is published after every successful genome mutation.
const EventGenesUpdated = "genetics.genes_updated"

// GenesUpdated is the payload of EventGenesUpdated.
type GenesUpdated struct {
	Owner models.EntityID
	Genes []GeneRef
}

// Genome is the bounded, validated gene collection owned by one creature.
type Genome struct {
	mu              sync.RWMutex
	maxGenes        int
	allowDuplicates bool
	genes           []*Gene

	owner        models.EntityID
	listeners    map[int]func([]*Gene)
	nextListener int

	log log.Log
	bus bus.EventBus
}

type GenomeOption func(*Genome)

func WithMaxGenes(n int) GenomeOption {
	return func(g *Genome) {
		if n > 0 {
			g.maxGenes = n
		}
	}
}

func WithDuplicates(allow bool) GenomeOption {
	return func(g *Genome) { g.allowDuplicates = allow }
}

func WithLogger(l log.Log) GenomeOption {
	return func(g *Genome) { g.log = log.OrNop(l) }
}

// WithBus publishes EventGenesUpdated for owner on b.
func WithBus(b bus.EventBus, owner models.EntityID) GenomeOption {
	return func(g *Genome) {
		g.bus = bus.OrDiscard(b)
		g.owner = owner
	}
}

func NewGenome(opts ...GenomeOption) *Genome {
	g := &Genome{
		maxGenes:  DefaultMaxGenes,
		listeners: make(map[int]func([]*Gene)),
		log:       log.NewNop(),
		bus:       bus.Discard,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Init sets the starting genes. It is SetGenes under the name creatures use at spawn.
func (g *Genome) Init(genes []*Gene) error {
	return g.SetGenes(genes)
}

// SetGenes replaces the whole gene set. Oversized, invalid and duplicate
// entries are filtered out rather than rejected; only a nil collection fails.
func (g *Genome) SetGenes(genes []*Gene) error {
	if genes == nil {
		return ErrNilGenes
	}

	g.mu.Lock()
	g.genes = g.filter(genes)
	g.mu.Unlock()

	g.notify()
	return nil
}

// filter runs the validation pipeline: truncate, drop invalid, dedupe.
// Passing chances are already clamped by Gene itself.
func (g *Genome) filter(in []*Gene) []*Gene {
	if len(in) > g.maxGenes {
		g.log.Warn("genome truncated",
			log.Uint64("owner", uint64(g.owner)),
			log.Int("given", len(in)),
			log.Int("max", g.maxGenes),
		)
		in = in[:g.maxGenes]
	}

	out := make([]*Gene, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, gene := range in {
		if !gene.Valid() {
			g.log.Debug("dropping invalid gene", log.Uint64("owner", uint64(g.owner)))
			continue
		}
		if _, dup := seen[gene.ID()]; dup && !g.allowDuplicates {
			g.log.Debug("dropping duplicate gene",
				log.Uint64("owner", uint64(g.owner)),
				log.Int("gene", gene.ID()),
			)
			continue
		}
		seen[gene.ID()] = struct{}{}
		out = append(out, gene)
	}
	return out
}

// Add appends one gene.
func (g *Genome) Add(gene *Gene) error {
	if !gene.Valid() {
		return ErrInvalidGene
	}

	g.mu.Lock()
	if len(g.genes) >= g.maxGenes {
		g.mu.Unlock()
		g.log.Warn("genome full, gene rejected",
			log.Uint64("owner", uint64(g.owner)),
			log.Int("gene", gene.ID()),
			log.Int("max", g.maxGenes),
		)
		return ErrGenomeFull
	}
	if !g.allowDuplicates && g.indexLocked(gene.ID()) >= 0 {
		g.mu.Unlock()
		return ErrDuplicateGene
	}
	g.genes = append(g.genes, gene)
	g.mu.Unlock()

	g.notify()
	return nil
}

// Remove drops every gene with id. It reports whether anything was removed.
func (g *Genome) Remove(id int) bool {
	g.mu.Lock()
	kept := g.genes[:0]
	removed := false
	for _, gene := range g.genes {
		if gene.ID() == id {
			removed = true
			continue
		}
		kept = append(kept, gene)
	}
	clear(g.genes[len(kept):])
	g.genes = kept
	g.mu.Unlock()

	if removed {
		g.notify()
	}
	return removed
}

func (g *Genome) Get(id int) (*Gene, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if i := g.indexLocked(id); i >= 0 {
		return g.genes[i], true
	}
	return nil, false
}

func (g *Genome) GetByName(name string) (*Gene, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, gene := range g.genes {
		if gene.Name() == name {
			return gene, true
		}
	}
	return nil, false
}

// Genes returns a snapshot of the held genes in order.
func (g *Genome) Genes() []*Gene {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Gene, len(g.genes))
	copy(out, g.genes)
	return out
}

func (g *Genome) Refs() []GeneRef {
	return Refs(g.Genes())
}

func (g *Genome) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.genes)
}

func (g *Genome) MaxGenes() int { return g.maxGenes }

// OnGenesUpdated registers fn to receive the gene set after each change.
func (g *Genome) OnGenesUpdated(fn func([]*Gene)) (cancel func()) {
	g.mu.Lock()
	id := g.nextListener
	g.nextListener++
	g.listeners[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

func (g *Genome) indexLocked(id int) int {
	for i, gene := range g.genes {
		if gene.ID() == id {
			return i
		}
	}
	return -1
}

func (g *Genome) notify() {
	g.mu.RLock()
	snapshot := make([]*Gene, len(g.genes))
	copy(snapshot, g.genes)
	fns := make([]func([]*Gene), 0, len(g.listeners))
	for i := 0; i < g.nextListener; i++ {
		if fn, ok := g.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	g.mu.RUnlock()

	for _, fn := range fns {
		fn(snapshot)
	}
	if err := g.bus.Publish(bus.NewEvent(EventGenesUpdated, "genome", GenesUpdated{
		Owner: g.owner,
		Genes: Refs(snapshot),
	})); err != nil {
		g.log.Warn("genes updated handler failed", log.Error(err))
	}
}
