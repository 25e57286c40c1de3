// Package genetics implements genes, genomes and the crossing algorithm that
// combines two parents' genes into an offspring gene set.
package genetics

import (
	"fmt"

	"github.com/zeusync/farmlife/internal/core/fault"
)

// Gene is one heritable trait. Everything except the passing chance is fixed
// at construction; the chance changes only through OverridePassingChance.
type Gene struct {
	id            int
	name          string
	description   string
	passingChance float64
	features      []GeneFeature
}

// GeneRef identifies a gene and the passing chance an offspring inherits for it.
type GeneRef struct {
	ID            int     `json:"id" csv:"id"`
	PassingChance float64 `json:"passing_chance" csv:"passing_chance"`
}

var (
	ErrInvalidGene   = fmt.Errorf("%w: gene needs id > 0 and a name", fault.ErrInvalidArgument)
	ErrNilGenes      = fmt.Errorf("%w: nil gene collection", fault.ErrInvalidArgument)
	ErrDuplicateGene = fmt.Errorf("%w: duplicate gene id", fault.ErrInvalidOperation)
	ErrGenomeFull    = fmt.Errorf("%w: genome at max genes", fault.ErrResourceExhausted)
	ErrEmptyCatalog  = fmt.Errorf("%w: gene catalog is empty", fault.ErrInvalidOperation)
)

// NewGene builds a gene. passingChance is clamped into [0,1].
func NewGene(id int, name, description string, passingChance float64, features ...GeneFeature) *Gene {
	g := &Gene{
		id:            id,
		name:          name,
		description:   description,
		passingChance: clamp01(passingChance),
	}
	if len(features) > 0 {
		g.features = make([]GeneFeature, 0, len(features))
		for _, f := range features {
			if f != nil {
				g.features = append(g.features, f.Clone())
			}
		}
	}
	return g
}

func (g *Gene) ID() int                { return g.id }
func (g *Gene) Name() string           { return g.name }
func (g *Gene) Description() string    { return g.description }
func (g *Gene) PassingChance() float64 { return g.passingChance }

// Features returns a copy of the feature payload.
func (g *Gene) Features() []GeneFeature {
	out := make([]GeneFeature, len(g.features))
	for i, f := range g.features {
		out[i] = f.Clone()
	}
	return out
}

// OverridePassingChance replaces the inherited passing chance, clamped into [0,1].
func (g *Gene) OverridePassingChance(chance float64) {
	g.passingChance = clamp01(chance)
}

// Valid reports whether g survives genome validation.
func (g *Gene) Valid() bool {
	return g != nil && g.id > 0 && g.name != ""
}

// Ref returns the (id, passing chance) pair for g.
func (g *Gene) Ref() GeneRef {
	return GeneRef{ID: g.id, PassingChance: g.passingChance}
}

// Clone deep-copies g.
func (g *Gene) Clone() *Gene {
	if g == nil {
		return nil
	}
	c := &Gene{
		id:            g.id,
		name:          g.name,
		description:   g.description,
		passingChance: g.passingChance,
	}
	if g.features != nil {
		c.features = make([]GeneFeature, len(g.features))
		for i, f := range g.features {
			c.features[i] = f.Clone()
		}
	}
	return c
}

func (g *Gene) String() string {
	return fmt.Sprintf("%s#%d(%.2f)", g.name, g.id, g.passingChance)
}

// StatBonus sums the StatFeature values g carries for stat.
func (g *Gene) StatBonus(stat StatKind) int {
	total := 0
	for _, f := range g.features {
		if sf, ok := f.(StatFeature); ok && sf.Stat == stat {
			total += sf.Value
		}
	}
	return total
}

// Refs maps genes to their refs, skipping nil entries.
func Refs(genes []*Gene) []GeneRef {
	out := make([]GeneRef, 0, len(genes))
	for _, g := range genes {
		if g != nil {
			out = append(out, g.Ref())
		}
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	case v != v:
		return 0
	default:
		return v
	}
}
