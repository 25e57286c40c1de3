package genetics

import (
	"fmt"

	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/random"
)

var ErrNilParentGenes = fmt.Errorf("%w: crossing needs both parents' gene sets", fault.ErrInvalidArgument)

// CrossGenes combines two parents' genes. Every id carried by either parent
// appears exactly once in the result. When both carry an id, one of the two
// copies is kept whole by a fair coin flip.
//
// The returned genes are the parents' own pointers, ordered mother first then
// father-only ids, so a fixed rng reproduces the result.
func CrossGenes(rng random.Source, mom, dad []*Gene) ([]*Gene, error) {
	if mom == nil || dad == nil {
		return nil, ErrNilParentGenes
	}

	chosen := make(map[int]*Gene, len(mom)+len(dad))
	order := make([]int, 0, len(mom)+len(dad))

	for _, g := range mom {
		if g == nil {
			continue
		}
		if _, ok := chosen[g.ID()]; ok {
			continue
		}
		chosen[g.ID()] = g
		order = append(order, g.ID())
	}

	fromDad := make(map[int]struct{}, len(dad))
	for _, g := range dad {
		if g == nil {
			continue
		}
		if _, seen := fromDad[g.ID()]; seen {
			continue
		}
		fromDad[g.ID()] = struct{}{}

		if _, shared := chosen[g.ID()]; !shared {
			chosen[g.ID()] = g
			order = append(order, g.ID())
			continue
		}
		if rng.Float64() >= 0.5 {
			chosen[g.ID()] = g
		}
	}

	out := make([]*Gene, len(order))
	for i, id := range order {
		out[i] = chosen[id]
	}
	return out, nil
}

// Cross is CrossGenes reduced to the refs an egg carries.
func Cross(rng random.Source, mom, dad []*Gene) ([]GeneRef, error) {
	genes, err := CrossGenes(rng, mom, dad)
	if err != nil {
		return nil, err
	}
	return Refs(genes), nil
}

// SelectPassed draws each gene independently against its own passing chance.
func SelectPassed(rng random.Source, genes []*Gene) ([]GeneRef, error) {
	if genes == nil {
		return nil, ErrNilGenes
	}
	out := make([]GeneRef, 0, len(genes))
	for _, g := range genes {
		if g == nil {
			continue
		}
		if rng.Float64() < g.PassingChance() {
			out = append(out, g.Ref())
		}
	}
	return out, nil
}
