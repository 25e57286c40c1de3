package telemetry

import (
	"maps"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/zeusync/farmlife/internal/core/genetics"
)

// GeneStats summarizes one gene id across the population.
type GeneStats struct {
	ID         int     `csv:"gene_id" json:"id"`
	Carriers   int     `csv:"carriers" json:"carriers"`
	Frequency  float64 `csv:"frequency" json:"frequency"` // share of creatures carrying the gene
	MeanChance float64 `csv:"mean_chance" json:"mean_chance"`
	StdChance  float64 `csv:"std_chance" json:"std_chance"`
}

type PopulationStats struct {
	Creatures int         `json:"creatures"`
	MeanGenes float64     `json:"mean_genes"`
	Genes     []GeneStats `json:"genes"` // ascending gene id
}

// Population summarizes the gene pool, one genome per creature. A creature
// carrying a gene id twice counts once towards its frequency but both passing
// chances enter the mean.
func Population(genomes [][]genetics.GeneRef) PopulationStats {
	out := PopulationStats{Creatures: len(genomes), Genes: []GeneStats{}}
	if len(genomes) == 0 {
		return out
	}

	counts := make([]float64, len(genomes))
	chances := make(map[int][]float64)
	carriers := make(map[int]int)
	for i, refs := range genomes {
		counts[i] = float64(len(refs))
		seen := make(map[int]bool, len(refs))
		for _, r := range refs {
			chances[r.ID] = append(chances[r.ID], r.PassingChance)
			if !seen[r.ID] {
				seen[r.ID] = true
				carriers[r.ID]++
			}
		}
	}
	out.MeanGenes = stat.Mean(counts, nil)

	for _, id := range slices.Sorted(maps.Keys(chances)) {
		xs := chances[id]
		mean, std := stat.MeanStdDev(xs, nil)
		if len(xs) < 2 {
			std = 0
		}
		out.Genes = append(out.Genes, GeneStats{
			ID:         id,
			Carriers:   carriers[id],
			Frequency:  float64(carriers[id]) / float64(len(genomes)),
			MeanChance: mean,
			StdChance:  std,
		})
	}
	return out
}
