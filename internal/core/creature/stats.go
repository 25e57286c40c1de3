package creature

import (
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/random"
)

const (
	MinStat = 0
	MaxStat = 100
)

type Stats struct {
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Endurance    int `json:"endurance"`
	Intelligence int `json:"intelligence"`
	Health       int `json:"health"`
}

// Clamp forces every stat into [MinStat, MaxStat].
func (s Stats) Clamp() Stats {
	return Stats{
		Strength:     clampStat(s.Strength),
		Agility:      clampStat(s.Agility),
		Endurance:    clampStat(s.Endurance),
		Intelligence: clampStat(s.Intelligence),
		Health:       clampStat(s.Health),
	}
}

func (s Stats) Get(kind genetics.StatKind) int {
	switch kind {
	case genetics.StatStrength:
		return s.Strength
	case genetics.StatAgility:
		return s.Agility
	case genetics.StatEndurance:
		return s.Endurance
	case genetics.StatIntelligence:
		return s.Intelligence
	case genetics.StatHealth:
		return s.Health
	default:
		return 0
	}
}

// WithGenes adds each gene's stat bonuses and clamps the result.
func (s Stats) WithGenes(genes []*genetics.Gene) Stats {
	for _, g := range genes {
		if g == nil {
			continue
		}
		s.Strength += g.StatBonus(genetics.StatStrength)
		s.Agility += g.StatBonus(genetics.StatAgility)
		s.Endurance += g.StatBonus(genetics.StatEndurance)
		s.Intelligence += g.StatBonus(genetics.StatIntelligence)
		s.Health += g.StatBonus(genetics.StatHealth)
	}
	return s.Clamp()
}

// RandomStats rolls each stat uniformly in [20, 80].
func RandomStats(rng random.Source) Stats {
	roll := func() int { return 20 + rng.IntN(61) }
	return Stats{
		Strength:     roll(),
		Agility:      roll(),
		Endurance:    roll(),
		Intelligence: roll(),
		Health:       roll(),
	}
}

func clampStat(v int) int {
	return min(max(v, MinStat), MaxStat)
}
