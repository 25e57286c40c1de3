// Package creature holds the chicken entity shared by roosters, hens and chicks.
package creature

import (
	"fmt"

	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/random"
)

type Species uint8

const (
	SpeciesRooster Species = iota
	SpeciesHen
	SpeciesChick
)

func (s Species) String() string {
	switch s {
	case SpeciesRooster:
		return "rooster"
	case SpeciesHen:
		return "hen"
	case SpeciesChick:
		return "chick"
	default:
		return fmt.Sprintf("species(%d)", uint8(s))
	}
}

func (s Species) Adult() bool { return s == SpeciesRooster || s == SpeciesHen }

type Gender uint8

const (
	Male Gender = iota
	Female
)

func (g Gender) String() string {
	if g == Male {
		return "male"
	}
	return "female"
}

// Opposite reports whether g and other can breed.
func (g Gender) Opposite(other Gender) bool { return g != other }

// AdultSpecies is the species a chick of gender g grows into.
func (g Gender) AdultSpecies() Species {
	if g == Male {
		return SpeciesRooster
	}
	return SpeciesHen
}

var ErrUnknownSpecies = fmt.Errorf("%w: unknown species", fault.ErrInvalidArgument)

// GenderFor applies the species rule: roosters are male, hens female, chicks a coin flip.
func GenderFor(species Species, rng random.Source) (Gender, error) {
	switch species {
	case SpeciesRooster:
		return Male, nil
	case SpeciesHen:
		return Female, nil
	case SpeciesChick:
		if rng.Float64() < 0.5 {
			return Male, nil
		}
		return Female, nil
	default:
		return 0, ErrUnknownSpecies
	}
}

// Spec describes a creature to build.
type Spec struct {
	Name    string
	Species Species
	Stats   Stats
	Genome  *genetics.Genome
	// GrowTime is the seconds a chick needs to mature. Ignored for adults.
	GrowTime float64
	// Gender is only honoured when FixedGender is set; otherwise the species rule decides.
	Gender      Gender
	FixedGender bool
}

type Creature struct {
	id      models.EntityID
	name    string
	species Species
	gender  Gender
	stats   Stats
	genome  *genetics.Genome
	growth  float64
}

// New builds a creature. A nil genome gets an empty default one.
func New(id models.EntityID, spec Spec, rng random.Source) (*Creature, error) {
	gender, err := GenderFor(spec.Species, rng)
	if err != nil {
		return nil, err
	}
	if spec.FixedGender {
		if spec.Species.Adult() && spec.Gender.AdultSpecies() != spec.Species {
			return nil, fmt.Errorf("%w: %s cannot be %s", fault.ErrInvalidArgument, spec.Species, spec.Gender)
		}
		gender = spec.Gender
	}

	genome := spec.Genome
	if genome == nil {
		genome = genetics.NewGenome()
	}

	c := &Creature{
		id:      id,
		name:    spec.Name,
		species: spec.Species,
		gender:  gender,
		stats:   spec.Stats.Clamp(),
		genome:  genome,
	}
	if c.name == "" {
		c.name = RandomName(rng)
	}
	if spec.Species == SpeciesChick {
		c.growth = max(spec.GrowTime, 0)
	}
	return c, nil
}

func (c *Creature) ID() models.EntityID      { return c.id }
func (c *Creature) Name() string             { return c.name }
func (c *Creature) Species() Species         { return c.species }
func (c *Creature) Gender() Gender           { return c.gender }
func (c *Creature) Stats() Stats             { return c.stats }
func (c *Creature) Genome() *genetics.Genome { return c.genome }
func (c *Creature) GrowthRemaining() float64 { return c.growth }

// EffectiveStats is the base stats plus every stat bonus the genome carries.
func (c *Creature) EffectiveStats() Stats {
	return c.stats.WithGenes(c.genome.Genes())
}

// Grow advances a chick's maturation by dt seconds and reports whether it is
// ready to become an adult. Adults never report ready.
func (c *Creature) Grow(dt float64) bool {
	if c.species != SpeciesChick {
		return false
	}
	if dt > 0 {
		c.growth = max(c.growth-dt, 0)
	}
	return c.growth <= 0
}

var names = []string{
	"Henrietta", "Clucky", "Nugget", "Pepper", "Goldie", "Rusty", "Marigold",
	"Biscuit", "Dumpling", "Sunny", "Ginger", "Pip", "Hazel", "Bramble",
	"Maple", "Cinder", "Waffles", "Tansy",
}

func RandomName(rng random.Source) string {
	return names[rng.IntN(len(names))]
}
