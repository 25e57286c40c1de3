package world

import (
	"cmp"
	"slices"

	"github.com/zeusync/farmlife/internal/core/creature"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/physics"
)

// View is a read-only snapshot of one entity, shaped for replication.
type View struct {
	ID       models.EntityID `json:"id"`
	Kind     string          `json:"kind"`
	Position physics.Vec3    `json:"position"`

	Creature *CreatureView `json:"creature,omitempty"`
	Nest     *NestView     `json:"nest,omitempty"`
	Egg      *EggView      `json:"egg,omitempty"`
}

type CreatureView struct {
	Name     string             `json:"name"`
	Species  string             `json:"species"`
	Gender   string             `json:"gender"`
	State    string             `json:"state"`
	Stats    creature.Stats     `json:"stats"`
	Genes    []genetics.GeneRef `json:"genes"`
	Growth   float64            `json:"growth,omitempty"`
	Pregnant bool               `json:"pregnant,omitempty"`
	Nest     models.EntityID    `json:"nest,omitempty"`
}

type NestView struct {
	Occupant   models.EntityID   `json:"occupant,omitempty"`
	Eggs       []models.EntityID `json:"eggs"`
	MaxEggs    int               `json:"max_eggs"`
	Incubating bool              `json:"incubating"`
}

type EggView struct {
	Nest       models.EntityID    `json:"nest"`
	State      string             `json:"state"`
	Fertilized bool               `json:"fertilized"`
	Remaining  float64            `json:"remaining"`
	Genes      []genetics.GeneRef `json:"genes"`
}

// Views snapshots every entity in ascending id order. Call it from the
// goroutine that ticks the world.
func (w *World) Views() []View {
	var out []View
	for _, id := range w.Creatures() {
		if v, ok := w.creatureView(id); ok {
			out = append(out, v)
		}
	}
	for _, id := range w.Nests() {
		if n, ok := w.Nest(id); ok {
			eggs := make([]models.EntityID, 0, n.EggCount())
			for _, e := range n.Eggs() {
				eggs = append(eggs, e.ID())
			}
			out = append(out, View{
				ID:       id,
				Kind:     models.KindNest.String(),
				Position: n.Position(),
				Nest: &NestView{
					Occupant:   n.Occupant(),
					Eggs:       eggs,
					MaxEggs:    n.MaxEggs(),
					Incubating: n.IsIncubating(),
				},
			})
		}
	}
	for _, id := range w.Eggs() {
		if e, ok := w.Egg(id); ok {
			out = append(out, View{
				ID:       id,
				Kind:     models.KindEgg.String(),
				Position: e.Position(),
				Egg: &EggView{
					Nest:       e.NestID(),
					State:      e.State().String(),
					Fertilized: e.IsFertilized(),
					Remaining:  e.RemainingHatchTime(),
					Genes:      e.Genes(),
				},
			})
		}
	}
	slices.SortFunc(out, func(a, b View) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (w *World) creatureView(id models.EntityID) (View, bool) {
	e, ok := w.creatureEntry(id)
	if !ok {
		return View{}, false
	}
	c := e.creature
	cv := &CreatureView{
		Name:    c.Name(),
		Species: c.Species().String(),
		Gender:  c.Gender().String(),
		State:   e.brain.State(),
		Stats:   c.EffectiveStats(),
		Genes:   c.Genome().Refs(),
		Growth:  c.GrowthRemaining(),
	}
	if e.repro != nil {
		cv.Pregnant = e.repro.IsPregnant()
		cv.Nest = e.repro.Nest()
	}
	return View{
		ID:       id,
		Kind:     models.KindCreature.String(),
		Position: e.body.Position(),
		Creature: cv,
	}, true
}
