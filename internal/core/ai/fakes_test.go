package ai

import (
	"errors"
	"slices"

	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/nest"
	"github.com/zeusync/farmlife/internal/core/physics"
	"github.com/zeusync/farmlife/internal/core/random"
)

type fakeMover struct {
	pos    physics.Vec3
	dest   physics.Vec3
	moving bool
	moves  int
	stops  int
}

func (m *fakeMover) Position() physics.Vec3 { return m.pos }

func (m *fakeMover) MoveTo(p physics.Vec3) {
	m.dest = p
	m.moving = true
	m.moves++
}

func (m *fakeMover) HasReached(p physics.Vec3, threshold float64) bool {
	return physics.Distance(m.pos.Flat(), p.Flat()) <= threshold
}

func (m *fakeMover) StopMoving() {
	m.moving = false
	m.stops++
}

type fakeEntry struct {
	layer models.Layer
	pos   physics.Vec3
}

// fakeWorld is an in-memory directory with brute-force spatial queries.
type fakeWorld struct {
	entries    map[models.EntityID]fakeEntry
	candidates map[models.EntityID]Candidate
	nests      map[models.EntityID]*nest.Nest
	genes      map[models.EntityID][]*genetics.Gene

	eggCfg    egg.Config
	laid      []*egg.Egg
	despawned []models.EntityID
	nextEgg   models.EntityID
	spawnErr  error
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		entries:    map[models.EntityID]fakeEntry{},
		candidates: map[models.EntityID]Candidate{},
		nests:      map[models.EntityID]*nest.Nest{},
		genes:      map[models.EntityID][]*genetics.Gene{},
		eggCfg:     egg.Config{HatchTime: 1, MinHatchTime: 1, MaxHatchTime: 1},
		nextEgg:    1000,
	}
}

func (w *fakeWorld) addCandidate(c Candidate) {
	w.candidates[c.ID] = c
	w.entries[c.ID] = fakeEntry{layer: models.LayerCreatures, pos: c.Position}
}

func (w *fakeWorld) addNest(n *nest.Nest) {
	w.nests[n.ID()] = n
	w.entries[n.ID()] = fakeEntry{layer: models.LayerNests, pos: n.Position()}
}

func (w *fakeWorld) OverlapSphere(center physics.Vec3, radius float64, layer models.Layer) []models.EntityID {
	var out []models.EntityID
	for id, e := range w.entries {
		if layer.Has(e.layer) && physics.Distance(center, e.pos) <= radius {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func (w *fakeWorld) Candidate(id models.EntityID) (Candidate, bool) {
	c, ok := w.candidates[id]
	return c, ok
}

func (w *fakeWorld) Nest(id models.EntityID) (*nest.Nest, bool) {
	n, ok := w.nests[id]
	return n, ok
}

func (w *fakeWorld) Genes(id models.EntityID) ([]*genetics.Gene, bool) {
	g, ok := w.genes[id]
	return g, ok
}

func (w *fakeWorld) SpawnEgg(n *nest.Nest, genes []genetics.GeneRef, fertilized bool) (*egg.Egg, error) {
	if w.spawnErr != nil {
		return nil, w.spawnErr
	}
	w.nextEgg++
	e := egg.New(w.nextEgg, w.eggCfg, egg.Collaborators{})
	if err := e.Init(n.ID(), genes, fertilized); err != nil {
		return nil, err
	}
	e.SetPosition(n.Position())
	w.laid = append(w.laid, e)
	return e, nil
}

func (w *fakeWorld) Despawn(id models.EntityID) {
	w.despawned = append(w.despawned, id)
}

var errSpawn = errors.New("no room")

func testDeps(self models.EntityID, m *fakeMover, w *fakeWorld, seed uint64) Deps {
	return Deps{
		Self:    self,
		Mover:   m,
		Spatial: w,
		World:   w,
		Rand:    random.New(seed),
	}
}
