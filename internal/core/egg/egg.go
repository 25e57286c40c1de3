// Package egg implements the egg lifecycle from laying to hatching.
//
// An egg moves Uninitialized -> Initialized -> Incubating -> Hatched. Only a
// fertilized egg placed in a nest can incubate, and its timer only runs while
// incubating. Hatching happens exactly once: the egg asks the spawner for the
// offspring and then destroys itself whether or not that worked. An
// unfertilized egg never incubates; it spoils and destroys itself once it has
// sat for the configured inert lifetime.
package egg

import (
	"fmt"
	"sync"

	"github.com/zeusync/farmlife/internal/core/events/bus"
	"github.com/zeusync/farmlife/internal/core/fault"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/models"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/physics"
)

type State uint8

const (
	StateUninitialized State = iota
	StateInitialized
	StateIncubating
	StateHatched
	StateSpoiled
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateIncubating:
		return "incubating"
	case StateHatched:
		return "hatched"
	case StateSpoiled:
		return "spoiled"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

const (
	EventIncubationStarted = "egg.incubation_started"
	EventHatched           = "egg.hatched"
	EventHatchFailed       = "egg.hatch_failed"
	EventSpoiled           = "egg.spoiled"
)

type IncubationStarted struct {
	Egg      models.EntityID
	Nest     models.EntityID
	Duration float64
}

type Hatched struct {
	Egg       models.EntityID
	Nest      models.EntityID
	Offspring models.EntityID
	Genes     []genetics.GeneRef
}

type HatchFailed struct {
	Egg    models.EntityID
	Nest   models.EntityID
	Reason string
}

type Spoiled struct {
	Egg models.EntityID
	Age float64
}

var (
	ErrAlreadyInitialized = fmt.Errorf("%w: egg already initialized", fault.ErrInvalidOperation)
	ErrNotInitialized     = fmt.Errorf("%w: egg not initialized", fault.ErrInvalidOperation)
	ErrNotFertilized      = fmt.Errorf("%w: egg not fertilized", fault.ErrInvalidOperation)
	ErrNoNest             = fmt.Errorf("%w: egg has no nest", fault.ErrInvalidOperation)
	ErrAlreadyIncubating  = fmt.Errorf("%w: egg already incubating", fault.ErrInvalidOperation)
	ErrNotIncubating      = fmt.Errorf("%w: egg not incubating", fault.ErrInvalidOperation)
	ErrHatched            = fmt.Errorf("%w: egg already hatched", fault.ErrInvalidOperation)
)

// hatchEpsilon absorbs float drift when dt sums exactly to the hatch time.
const hatchEpsilon = 1e-9

// Config bounds the hatch timer. HatchTime is clamped into [MinHatchTime, MaxHatchTime].
type Config struct {
	HatchTime    float64 `yaml:"hatch_time"`
	MinHatchTime float64 `yaml:"min_hatch_time"`
	MaxHatchTime float64 `yaml:"max_hatch_time"`
	// InertLifetime is how long an unfertilized egg lasts. Zero keeps it forever.
	InertLifetime float64 `yaml:"inert_lifetime"`
}

func DefaultConfig() Config {
	return Config{
		HatchTime:     20,
		MinHatchTime:  5,
		MaxHatchTime:  60,
		InertLifetime: 120,
	}
}

func (c Config) duration() float64 {
	d := c.HatchTime
	if c.MaxHatchTime > 0 {
		d = min(d, c.MaxHatchTime)
	}
	return max(d, c.MinHatchTime, 0)
}

// Spawner creates the offspring of a hatched egg and returns its id.
type Spawner interface {
	SpawnFromEgg(genes []genetics.GeneRef, at physics.Vec3) (models.EntityID, error)
}

// SpawnerFunc adapts a function to Spawner.
type SpawnerFunc func(genes []genetics.GeneRef, at physics.Vec3) (models.EntityID, error)

func (f SpawnerFunc) SpawnFromEgg(genes []genetics.GeneRef, at physics.Vec3) (models.EntityID, error) {
	return f(genes, at)
}

// Collaborators are the world services an egg calls into. Any may be nil.
type Collaborators struct {
	Spawner Spawner
	Destroy func(id models.EntityID)
	Bus     bus.EventBus
	Log     log.Log
}

type Egg struct {
	mu sync.Mutex

	id         models.EntityID
	cfg        Config
	state      State
	nest       models.EntityID
	genes      []genetics.GeneRef
	fertilized bool
	timer      float64
	duration   float64
	aged       float64
	position   physics.Vec3

	hatchedListeners  listeners
	incubateListeners listeners

	spawner Spawner
	destroy func(models.EntityID)
	bus     bus.EventBus
	log     log.Log
}

func New(id models.EntityID, cfg Config, c Collaborators) *Egg {
	e := &Egg{
		id:      id,
		cfg:     cfg,
		spawner: c.Spawner,
		destroy: c.Destroy,
		bus:     bus.OrDiscard(c.Bus),
		log:     log.OrNop(c.Log).With(log.Uint64("egg", uint64(id))),
	}
	return e
}

// Init sets the payload and starts the timer at its full duration. It can only run once.
func (e *Egg) Init(nest models.EntityID, genes []genetics.GeneRef, fertilized bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUninitialized {
		e.log.Warn("egg initialized twice, ignoring")
		return ErrAlreadyInitialized
	}

	e.nest = nest
	e.genes = append([]genetics.GeneRef(nil), genes...)
	e.fertilized = fertilized
	e.duration = e.cfg.duration()
	e.timer = e.duration
	e.state = StateInitialized

	e.log.Debug("egg initialized",
		log.Uint64("nest", uint64(nest)),
		log.Bool("fertilized", fertilized),
		log.Int("genes", len(genes)),
		log.Float64("hatch_time", e.duration),
	)
	return nil
}

// StartIncubation begins (or restarts after a stop) the countdown from the full duration.
func (e *Egg) StartIncubation() error {
	e.mu.Lock()
	switch {
	case e.state == StateUninitialized:
		e.mu.Unlock()
		return ErrNotInitialized
	case e.state == StateHatched:
		e.mu.Unlock()
		return ErrHatched
	case e.state == StateIncubating:
		e.mu.Unlock()
		return ErrAlreadyIncubating
	case !e.fertilized:
		e.mu.Unlock()
		return ErrNotFertilized
	case !e.nest.Valid():
		e.mu.Unlock()
		return ErrNoNest
	}

	e.state = StateIncubating
	e.timer = e.duration
	payload := IncubationStarted{Egg: e.id, Nest: e.nest, Duration: e.duration}
	fns := e.incubateListeners.snapshot()
	e.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
	e.publish(EventIncubationStarted, payload)
	return nil
}

// StopIncubation pauses the countdown where it is.
func (e *Egg) StopIncubation() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIncubating {
		return ErrNotIncubating
	}
	e.state = StateInitialized
	return nil
}

// Tick advances the countdown by dt seconds. An incubating egg counts down to
// hatching and an unfertilized one ages towards spoiling; any other egg is left
// alone.
func (e *Egg) Tick(dt float64) error {
	e.mu.Lock()
	switch e.state {
	case StateInitialized:
		e.ageInert(dt)
		return nil
	case StateUninitialized, StateHatched, StateSpoiled:
		e.mu.Unlock()
		return nil
	case StateIncubating:
	default:
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("%w: egg %d in %s", fault.ErrInvalidState, e.id, state)
	}

	if dt > 0 {
		e.timer -= dt
	}
	if e.timer > hatchEpsilon {
		e.mu.Unlock()
		return nil
	}

	e.timer = 0
	e.state = StateHatched
	genes := append([]genetics.GeneRef(nil), e.genes...)
	nest, at := e.nest, e.position
	fns := e.hatchedListeners.snapshot()
	e.hatchedListeners.clear()
	e.incubateListeners.clear()
	e.mu.Unlock()

	e.hatch(fns, nest, genes, at)
	return nil
}

// ageInert must be called with e.mu held and releases it.
func (e *Egg) ageInert(dt float64) {
	if e.fertilized || e.cfg.InertLifetime <= 0 {
		e.mu.Unlock()
		return
	}
	if dt > 0 {
		e.aged += dt
	}
	if e.aged < e.cfg.InertLifetime-hatchEpsilon {
		e.mu.Unlock()
		return
	}
	e.state = StateSpoiled
	aged := e.aged
	e.hatchedListeners.clear()
	e.incubateListeners.clear()
	e.mu.Unlock()

	e.log.Debug("unfertilized egg spoiled", log.Float64("age", aged))
	e.publish(EventSpoiled, Spoiled{Egg: e.id, Age: aged})
	if e.destroy != nil {
		e.destroy(e.id)
	}
}

func (e *Egg) hatch(fns []func(*Egg), nest models.EntityID, genes []genetics.GeneRef, at physics.Vec3) {
	e.log.Info("egg hatched", log.Uint64("nest", uint64(nest)))
	for _, fn := range fns {
		fn(e)
	}

	offspring, err := e.spawn(genes, at)
	if err != nil {
		e.log.Error("hatch failed, offspring lost", log.Error(err))
		e.publish(EventHatchFailed, HatchFailed{Egg: e.id, Nest: nest, Reason: err.Error()})
	} else {
		e.publish(EventHatched, Hatched{Egg: e.id, Nest: nest, Offspring: offspring, Genes: genes})
	}

	if e.destroy != nil {
		e.destroy(e.id)
	}
}

func (e *Egg) spawn(genes []genetics.GeneRef, at physics.Vec3) (id models.EntityID, err error) {
	if e.spawner == nil {
		return models.NoEntity, fmt.Errorf("%w: no spawner", fault.ErrSpawnFailed)
	}
	defer func() {
		if r := recover(); r != nil {
			id, err = models.NoEntity, fmt.Errorf("%w: panic: %v", fault.ErrSpawnFailed, r)
		}
	}()
	id, err = e.spawner.SpawnFromEgg(genes, at)
	if err != nil {
		return models.NoEntity, fmt.Errorf("%w: %w", fault.ErrSpawnFailed, err)
	}
	return id, nil
}

func (e *Egg) publish(typ string, payload any) {
	if err := e.bus.Publish(bus.NewEvent(typ, "egg", payload)); err != nil {
		e.log.Warn("egg event handler failed", log.String("event", typ), log.Error(err))
	}
}

// OnHatched registers fn to run once, when the egg hatches.
func (e *Egg) OnHatched(fn func(*Egg)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.hatchedListeners.add(fn)
	return func() {
		e.mu.Lock()
		e.hatchedListeners.remove(id)
		e.mu.Unlock()
	}
}

// OnIncubationStarted registers fn for every StartIncubation.
func (e *Egg) OnIncubationStarted(fn func(*Egg)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.incubateListeners.add(fn)
	return func() {
		e.mu.Lock()
		e.incubateListeners.remove(id)
		e.mu.Unlock()
	}
}

func (e *Egg) ID() models.EntityID { return e.id }

// RemainingHatchTime is never negative.
func (e *Egg) RemainingHatchTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timer
}

func (e *Egg) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *Egg) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Egg) IsFertilized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fertilized
}

// Age is how long an unfertilized egg has sat so far.
func (e *Egg) Age() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.aged
}

func (e *Egg) IsIncubating() bool { return e.State() == StateIncubating }

func (e *Egg) Genes() []genetics.GeneRef {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]genetics.GeneRef(nil), e.genes...)
}

func (e *Egg) NestID() models.EntityID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nest
}

func (e *Egg) Position() physics.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

func (e *Egg) SetPosition(p physics.Vec3) {
	e.mu.Lock()
	e.position = p
	e.mu.Unlock()
}

// listeners keeps callbacks in registration order.
type listeners struct {
	next int
	fns  []listener
}

type listener struct {
	id int
	fn func(*Egg)
}

func (l *listeners) add(fn func(*Egg)) int {
	l.next++
	l.fns = append(l.fns, listener{id: l.next, fn: fn})
	return l.next
}

func (l *listeners) remove(id int) {
	for i, ls := range l.fns {
		if ls.id == id {
			l.fns = append(l.fns[:i], l.fns[i+1:]...)
			return
		}
	}
}

func (l *listeners) snapshot() []func(*Egg) {
	out := make([]func(*Egg), len(l.fns))
	for i, ls := range l.fns {
		out[i] = ls.fn
	}
	return out
}

func (l *listeners) clear() { l.fns = nil }
