// Package telemetry records the breeding lifecycle and summarizes the gene
// pool of the population.
package telemetry

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/zeusync/farmlife/internal/core/egg"
	"github.com/zeusync/farmlife/internal/core/events/bus"
	"github.com/zeusync/farmlife/internal/core/genetics"
	"github.com/zeusync/farmlife/internal/core/observability/log"
	"github.com/zeusync/farmlife/internal/core/reproduction"
	"github.com/zeusync/farmlife/internal/core/world"
)

// LifecycleRecord is one journal row. Subject and Other depend on the event:
// mother/father for a pregnancy, egg/nest for egg events, chick/adult for growth.
type LifecycleRecord struct {
	EventID string `csv:"event_id"`
	Time    string `csv:"time"`
	Event   string `csv:"event"`
	Subject uint64 `csv:"subject"`
	Other   uint64 `csv:"other"`
	Genes   string `csv:"genes"`
	Detail  string `csv:"detail"`
}

// Events the journal records.
var JournalEvents = []string{
	reproduction.EventPregnant,
	world.EventEggLaid,
	egg.EventIncubationStarted,
	egg.EventHatched,
	egg.EventHatchFailed,
	egg.EventSpoiled,
	world.EventCreatureGrown,
	genetics.EventGenesUpdated,
}

var ErrUnknownPayload = errors.New("unknown lifecycle payload")

// Journal buffers lifecycle records until they are flushed as CSV.
type Journal struct {
	mu            sync.Mutex
	pending       []LifecycleRecord
	headerWritten bool
	written       int

	subs []bus.Subscription
	log  log.Log
}

// NewJournal subscribes to every lifecycle event on b.
func NewJournal(b bus.EventBus, logger log.Log) (*Journal, error) {
	j := &Journal{log: log.OrNop(logger).With(log.String("component", "journal"))}
	for _, typ := range JournalEvents {
		sub, err := b.Subscribe(typ, j.record)
		if err != nil {
			_ = j.Close()
			return nil, fmt.Errorf("subscribing to %s: %w", typ, err)
		}
		j.subs = append(j.subs, sub)
	}
	return j, nil
}

func (j *Journal) record(e bus.Event) error {
	rec := LifecycleRecord{
		EventID: uuid.NewString(),
		Time:    e.Timestamp().UTC().Format(time.RFC3339Nano),
		Event:   e.Type(),
	}

	switch p := e.Data().(type) {
	case reproduction.Pregnant:
		rec.Subject, rec.Other = uint64(p.Mother), uint64(p.Father)
	case world.EggLaid:
		rec.Subject, rec.Other = uint64(p.Egg), uint64(p.Nest)
		rec.Genes = FormatGenes(p.Genes)
		rec.Detail = "fertilized=" + strconv.FormatBool(p.Fertilized)
	case egg.IncubationStarted:
		rec.Subject, rec.Other = uint64(p.Egg), uint64(p.Nest)
		rec.Detail = "duration=" + strconv.FormatFloat(p.Duration, 'f', 2, 64)
	case egg.Hatched:
		rec.Subject, rec.Other = uint64(p.Egg), uint64(p.Nest)
		rec.Genes = FormatGenes(p.Genes)
		rec.Detail = "offspring=" + strconv.FormatUint(uint64(p.Offspring), 10)
	case egg.HatchFailed:
		rec.Subject, rec.Other = uint64(p.Egg), uint64(p.Nest)
		rec.Detail = p.Reason
	case egg.Spoiled:
		rec.Subject = uint64(p.Egg)
		rec.Detail = "age=" + strconv.FormatFloat(p.Age, 'f', 2, 64)
	case world.CreatureGrown:
		rec.Subject, rec.Other = uint64(p.Chick), uint64(p.Adult)
		rec.Detail = p.Species.String()
	case genetics.GenesUpdated:
		rec.Subject = uint64(p.Owner)
		rec.Genes = FormatGenes(p.Genes)
	default:
		j.log.Warn("unrecorded event", log.String("event", e.Type()))
		return fmt.Errorf("%w: %T", ErrUnknownPayload, p)
	}

	j.mu.Lock()
	j.pending = append(j.pending, rec)
	j.mu.Unlock()
	return nil
}

// Pending returns a copy of the records not flushed yet.
func (j *Journal) Pending() []LifecycleRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]LifecycleRecord(nil), j.pending...)
}

// Flush writes pending records to w; the CSV header precedes the first batch
// only. Records stay pending when the write fails.
func (j *Journal) Flush(w io.Writer) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.pending) == 0 {
		return 0, nil
	}

	var err error
	if !j.headerWritten {
		err = gocsv.Marshal(j.pending, w)
	} else {
		err = gocsv.MarshalWithoutHeaders(j.pending, w)
	}
	if err != nil {
		return 0, fmt.Errorf("writing journal: %w", err)
	}

	n := len(j.pending)
	j.headerWritten = true
	j.written += n
	j.pending = j.pending[:0]
	j.log.Debug("journal flushed", log.Int("records", n), log.Int("total", j.written))
	return n, nil
}

// Close cancels the bus subscriptions. Pending records are kept.
func (j *Journal) Close() error {
	var errs []error
	for _, sub := range j.subs {
		errs = append(errs, sub.Cancel())
	}
	j.subs = nil
	return errors.Join(errs...)
}

// FormatGenes renders refs as "id:chance" pairs separated by semicolons.
func FormatGenes(refs []genetics.GeneRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = strconv.Itoa(r.ID) + ":" + strconv.FormatFloat(r.PassingChance, 'f', 2, 64)
	}
	return strings.Join(parts, ";")
}
