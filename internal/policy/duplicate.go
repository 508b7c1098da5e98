// internal/policy/duplicate.go
package policy

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DupStatus is the duplicate-check state of one uniqueness-bearing field.
type DupStatus int

const (
	// DupNone: no known conflict.
	DupNone DupStatus = iota
	// DupChecking: a lookup is in flight. Blocks submission without being
	// an error.
	DupChecking
	// DupTaken: the value already exists in persisted storage.
	DupTaken
)

// DraftDupState holds the per-field flags for one draft. The two fields
// are independent; a response concerning one never overwrites the other.
type DraftDupState struct {
	PurchaseLink     DupStatus
	ShortDescription DupStatus
}

// LookupResult reports which of the two submitted values already exist.
type LookupResult struct {
	PurchaseLinkTaken     bool
	ShortDescriptionTaken bool
}

// LookupFunc checks both fields in one round trip against persisted deals.
type LookupFunc func(ctx context.Context, purchaseLink, shortDescription string) (LookupResult, error)

type detectorKey struct {
	draftID string
	field   string
}

// Detector schedules a debounced uniqueness probe per edited field. Each
// (draft, field) pair owns its own timer and generation counter, so
// editing one draft never cancels another draft's pending check, and only
// the response to the most recently scheduled check for a pair may mutate
// its state.
type Detector struct {
	mu       sync.Mutex
	lookup   LookupFunc
	delay    time.Duration
	onChange func(draftID string)

	timers map[detectorKey]*time.Timer
	gens   map[detectorKey]uint64
	values map[detectorKey]string
	states map[string]*DraftDupState
}

// NewDetector builds a detector with the given quiet period. onChange, if
// non-nil, is invoked after any state mutation with the affected draft ID.
func NewDetector(lookup LookupFunc, delay time.Duration, onChange func(draftID string)) *Detector {
	return &Detector{
		lookup:   lookup,
		delay:    delay,
		onChange: onChange,
		timers:   make(map[detectorKey]*time.Timer),
		gens:     make(map[detectorKey]uint64),
		values:   make(map[detectorKey]string),
		states:   make(map[string]*DraftDupState),
	}
}

// FieldChanged records an edit to one of the uniqueness-bearing fields and
// reschedules that field's check. An empty value clears the field's flag
// without a lookup; clearing both fields therefore performs no network
// call at all.
func (d *Detector) FieldChanged(draftID, field, value string) {
	if field != FieldPurchaseLink && field != FieldShortDescription {
		return
	}

	d.mu.Lock()
	key := detectorKey{draftID: draftID, field: field}
	d.values[key] = value
	d.gens[key]++
	gen := d.gens[key]

	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}

	state := d.draftState(draftID)

	if value == "" {
		d.setStatus(state, field, DupNone)
		d.mu.Unlock()
		d.notify(draftID)
		return
	}

	d.setStatus(state, field, DupChecking)
	link := d.values[detectorKey{draftID: draftID, field: FieldPurchaseLink}]
	desc := d.values[detectorKey{draftID: draftID, field: FieldShortDescription}]
	linkGen := d.gens[detectorKey{draftID: draftID, field: FieldPurchaseLink}]
	descGen := d.gens[detectorKey{draftID: draftID, field: FieldShortDescription}]

	d.timers[key] = time.AfterFunc(d.delay, func() {
		d.runCheck(draftID, gen, key, link, desc, linkGen, descGen)
	})
	d.mu.Unlock()
	d.notify(draftID)
}

// runCheck performs the lookup and applies the response per field, dropping
// anything stale. A field's result is applied only when no newer edit has
// been made to it and its live value still equals the value that was
// checked.
func (d *Detector) runCheck(draftID string, gen uint64, key detectorKey, link, desc string, linkGen, descGen uint64) {
	d.mu.Lock()
	if d.gens[key] != gen {
		// A newer edit rescheduled this pair; drop.
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	result, err := d.lookup(context.Background(), link, desc)

	d.mu.Lock()
	state := d.draftState(draftID)

	if err != nil {
		logrus.WithError(err).WithField("draft_id", draftID).Warn("Duplicate check failed")
		// Do not leave the field stuck in checking state.
		if d.gens[key] == gen {
			d.setStatus(state, key.field, DupNone)
		}
		d.mu.Unlock()
		d.notify(draftID)
		return
	}

	linkKey := detectorKey{draftID: draftID, field: FieldPurchaseLink}
	descKey := detectorKey{draftID: draftID, field: FieldShortDescription}

	if link != "" && d.gens[linkKey] == linkGen && d.values[linkKey] == link {
		if result.PurchaseLinkTaken {
			state.PurchaseLink = DupTaken
		} else {
			state.PurchaseLink = DupNone
		}
	}
	if desc != "" && d.gens[descKey] == descGen && d.values[descKey] == desc {
		if result.ShortDescriptionTaken {
			state.ShortDescription = DupTaken
		} else {
			state.ShortDescription = DupNone
		}
	}
	d.mu.Unlock()
	d.notify(draftID)
}

// State returns a copy of the draft's current flags.
func (d *Detector) State(draftID string) DraftDupState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.states[draftID]; ok {
		return *s
	}
	return DraftDupState{}
}

// States snapshots every tracked draft, in the shape ValidateBatch expects.
func (d *Detector) States() map[string]DraftDupState {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]DraftDupState, len(d.states))
	for id, s := range d.states {
		out[id] = *s
	}
	return out
}

// Forget drops all state for a draft, e.g. after a successful commit.
func (d *Detector) Forget(draftID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		if key.draftID == draftID {
			t.Stop()
			delete(d.timers, key)
		}
	}
	for key := range d.gens {
		if key.draftID == draftID {
			delete(d.gens, key)
			delete(d.values, key)
		}
	}
	delete(d.states, draftID)
}

// Stop cancels every pending timer.
func (d *Detector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}

func (d *Detector) draftState(draftID string) *DraftDupState {
	if s, ok := d.states[draftID]; ok {
		return s
	}
	s := &DraftDupState{}
	d.states[draftID] = s
	return s
}

func (d *Detector) setStatus(state *DraftDupState, field string, status DupStatus) {
	switch field {
	case FieldPurchaseLink:
		state.PurchaseLink = status
	case FieldShortDescription:
		state.ShortDescription = status
	}
}

func (d *Detector) notify(draftID string) {
	if d.onChange != nil {
		d.onChange(draftID)
	}
}
