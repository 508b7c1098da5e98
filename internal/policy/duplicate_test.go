// internal/policy/duplicate_test.go
package policy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	mu      sync.Mutex
	calls   []lookupCall
	results map[string]LookupResult
	block   chan struct{}
}

type lookupCall struct {
	link string
	desc string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{results: make(map[string]LookupResult)}
}

func (f *fakeLookup) fn(_ context.Context, link, desc string) (LookupResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, lookupCall{link: link, desc: desc})
	block := f.block
	result := f.results[link]
	if desc != "" {
		if r, ok := f.results[desc]; ok {
			result.ShortDescriptionTaken = r.ShortDescriptionTaken
		}
	}
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	return result, nil
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLookup) lastCall() lookupCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDetectorDebouncesRapidEdits(t *testing.T) {
	lookup := newFakeLookup()
	d := NewDetector(lookup.fn, 30*time.Millisecond, nil)
	defer d.Stop()

	d.FieldChanged("draft-1", FieldPurchaseLink, "https://a.example.com/1")
	d.FieldChanged("draft-1", FieldPurchaseLink, "https://a.example.com/12")
	d.FieldChanged("draft-1", FieldPurchaseLink, "https://a.example.com/123")

	waitFor(t, func() bool { return lookup.callCount() == 1 })
	assert.Equal(t, "https://a.example.com/123", lookup.lastCall().link)

	// The quiet period elapsed once; no further checks fire.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, lookup.callCount())
	assert.Equal(t, DupNone, d.State("draft-1").PurchaseLink)
}

func TestDetectorMarksTaken(t *testing.T) {
	lookup := newFakeLookup()
	lookup.results["https://taken.example.com/x"] = LookupResult{PurchaseLinkTaken: true}

	d := NewDetector(lookup.fn, 10*time.Millisecond, nil)
	defer d.Stop()

	d.FieldChanged("draft-1", FieldPurchaseLink, "https://taken.example.com/x")
	assert.Equal(t, DupChecking, d.State("draft-1").PurchaseLink)

	waitFor(t, func() bool { return d.State("draft-1").PurchaseLink == DupTaken })
}

func TestDetectorStaleResponseDropped(t *testing.T) {
	lookup := newFakeLookup()
	lookup.results["https://taken.example.com/x"] = LookupResult{PurchaseLinkTaken: true}
	lookup.block = make(chan struct{})

	d := NewDetector(lookup.fn, 10*time.Millisecond, nil)
	defer d.Stop()

	d.FieldChanged("draft-1", FieldPurchaseLink, "https://taken.example.com/x")
	waitFor(t, func() bool { return lookup.callCount() == 1 })

	// The user clears the field while the response is in flight.
	d.FieldChanged("draft-1", FieldPurchaseLink, "")
	close(lookup.block)

	// The late response must not resurrect an error.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, DupNone, d.State("draft-1").PurchaseLink)
}

func TestDetectorFieldsIndependent(t *testing.T) {
	lookup := newFakeLookup()
	lookup.results["dup short description"] = LookupResult{ShortDescriptionTaken: true}

	d := NewDetector(lookup.fn, 10*time.Millisecond, nil)
	defer d.Stop()

	d.FieldChanged("draft-1", FieldShortDescription, "dup short description")
	waitFor(t, func() bool { return d.State("draft-1").ShortDescription == DupTaken })

	// A later purchase-link check must not clear the short description flag.
	d.FieldChanged("draft-1", FieldPurchaseLink, "https://fresh.example.com/y")
	waitFor(t, func() bool { return d.State("draft-1").PurchaseLink == DupNone && lookup.callCount() == 2 })
	assert.Equal(t, DupTaken, d.State("draft-1").ShortDescription)
}

func TestDetectorClearingBothSkipsLookup(t *testing.T) {
	lookup := newFakeLookup()
	d := NewDetector(lookup.fn, 10*time.Millisecond, nil)
	defer d.Stop()

	d.FieldChanged("draft-1", FieldPurchaseLink, "")
	d.FieldChanged("draft-1", FieldShortDescription, "")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, lookup.callCount())
	assert.Equal(t, DraftDupState{}, d.State("draft-1"))
}

func TestDetectorDraftsDoNotCancelEachOther(t *testing.T) {
	lookup := newFakeLookup()
	d := NewDetector(lookup.fn, 30*time.Millisecond, nil)
	defer d.Stop()

	d.FieldChanged("draft-a", FieldPurchaseLink, "https://a.example.com/a")
	time.Sleep(10 * time.Millisecond)
	// Editing draft B while A's timer is pending must not cancel A.
	d.FieldChanged("draft-b", FieldPurchaseLink, "https://b.example.com/b")

	waitFor(t, func() bool { return lookup.callCount() == 2 })
	assert.Equal(t, DupNone, d.State("draft-a").PurchaseLink)
	assert.Equal(t, DupNone, d.State("draft-b").PurchaseLink)
}

func TestDetectorNotifiesOnChange(t *testing.T) {
	lookup := newFakeLookup()

	var mu sync.Mutex
	notified := make(map[string]int)
	d := NewDetector(lookup.fn, 10*time.Millisecond, func(draftID string) {
		mu.Lock()
		notified[draftID]++
		mu.Unlock()
	})
	defer d.Stop()

	d.FieldChanged("draft-1", FieldPurchaseLink, "https://a.example.com/n")
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return notified["draft-1"] >= 2 // checking, then resolved
	})
}

func TestDetectorForget(t *testing.T) {
	lookup := newFakeLookup()
	d := NewDetector(lookup.fn, 10*time.Millisecond, nil)
	defer d.Stop()

	lookup.results["https://taken.example.com/x"] = LookupResult{PurchaseLinkTaken: true}
	d.FieldChanged("draft-1", FieldPurchaseLink, "https://taken.example.com/x")
	waitFor(t, func() bool { return d.State("draft-1").PurchaseLink == DupTaken })

	d.Forget("draft-1")
	assert.Equal(t, DraftDupState{}, d.State("draft-1"))
	require.Empty(t, d.States())
}
