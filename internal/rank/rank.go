// Package rank turns the ordered stream of completion events into a live
// ranking table.
package rank

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/timeutil"
)

// Entry is one row of the ranking table.
type Entry struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Rank  int     `json:"rank"`
}

// DisplayValue formats the value the way the table shows it.
func (e Entry) DisplayValue() string { return fmt.Sprintf("%.2f", e.Value) }

// Rank sorts entries by value, descending unless lowerIsBetter, and assigns
// ranks where ties share a rank and the next distinct value takes its
// 1-based position: values 5,5,3 rank 1,1,3. Ties keep their input order.
// The input slice is not modified.
func Rank(entries []Entry, lowerIsBetter bool) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		if lowerIsBetter {
			return out[i].Value < out[j].Value
		}
		return out[i].Value > out[j].Value
	})
	for i := range out {
		if i == 0 || out[i].Value != out[i-1].Value {
			out[i].Rank = i + 1
		} else {
			out[i].Rank = out[i-1].Rank
		}
	}
	return out
}

// FromEvent converts a completion event to an unranked entry.
func FromEvent(ev chart.CompletionEvent) Entry {
	name := ev.SeriesTitle
	if name == "" {
		name = "Untitled"
	}
	return Entry{ID: ev.SeriesID, Name: name, Value: ev.Value}
}

type pending struct {
	entry     Entry
	visibleAt time.Time
}

// Table accumulates completion events. Every Push re-ranks all received
// entries; an entry becomes visible SortDelay after it arrived.
type Table struct {
	clock         timeutil.Clock
	sortDelay     time.Duration
	lowerIsBetter bool

	mu      sync.Mutex
	entries []pending
}

// NewTable creates an empty table. A nil clock uses the real clock.
func NewTable(clock timeutil.Clock, sortDelay time.Duration, lowerIsBetter bool) *Table {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Table{clock: clock, sortDelay: sortDelay, lowerIsBetter: lowerIsBetter}
}

// Push records ev. A second event for the same series id replaces the first.
func (t *Table) Push(ev chart.CompletionEvent) {
	e := FromEvent(ev)
	at := t.clock.Now().Add(t.sortDelay)

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if e.ID != "" && t.entries[i].entry.ID == e.ID {
			t.entries[i] = pending{entry: e, visibleAt: at}
			return
		}
	}
	t.entries = append(t.entries, pending{entry: e, visibleAt: at})
}

// Visible returns the ranked entries whose reveal delay has passed. Ranks
// are computed over the visible rows only.
func (t *Table) Visible() []Entry {
	now := t.clock.Now()
	t.mu.Lock()
	var rows []Entry
	for _, p := range t.entries {
		if !now.Before(p.visibleAt) {
			rows = append(rows, p.entry)
		}
	}
	t.mu.Unlock()
	return Rank(rows, t.lowerIsBetter)
}

// Len reports how many entries were received.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Reset clears the table for a new generation.
func (t *Table) Reset() {
	t.mu.Lock()
	t.entries = nil
	t.mu.Unlock()
}
