// Package board holds the current result collection of a session and merges
// enriched records back into it. The selection tracks the record an
// interactive client has open; Merge keeps it in step with enrichment.
package board

import (
	"slices"
	"sync"

	"github.com/sells-group/leadfinder/internal/model"
)

// Board is the collection from the latest search plus the selected record.
// It is safe for concurrent use.
type Board struct {
	mu         sync.RWMutex
	businesses []model.Business
	center     model.Center
	postalCode string
	selected   *model.Business
}

// New creates an empty Board.
func New() *Board {
	return &Board{}
}

// Replace swaps in the result of a new search and clears the selection.
func (b *Board) Replace(res *model.SearchResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.selected = nil
	if res == nil {
		b.businesses = nil
		b.center = model.Center{}
		b.postalCode = ""
		return
	}
	b.businesses = slices.Clone(res.Businesses)
	b.center = res.Center
	b.postalCode = res.PostalCode
}

// Businesses returns a copy of the collection in its current order.
func (b *Board) Businesses() []model.Business {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.businesses)
}

// Len returns the number of records.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.businesses)
}

// Center returns the center of the latest search.
func (b *Board) Center() model.Center {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.center
}

// PostalCode returns the postal code searched by the latest search.
func (b *Board) PostalCode() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.postalCode
}

// Get returns the record with id.
func (b *Board) Get(id string) (model.Business, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i := b.index(id); i >= 0 {
		return b.businesses[i], true
	}
	return model.Business{}, false
}

// Select marks the record with id as selected.
func (b *Board) Select(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return false
	}
	sel := b.businesses[i]
	b.selected = &sel
	return true
}

// ClearSelection drops the selected record.
func (b *Board) ClearSelection() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selected = nil
}

// Selected returns the selected record.
func (b *Board) Selected() (model.Business, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.selected == nil {
		return model.Business{}, false
	}
	return *b.selected, true
}

// Merge replaces the record sharing rec's id in place and refreshes the
// selection when it points at the same id. Order is kept; call Rerank to
// re-sort. It reports whether a record was replaced.
func (b *Board) Merge(rec model.Business) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.index(rec.ID)
	if i < 0 {
		return false
	}
	b.businesses[i] = rec
	if b.selected != nil && b.selected.ID == rec.ID {
		sel := rec
		b.selected = &sel
	}
	return true
}

// Rerank re-sorts the collection by postal code match, then score.
func (b *Board) Rerank() {
	b.mu.Lock()
	defer b.mu.Unlock()
	model.Rank(b.businesses)
}

// Pending returns the ids still flagged for enrichment, in collection order.
func (b *Board) Pending() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var ids []string
	for _, rec := range b.businesses {
		if rec.NeedsDetails {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

// Filtered applies f to the collection.
func (b *Board) Filtered(f Filter) []model.Business {
	return f.Apply(b.Businesses())
}

// Categories returns the sorted distinct category labels of the collection.
func (b *Board) Categories() []string {
	return AvailableCategories(b.Businesses())
}

// Stats summarizes the collection and the subset selected by f.
func (b *Board) Stats(f Filter) Stats {
	return ComputeStats(b.Businesses(), f)
}

func (b *Board) index(id string) int {
	return slices.IndexFunc(b.businesses, func(rec model.Business) bool { return rec.ID == id })
}
