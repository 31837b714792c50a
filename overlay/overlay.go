// Package overlay holds the renderable form of placed signatures: image
// instances pinned to a document-space position on a page. The finalization
// engine consumes this store; the placeholder store is the authoring-side
// source that feeds it.
package overlay

import "math"

// DefaultTolerance is the position-match radius, in document-space units,
// used when removing the overlay that belonged to a deleted placeholder.
const DefaultTolerance = 5.0

// Instance is one signature image placed on a page. FieldID references the
// originating placeholder when there is one; instances placed directly
// (the single-signature flow) leave it empty and are matched by position.
type Instance struct {
	ImageDataURL string  `json:"image"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Page         int     `json:"page"`
	FieldID      string  `json:"fieldId,omitempty"`
}

// Store keeps overlay instances in placement order. Indexes are stable as
// long as no add or remove interleaves, which the single-threaded
// interaction model guarantees for the duration of one drag.
type Store struct {
	items []Instance
}

// NewStore returns an empty overlay store.
func NewStore() *Store {
	return &Store{}
}

// Add places a signature image. Placement is idempotent by the exact
// (x, y, page) triple: adding a duplicate at identical coordinates is a
// no-op and Add reports false.
func (s *Store) Add(imageDataURL string, x, y float64, page int) bool {
	return s.AddForField(imageDataURL, x, y, page, "")
}

// AddForField is Add with a back-reference to the originating placeholder.
func (s *Store) AddForField(imageDataURL string, x, y float64, page int, fieldID string) bool {
	for _, in := range s.items {
		if in.X == x && in.Y == y && in.Page == page {
			return false
		}
	}
	s.items = append(s.items, Instance{
		ImageDataURL: imageDataURL,
		X:            x,
		Y:            y,
		Page:         page,
		FieldID:      fieldID,
	})
	return true
}

// MoveByIndex mutates an instance position in place during a drag. The
// caller captured the index at drag start. Out-of-range indexes report
// false.
func (s *Store) MoveByIndex(i int, x, y float64) bool {
	if i < 0 || i >= len(s.items) {
		return false
	}
	s.items[i].X = x
	s.items[i].Y = y
	return true
}

// RemoveMatching removes instances on the given page within tolerance of
// (x, y) and returns how many were removed. A tolerance of zero or below
// falls back to DefaultTolerance.
func (s *Store) RemoveMatching(x, y float64, page int, tolerance float64) int {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	removed := 0
	kept := s.items[:0]
	for _, in := range s.items {
		if in.Page == page && math.Abs(in.X-x) <= tolerance && math.Abs(in.Y-y) <= tolerance {
			removed++
			continue
		}
		kept = append(kept, in)
	}
	s.items = kept
	return removed
}

// RemoveForField removes instances that reference the given placeholder id.
func (s *Store) RemoveForField(fieldID string) int {
	if fieldID == "" {
		return 0
	}
	removed := 0
	kept := s.items[:0]
	for _, in := range s.items {
		if in.FieldID == fieldID {
			removed++
			continue
		}
		kept = append(kept, in)
	}
	s.items = kept
	return removed
}

// ListForPage returns the instances on the given page in placement order.
func (s *Store) ListForPage(page int) []Instance {
	var out []Instance
	for _, in := range s.items {
		if in.Page == page {
			out = append(out, in)
		}
	}
	return out
}

// All returns a copy of every instance in placement order.
func (s *Store) All() []Instance {
	out := make([]Instance, len(s.items))
	copy(out, s.items)
	return out
}

// Replace swaps the store contents, used when loading a persisted session.
func (s *Store) Replace(items []Instance) {
	s.items = append(s.items[:0:0], items...)
}

// Len returns the number of instances.
func (s *Store) Len() int {
	return len(s.items)
}
