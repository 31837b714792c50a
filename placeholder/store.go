package placeholder

// Store keeps the placeholders of one document session in insertion order.
// It is mutated only from the single interaction event path, so it carries
// no locking.
type Store struct {
	items []*Placeholder
}

// NewStore returns an empty placeholder store.
func NewStore() *Store {
	return &Store{}
}

// Create adds a placeholder at the given document-space position and
// returns it. The value starts empty; the auto-population rule for sender
// signature fields is applied by the session, not here.
func (s *Store) Create(kind Kind, label string, x, y float64, page int, owner string) *Placeholder {
	p := &Placeholder{
		ID:    newID(),
		Kind:  kind,
		Label: label,
		Page:  page,
		X:     x,
		Y:     y,
		Owner: owner,
	}
	s.items = append(s.items, p)
	return p
}

// Get returns the placeholder with the given id, or nil.
func (s *Store) Get(id string) *Placeholder {
	for _, p := range s.items {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Move updates a placeholder position in place. Unknown ids are a no-op,
// not an error: a drag may outlive a deletion.
func (s *Store) Move(id string, x, y float64) {
	if p := s.Get(id); p != nil {
		p.X = x
		p.Y = y
	}
}

// SetValue updates a placeholder value. It reports the placeholder and
// whether this call filled an empty value for the first time, which is the
// trigger for emitting a signature overlay instance.
func (s *Store) SetValue(id, value string) (p *Placeholder, firstFill bool) {
	p = s.Get(id)
	if p == nil {
		return nil, false
	}
	firstFill = p.Value == "" && value != ""
	p.Value = value
	return p, firstFill
}

// Delete removes the placeholder and returns it so the caller can cascade,
// e.g. remove the overlay instance a signature field generated. Returns
// nil when the id is unknown.
func (s *Store) Delete(id string) *Placeholder {
	for i, p := range s.items {
		if p.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return p
		}
	}
	return nil
}

// ListForPage returns the placeholders on the given page, in insertion order.
func (s *Store) ListForPage(page int) []*Placeholder {
	var out []*Placeholder
	for _, p := range s.items {
		if p.Page == page {
			out = append(out, p)
		}
	}
	return out
}

// All returns every placeholder in insertion order. The returned slice is
// a copy; the pointed-to records are shared.
func (s *Store) All() []*Placeholder {
	out := make([]*Placeholder, len(s.items))
	copy(out, s.items)
	return out
}

// Replace swaps the store contents, used when loading a persisted session.
func (s *Store) Replace(items []*Placeholder) {
	s.items = append(s.items[:0:0], items...)
}

// Len returns the number of placeholders.
func (s *Store) Len() int {
	return len(s.items)
}
