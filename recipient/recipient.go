// Package recipient models the signing parties of a document and their
// signing order. Recipients sharing an order value sign simultaneously;
// the distinct order values, ascending, are the sequential rounds.
package recipient

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

// Status is the signing state of a recipient.
type Status int

const (
	StatusPending Status = iota
	StatusSigned
	StatusDeclined
)

func (s Status) String() string {
	switch s {
	case StatusSigned:
		return "signed"
	case StatusDeclined:
		return "declined"
	default:
		return "pending"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	switch str {
	case "pending":
		*s = StatusPending
	case "signed":
		*s = StatusSigned
	case "declined":
		*s = StatusDeclined
	default:
		return fmt.Errorf("recipient: unknown status %q", str)
	}
	return nil
}

// Recipient is one signing party.
type Recipient struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Order  int    `json:"order"`
	Status Status `json:"status"`
}

// Mode selects how order numbers are assigned.
type Mode int

const (
	// Sequential assigns each new recipient the next order number.
	Sequential Mode = iota
	// Simultaneous keeps every recipient in a single round.
	Simultaneous
)

// ValidationError reports rejected recipient input. The input is not
// stored when validation fails.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("recipient: invalid %s: %s", e.Field, e.Message)
}

// List holds the recipients of one document in display order.
type List struct {
	mode  Mode
	items []*Recipient
}

// NewList returns an empty recipient list in the given mode.
func NewList(mode Mode) *List {
	return &List{mode: mode}
}

// Mode returns the current ordering mode.
func (l *List) Mode() Mode {
	return l.mode
}

// Add validates and appends a recipient. In sequential mode the new
// recipient gets max(existing orders)+1; in simultaneous mode every
// recipient is order 1.
func (l *List) Add(name, email string) (*Recipient, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if email == "" {
		return nil, &ValidationError{Field: "email", Message: "must not be empty"}
	}
	if !govalidator.IsEmail(email) {
		return nil, &ValidationError{Field: "email", Message: "not a valid address"}
	}

	order := 1
	if l.mode == Sequential {
		for _, r := range l.items {
			if r.Order >= order {
				order = r.Order + 1
			}
		}
	}

	r := &Recipient{
		ID:     uuid.NewString(),
		Name:   name,
		Email:  email,
		Order:  order,
		Status: StatusPending,
	}
	l.items = append(l.items, r)
	return r, nil
}

// Remove deletes the recipient with the given id.
func (l *List) Remove(id string) bool {
	for i, r := range l.items {
		if r.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the recipient with the given id, or nil.
func (l *List) Get(id string) *Recipient {
	for _, r := range l.items {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// SetOrder assigns a new order number. Orders below 1 and unknown ids are
// no-ops. Several recipients may share an order; ties mean "this round".
func (l *List) SetOrder(id string, order int) {
	if order < 1 {
		return
	}
	if r := l.Get(id); r != nil {
		r.Order = order
	}
}

// SetStatus updates a recipient's signing status.
func (l *List) SetStatus(id string, status Status) {
	if r := l.Get(id); r != nil {
		r.Status = status
	}
}

// SwitchMode changes the ordering mode. Switching to Simultaneous collapses
// every order to 1; switching to Sequential reassigns 1..N by current
// display order, discarding prior tie groupings.
func (l *List) SwitchMode(mode Mode) {
	l.mode = mode
	switch mode {
	case Simultaneous:
		for _, r := range l.items {
			r.Order = 1
		}
	case Sequential:
		for i, r := range l.items {
			r.Order = i + 1
		}
	}
}

// Round is one group of recipients signing simultaneously.
type Round struct {
	Order      int
	Recipients []*Recipient
}

// GroupedByRound returns the recipients grouped by order value, ascending.
// Within a round, display order is preserved.
func (l *List) GroupedByRound() []Round {
	byOrder := make(map[int][]*Recipient)
	for _, r := range l.items {
		byOrder[r.Order] = append(byOrder[r.Order], r)
	}

	orders := make([]int, 0, len(byOrder))
	for o := range byOrder {
		orders = append(orders, o)
	}
	sort.Ints(orders)

	rounds := make([]Round, 0, len(orders))
	for _, o := range orders {
		rounds = append(rounds, Round{Order: o, Recipients: byOrder[o]})
	}
	return rounds
}

// Rounds returns how many sequential signing rounds exist.
func (l *List) Rounds() int {
	return len(l.GroupedByRound())
}

// All returns the recipients in display order.
func (l *List) All() []*Recipient {
	out := make([]*Recipient, len(l.items))
	copy(out, l.items)
	return out
}

// Replace swaps the list contents, used when loading a persisted session.
func (l *List) Replace(items []*Recipient) {
	l.items = append(l.items[:0:0], items...)
}

// Len returns the number of recipients.
func (l *List) Len() int {
	return len(l.items)
}
