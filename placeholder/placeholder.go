// Package placeholder holds the authoring-side field model: signature and
// text markers placed on document pages, carrying label, owner and an
// optional filled value. Positions are document space, top-left origin.
package placeholder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates signature fields from text fields.
type Kind int

const (
	KindSignature Kind = iota + 1
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindSignature:
		return "signature"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the kind in the persisted record form.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "signature":
		*k = KindSignature
	case "text":
		*k = KindText
	default:
		return fmt.Errorf("placeholder: unknown kind %q", s)
	}
	return nil
}

// Placeholder is a single field marker. Value is empty until filled: a
// data URL image for signature fields, an arbitrary string for text fields.
type Placeholder struct {
	ID    string  `json:"id"`
	Kind  Kind    `json:"kind"`
	Label string  `json:"label"`
	Page  int     `json:"page"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value string  `json:"value,omitempty"`
	Owner string  `json:"owner,omitempty"`
}

// newID returns an identifier unique even under rapid repeated calls.
func newID() string {
	return fmt.Sprintf("fld-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}
