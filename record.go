package signdoc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dassagnik123/signdoc-easy-upload/placeholder"
	"github.com/dassagnik123/signdoc-easy-upload/recipient"
)

// sessionRecord is the persisted shape of a document session. Document
// bytes are stored separately under the file_ key as a data URL.
type sessionRecord struct {
	Placeholders []*placeholder.Placeholder `json:"placeholders"`
	DocumentName string                     `json:"documentName"`
	SavedAt      time.Time                  `json:"savedAt"`
	Recipients   []*recipient.Recipient     `json:"recipients,omitempty"`
}

func encodeRecord(r sessionRecord) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode session record: %w", err)
	}
	return string(data), nil
}

func decodeRecord(s string) (sessionRecord, error) {
	var r sessionRecord
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return r, fmt.Errorf("failed to decode session record: %w", err)
	}
	return r, nil
}
