// Package signdoc implements the placement-and-finalization engine of a
// visual document-signing tool: a session holds an uploaded document,
// signature and text-field placeholders positioned in document space, and
// the placed-signature overlays that finalization burns into a new
// artifact.
//
// Basic usage:
//
//	s := signdoc.NewSession(config.Default(), store)
//	s.AttachDocument("contract.pdf", pdfBytes)
//	s.SetSignatureImage(signatureDataURL)
//	s.PlaceField(placeholder.KindSignature, "Sign here", 120, 340, 0, signdoc.OwnerSender)
//	res, err := s.Finalize()
package signdoc

import (
	"fmt"

	"github.com/dassagnik123/signdoc-easy-upload/finalize"
)

// Document is an uploaded source document held by a session.
type Document struct {
	ID    string
	Name  string
	Media finalize.Media
	Data  []byte
}

// NewDocument wraps uploaded bytes, deriving the identity key and
// classifying the media type.
func NewDocument(name string, data []byte) *Document {
	return &Document{
		ID:    DocumentID(name, len(data)),
		Name:  name,
		Media: finalize.DetectMedia(name, data),
		Data:  data,
	}
}

// DocumentID derives the stable identity key for a document from its name
// and byte size.
func DocumentID(name string, size int) string {
	return fmt.Sprintf("%s-%d", name, size)
}

// Storage key conventions: the session record and the document bytes are
// persisted under separate keys so byte blobs can be evicted independently.
const (
	sessionKeyPrefix = "session_"
	fileKeyPrefix    = "file_"
)

func sessionKey(id string) string { return sessionKeyPrefix + id }
func fileKey(id string) string    { return fileKeyPrefix + id }
