package signdoc

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vincent-petithory/dataurl"

	"github.com/dassagnik123/signdoc-easy-upload/config"
	"github.com/dassagnik123/signdoc-easy-upload/coords"
	"github.com/dassagnik123/signdoc-easy-upload/finalize"
	"github.com/dassagnik123/signdoc-easy-upload/overlay"
	"github.com/dassagnik123/signdoc-easy-upload/placeholder"
	"github.com/dassagnik123/signdoc-easy-upload/recipient"
	"github.com/dassagnik123/signdoc-easy-upload/storage"
)

// OwnerSender marks a placeholder as belonging to the uploading user, as
// opposed to a named recipient role in template mode. Sender-owned
// signature fields are auto-populated with the session's signature image.
const OwnerSender = "sender"

var (
	// ErrBusy is returned when Finalize is called while a previous
	// finalize run has not completed.
	ErrBusy = errors.New("signdoc: finalize already in progress")

	// ErrNoSignature is returned when a signature placement needs the
	// session signature image and none has been recorded.
	ErrNoSignature = errors.New("signdoc: no signature image recorded")

	// ErrNoDocument is returned by operations that need an attached
	// document.
	ErrNoDocument = errors.New("signdoc: no document attached")
)

// Session owns the working state of one document-signing flow: the
// attached document, the placeholder and overlay stores, the recipient
// list, and the recorded signature image. All state formerly ambient is
// scoped here; sessions are created at flow start and discarded at the
// end.
//
// A Session is not safe for concurrent use. Mutations are expected to
// arrive from a single interaction loop.
type Session struct {
	cfg   config.Config
	store storage.KV

	doc       *Document
	finalized *finalize.Result
	signature string

	fields     *placeholder.Store
	overlays   *overlay.Store
	recipients *recipient.List

	processing bool
}

// NewSession returns an empty session persisting through kv.
func NewSession(cfg config.Config, kv storage.KV) *Session {
	return &Session{
		cfg:        cfg,
		store:      kv,
		fields:     placeholder.NewStore(),
		overlays:   overlay.NewStore(),
		recipients: recipient.NewList(recipient.Sequential),
	}
}

// Document returns the attached document, or nil.
func (s *Session) Document() *Document { return s.doc }

// Fields returns the placeholder store.
func (s *Session) Fields() *placeholder.Store { return s.fields }

// Overlays returns the signature overlay store.
func (s *Session) Overlays() *overlay.Store { return s.overlays }

// Recipients returns the recipient list.
func (s *Session) Recipients() *recipient.List { return s.recipients }

// Finalized returns the artifact of the last successful Finalize, or nil
// after ReEdit.
func (s *Session) Finalized() *finalize.Result { return s.finalized }

// Processing reports whether a finalize run is in flight.
func (s *Session) Processing() bool { return s.processing }

// AttachDocument replaces the session document with freshly uploaded
// bytes. Placement state belongs to a document, so the stores and any
// finalized derivative are cleared.
func (s *Session) AttachDocument(name string, data []byte) *Document {
	s.doc = NewDocument(name, data)
	s.finalized = nil
	s.fields.Replace(nil)
	s.overlays.Replace(nil)
	return s.doc
}

// SetSignatureImage records the captured signature image (a data URL) and
// back-fills any already-placed sender signature fields that are still
// empty.
func (s *Session) SetSignatureImage(imageDataURL string) {
	s.signature = imageDataURL
	if imageDataURL == "" {
		return
	}
	for _, p := range s.fields.All() {
		if p.Kind == placeholder.KindSignature && p.Owner == OwnerSender && p.Value == "" {
			s.fillField(p.ID, imageDataURL)
		}
	}
}

// SignatureImage returns the recorded signature image, or "".
func (s *Session) SignatureImage() string { return s.signature }

// PlaceField creates a placeholder at a document-space position. A
// sender-owned signature field is pre-populated with the session
// signature image when one is known, which also places its overlay.
func (s *Session) PlaceField(kind placeholder.Kind, label string, x, y float64, page int, owner string) *placeholder.Placeholder {
	p := s.fields.Create(kind, label, x, y, page, owner)
	if kind == placeholder.KindSignature && owner == OwnerSender && s.signature != "" {
		s.fillField(p.ID, s.signature)
	}
	return p
}

// PlaceFieldFromPointer converts a pointer position through the current
// viewport origin and zoom scale, then places the field at the resulting
// document-space position.
func (s *Session) PlaceFieldFromPointer(kind placeholder.Kind, label string, pointerX, pointerY, originX, originY, scale float64, page int, owner string) (*placeholder.Placeholder, error) {
	pt, err := coords.ToDocumentSpace(pointerX, pointerY, originX, originY, scale)
	if err != nil {
		return nil, err
	}
	return s.PlaceField(kind, label, pt.X, pt.Y, page, owner), nil
}

// FillField sets a placeholder's value. The first time a signature field
// acquires a non-empty value, a matching overlay instance is placed at the
// field's position; repeat fills do not duplicate it.
func (s *Session) FillField(id, value string) *placeholder.Placeholder {
	return s.fillField(id, value)
}

func (s *Session) fillField(id, value string) *placeholder.Placeholder {
	p, firstFill := s.fields.SetValue(id, value)
	if p == nil {
		return nil
	}
	if firstFill && p.Kind == placeholder.KindSignature {
		s.overlays.AddForField(value, p.X, p.Y, p.Page, p.ID)
	}
	return p
}

// MoveField updates a placeholder's position; unknown ids are ignored.
func (s *Session) MoveField(id string, x, y float64) {
	s.fields.Move(id, x, y)
}

// DeleteField removes a placeholder and returns it, or nil if unknown.
// Deleting a signature field cascades to its overlay: by field reference
// when one exists, by position match otherwise. Text fields never remove
// overlays.
func (s *Session) DeleteField(id string) *placeholder.Placeholder {
	p := s.fields.Delete(id)
	if p == nil || p.Kind != placeholder.KindSignature {
		return p
	}
	if n := s.overlays.RemoveForField(id); n == 0 {
		s.overlays.RemoveMatching(p.X, p.Y, p.Page, s.cfg.MatchTolerance)
	}
	return p
}

// PlaceSignature places the session signature image directly as an
// overlay, without an authoring placeholder. Placement at an exact
// already-occupied position is a no-op; the return value reports whether
// an instance was added.
func (s *Session) PlaceSignature(x, y float64, page int) (bool, error) {
	if s.signature == "" {
		return false, ErrNoSignature
	}
	return s.overlays.Add(s.signature, x, y, page), nil
}

// MoveOverlay repositions the overlay at index i, as captured at
// drag start.
func (s *Session) MoveOverlay(i int, x, y float64) bool {
	return s.overlays.MoveByIndex(i, x, y)
}

// Finalize renders the current placement state into a new artifact and
// retains it on the session. At most one finalize runs at a time; the
// stores must not be mutated until it returns.
func (s *Session) Finalize() (*finalize.Result, error) {
	if s.processing {
		return nil, ErrBusy
	}
	if s.doc == nil {
		return nil, finalize.ErrMissingSource
	}

	s.processing = true
	defer func() { s.processing = false }()

	res, err := finalize.Finalize(s.doc.Name, s.doc.Media, s.doc.Data,
		s.fields.All(), s.overlays.All(), finalize.OptionsFrom(s.cfg))
	if err != nil {
		return nil, err
	}
	s.finalized = res
	return res, nil
}

// ReEdit discards the finalized derivative, returning the session to the
// editable state. The original document and all placement state are kept.
func (s *Session) ReEdit() {
	s.finalized = nil
}

// Save persists the session record and the document bytes. On quota
// exhaustion, byte blobs of other cached documents are evicted and the
// write is retried once before the error surfaces.
func (s *Session) Save() error {
	if s.doc == nil {
		return ErrNoDocument
	}

	rec := sessionRecord{
		Placeholders: s.fields.All(),
		DocumentName: s.doc.Name,
		SavedAt:      time.Now().UTC(),
		Recipients:   s.recipients.All(),
	}
	encoded, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	if err := s.setEvicting(sessionKey(s.doc.ID), encoded); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	if err := s.setEvicting(fileKey(s.doc.ID), dataurl.EncodeBytes(s.doc.Data)); err != nil {
		return fmt.Errorf("failed to save document bytes: %w", err)
	}
	return nil
}

// setEvicting writes a key, remediating a quota failure by evicting other
// cached document blobs and retrying once.
func (s *Session) setEvicting(key, value string) error {
	err := s.store.Set(key, value)
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		return err
	}
	if evictErr := s.evictOtherFiles(); evictErr != nil {
		return err
	}
	return s.store.Set(key, value)
}

// evictOtherFiles removes every persisted document-byte entry except the
// attached document's own.
func (s *Session) evictOtherFiles() error {
	keys, err := s.store.Keys()
	if err != nil {
		return err
	}
	own := ""
	if s.doc != nil {
		own = fileKey(s.doc.ID)
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, fileKeyPrefix) || k == own {
			continue
		}
		if err := s.store.Remove(k); err != nil {
			return err
		}
	}
	return nil
}

// Load restores a saved session by document id. Overlays are not
// persisted; they are regenerated from the filled signature fields in the
// record. When the document bytes were evicted, the session loads with an
// empty document and finalize reports the missing source.
func (s *Session) Load(id string) error {
	raw, ok, err := s.store.Get(sessionKey(id))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no saved session for %q", id)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return err
	}

	s.fields.Replace(rec.Placeholders)
	s.recipients.Replace(rec.Recipients)
	s.overlays.Replace(nil)
	s.finalized = nil
	for _, p := range rec.Placeholders {
		if p.Kind == placeholder.KindSignature && p.Value != "" {
			s.overlays.AddForField(p.Value, p.X, p.Y, p.Page, p.ID)
		}
	}

	blob, ok, err := s.store.Get(fileKey(id))
	if err != nil {
		return err
	}
	if !ok {
		s.doc = &Document{ID: id, Name: rec.DocumentName}
		return nil
	}
	du, err := dataurl.DecodeString(blob)
	if err != nil {
		return fmt.Errorf("failed to decode stored document bytes: %w", err)
	}
	s.doc = &Document{
		ID:    id,
		Name:  rec.DocumentName,
		Media: finalize.DetectMedia(rec.DocumentName, du.Data),
		Data:  du.Data,
	}
	return nil
}
