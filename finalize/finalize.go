// Package finalize burns placed signature overlays and filled text fields
// permanently into a document, producing a new artifact. PDF sources are
// edited in place through an incremental update; every other media type is
// flattened onto a raster canvas. Both paths share the same geometry rules
// so they stay visually equivalent.
package finalize

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"strings"

	"github.com/dassagnik123/signdoc-easy-upload/config"
	"github.com/dassagnik123/signdoc-easy-upload/overlay"
	"github.com/dassagnik123/signdoc-easy-upload/placeholder"
)

var (
	// ErrEmptyFinalization means there were no overlays and no text fields
	// with content, so there is nothing to bake in.
	ErrEmptyFinalization = errors.New("finalize: nothing to render into the document")

	// ErrMissingSource means the original document bytes are unavailable,
	// e.g. a session restored without re-uploading the file.
	ErrMissingSource = errors.New("finalize: source document bytes unavailable")

	// ErrInvalidPageReference means a signature overlay points beyond the
	// document's last page. This indicates upstream state corruption and
	// aborts the whole operation.
	ErrInvalidPageReference = errors.New("finalize: signature overlay page out of range")
)

// Error wraps a rendering failure (image decode, canvas encode) that
// aborts the finalize call. Partial output is never produced.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("finalize: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Media classifies the source document.
type Media int

const (
	MediaUnknown Media = iota
	MediaPDF
	MediaImage
	MediaText
	MediaWord
)

func (m Media) String() string {
	switch m {
	case MediaPDF:
		return "pdf"
	case MediaImage:
		return "image"
	case MediaText:
		return "text"
	case MediaWord:
		return "word"
	default:
		return "unknown"
	}
}

// DetectMedia classifies a document by content sniffing first, file
// extension second.
func DetectMedia(name string, data []byte) Media {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MediaPDF
	}
	switch strings.ToLower(ext(name)) {
	case "pdf":
		return MediaPDF
	case "png", "jpg", "jpeg", "gif":
		return MediaImage
	case "txt", "md":
		return MediaText
	case "doc", "docx":
		return MediaWord
	}
	if bytes.HasPrefix(data, []byte("\x89PNG")) || bytes.HasPrefix(data, []byte("\xff\xd8")) {
		return MediaImage
	}
	return MediaUnknown
}

func ext(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return ""
}

// Result is the finalized artifact.
type Result struct {
	Name string
	MIME string
	Data []byte
}

// Options carries the fixed render geometry. Use OptionsFrom(config) or
// the config defaults; the contract values are 200x50 signatures and 12pt
// text.
type Options struct {
	SignatureWidth  float64
	SignatureHeight float64
	TextFontSize    float64
	TextFieldWidth  float64
	TextFieldHeight float64
	CanvasWidth     int
	CanvasHeight    int
	CompressLevel   int
}

// OptionsFrom lifts the engine parameters out of a config.
func OptionsFrom(c config.Config) Options {
	return Options{
		SignatureWidth:  c.SignatureWidth,
		SignatureHeight: c.SignatureHeight,
		TextFontSize:    c.TextFontSize,
		TextFieldWidth:  c.TextFieldWidth,
		TextFieldHeight: c.TextFieldHeight,
		CanvasWidth:     c.CanvasWidth,
		CanvasHeight:    c.CanvasHeight,
		CompressLevel:   c.CompressLevel,
	}
}

// DefaultOptions returns the contract geometry.
func DefaultOptions() Options {
	return OptionsFrom(config.Default())
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.SignatureWidth <= 0 {
		o.SignatureWidth = d.SignatureWidth
	}
	if o.SignatureHeight <= 0 {
		o.SignatureHeight = d.SignatureHeight
	}
	if o.TextFontSize <= 0 {
		o.TextFontSize = d.TextFontSize
	}
	if o.TextFieldWidth <= 0 {
		o.TextFieldWidth = d.TextFieldWidth
	}
	if o.TextFieldHeight <= 0 {
		o.TextFieldHeight = d.TextFieldHeight
	}
	if o.CanvasWidth <= 0 {
		o.CanvasWidth = d.CanvasWidth
	}
	if o.CanvasHeight <= 0 {
		o.CanvasHeight = d.CanvasHeight
	}
	if o.CompressLevel < zlib.HuffmanOnly || o.CompressLevel > zlib.BestCompression {
		o.CompressLevel = d.CompressLevel
	}
	return o
}

// textContent resolves the string drawn for a text field: the filled value,
// or the label as a finalize-time fallback. Empty means skip.
func textContent(p *placeholder.Placeholder) string {
	if p.Kind != placeholder.KindText {
		return ""
	}
	if p.Value != "" {
		return p.Value
	}
	return p.Label
}

// Finalize renders all overlays and text fields into a new document
// artifact. The input slices are read as a snapshot; the stores are never
// mutated. Calling again with unchanged state produces an equivalent
// artifact.
func Finalize(name string, media Media, data []byte, fields []*placeholder.Placeholder, overlays []overlay.Instance, opts Options) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrMissingSource
	}

	opts = opts.normalize()

	hasText := false
	for _, p := range fields {
		if textContent(p) != "" {
			hasText = true
			break
		}
	}
	if len(overlays) == 0 && !hasText {
		return nil, ErrEmptyFinalization
	}

	if media == MediaPDF {
		return finalizePDF(name, data, fields, overlays, opts)
	}
	return finalizeRaster(name, media, data, fields, overlays, opts)
}

// finalizedName derives the artifact name from the source name.
func finalizedName(name, newExt string) string {
	base := name
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "document"
	}
	return base + "-signed." + newExt
}
