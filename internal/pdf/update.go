// Package pdf implements the incremental-update writer the finalization
// engine uses to bake overlay images and text into an existing PDF: new
// objects are appended after the original bytes, modified page objects are
// rewritten, and a continuation cross-reference section links both to the
// previous revision.
package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	pdflib "github.com/digitorus/pdf"
	"github.com/mattetti/filebuffer"
)

type xrefEntry struct {
	ID     uint32
	Offset int64
}

// UpdateContext accumulates one incremental update over a parsed PDF.
type UpdateContext struct {
	reader *pdflib.Reader
	input  []byte

	output       *filebuffer.Buffer
	newXrefStart int64

	lastXrefID         uint32
	newXrefEntries     []xrefEntry
	updatedXrefEntries []xrefEntry

	// CompressLevel determines compression level (zlib) for stream objects.
	CompressLevel int
}

// NewUpdateContext parses the document and seeds the output buffer with the
// original bytes, ready for appended objects.
func NewUpdateContext(data []byte, compressLevel int) (*UpdateContext, error) {
	rdr, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	ctx := &UpdateContext{
		reader:        rdr,
		input:         data,
		output:        filebuffer.New([]byte{}),
		lastXrefID:    uint32(rdr.XrefInformation.ItemCount) - 1,
		CompressLevel: compressLevel,
	}

	if _, err := ctx.output.Write(data); err != nil {
		return nil, err
	}
	// File always needs an empty line after %%EOF.
	if _, err := ctx.output.Write([]byte("\n")); err != nil {
		return nil, err
	}

	return ctx, nil
}

// Reader exposes the parsed document.
func (ctx *UpdateContext) Reader() *pdflib.Reader {
	return ctx.reader
}

// PageCount returns the number of pages in the source document.
func (ctx *UpdateContext) PageCount() int {
	return ctx.reader.NumPage()
}

func (ctx *UpdateContext) offset() (int64, error) {
	return ctx.output.Seek(0, io.SeekCurrent)
}

// AddObject writes a new indirect object to the output and returns its id.
func (ctx *UpdateContext) AddObject(object []byte) (uint32, error) {
	id := ctx.lastXrefID + 1 + uint32(len(ctx.newXrefEntries))

	offset, err := ctx.offset()
	if err != nil {
		return 0, fmt.Errorf("failed to locate output position: %w", err)
	}

	if err := ctx.writeObject(id, object); err != nil {
		return 0, err
	}

	ctx.newXrefEntries = append(ctx.newXrefEntries, xrefEntry{ID: id, Offset: offset})
	return id, nil
}

// UpdateObject rewrites an existing object in the incremental section.
func (ctx *UpdateContext) UpdateObject(id uint32, object []byte) error {
	offset, err := ctx.offset()
	if err != nil {
		return fmt.Errorf("failed to locate output position: %w", err)
	}

	if err := ctx.writeObject(id, object); err != nil {
		return err
	}

	ctx.updatedXrefEntries = append(ctx.updatedXrefEntries, xrefEntry{ID: id, Offset: offset})
	return nil
}

func (ctx *UpdateContext) writeObject(id uint32, object []byte) error {
	if _, err := fmt.Fprintf(ctx.output, "%d 0 obj\n", id); err != nil {
		return fmt.Errorf("failed to write object header: %w", err)
	}
	if _, err := ctx.output.Write(bytes.TrimRight(object, "\n")); err != nil {
		return fmt.Errorf("failed to write object %d: %w", id, err)
	}
	if _, err := ctx.output.Write([]byte("\nendobj\n")); err != nil {
		return fmt.Errorf("failed to write object trailer: %w", err)
	}
	return nil
}

// AddStream writes a stream object, compressing the content when the
// context compression level asks for it, and returns the object id.
func (ctx *UpdateContext) AddStream(content []byte) (uint32, error) {
	data := content
	filter := ""
	if ctx.CompressLevel != zlib.NoCompression {
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, ctx.CompressLevel)
		if err != nil {
			return 0, err
		}
		if _, err := zw.Write(content); err != nil {
			return 0, err
		}
		if err := zw.Close(); err != nil {
			return 0, err
		}
		data = buf.Bytes()
		filter = " /Filter /FlateDecode"
	}

	var obj bytes.Buffer
	fmt.Fprintf(&obj, "<< /Length %d%s >>\nstream\n", len(data), filter)
	obj.Write(data)
	obj.WriteString("\nendstream")

	return ctx.AddObject(obj.Bytes())
}

// Finish writes the continuation cross-reference section and trailer and
// returns the complete updated document bytes.
func (ctx *UpdateContext) Finish() ([]byte, error) {
	start, err := ctx.offset()
	if err != nil {
		return nil, err
	}
	ctx.newXrefStart = start

	switch ctx.reader.XrefInformation.Type {
	case "table":
		if err := ctx.writeIncrXrefTable(); err != nil {
			return nil, fmt.Errorf("failed to write xref table: %w", err)
		}
		if err := ctx.writeTableTrailer(); err != nil {
			return nil, fmt.Errorf("failed to write trailer: %w", err)
		}
	case "stream":
		if err := ctx.writeXrefStream(); err != nil {
			return nil, fmt.Errorf("failed to write xref stream: %w", err)
		}
		if err := ctx.writeStreamTrailer(); err != nil {
			return nil, fmt.Errorf("failed to write trailer: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown xref type: %s", ctx.reader.XrefInformation.Type)
	}

	if _, err := ctx.output.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return ctx.output.Buff.Bytes(), nil
}
