package pdf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// writeIncrXrefTable writes the incremental cross-reference table to the
// output buffer.
func (ctx *UpdateContext) writeIncrXrefTable() error {
	if _, err := ctx.output.Write([]byte("xref\n")); err != nil {
		return fmt.Errorf("failed to write incremental xref header: %w", err)
	}

	// Write updated entries, one subsection each.
	for _, entry := range ctx.updatedXrefEntries {
		subsection := fmt.Sprintf("%d %d\n", entry.ID, 1)
		if _, err := ctx.output.Write([]byte(subsection)); err != nil {
			return fmt.Errorf("failed to write updated xref subsection: %w", err)
		}

		xrefLine := fmt.Sprintf("%010d 00000 n\r\n", entry.Offset)
		if _, err := ctx.output.Write([]byte(xrefLine)); err != nil {
			return fmt.Errorf("failed to write updated xref entry: %w", err)
		}
	}

	// New entries are contiguous and share one subsection.
	if len(ctx.newXrefEntries) > 0 {
		subsection := fmt.Sprintf("%d %d\n", ctx.lastXrefID+1, len(ctx.newXrefEntries))
		if _, err := ctx.output.Write([]byte(subsection)); err != nil {
			return fmt.Errorf("failed to write new xref subsection: %w", err)
		}

		for _, entry := range ctx.newXrefEntries {
			xrefLine := fmt.Sprintf("%010d 00000 n\r\n", entry.Offset)
			if _, err := ctx.output.Write([]byte(xrefLine)); err != nil {
				return fmt.Errorf("failed to write new xref entry: %w", err)
			}
		}
	}

	return nil
}

// writeTableTrailer writes a fresh trailer dictionary chaining back to the
// previous cross-reference section.
func (ctx *UpdateContext) writeTableTrailer() error {
	trailer := ctx.reader.Trailer()

	var buf bytes.Buffer
	buf.WriteString("trailer\n<<\n")
	fmt.Fprintf(&buf, "  /Size %d\n", ctx.reader.XrefInformation.ItemCount+int64(len(ctx.newXrefEntries)))

	rootPtr := trailer.Key("Root").GetPtr()
	fmt.Fprintf(&buf, "  /Root %d %d R\n", uint32(rootPtr.GetID()), int(rootPtr.GetGen()))

	info := trailer.Key("Info")
	if !info.IsNull() {
		infoPtr := info.GetPtr()
		fmt.Fprintf(&buf, "  /Info %d %d R\n", uint32(infoPtr.GetID()), int(infoPtr.GetGen()))
	}

	fmt.Fprintf(&buf, "  /Prev %d\n", ctx.reader.XrefInformation.StartPos)

	id := trailer.Key("ID")
	if !id.IsNull() && id.Len() == 2 {
		id0 := hex.EncodeToString([]byte(id.Index(0).RawString()))
		id1 := hex.EncodeToString([]byte(id.Index(1).RawString()))
		fmt.Fprintf(&buf, "  /ID [<%s><%s>]\n", id0, id1)
	}

	buf.WriteString(">>\n")
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", ctx.newXrefStart)

	_, err := ctx.output.Write(buf.Bytes())
	return err
}

// writeStreamTrailer writes the startxref tail for xref-stream documents.
func (ctx *UpdateContext) writeStreamTrailer() error {
	_, err := fmt.Fprintf(ctx.output, "startxref\n%d\n%%%%EOF\n", ctx.newXrefStart)
	return err
}

// writeXrefStream writes the cross-reference stream to the output buffer.
func (ctx *UpdateContext) writeXrefStream() error {
	var entries bytes.Buffer

	for _, entry := range ctx.updatedXrefEntries {
		writeXrefStreamLine(&entries, 1, int(entry.Offset), 0)
	}
	for _, entry := range ctx.newXrefEntries {
		writeXrefStreamLine(&entries, 1, int(entry.Offset), 0)
	}

	streamBytes, err := encodeXrefStream(entries.Bytes())
	if err != nil {
		return fmt.Errorf("failed to encode xref stream: %w", err)
	}

	var obj bytes.Buffer
	if err := ctx.writeXrefStreamHeader(&obj, len(streamBytes)); err != nil {
		return fmt.Errorf("failed to write xref stream header: %w", err)
	}
	obj.WriteString("stream\n")
	obj.Write(streamBytes)
	obj.WriteString("\nendstream")

	if _, err := ctx.AddObject(obj.Bytes()); err != nil {
		return fmt.Errorf("failed to add xref stream object: %w", err)
	}

	return nil
}

func (ctx *UpdateContext) writeXrefStreamHeader(buf *bytes.Buffer, streamLength int) error {
	trailer := ctx.reader.Trailer()

	totalEntries := uint32(ctx.reader.XrefInformation.ItemCount)
	var indexArray []uint32

	for _, entry := range ctx.updatedXrefEntries {
		indexArray = append(indexArray, entry.ID, 1)
	}
	if len(ctx.newXrefEntries) > 0 {
		indexArray = append(indexArray, ctx.lastXrefID+1, uint32(len(ctx.newXrefEntries)))
		totalEntries += uint32(len(ctx.newXrefEntries))
	}

	buf.WriteString("<< /Type /XRef\n")
	fmt.Fprintf(buf, "  /Length %d\n", streamLength)
	buf.WriteString("  /Filter /FlateDecode\n")
	buf.WriteString("  /W [ 1 4 1 ]\n")
	fmt.Fprintf(buf, "  /Prev %d\n", ctx.reader.XrefInformation.StartPos)
	fmt.Fprintf(buf, "  /Size %d\n", totalEntries+1)

	if len(indexArray) > 0 {
		buf.WriteString("  /Index [")
		for _, idx := range indexArray {
			fmt.Fprintf(buf, " %d", idx)
		}
		buf.WriteString(" ]\n")
	}

	rootPtr := trailer.Key("Root").GetPtr()
	fmt.Fprintf(buf, "  /Root %d %d R\n", uint32(rootPtr.GetID()), int(rootPtr.GetGen()))

	id := trailer.Key("ID")
	if !id.IsNull() && id.Len() == 2 {
		id0 := hex.EncodeToString([]byte(id.Index(0).RawString()))
		id1 := hex.EncodeToString([]byte(id.Index(1).RawString()))
		fmt.Fprintf(buf, "  /ID [<%s><%s>]\n", id0, id1)
	}

	buf.WriteString(">>\n")
	return nil
}

// encodeXrefStream compresses the xref entry rows. FlateDecode without
// prediction keeps readers happy and the writer simple.
func encodeXrefStream(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// writeXrefStreamLine writes a single [type offset gen] row, W = [1 4 1].
func writeXrefStreamLine(b *bytes.Buffer, xreftype byte, offset int, gen byte) {
	b.WriteByte(xreftype)

	offsetBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(offsetBytes, uint32(offset))
	b.Write(offsetBytes)

	b.WriteByte(gen)
}
