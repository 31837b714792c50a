package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	pdflib "github.com/digitorus/pdf"
)

// DefaultPageHeight is used when a page carries no usable MediaBox
// (US Letter, the same fallback the reader-side tooling assumes).
const DefaultPageHeight = 792.0

// PageHeight returns the height of the 1-indexed page in PDF user space.
func (ctx *UpdateContext) PageHeight(pageNum int) float64 {
	page := ctx.reader.Page(pageNum)
	if page.V.IsNull() {
		return DefaultPageHeight
	}
	mediaBox := page.V.Key("MediaBox")
	if mediaBox.IsNull() || mediaBox.Len() < 4 {
		return DefaultPageHeight
	}
	height := mediaBox.Index(3).Float64() - mediaBox.Index(1).Float64()
	if height <= 0 {
		return DefaultPageHeight
	}
	return height
}

// AppendPageContent appends a content stream to the 1-indexed page and
// rewrites the page object so the new stream and its resources take
// effect. The existing content is wrapped in a save/restore pair so
// leftover graphics state cannot displace the appended marks. images maps
// resource names to image XObject ids already registered on the context;
// withFont additionally installs a Helvetica font resource under fontName.
func (ctx *UpdateContext) AppendPageContent(pageNum int, ops []byte, images map[string]uint32, withFont bool, fontName string) error {
	page := ctx.reader.Page(pageNum)
	if page.V.IsNull() {
		return fmt.Errorf("page %d not found", pageNum)
	}
	pagePtr := page.V.GetPtr()
	pageID := uint32(pagePtr.GetID())

	preID, err := ctx.AddStream([]byte("q\n"))
	if err != nil {
		return fmt.Errorf("failed to add state-save stream: %w", err)
	}

	var post bytes.Buffer
	post.WriteString("\nQ\n")
	post.Write(ops)
	postID, err := ctx.AddStream(post.Bytes())
	if err != nil {
		return fmt.Errorf("failed to add content stream: %w", err)
	}

	var dict bytes.Buffer
	dict.WriteString("<<\n")

	for _, key := range page.V.Keys() {
		switch key {
		case "Contents", "Resources":
			continue
		}
		dict.WriteString("  /" + key + " " + ctx.serializeValue(page.V.Key(key), pageID) + "\n")
	}

	dict.WriteString("  /Contents [ " + fmt.Sprintf("%d 0 R ", preID))
	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case pdflib.Array:
		for i := 0; i < contents.Len(); i++ {
			ptr := contents.Index(i).GetPtr()
			fmt.Fprintf(&dict, "%d %d R ", uint32(ptr.GetID()), int(ptr.GetGen()))
		}
	case pdflib.Stream:
		ptr := contents.GetPtr()
		fmt.Fprintf(&dict, "%d %d R ", uint32(ptr.GetID()), int(ptr.GetGen()))
	}
	fmt.Fprintf(&dict, "%d 0 R ]\n", postID)

	dict.WriteString("  /Resources " + ctx.mergeResources(page.V.Key("Resources"), images, withFont, fontName) + "\n")
	dict.WriteString(">>")

	if err := ctx.UpdateObject(pageID, dict.Bytes()); err != nil {
		return fmt.Errorf("failed to rewrite page object %d: %w", pageID, err)
	}
	return nil
}

// mergeResources rebuilds the page resource dictionary, keeping existing
// categories and merging the new image and font entries in.
func (ctx *UpdateContext) mergeResources(res pdflib.Value, images map[string]uint32, withFont bool, fontName string) string {
	ownerID := uint32(0)
	if !res.IsNull() {
		ownerID = uint32(res.GetPtr().GetID())
	}

	var buf bytes.Buffer
	buf.WriteString("<< ")

	var existingKeys []string
	if res.Kind() == pdflib.Dict {
		existingKeys = res.Keys()
	}

	for _, key := range existingKeys {
		switch {
		case key == "XObject" && len(images) > 0:
			continue
		case key == "Font" && withFont:
			continue
		}
		buf.WriteString("/" + key + " " + ctx.serializeValue(res.Key(key), ownerID) + " ")
	}

	if len(images) > 0 {
		buf.WriteString("/XObject << ")
		existing := res.Key("XObject")
		if existing.Kind() == pdflib.Dict {
			for _, name := range existing.Keys() {
				buf.WriteString("/" + name + " " + ctx.serializeValue(existing.Key(name), ownerID) + " ")
			}
		}
		names := make([]string, 0, len(images))
		for name := range images {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&buf, "/%s %d 0 R ", name, images[name])
		}
		buf.WriteString(">> ")
	}

	if withFont {
		buf.WriteString("/Font << ")
		existing := res.Key("Font")
		if existing.Kind() == pdflib.Dict {
			for _, name := range existing.Keys() {
				buf.WriteString("/" + name + " " + ctx.serializeValue(existing.Key(name), ownerID) + " ")
			}
		}
		fmt.Fprintf(&buf, "/%s << /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >> ", fontName)
		buf.WriteString(">> ")
	}

	buf.WriteString(">>")
	return buf.String()
}

// serializeValue renders a parsed value back to PDF syntax. Values living
// in another object than ownerID are emitted as indirect references, which
// keeps shared structures (parents, content streams, resource
// sub-dictionaries) shared instead of inlining them.
func (ctx *UpdateContext) serializeValue(v pdflib.Value, ownerID uint32) string {
	ptr := v.GetPtr()
	if id := uint32(ptr.GetID()); id != 0 && id != ownerID {
		return fmt.Sprintf("%d %d R", id, int(ptr.GetGen()))
	}

	switch v.Kind() {
	case pdflib.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case pdflib.Integer:
		return strconv.FormatInt(v.Int64(), 10)
	case pdflib.Real:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case pdflib.String:
		return pdfString(v.RawString())
	case pdflib.Name:
		return "/" + v.Name()
	case pdflib.Array:
		var buf bytes.Buffer
		buf.WriteString("[ ")
		for i := 0; i < v.Len(); i++ {
			buf.WriteString(ctx.serializeValue(v.Index(i), ownerID) + " ")
		}
		buf.WriteString("]")
		return buf.String()
	case pdflib.Dict:
		var buf bytes.Buffer
		buf.WriteString("<< ")
		for _, key := range v.Keys() {
			buf.WriteString("/" + key + " " + ctx.serializeValue(v.Key(key), ownerID) + " ")
		}
		buf.WriteString(">>")
		return buf.String()
	default:
		return "null"
	}
}
