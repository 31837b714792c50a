package finalize

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	pdflib "github.com/digitorus/pdf"
	"github.com/vincent-petithory/dataurl"

	"github.com/dassagnik123/signdoc-easy-upload/overlay"
	"github.com/dassagnik123/signdoc-easy-upload/placeholder"
)

// testPDF builds a small well-formed PDF with the given number of pages.
func testPDF(pages int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, 0, 2+2*pages)
	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	kids := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}

	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [ %s ] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		pageID := 3 + 2*i
		contentID := pageID + 1
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [ 0 0 612 792 ] /Contents %d 0 R /Resources << >> >>\nendobj\n",
			pageID, contentID))
		content := "BT /F1 12 Tf 72 720 Td (Page) Tj ET\n"
		addObj(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n",
			contentID, len(content), content))
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefStart)
	return buf.Bytes()
}

func testPNGBytes(w, h int, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// uncompressedOptions keeps the appended content streams readable so tests
// can assert on the raw operators.
func uncompressedOptions() Options {
	o := DefaultOptions()
	o.CompressLevel = zlib.NoCompression
	return o
}

func signatureDataURL() string {
	return dataurl.EncodeBytes(testPNGBytes(40, 10, color.NRGBA{20, 20, 120, 255}))
}

func textField(label, value string, x, y float64, page int) *placeholder.Placeholder {
	return &placeholder.Placeholder{
		ID: "fld-" + label, Kind: placeholder.KindText,
		Label: label, Value: value, X: x, Y: y, Page: page,
	}
}

func TestFinalizeMissingSource(t *testing.T) {
	_, err := Finalize("doc.pdf", MediaPDF, nil, nil, []overlay.Instance{{ImageDataURL: signatureDataURL()}}, DefaultOptions())
	if !errors.Is(err, ErrMissingSource) {
		t.Errorf("got %v, want ErrMissingSource", err)
	}
}

func TestFinalizeEmpty(t *testing.T) {
	// No overlays, and the only placeholder is a valueless signature field:
	// nothing to bake in.
	fields := []*placeholder.Placeholder{
		{ID: "s1", Kind: placeholder.KindSignature, Label: "Sign here", Page: 0},
	}
	_, err := Finalize("doc.pdf", MediaPDF, testPDF(1), fields, nil, DefaultOptions())
	if !errors.Is(err, ErrEmptyFinalization) {
		t.Errorf("got %v, want ErrEmptyFinalization", err)
	}
}

func TestFinalizePDF(t *testing.T) {
	overlays := []overlay.Instance{
		{ImageDataURL: signatureDataURL(), X: 100, Y: 50, Page: 0},
		{ImageDataURL: signatureDataURL(), X: 40, Y: 600, Page: 1},
	}
	fields := []*placeholder.Placeholder{
		textField("Date", "2026-08-29", 380, 80, 0),
		textField("Initials", "", 50, 50, 1), // label fallback
	}

	res, err := Finalize("contract.pdf", MediaPDF, testPDF(2), fields, overlays, uncompressedOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Name != "contract-signed.pdf" {
		t.Errorf("artifact name %q", res.Name)
	}
	if res.MIME != "application/pdf" {
		t.Errorf("artifact MIME %q", res.MIME)
	}

	rdr, err := pdflib.NewReader(bytes.NewReader(res.Data), int64(len(res.Data)))
	if err != nil {
		t.Fatalf("finalized PDF does not parse: %v", err)
	}
	if rdr.NumPage() != 2 {
		t.Fatalf("finalized PDF has %d pages, want 2", rdr.NumPage())
	}
	for page := 1; page <= 2; page++ {
		if rdr.Page(page).V.Key("Resources").Key("XObject").IsNull() {
			t.Errorf("page %d missing image resources", page)
		}
	}
	if !bytes.Contains(res.Data, []byte("(2026-08-29)")) {
		t.Error("text field value missing from output")
	}
	if !bytes.Contains(res.Data, []byte("(Initials)")) {
		t.Error("label fallback missing from output")
	}
}

func TestFinalizePDFVerticalFlip(t *testing.T) {
	// Page height 792, overlay at y=50, render height 50: drawn at 692.
	overlays := []overlay.Instance{{ImageDataURL: signatureDataURL(), X: 100, Y: 50, Page: 0}}
	res, err := Finalize("doc.pdf", MediaPDF, testPDF(1), nil, overlays, uncompressedOptions())
	if err != nil {
		t.Fatal(err)
	}
	want := "200.00 0 0 50.00 100.00 692.00 cm"
	if !bytes.Contains(res.Data, []byte(want)) {
		t.Errorf("output does not place the signature at %q", want)
	}
}

func TestFinalizePDFInvalidPageReference(t *testing.T) {
	overlays := []overlay.Instance{{ImageDataURL: signatureDataURL(), X: 0, Y: 0, Page: 3}}
	_, err := Finalize("doc.pdf", MediaPDF, testPDF(2), nil, overlays, DefaultOptions())
	if !errors.Is(err, ErrInvalidPageReference) {
		t.Errorf("got %v, want ErrInvalidPageReference", err)
	}
}

func TestFinalizePDFSkipsOrphanedTextFields(t *testing.T) {
	// A text field beyond the page range is skipped, not fatal.
	fields := []*placeholder.Placeholder{textField("Note", "hello", 10, 10, 9)}
	res, err := Finalize("doc.pdf", MediaPDF, testPDF(1), fields, nil, uncompressedOptions())
	if err != nil {
		t.Fatalf("orphaned text field aborted finalize: %v", err)
	}
	if bytes.Contains(res.Data, []byte("(hello)")) {
		t.Error("orphaned text field was rendered")
	}
}

func TestFinalizePDFCorruptSignature(t *testing.T) {
	overlays := []overlay.Instance{{ImageDataURL: "data:image/png;base64,AAAA", X: 0, Y: 0, Page: 0}}
	_, err := Finalize("doc.pdf", MediaPDF, testPDF(1), nil, overlays, DefaultOptions())
	var ferr *Error
	if !errors.As(err, &ferr) {
		t.Errorf("got %v, want *Error", err)
	}
}

func TestFinalizeImageKeepsDimensions(t *testing.T) {
	src := testPNGBytes(300, 200, color.NRGBA{250, 250, 250, 255})
	overlays := []overlay.Instance{{ImageDataURL: signatureDataURL(), X: 20, Y: 30, Page: 0}}

	res, err := Finalize("photo.png", MediaImage, src, nil, overlays, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.MIME != "image/png" {
		t.Errorf("MIME %q, want image/png", res.MIME)
	}

	out, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 300 || out.Bounds().Dy() != 200 {
		t.Errorf("canvas %dx%d, want 300x200", out.Bounds().Dx(), out.Bounds().Dy())
	}

	// The signature area must differ from the blank base.
	r, g, b, _ := out.At(30, 35).RGBA()
	if r>>8 == 250 && g>>8 == 250 && b>>8 == 250 {
		t.Error("signature area unchanged")
	}
}

func TestFinalizeWordUsesDefaultCanvas(t *testing.T) {
	fields := []*placeholder.Placeholder{textField("Name", "Alice", 100, 100, 0)}
	res, err := Finalize("offer.docx", MediaWord, []byte("stub bytes"), fields, nil, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	out, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 800 || out.Bounds().Dy() != 600 {
		t.Errorf("canvas %dx%d, want 800x600", out.Bounds().Dx(), out.Bounds().Dy())
	}
	if res.Name != "offer-signed.png" {
		t.Errorf("artifact name %q", res.Name)
	}
}

func TestFinalizeRasterFlattensAllPages(t *testing.T) {
	// Non-PDF media is single-page: overlays keep their page index but all
	// land on the one canvas.
	overlays := []overlay.Instance{
		{ImageDataURL: signatureDataURL(), X: 10, Y: 10, Page: 0},
		{ImageDataURL: signatureDataURL(), X: 10, Y: 200, Page: 4},
	}
	res, err := Finalize("notes.txt", MediaText, []byte("text"), nil, overlays, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	out, err := png.Decode(bytes.NewReader(res.Data))
	if err != nil {
		t.Fatal(err)
	}
	for _, y := range []int{20, 210} {
		r, g, b, _ := out.At(20, y).RGBA()
		if r>>8 == 255 && g>>8 == 255 && b>>8 == 255 {
			t.Errorf("overlay at y=%d not drawn", y)
		}
	}
}

func TestFinalizeRerunIsDeterministic(t *testing.T) {
	overlays := []overlay.Instance{{ImageDataURL: signatureDataURL(), X: 100, Y: 50, Page: 0}}
	a, err := Finalize("doc.pdf", MediaPDF, testPDF(1), nil, overlays, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Finalize("doc.pdf", MediaPDF, testPDF(1), nil, overlays, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Data, b.Data) {
		t.Error("finalize output differs between identical runs")
	}
}

func TestFlipY(t *testing.T) {
	if got := FlipY(792, 50, 50); got != 692 {
		t.Errorf("FlipY(792, 50, 50) = %v, want 692", got)
	}
}

func TestClampToCanvas(t *testing.T) {
	cases := []struct {
		pos, canvas, elem, want float64
	}{
		{790, 800, 150, 650},
		{-10, 800, 150, 0},
		{0, 100, 200, 0}, // element larger than canvas pins to 0
		{300, 800, 150, 300},
	}
	for _, c := range cases {
		if got := ClampToCanvas(c.pos, c.canvas, c.elem); got != c.want {
			t.Errorf("ClampToCanvas(%v, %v, %v) = %v, want %v", c.pos, c.canvas, c.elem, got, c.want)
		}
	}
}

func TestDetectMedia(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Media
	}{
		{"a.pdf", []byte("%PDF-1.4"), MediaPDF},
		{"renamed.txt", []byte("%PDF-1.4"), MediaPDF}, // sniffing wins
		{"a.png", nil, MediaImage},
		{"a.JPG", nil, MediaImage},
		{"a.txt", []byte("hi"), MediaText},
		{"a.docx", nil, MediaWord},
		{"mystery", []byte("\x89PNG\r\n"), MediaImage},
		{"mystery", []byte("???"), MediaUnknown},
	}
	for _, c := range cases {
		if got := DetectMedia(c.name, c.data); got != c.want {
			t.Errorf("DetectMedia(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
