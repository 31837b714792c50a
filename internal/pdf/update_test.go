package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	pdflib "github.com/digitorus/pdf"
)

// minimalPDF builds a small but well-formed PDF with the given number of
// pages and a correct cross-reference table.
func minimalPDF(pages int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, 0, 3+2*pages)
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
		content := "BT /F1 24 Tf 72 720 Td (Hello) Tj ET\n"
		addObj(fmt.Sprintf("%d 0 obj\n<< /Length %d >>\nstream\n%sendstream\nendobj\n",
			contentID, len(content), content))
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d %05d n \n", off, 0)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefStart)

	return buf.Bytes()
}

func testPNG(w, h int, c color.NRGBA) []byte {
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

func TestMinimalPDFParses(t *testing.T) {
	data := minimalPDF(2)
	rdr, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("fixture does not parse: %v", err)
	}
	if rdr.NumPage() != 2 {
		t.Fatalf("fixture has %d pages, want 2", rdr.NumPage())
	}
}

func TestAddObjectAssignsSequentialIDs(t *testing.T) {
	ctx, err := NewUpdateContext(minimalPDF(1), zlib.NoCompression)
	if err != nil {
		t.Fatal(err)
	}

	// The fixture has objects 0..4, so new ids start at 5.
	id1, err := ctx.AddObject([]byte("<< /Type /Test >>"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := ctx.AddObject([]byte("<< /Type /Test >>"))
	if err != nil {
		t.Fatal(err)
	}
	if id1 != 5 {
		t.Errorf("first new id %d, want 5", id1)
	}
	if id2 != id1+1 {
		t.Errorf("ids %d, %d not sequential", id1, id2)
	}
}

func TestPageHeight(t *testing.T) {
	ctx, err := NewUpdateContext(minimalPDF(1), zlib.NoCompression)
	if err != nil {
		t.Fatal(err)
	}
	if got := ctx.PageHeight(1); got != 792 {
		t.Errorf("PageHeight(1) = %v, want 792", got)
	}
	// Out-of-range pages fall back to the default.
	if got := ctx.PageHeight(9); got != DefaultPageHeight {
		t.Errorf("PageHeight(9) = %v, want default", got)
	}
}

func TestAppendPageContentProducesParsablePDF(t *testing.T) {
	ctx, err := NewUpdateContext(minimalPDF(2), zlib.DefaultCompression)
	if err != nil {
		t.Fatal(err)
	}

	imgID, err := ctx.RegisterImage(testPNG(4, 4, color.NRGBA{10, 20, 30, 255}))
	if err != nil {
		t.Fatal(err)
	}

	ops := []byte("q\n  200 0 0 50 100 692 cm\n  /SigIm1 Do\nQ\n")
	if err := ctx.AppendPageContent(1, ops, map[string]uint32{"SigIm1": imgID}, true, "SigTx"); err != nil {
		t.Fatal(err)
	}

	out, err := ctx.Finish()
	if err != nil {
		t.Fatal(err)
	}

	if len(out) <= len(minimalPDF(2)) {
		t.Fatal("output not longer than input")
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Error("output lost the PDF header")
	}
	if !bytes.Contains(out, []byte("/SigIm1")) {
		t.Error("image resource name missing from output")
	}

	rdr, err := pdflib.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("updated document does not parse: %v", err)
	}
	if rdr.NumPage() != 2 {
		t.Fatalf("updated document has %d pages, want 2", rdr.NumPage())
	}

	page := rdr.Page(1)
	contents := page.V.Key("Contents")
	if contents.Kind() != pdflib.Array || contents.Len() != 3 {
		t.Errorf("page 1 contents: kind %v len %d, want array of 3", contents.Kind(), contents.Len())
	}
	res := page.V.Key("Resources")
	if res.Key("XObject").IsNull() {
		t.Error("page 1 resources lost the XObject entry")
	}
	if res.Key("Font").Key("SigTx").IsNull() {
		t.Error("page 1 resources lost the SigTx font")
	}
}

func TestRegisterImageTransparentGetsSMask(t *testing.T) {
	ctx, err := NewUpdateContext(minimalPDF(1), zlib.NoCompression)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.RegisterImage(testPNG(2, 2, color.NRGBA{0, 0, 0, 128})); err != nil {
		t.Fatal(err)
	}
	out, err := ctx.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out, []byte("/SMask")) {
		t.Error("transparent image registered without an SMask")
	}
}

func TestRegisterImageRejectsGarbage(t *testing.T) {
	ctx, err := NewUpdateContext(minimalPDF(1), zlib.NoCompression)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.RegisterImage([]byte("not an image")); err == nil {
		t.Error("garbage image data accepted")
	}
	if _, err := ctx.RegisterImage(nil); err == nil {
		t.Error("empty image data accepted")
	}
}

func TestPDFString(t *testing.T) {
	cases := map[string]string{
		"Test":    "(Test)",
		"((Test)": "(\\(\\(Test\\))",
		"\\TEst":  "(\\\\TEst)",
		"":        "()",
	}
	for in, want := range cases {
		if got := pdfString(in); got != want {
			t.Errorf("pdfString(%q) = %q, want %q", in, got, want)
		}
	}
	// Non-ASCII strings switch to UTF-16BE with a BOM.
	if got := pdfString("Héllo"); !strings.HasPrefix(got, "(\xfe\xff") {
		t.Errorf("pdfString non-ASCII = %q, want UTF-16BE BOM prefix", got)
	}
}
