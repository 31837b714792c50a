package finalize

import (
	"fmt"
	"sort"

	"github.com/vincent-petithory/dataurl"

	pdfupd "github.com/dassagnik123/signdoc-easy-upload/internal/pdf"
	"github.com/dassagnik123/signdoc-easy-upload/overlay"
	"github.com/dassagnik123/signdoc-easy-upload/placeholder"
)

// textFontResource is the resource name of the Helvetica font installed on
// pages that receive baked-in text.
const textFontResource = "SdTx"

// textBaselineDrop is how far below the stored field position the text
// baseline sits when flipped into PDF space.
const textBaselineDrop = 20.0

// finalizePDF bakes overlays and text into a PDF by incremental update.
// Overlay pages are validated against the page count up front; text fields
// on out-of-range pages are skipped.
func finalizePDF(name string, data []byte, fields []*placeholder.Placeholder, overlays []overlay.Instance, opts Options) (*Result, error) {
	ctx, err := pdfupd.NewUpdateContext(data, opts.CompressLevel)
	if err != nil {
		return nil, &Error{Op: "parse source document", Err: err}
	}
	pageCount := ctx.PageCount()

	for _, ov := range overlays {
		if ov.Page < 0 || ov.Page >= pageCount {
			return nil, fmt.Errorf("%w: page %d of %d", ErrInvalidPageReference, ov.Page, pageCount)
		}
	}

	overlaysByPage := make(map[int][]overlay.Instance)
	for _, ov := range overlays {
		overlaysByPage[ov.Page] = append(overlaysByPage[ov.Page], ov)
	}
	textByPage := make(map[int][]*placeholder.Placeholder)
	for _, p := range fields {
		if textContent(p) == "" {
			continue
		}
		if p.Page < 0 || p.Page >= pageCount {
			continue
		}
		textByPage[p.Page] = append(textByPage[p.Page], p)
	}

	pages := make([]int, 0, len(overlaysByPage)+len(textByPage))
	seen := make(map[int]bool)
	for page := range overlaysByPage {
		pages = append(pages, page)
		seen[page] = true
	}
	for page := range textByPage {
		if !seen[page] {
			pages = append(pages, page)
		}
	}
	sort.Ints(pages)

	imgSeq := 0
	for _, page := range pages {
		height := ctx.PageHeight(page + 1)

		var ops []byte
		images := make(map[string]uint32)

		for _, ov := range overlaysByPage[page] {
			du, err := dataurl.DecodeString(ov.ImageDataURL)
			if err != nil {
				return nil, &Error{Op: "decode signature image", Err: err}
			}
			objID, err := ctx.RegisterImage(du.Data)
			if err != nil {
				return nil, &Error{Op: "embed signature image", Err: err}
			}

			imgSeq++
			resName := fmt.Sprintf("SdIm%d", imgSeq)
			images[resName] = objID

			y := FlipY(height, ov.Y, opts.SignatureHeight)
			ops = append(ops, []byte(fmt.Sprintf("q\n  %.2f 0 0 %.2f %.2f %.2f cm\n  /%s Do\nQ\n",
				opts.SignatureWidth, opts.SignatureHeight, ov.X, y, resName))...)
		}

		withFont := len(textByPage[page]) > 0
		for _, p := range textByPage[page] {
			y := height - p.Y - textBaselineDrop
			ops = append(ops, []byte(fmt.Sprintf("q\nBT\n  /%s %.2f Tf\n  0 0 0 rg\n  %.2f %.2f Td\n  %s Tj\nET\nQ\n",
				textFontResource, opts.TextFontSize, p.X, y, pdfupd.PDFString(textContent(p))))...)
		}

		if err := ctx.AppendPageContent(page+1, ops, images, withFont, textFontResource); err != nil {
			return nil, &Error{Op: fmt.Sprintf("update page %d", page), Err: err}
		}
	}

	out, err := ctx.Finish()
	if err != nil {
		return nil, &Error{Op: "write updated document", Err: err}
	}

	return &Result{
		Name: finalizedName(name, "pdf"),
		MIME: "application/pdf",
		Data: out,
	}, nil
}
