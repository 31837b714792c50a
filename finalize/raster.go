package finalize

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/vincent-petithory/dataurl"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dassagnik123/signdoc-easy-upload/overlay"
	"github.com/dassagnik123/signdoc-easy-upload/placeholder"
)

// finalizeRaster flattens overlays and text fields onto a raster canvas.
// Image sources keep their natural dimensions as the base layer; text and
// word-processing sources get a generic placeholder background instead of
// content fidelity. Non-PDF media is treated as single-page: every overlay
// and text field is drawn onto the one canvas regardless of its stored
// page index.
func finalizeRaster(name string, media Media, data []byte, fields []*placeholder.Placeholder, overlays []overlay.Instance, opts Options) (*Result, error) {
	var base *image.NRGBA
	outFormat := "png"

	if media == MediaImage {
		src, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, &Error{Op: "decode source image", Err: err}
		}
		if format == "jpeg" {
			outFormat = "jpeg"
		}
		b := src.Bounds()
		base = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(base, base.Bounds(), src, b.Min, draw.Src)
	} else {
		base = image.NewNRGBA(image.Rect(0, 0, opts.CanvasWidth, opts.CanvasHeight))
		drawDocumentBackdrop(base, name)
	}

	canvasW := float64(base.Bounds().Dx())
	canvasH := float64(base.Bounds().Dy())

	for _, ov := range overlays {
		du, err := dataurl.DecodeString(ov.ImageDataURL)
		if err != nil {
			return nil, &Error{Op: "decode signature image", Err: err}
		}
		sig, _, err := image.Decode(bytes.NewReader(du.Data))
		if err != nil {
			return nil, &Error{Op: "decode signature image", Err: err}
		}

		w := int(opts.SignatureWidth)
		h := int(opts.SignatureHeight)
		scaled := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), sig, sig.Bounds(), xdraw.Over, nil)

		x := int(ClampToCanvas(ov.X, canvasW, opts.SignatureWidth))
		y := int(ClampToCanvas(ov.Y, canvasH, opts.SignatureHeight))
		draw.Draw(base, image.Rect(x, y, x+w, y+h), scaled, image.Point{}, draw.Over)
	}

	backing := image.NewUniform(color.NRGBA{255, 255, 255, 200})
	for _, p := range fields {
		text := textContent(p)
		if text == "" {
			continue
		}

		x := int(ClampToCanvas(p.X, canvasW, opts.TextFieldWidth))
		y := int(ClampToCanvas(p.Y, canvasH, opts.TextFieldHeight))
		w := int(opts.TextFieldWidth)
		h := int(opts.TextFieldHeight)

		draw.Draw(base, image.Rect(x, y, x+w, y+h), backing, image.Point{}, draw.Over)
		drawLabel(base, text, x+4, y+h/2+basicfont.Face7x13.Ascent/2, color.Black)
	}

	var buf bytes.Buffer
	mime := "image/png"
	switch outFormat {
	case "jpeg":
		mime = "image/jpeg"
		if err := jpeg.Encode(&buf, base, &jpeg.Options{Quality: 90}); err != nil {
			return nil, &Error{Op: "encode canvas", Err: err}
		}
	default:
		if err := png.Encode(&buf, base); err != nil {
			return nil, &Error{Op: "encode canvas", Err: err}
		}
	}

	extOut := "png"
	if outFormat == "jpeg" {
		extOut = "jpg"
	}
	return &Result{
		Name: finalizedName(name, extOut),
		MIME: mime,
		Data: buf.Bytes(),
	}, nil
}

// drawDocumentBackdrop paints the generic stand-in used for sources the
// raster path does not render faithfully: white page, header band, a
// document icon and the file name.
func drawDocumentBackdrop(dst *image.NRGBA, name string) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)

	header := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+60)
	draw.Draw(dst, header, image.NewUniform(color.NRGBA{235, 238, 242, 255}), image.Point{}, draw.Src)

	// Document icon: outlined sheet with a folded corner.
	iconCol := color.NRGBA{120, 130, 145, 255}
	icon := image.Rect(b.Min.X+20, b.Min.Y+14, b.Min.X+44, b.Min.Y+46)
	strokeRect(dst, icon, iconCol)
	for i := 0; i < 8; i++ {
		dst.Set(icon.Max.X-8+i, icon.Min.Y+i, iconCol)
	}

	drawLabel(dst, name, b.Min.X+56, b.Min.Y+34, color.NRGBA{40, 45, 55, 255})
	drawLabel(dst, "(document preview not rendered)", b.Min.X+56, b.Min.Y+48, iconCol)
}

func strokeRect(dst *image.NRGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}

func drawLabel(dst *image.NRGBA, text string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
