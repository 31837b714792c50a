package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

// RegisterImage encodes raster image data (JPEG, PNG) as a PDF Image
// XObject and returns its object id. Opaque JPEG data passes through as
// DCTDecode; everything else is re-encoded as zlib-compressed RGB with a
// grayscale SMask when the source carries transparency.
func (ctx *UpdateContext) RegisterImage(data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("invalid image data")
	}

	srcImg, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := srcImg.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var rgbBuf, alphaBuf bytes.Buffer
	var rgbWriter, alphaWriter io.Writer = &rgbBuf, &alphaBuf
	var zlibRgb, zlibAlpha *zlib.Writer
	useCompression := ctx.CompressLevel != zlib.NoCompression

	if useCompression {
		zlibRgb, _ = zlib.NewWriterLevel(&rgbBuf, ctx.CompressLevel)
		zlibAlpha, _ = zlib.NewWriterLevel(&alphaBuf, ctx.CompressLevel)
		rgbWriter, alphaWriter = zlibRgb, zlibAlpha
	}

	hasAlpha := false
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := srcImg.At(x, y).RGBA()
			a8 := uint8(a >> 8)
			if a8 < 255 {
				hasAlpha = true
			}
			if _, err := alphaWriter.Write([]byte{a8}); err != nil {
				return 0, err
			}
			if _, err := rgbWriter.Write([]byte{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}); err != nil {
				return 0, err
			}
		}
	}

	if useCompression {
		if err := zlibRgb.Close(); err != nil {
			return 0, err
		}
		if err := zlibAlpha.Close(); err != nil {
			return 0, err
		}
	}

	filter := ""
	if useCompression {
		filter = "/Filter /FlateDecode"
	}

	var smaskID uint32
	if hasAlpha {
		smaskDict := fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 %s /Length %d >>\nstream\n",
			width, height, filter, alphaBuf.Len())
		smaskData := append([]byte(smaskDict), alphaBuf.Bytes()...)
		smaskData = append(smaskData, []byte("\nendstream")...)
		smaskID, err = ctx.AddObject(smaskData)
		if err != nil {
			return 0, err
		}
	}

	var obj bytes.Buffer
	obj.WriteString("<< /Type /XObject /Subtype /Image\n")
	fmt.Fprintf(&obj, "  /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8\n", width, height)
	if smaskID != 0 {
		fmt.Fprintf(&obj, "  /SMask %d 0 R\n", smaskID)
	}

	if format == "jpeg" && !hasAlpha {
		fmt.Fprintf(&obj, "  /Filter /DCTDecode /Length %d >>\nstream\n", len(data))
		obj.Write(data)
	} else {
		fmt.Fprintf(&obj, "  %s /Length %d >>\nstream\n", filter, rgbBuf.Len())
		obj.Write(rgbBuf.Bytes())
	}
	obj.WriteString("\nendstream")

	return ctx.AddObject(obj.Bytes())
}
