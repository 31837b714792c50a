// Package coords converts between screen space (pointer/viewport pixels at
// the current zoom) and document space (unscaled page coordinates, top-left
// origin). All stored positions are document space; the scale is applied
// only on the way in and out.
package coords

import "errors"

// ErrInvalidScale is returned when a transform is requested with a
// non-positive zoom scale.
var ErrInvalidScale = errors.New("coords: scale must be greater than zero")

// Zoom bounds enforced by the presentation layer. The transforms assume a
// scale inside these bounds but still guard against zero and negatives.
const (
	ZoomMin  = 0.6
	ZoomMax  = 2.0
	ZoomStep = 0.2
)

// Point is a position in document space.
type Point struct {
	X float64
	Y float64
}

// ToDocumentSpace converts a pointer position to document space given the
// viewport origin and the current zoom scale.
func ToDocumentSpace(pointerX, pointerY, originX, originY, scale float64) (Point, error) {
	if scale <= 0 {
		return Point{}, ErrInvalidScale
	}
	return Point{
		X: (pointerX - originX) / scale,
		Y: (pointerY - originY) / scale,
	}, nil
}

// ToScreenSpace is the inverse of ToDocumentSpace, used when rendering
// overlays at the current zoom. Round-tripping through both at a fixed
// scale is exact up to floating point.
func ToScreenSpace(p Point, originX, originY, scale float64) (float64, float64, error) {
	if scale <= 0 {
		return 0, 0, ErrInvalidScale
	}
	return p.X*scale + originX, p.Y*scale + originY, nil
}

// ClampZoom snaps a requested scale into the supported zoom range,
// rounded to the nearest step.
func ClampZoom(scale float64) float64 {
	if scale < ZoomMin {
		return ZoomMin
	}
	if scale > ZoomMax {
		return ZoomMax
	}
	steps := int((scale-ZoomMin)/ZoomStep + 0.5)
	return ZoomMin + float64(steps)*ZoomStep
}
