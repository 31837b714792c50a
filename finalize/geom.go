package finalize

// FlipY converts a top-left-origin overlay position to the bottom-left
// PDF coordinate of an element of the given height: pageHeight - y - h.
func FlipY(pageHeight, y, elemHeight float64) float64 {
	return pageHeight - y - elemHeight
}

// ClampToCanvas keeps an element of the given extent fully on a canvas:
// the result lies in [0, canvasExtent - elemExtent]. An element larger
// than the canvas pins to 0.
func ClampToCanvas(pos, canvasExtent, elemExtent float64) float64 {
	max := canvasExtent - elemExtent
	if max < 0 {
		max = 0
	}
	if pos < 0 {
		return 0
	}
	if pos > max {
		return max
	}
	return pos
}
