package pdf

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// pdfString renders a Go string as a PDF string literal. Non-ASCII text is
// encoded as UTF-16BE with a byte order mark, as PDF requires for text
// outside PDFDocEncoding.
func pdfString(text string) string {
	if !isASCII(text) {
		enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
		res, _, err := transform.String(enc, text)
		if err != nil {
			// Encoding to UTF-16 cannot fail for valid strings; fall back
			// to the escaped raw text rather than aborting a render.
			res = text
		}
		return "(" + res + ")"
	}

	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ")", "\\)")
	text = strings.ReplaceAll(text, "(", "\\(")
	text = strings.ReplaceAll(text, "\r", "\\r")
	return "(" + text + ")"
}

// PDFString is pdfString for callers outside the package.
func PDFString(text string) string {
	return pdfString(text)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > '\u007f' {
			return false
		}
	}
	return true
}
