package pdfextract

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText pulls plain text out of an in-memory PDF.
// Returns empty string and nil error if the PDF has no extractable text.
func ExtractText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Truncate cuts text to at most maxRunes runes.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes])
}
