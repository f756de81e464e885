package sniff

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const unknownMIME = "application/octet-stream"

// Result is the detected content type of an upload.
type Result struct {
	MIME    string
	TypeTag string
}

// Known reports whether detection got past the generic binary fallback.
func (r Result) Known() bool {
	return r.MIME != unknownMIME
}

// Detect classifies content from its leading bytes; file names are ignored.
func Detect(data []byte) Result {
	detected := mimetype.Detect(data).String()
	mediaType, _, err := mime.ParseMediaType(detected)
	if err != nil || mediaType == "" {
		mediaType = unknownMIME
	}
	return Result{MIME: mediaType, TypeTag: TypeTag(mediaType)}
}

// TypeTag reduces a MIME type to its top-level category ("image", "video",
// "audio", "application", ...).
func TypeTag(mediaType string) string {
	top, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mediaType)), "/")
	if top == "" {
		return "application"
	}
	return top
}
