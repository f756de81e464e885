package sniff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	pdf := []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")

	tests := []struct {
		name    string
		data    []byte
		mime    string
		typeTag string
		known   bool
	}{
		{name: "png", data: png, mime: "image/png", typeTag: "image", known: true},
		{name: "pdf", data: pdf, mime: "application/pdf", typeTag: "application", known: true},
		{name: "plain text drops charset", data: []byte("field notes about basalt"), mime: "text/plain", typeTag: "text", known: true},
		{name: "opaque bytes", data: []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x13, 0x37}, mime: "application/octet-stream", typeTag: "application", known: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.data)
			assert.Equal(t, tt.mime, got.MIME)
			assert.Equal(t, tt.typeTag, got.TypeTag)
			assert.Equal(t, tt.known, got.Known())
		})
	}
}

func TestTypeTag(t *testing.T) {
	assert.Equal(t, "video", TypeTag("video/mp4"))
	assert.Equal(t, "audio", TypeTag(" Audio/MPEG "))
	assert.Equal(t, "application", TypeTag(""))
}
