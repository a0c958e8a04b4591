package normalizer

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

func pngFixture(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_ImageBecomesJPEGDataURL(t *testing.T) {
	n := New(nil)

	payload, err := n.Normalize(domain.RawDocument{
		Name:      "pump.png",
		MediaType: "image/png",
		Content:   pngFixture(t, 40, 30),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PayloadImage, payload.Kind)
	require.True(t, strings.HasPrefix(payload.ImageDataURL, "data:image/jpeg;base64,"))

	encoded := strings.TrimPrefix(payload.ImageDataURL, "data:image/jpeg;base64,")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	// JPEG SOI marker
	require.True(t, len(decoded) > 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, decoded[:2])
}

func TestNormalize_TextPassesThrough(t *testing.T) {
	n := New(nil)

	payload, err := n.Normalize(domain.RawDocument{
		Name:      "export.csv",
		MediaType: "text/csv",
		Content:   []byte("date,registration,litres\n2025-06-10,AB12 CDE,40.0\n"),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PayloadText, payload.Kind)
	assert.Contains(t, payload.Text, "AB12 CDE")
}

func TestNormalize_TextTruncatedAtBudget(t *testing.T) {
	n := New(&Config{MaxTextChars: 10})

	payload, err := n.Normalize(domain.RawDocument{
		Name:      "long.txt",
		MediaType: "text/plain",
		Content:   []byte("0123456789ABCDEF"),
	})

	require.NoError(t, err)
	assert.Equal(t, "0123456789"+TruncationMarker, payload.Text)
}

func TestNormalize_TextWithinBudgetIsUntouched(t *testing.T) {
	n := New(&Config{MaxTextChars: 100})

	payload, err := n.Normalize(domain.RawDocument{
		Name:      "short.txt",
		MediaType: "text/plain",
		Content:   []byte("three lines"),
	})

	require.NoError(t, err)
	assert.Equal(t, "three lines", payload.Text)
}

func TestNormalize_FailuresWrapSentinel(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		doc  domain.RawDocument
	}{
		{"empty file", domain.RawDocument{Name: "empty.txt", MediaType: "text/plain"}},
		{"unsupported media type", domain.RawDocument{Name: "doc.pdf", MediaType: "application/pdf", Content: []byte("%PDF-")}},
		{"invalid utf-8", domain.RawDocument{Name: "bad.txt", MediaType: "text/plain", Content: []byte{0xFF, 0xFE, 0x00}}},
		{"corrupt image", domain.RawDocument{Name: "bad.png", MediaType: "image/png", Content: []byte("not an image")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.doc)
			assert.ErrorIs(t, err, ErrNormalizationFailed)
		})
	}
}
