package imageutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8((x * 7) % 256), G: uint8((y * 3) % 256), B: 64, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestDownscale_WideImageIsScaledToMaxWidth(t *testing.T) {
	out, err := Downscale(encodePNG(t, 400, 200), &ResizeConfig{MaxWidth: 100, Quality: 80})
	require.NoError(t, err)

	img := decodeJPEG(t, out)
	assert.Equal(t, 100, img.Bounds().Dx())
	// Aspect ratio preserved
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestDownscale_SmallImageKeepsDimensions(t *testing.T) {
	out, err := Downscale(encodePNG(t, 80, 60), &ResizeConfig{MaxWidth: 100, Quality: 80})
	require.NoError(t, err)

	img := decodeJPEG(t, out)
	assert.Equal(t, 80, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestDownscale_AlwaysReencodesAsJPEG(t *testing.T) {
	out, err := Downscale(encodePNG(t, 80, 60), nil)
	require.NoError(t, err)

	require.True(t, len(out) > 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, out[:2])
}

func TestDownscale_InvalidImageFails(t *testing.T) {
	_, err := Downscale([]byte("definitely not pixels"), nil)
	assert.Error(t, err)
}
