package imageutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// DefaultMaxWidth is the default maximum width for downscaling
const DefaultMaxWidth = 1200

// DefaultQuality is the default JPEG quality for re-encoding
const DefaultQuality = 80

// ResizeConfig holds configuration for image downscaling
type ResizeConfig struct {
	MaxWidth int // Maximum width in pixels (default 1200)
	Quality  int // JPEG quality 1-100 (default 80)
}

// DefaultConfig returns the default resize configuration
func DefaultConfig() *ResizeConfig {
	return &ResizeConfig{
		MaxWidth: DefaultMaxWidth,
		Quality:  DefaultQuality,
	}
}

// Downscale decodes an image, scales it down to the configured maximum
// width preserving aspect ratio, and re-encodes it as JPEG at the
// configured quality. Images already within the width cap are still
// re-encoded so the output payload is always a bounded JPEG.
func Downscale(imageData []byte, config *ResizeConfig) ([]byte, error) {
	if config == nil {
		config = DefaultConfig()
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	dst := img
	if width > config.MaxWidth {
		newWidth := config.MaxWidth
		newHeight := int(float64(height) * float64(config.MaxWidth) / float64(width))
		if newHeight < 1 {
			newHeight = 1
		}

		scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))

		// CatmullRom gives Lanczos-like quality at acceptable cost
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		dst = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: config.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	return buf.Bytes(), nil
}
