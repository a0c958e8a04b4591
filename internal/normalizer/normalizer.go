package normalizer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
	"github.com/fleetops/fuel-ingest-service/internal/imageutil"
)

// ErrNormalizationFailed wraps every normalizer failure so the caller
// can treat unreadable files, unsupported media types and decode errors
// uniformly as a per-file failure.
var ErrNormalizationFailed = errors.New("normalization failed")

// DefaultMaxTextChars is the default character budget for textual payloads
const DefaultMaxTextChars = 20000

// TruncationMarker is appended when a textual payload exceeds the budget
const TruncationMarker = "\n[truncated]"

// Config holds configuration for the content normalizer
type Config struct {
	MaxTextChars int
	Resize       *imageutil.ResizeConfig
}

// DefaultConfig returns the default normalizer configuration
func DefaultConfig() *Config {
	return &Config{
		MaxTextChars: DefaultMaxTextChars,
		Resize:       imageutil.DefaultConfig(),
	}
}

// Normalizer converts uploaded documents into canonical payloads
// bounded in size, suitable for the extraction call.
type Normalizer struct {
	config *Config
}

// New creates a new content normalizer
func New(config *Config) *Normalizer {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxTextChars <= 0 {
		config.MaxTextChars = DefaultMaxTextChars
	}
	return &Normalizer{config: config}
}

// Normalize converts a raw document into a normalized payload.
// Images are downscaled and re-encoded into an inline data URL; textual
// documents pass through with the character budget enforced.
func (n *Normalizer) Normalize(doc domain.RawDocument) (domain.NormalizedPayload, error) {
	if len(doc.Content) == 0 {
		return domain.NormalizedPayload{}, fmt.Errorf("%w: empty file %q", ErrNormalizationFailed, doc.Name)
	}

	mediaType := strings.ToLower(strings.TrimSpace(doc.MediaType))
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return n.normalizeImage(doc)
	case mediaType == "text/plain" || mediaType == "text/csv" || mediaType == "application/json":
		return n.normalizeText(doc)
	default:
		return domain.NormalizedPayload{}, fmt.Errorf("%w: unsupported media type %q for %q", ErrNormalizationFailed, doc.MediaType, doc.Name)
	}
}

func (n *Normalizer) normalizeImage(doc domain.RawDocument) (domain.NormalizedPayload, error) {
	encoded, err := imageutil.Downscale(doc.Content, n.config.Resize)
	if err != nil {
		return domain.NormalizedPayload{}, fmt.Errorf("%w: %v", ErrNormalizationFailed, err)
	}

	return domain.NormalizedPayload{
		Kind:         domain.PayloadImage,
		ImageDataURL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(encoded),
	}, nil
}

func (n *Normalizer) normalizeText(doc domain.RawDocument) (domain.NormalizedPayload, error) {
	if !utf8.Valid(doc.Content) {
		return domain.NormalizedPayload{}, fmt.Errorf("%w: file %q is not valid UTF-8 text", ErrNormalizationFailed, doc.Name)
	}

	text := string(doc.Content)
	if utf8.RuneCountInString(text) > n.config.MaxTextChars {
		runes := []rune(text)
		text = string(runes[:n.config.MaxTextChars]) + TruncationMarker
	}

	return domain.NormalizedPayload{
		Kind: domain.PayloadText,
		Text: text,
	}, nil
}
