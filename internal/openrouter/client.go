package openrouter

import (
	"net/http"
	"time"
)

// ErrorKind classifies extraction failures so the orchestrator can
// decide between retry-later, short-circuit and failed-file outcomes.
type ErrorKind string

const (
	// KindRateLimited means the service signalled overload; the caller
	// may retry later. The pipeline itself never retries.
	KindRateLimited ErrorKind = "rate_limited"

	// KindQuotaExceeded means the account quota is exhausted; no point
	// scheduling further extraction calls this run.
	KindQuotaExceeded ErrorKind = "quota_exceeded"

	// KindPayloadTooLarge means the payload exceeded the service limit
	// and a smaller file must be resubmitted.
	KindPayloadTooLarge ErrorKind = "payload_too_large"

	// KindTimeout means the caller-imposed deadline elapsed.
	KindTimeout ErrorKind = "timeout"

	// KindUnknown covers every other failure mode.
	KindUnknown ErrorKind = "unknown"
)

// ExtractionError represents an error that occurred during an
// extraction call against the OpenRouter API
type ExtractionError struct {
	Kind ErrorKind // Failure classification
	Op   string    // Operation that caused the error
	Err  error     // Original error
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	msg := "openrouter error [" + string(e.Kind) + "]: " + e.Op
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to an error kind
func classifyStatus(statusCode int) ErrorKind {
	switch statusCode {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusPaymentRequired:
		return KindQuotaExceeded
	case http.StatusRequestEntityTooLarge:
		return KindPayloadTooLarge
	default:
		return KindUnknown
	}
}

// Client represents a client for the OpenRouter API
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	modelID    string
}

// Config holds configuration for the OpenRouter client
type Config struct {
	APIKey  string
	ModelID string
	Timeout time.Duration
}

// DefaultConfig returns a default configuration for the OpenRouter client
func DefaultConfig() *Config {
	return &Config{
		ModelID: "meta-llama/llama-3.2-11b-vision-instruct:free",
		Timeout: 60 * time.Second,
	}
}

// NewClient creates a new OpenRouter client
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	return &Client{
		apiKey:  config.APIKey,
		apiURL:  "https://openrouter.ai/api/v1/chat/completions",
		modelID: config.ModelID,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}
