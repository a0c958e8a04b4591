package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

// ExtractionHints carries per-call context that biases extraction
// without being trusted as ground truth.
type ExtractionHints struct {
	// KnownRegistrations is the fleet roster's registration list; the
	// model is told to prefer these spellings when transcribing.
	KnownRegistrations []string

	// DateHint is an externally derived anchor date (e.g. from a
	// filename convention). It biases extraction only; transaction
	// dates are re-validated downstream.
	DateHint *time.Time
}

const systemPrompt = `You are a fuel invoice data extraction assistant for a vehicle fleet. Extract the following from the invoice:
- Invoice date (YYYY-MM-DD format)
- Invoice total amount
- Every fuel purchase line, each with: transaction date (YYYY-MM-DD), vehicle registration exactly as printed, litres dispensed, cost per litre in major currency units, total cost, odometer/mileage reading if printed, fuel station name if printed

Format your response as a valid JSON object with this structure:
{
  "invoice_date": "YYYY-MM-DD",
  "invoice_total": 0.0,
  "line_items": [
    {
      "date": "YYYY-MM-DD",
      "registration": "...",
      "litres": 0.0,
      "cost_per_litre": 0.0,
      "total_cost": 0.0,
      "mileage": 0,
      "station": "..."
    }
  ]
}

Omit any field you cannot read from the document instead of guessing a value. Do not include any other text in your response, only the JSON.`

// ExtractInvoice extracts structured fuel purchase data from a
// normalized payload. Failures are returned as *ExtractionError with a
// classification the orchestrator acts on; a response that arrives but
// cannot be parsed degrades to an invoice with no line items instead.
func (c *Client) ExtractInvoice(ctx context.Context, payload domain.NormalizedPayload, hints ExtractionHints) (*domain.ExtractedInvoice, error) {
	if c.apiKey == "" {
		return nil, &ExtractionError{
			Kind: KindUnknown,
			Op:   "validate_configuration",
			Err:  fmt.Errorf("OpenRouter API key is not configured. Please set OPENROUTER_API_KEY environment variable"),
		}
	}

	type imageURL struct {
		URL string `json:"url"`
	}

	type content struct {
		Type     string    `json:"type"`
		Text     string    `json:"text,omitempty"`
		ImageURL *imageURL `json:"image_url,omitempty"`
	}

	type message struct {
		Role    string    `json:"role"`
		Content []content `json:"content"`
	}

	// Build the user message: hint block first, then the document
	userText := "Extract the fuel purchase data from this invoice."
	if len(hints.KnownRegistrations) > 0 {
		userText += "\nKnown fleet registrations (prefer these spellings): " + strings.Join(hints.KnownRegistrations, ", ")
	}
	if hints.DateHint != nil {
		userText += "\nThe invoice is believed to be from around " + hints.DateHint.Format("2006-01-02") + "."
	}

	userContent := []content{{Type: "text", Text: userText}}
	switch payload.Kind {
	case domain.PayloadImage:
		userContent = append(userContent, content{
			Type:     "image_url",
			ImageURL: &imageURL{URL: payload.ImageDataURL},
		})
	case domain.PayloadText:
		userContent = append(userContent, content{
			Type: "text",
			Text: "Invoice text:\n" + payload.Text,
		})
	default:
		return nil, &ExtractionError{
			Kind: KindUnknown,
			Op:   "build_request",
			Err:  fmt.Errorf("unsupported payload kind %q", payload.Kind),
		}
	}

	requestPayload := map[string]interface{}{
		"model": c.modelID,
		"messages": []message{
			{Role: "system", Content: []content{{Type: "text", Text: systemPrompt}}},
			{Role: "user", Content: userContent},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	requestData, err := json.Marshal(requestPayload)
	if err != nil {
		return nil, &ExtractionError{
			Kind: KindUnknown,
			Op:   "marshal_request",
			Err:  fmt.Errorf("failed to marshal request payload: %w", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return nil, &ExtractionError{
			Kind: KindUnknown,
			Op:   "create_extract_request",
			Err:  fmt.Errorf("failed to create request: %w", err),
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/fleetops/fuel-ingest-service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := KindUnknown
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			kind = KindTimeout
		}
		return nil, &ExtractionError{
			Kind: kind,
			Op:   "send_extract_request",
			Err:  fmt.Errorf("failed to send request: %w", err),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractionError{
			Kind: KindUnknown,
			Op:   "read_response",
			Err:  fmt.Errorf("failed to read response body: %w", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ExtractionError{
			Kind: classifyStatus(resp.StatusCode),
			Op:   "check_api_response",
			Err:  fmt.Errorf("API error: %s - %s", resp.Status, string(respBody)),
		}
	}

	return parseExtractionResponse(respBody)
}

// isTimeout reports whether an error chain contains a network timeout
func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
