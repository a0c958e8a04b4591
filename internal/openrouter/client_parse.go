package openrouter

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

var (
	fencedJSONRe = regexp.MustCompile("```(?:json)?\\s*")
	jsonObjectRe = regexp.MustCompile(`\{[\s\S]*\}`)
)

// parseExtractionResponse parses the chat-completions envelope and then
// the model content. The envelope must be valid; the content inside is
// untrusted and degrades to an empty line-item list on parse failure
// rather than erroring.
func parseExtractionResponse(respBody []byte) (*domain.ExtractedInvoice, error) {
	type choice struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}

	type response struct {
		Choices []choice `json:"choices"`
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, &ExtractionError{
			Kind: KindUnknown,
			Op:   "parse_response_json",
			Err:  fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &ExtractionError{
			Kind: KindUnknown,
			Op:   "check_response_choices",
			Err:  fmt.Errorf("no choices in response"),
		}
	}

	return parseInvoiceContent(resp.Choices[0].Message.Content), nil
}

// parseInvoiceContent turns model output into an ExtractedInvoice.
// The structured output format was requested, but the model may still
// wrap the JSON in prose or fences, or emit something unusable; each
// step is tried in order and total failure yields an empty invoice.
func parseInvoiceContent(content string) *domain.ExtractedInvoice {
	// First, try the content as-is
	if inv, ok := decodeInvoice(content); ok {
		return inv
	}

	// Strip markdown fences and retry
	stripped := fencedJSONRe.ReplaceAllString(content, "")
	if inv, ok := decodeInvoice(stripped); ok {
		return inv
	}

	// Last resort: pull the outermost JSON object out of surrounding prose
	if match := jsonObjectRe.FindString(stripped); match != "" {
		if inv, ok := decodeInvoice(match); ok {
			return inv
		}
	}

	log.Printf("Failed to extract invoice JSON from model response, returning empty invoice")
	return &domain.ExtractedInvoice{LineItems: []domain.ExtractedLineItem{}}
}

// decodeInvoice decodes one JSON document into an ExtractedInvoice.
// Every field is pulled out of a generic map with explicit presence and
// type checks: a missing or mistyped field stays nil instead of
// silently becoming a zero value a later arithmetic check would accept.
func decodeInvoice(raw string) (*domain.ExtractedInvoice, bool) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, false
	}

	inv := &domain.ExtractedInvoice{
		InvoiceDate:  stringField(m, "invoice_date"),
		InvoiceTotal: numberField(m, "invoice_total"),
		LineItems:    []domain.ExtractedLineItem{},
	}

	items, ok := m["line_items"].([]interface{})
	if !ok {
		// Some model runs emit "items" despite the requested schema
		items, _ = m["items"].([]interface{})
	}

	for _, rawItem := range items {
		itemMap, ok := rawItem.(map[string]interface{})
		if !ok {
			continue
		}

		inv.LineItems = append(inv.LineItems, domain.ExtractedLineItem{
			Date:         stringField(itemMap, "date"),
			Registration: stringField(itemMap, "registration"),
			Litres:       numberField(itemMap, "litres"),
			CostPerLitre: numberField(itemMap, "cost_per_litre"),
			TotalCost:    numberField(itemMap, "total_cost"),
			Mileage:      intField(itemMap, "mileage"),
			Station:      stringField(itemMap, "station"),
		})
	}

	return inv, true
}

// stringField returns a non-empty trimmed string field, or nil
func stringField(m map[string]interface{}, key string) *string {
	v, ok := m[key]
	if !ok {
		return nil
	}

	s, ok := v.(string)
	if !ok {
		return nil
	}

	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

// numberField returns a numeric field, accepting JSON numbers and
// numeric strings (models sometimes quote amounts), or nil
func numberField(m map[string]interface{}, key string) *float64 {
	v, ok := m[key]
	if !ok {
		return nil
	}

	switch t := v.(type) {
	case float64:
		return &t
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

// intField returns an integer field, or nil when absent or fractional
func intField(m map[string]interface{}, key string) *int {
	f := numberField(m, key)
	if f == nil {
		return nil
	}

	i := int(*f)
	if float64(i) != *f {
		return nil
	}
	return &i
}
