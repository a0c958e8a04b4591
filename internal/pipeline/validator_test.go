package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

func fixedNow() time.Time {
	return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
}

func testValidator() *Validator {
	cfg := DefaultValidatorConfig()
	cfg.Now = fixedNow
	return NewValidator(cfg)
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func completeItem() domain.ExtractedLineItem {
	return domain.ExtractedLineItem{
		Date:         strPtr("2025-06-10"),
		Registration: strPtr("AB12 CDE"),
		Litres:       floatPtr(40),
		CostPerLitre: floatPtr(1.50),
		TotalCost:    floatPtr(60.00),
	}
}

func TestValidate_AcceptsConsistentItem(t *testing.T) {
	v := testValidator()

	verdict := v.Validate(completeItem(), nil)

	require.True(t, verdict.Accepted)
	assert.Empty(t, verdict.Reasons)
}

func TestValidate_ArithmeticTolerance(t *testing.T) {
	v := testValidator()

	tests := []struct {
		name     string
		litres   float64
		cpl      float64
		total    float64
		accepted bool
	}{
		{"exact", 40, 1.50, 60.00, true},
		{"within absolute tolerance", 40, 1.50, 61.90, true},
		{"within relative tolerance", 100, 1.50, 155.00, true}, // 5% of 155 = 7.75
		{"outside both tolerances", 40, 1.50, 70.00, false},
		{"currency total swapped into litres", 60, 1.50, 60.00, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := completeItem()
			item.Litres = floatPtr(tt.litres)
			item.CostPerLitre = floatPtr(tt.cpl)
			item.TotalCost = floatPtr(tt.total)

			verdict := v.Validate(item, nil)
			assert.Equal(t, tt.accepted, verdict.Accepted, "reasons: %v", verdict.Reasons)
		})
	}
}

func TestValidate_MissingLitresIsIncompleteNotZero(t *testing.T) {
	v := testValidator()

	// An absent litres value must be rejected as incomplete; it must
	// not behave like litres == 0 and slip past the arithmetic check
	item := completeItem()
	item.Litres = nil
	item.TotalCost = floatPtr(0)

	verdict := v.Validate(item, nil)

	require.False(t, verdict.Accepted)
	assert.Contains(t, verdict.Reasons, "litres is missing")
}

func TestValidate_CollectsAllReasons(t *testing.T) {
	v := testValidator()

	verdict := v.Validate(domain.ExtractedLineItem{}, nil)

	require.False(t, verdict.Accepted)
	assert.Len(t, verdict.Reasons, 5)
}

func TestValidate_ImplausibleCostPerLitre(t *testing.T) {
	v := testValidator()

	item := completeItem()
	item.CostPerLitre = floatPtr(0.50)
	item.TotalCost = floatPtr(20.00)

	verdict := v.Validate(item, nil)

	require.False(t, verdict.Accepted)
	found := false
	for _, reason := range verdict.Reasons {
		if strings.Contains(reason, "cost-per-litre") {
			found = true
		}
	}
	assert.True(t, found, "expected a reason mentioning cost-per-litre, got %v", verdict.Reasons)
}

func TestValidate_ImplausibleLitres(t *testing.T) {
	v := testValidator()

	item := completeItem()
	item.Litres = floatPtr(0.2)
	item.TotalCost = floatPtr(0.30)

	verdict := v.Validate(item, nil)
	assert.False(t, verdict.Accepted)
}

func TestValidate_DatePlausibility(t *testing.T) {
	v := testValidator()

	tests := []struct {
		name     string
		date     string
		accepted bool
	}{
		{"valid recent date", "2025-06-10", true},
		{"garbage date", "10/06/2025", false},
		{"future date", "2025-08-01", false},
		{"beyond lookback window", "2022-01-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := completeItem()
			item.Date = strPtr(tt.date)

			verdict := v.Validate(item, nil)
			assert.Equal(t, tt.accepted, verdict.Accepted, "reasons: %v", verdict.Reasons)
		})
	}
}

func TestValidate_AnchorWindow(t *testing.T) {
	v := testValidator()
	anchor := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	farItem := completeItem()
	farItem.Date = strPtr("2025-06-01")
	verdict := v.Validate(farItem, &anchor)
	require.False(t, verdict.Accepted, "date more than 60 days from anchor must be rejected")

	nearItem := completeItem()
	nearItem.Date = strPtr("2025-02-10")
	verdict = v.Validate(nearItem, &anchor)
	assert.True(t, verdict.Accepted, "date within the anchor window must pass: %v", verdict.Reasons)
}

func TestValidate_IsDeterministic(t *testing.T) {
	v := testValidator()
	item := completeItem()
	item.CostPerLitre = floatPtr(9.99)

	first := v.Validate(item, nil)
	second := v.Validate(item, nil)

	assert.Equal(t, first, second)
}
