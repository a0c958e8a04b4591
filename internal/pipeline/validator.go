package pipeline

import (
	"fmt"
	"math"
	"time"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

// ValidatorConfig holds the tolerance and plausibility bands applied to
// extracted line items. Zero values are replaced by defaults in NewValidator.
type ValidatorConfig struct {
	// Arithmetic consistency: |litres*costPerLitre - totalCost| must not
	// exceed max(AbsTolerance, RelTolerance*totalCost)
	AbsTolerance float64
	RelTolerance float64

	// Plausible price band per litre, in major currency units
	MinCostPerLitre float64
	MaxCostPerLitre float64

	// Plausible single-fill-up volume band, in litres
	MinLitres float64
	MaxLitres float64

	// Plausible per-line monetary band
	MinTotalCost float64
	MaxTotalCost float64

	// MaxLookbackDays bounds how old a transaction date may be
	MaxLookbackDays int

	// AnchorWindowDays bounds the symmetric window around the anchor date
	AnchorWindowDays int

	// Now supplies the current time; defaults to time.Now
	Now func() time.Time
}

// DefaultValidatorConfig returns the default validation bands
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		AbsTolerance:     2.00,
		RelTolerance:     0.05,
		MinCostPerLitre:  0.80,
		MaxCostPerLitre:  5.00,
		MinLitres:        5,
		MaxLitres:        600,
		MinTotalCost:     5,
		MaxTotalCost:     1500,
		MaxLookbackDays:  730,
		AnchorWindowDays: 60,
	}
}

// Validator applies domain invariants to extracted line items. It is
// pure: identical input always yields identical verdicts.
type Validator struct {
	config ValidatorConfig
}

// NewValidator creates a validator with the given configuration,
// filling unset fields from the defaults.
func NewValidator(config ValidatorConfig) *Validator {
	def := DefaultValidatorConfig()
	if config.AbsTolerance <= 0 {
		config.AbsTolerance = def.AbsTolerance
	}
	if config.RelTolerance <= 0 {
		config.RelTolerance = def.RelTolerance
	}
	if config.MinCostPerLitre <= 0 {
		config.MinCostPerLitre = def.MinCostPerLitre
	}
	if config.MaxCostPerLitre <= 0 {
		config.MaxCostPerLitre = def.MaxCostPerLitre
	}
	if config.MinLitres <= 0 {
		config.MinLitres = def.MinLitres
	}
	if config.MaxLitres <= 0 {
		config.MaxLitres = def.MaxLitres
	}
	if config.MinTotalCost <= 0 {
		config.MinTotalCost = def.MinTotalCost
	}
	if config.MaxTotalCost <= 0 {
		config.MaxTotalCost = def.MaxTotalCost
	}
	if config.MaxLookbackDays <= 0 {
		config.MaxLookbackDays = def.MaxLookbackDays
	}
	if config.AnchorWindowDays <= 0 {
		config.AnchorWindowDays = def.AnchorWindowDays
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Validator{config: config}
}

// Validate applies every check to one extracted line item and collects
// all failure reasons. Any failure rejects the item; rejected items keep
// their reasons for caller-visible diagnostics.
func (v *Validator) Validate(item domain.ExtractedLineItem, anchor *time.Time) domain.ValidatedLineItem {
	var reasons []string

	// Completeness: required fields must be present, not defaulted
	if item.Date == nil {
		reasons = append(reasons, "transaction date is missing")
	}
	if item.Registration == nil {
		reasons = append(reasons, "registration is missing")
	}
	if item.Litres == nil {
		reasons = append(reasons, "litres is missing")
	}
	if item.CostPerLitre == nil {
		reasons = append(reasons, "cost-per-litre is missing")
	}
	if item.TotalCost == nil {
		reasons = append(reasons, "total cost is missing")
	}

	// Arithmetic consistency, the primary defense against unit confusion
	if item.Litres != nil && item.CostPerLitre != nil && item.TotalCost != nil {
		expected := *item.Litres * *item.CostPerLitre
		tolerance := math.Max(v.config.AbsTolerance, v.config.RelTolerance*math.Abs(*item.TotalCost))
		if diff := math.Abs(expected - *item.TotalCost); diff > tolerance {
			reasons = append(reasons, fmt.Sprintf(
				"litres x cost-per-litre (%.2f) does not match total cost (%.2f)", expected, *item.TotalCost))
		}
	}

	// Range plausibility
	if item.CostPerLitre != nil {
		if *item.CostPerLitre < v.config.MinCostPerLitre || *item.CostPerLitre > v.config.MaxCostPerLitre {
			reasons = append(reasons, fmt.Sprintf(
				"cost-per-litre %.2f is outside the plausible band %.2f-%.2f",
				*item.CostPerLitre, v.config.MinCostPerLitre, v.config.MaxCostPerLitre))
		}
	}
	if item.Litres != nil {
		if *item.Litres < v.config.MinLitres || *item.Litres > v.config.MaxLitres {
			reasons = append(reasons, fmt.Sprintf(
				"litres %.2f is outside the plausible fill-up range %.0f-%.0f",
				*item.Litres, v.config.MinLitres, v.config.MaxLitres))
		}
	}
	if item.TotalCost != nil {
		if *item.TotalCost < v.config.MinTotalCost || *item.TotalCost > v.config.MaxTotalCost {
			reasons = append(reasons, fmt.Sprintf(
				"total cost %.2f is outside the plausible range %.0f-%.0f",
				*item.TotalCost, v.config.MinTotalCost, v.config.MaxTotalCost))
		}
	}

	// Date format and plausibility
	if item.Date != nil {
		date, err := time.Parse("2006-01-02", *item.Date)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("transaction date %q is not a valid YYYY-MM-DD date", *item.Date))
		} else {
			now := v.config.Now()
			if date.After(now) {
				reasons = append(reasons, fmt.Sprintf("transaction date %s is in the future", *item.Date))
			}
			if date.Before(now.AddDate(0, 0, -v.config.MaxLookbackDays)) {
				reasons = append(reasons, fmt.Sprintf(
					"transaction date %s is older than the %d-day lookback window", *item.Date, v.config.MaxLookbackDays))
			}

			// Date-window coherence: rows bled in from an unrelated
			// invoice land far from the anchor and are rejected here
			if anchor != nil {
				window := time.Duration(v.config.AnchorWindowDays) * 24 * time.Hour
				if diff := date.Sub(*anchor); diff > window || diff < -window {
					reasons = append(reasons, fmt.Sprintf(
						"transaction date %s is more than %d days from the invoice date %s",
						*item.Date, v.config.AnchorWindowDays, anchor.Format("2006-01-02")))
				}
			}
		}
	}

	return domain.ValidatedLineItem{
		Item:     item,
		Accepted: len(reasons) == 0,
		Reasons:  reasons,
	}
}
