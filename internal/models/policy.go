package models

import (
	"fmt"

	"github.com/shopspring/decimal"

	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
)

// PolicyTier maps a completion-fraction upper bound (exclusive of later
// tiers, inclusive of its own bound) to the refund fraction it grants.
type PolicyTier struct {
	MaxCompletionFraction float64 `json:"max_completion_fraction"`
	RefundFraction        float64 `json:"refund_fraction"`
}

// RefundPolicy is an ordered tier list. Tiers must ascend by bound with
// non-increasing refund fractions; everything past the last explicit bound
// falls into an implicit terminal tier refunding nothing.
type RefundPolicy struct {
	Name  string       `json:"name"`
	Tiers []PolicyTier `json:"tiers"`
}

// Validate checks the tier invariants.
func (p RefundPolicy) Validate() error {
	if len(p.Tiers) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidPolicy, "policy requires at least one tier")
	}
	prevBound := 0.0
	prevRefund := 1.0
	for i, tier := range p.Tiers {
		if tier.MaxCompletionFraction <= prevBound || tier.MaxCompletionFraction > 1 {
			return appErrors.Clone(appErrors.ErrInvalidPolicy,
				fmt.Sprintf("tier %d bound %.4f must ascend within (0,1]", i, tier.MaxCompletionFraction))
		}
		if tier.RefundFraction < 0 || tier.RefundFraction > 1 {
			return appErrors.Clone(appErrors.ErrInvalidPolicy,
				fmt.Sprintf("tier %d refund fraction %.4f outside [0,1]", i, tier.RefundFraction))
		}
		if i > 0 && tier.RefundFraction > prevRefund {
			return appErrors.Clone(appErrors.ErrInvalidPolicy,
				fmt.Sprintf("tier %d refund fraction %.4f increases over previous tier", i, tier.RefundFraction))
		}
		prevBound = tier.MaxCompletionFraction
		prevRefund = tier.RefundFraction
	}
	return nil
}

// RefundFraction evaluates the tier table for a completion fraction. The
// fraction is clamped to [0,1]; the first tier whose bound is >= the fraction
// wins, a bound exactly equal to the fraction included. Past the last
// explicit bound the implicit terminal tier returns 0.
func (p RefundPolicy) RefundFraction(completion float64) float64 {
	if completion < 0 {
		completion = 0
	}
	if completion > 1 {
		completion = 1
	}
	for _, tier := range p.Tiers {
		if tier.MaxCompletionFraction >= completion {
			return tier.RefundFraction
		}
	}
	return 0
}

// The dashboard ships two tier tables that differ only in the lowest tier.
// They originate from separate business rules (course cancellation vs AP
// student removal) and are intentionally not unified.
var (
	// StandardCancellationPolicy grants a full refund when at most 10% of
	// the course has been delivered.
	StandardCancellationPolicy = RefundPolicy{
		Name: "standard_cancellation",
		Tiers: []PolicyTier{
			{MaxCompletionFraction: 0.10, RefundFraction: 1.00},
			{MaxCompletionFraction: 0.25, RefundFraction: 0.75},
			{MaxCompletionFraction: 0.50, RefundFraction: 0.50},
			{MaxCompletionFraction: 0.75, RefundFraction: 0.25},
		},
	}

	// APRemovalPolicy caps the lowest tier at 90%, matching the removal
	// workflow for AP students.
	APRemovalPolicy = RefundPolicy{
		Name: "ap_removal",
		Tiers: []PolicyTier{
			{MaxCompletionFraction: 0.10, RefundFraction: 0.90},
			{MaxCompletionFraction: 0.25, RefundFraction: 0.75},
			{MaxCompletionFraction: 0.50, RefundFraction: 0.50},
			{MaxCompletionFraction: 0.75, RefundFraction: 0.25},
		},
	}
)

// PolicyByName resolves a built-in policy. Callers may always pass their own
// RefundPolicy value instead.
func PolicyByName(name string) (RefundPolicy, bool) {
	switch name {
	case StandardCancellationPolicy.Name:
		return StandardCancellationPolicy, true
	case APRemovalPolicy.Name:
		return APRemovalPolicy, true
	default:
		return RefundPolicy{}, false
	}
}

// AdminFeeRule derives the administrative fee retained from a refund.
type AdminFeeRule struct {
	PercentageOfRefund float64         `json:"percentage_of_refund"`
	MinimumFlatAmount  decimal.Decimal `json:"minimum_flat_amount"`
}

// Fee returns max(eligible * percentage, minimum) when the eligible amount is
// positive, zero otherwise. The result is rounded to currency precision.
func (r AdminFeeRule) Fee(eligible decimal.Decimal) decimal.Decimal {
	if eligible.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	fee := eligible.Mul(decimal.NewFromFloat(r.PercentageOfRefund)).Round(2)
	if fee.LessThan(r.MinimumFlatAmount) {
		fee = r.MinimumFlatAmount.Round(2)
	}
	return fee
}
