package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInPoliciesAreValid(t *testing.T) {
	require.NoError(t, StandardCancellationPolicy.Validate())
	require.NoError(t, APRemovalPolicy.Validate())
}

func TestRefundFractionTierLookup(t *testing.T) {
	tests := []struct {
		name       string
		completion float64
		want       float64
	}{
		{"zero completion hits first tier", 0, 1.00},
		{"exactly on a bound stays in that tier", 0.10, 1.00},
		{"just past a bound moves to the next tier", 0.11, 0.75},
		{"mid range", 0.40, 0.50},
		{"last explicit tier", 0.75, 0.25},
		{"past the last bound refunds nothing", 0.80, 0},
		{"full completion refunds nothing", 1.0, 0},
		{"negative completion clamps to zero", -0.5, 1.00},
		{"completion above one clamps to one", 1.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StandardCancellationPolicy.RefundFraction(tt.completion))
		})
	}
}

func TestAPRemovalPolicyLowestTier(t *testing.T) {
	assert.Equal(t, 0.90, APRemovalPolicy.RefundFraction(0.05))
	// The remaining tiers match the standard table.
	assert.Equal(t, 0.75, APRemovalPolicy.RefundFraction(0.20))
	assert.Equal(t, 0.50, APRemovalPolicy.RefundFraction(0.50))
}

func TestRefundPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		policy RefundPolicy
	}{
		{"empty tiers", RefundPolicy{Name: "empty"}},
		{"non-ascending bounds", RefundPolicy{Name: "bad", Tiers: []PolicyTier{
			{MaxCompletionFraction: 0.5, RefundFraction: 1},
			{MaxCompletionFraction: 0.5, RefundFraction: 0.5},
		}}},
		{"bound above one", RefundPolicy{Name: "bad", Tiers: []PolicyTier{
			{MaxCompletionFraction: 1.5, RefundFraction: 1},
		}}},
		{"refund fraction above one", RefundPolicy{Name: "bad", Tiers: []PolicyTier{
			{MaxCompletionFraction: 0.5, RefundFraction: 1.2},
		}}},
		{"increasing refund fraction", RefundPolicy{Name: "bad", Tiers: []PolicyTier{
			{MaxCompletionFraction: 0.25, RefundFraction: 0.5},
			{MaxCompletionFraction: 0.5, RefundFraction: 0.75},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.policy.Validate())
		})
	}
}

func TestPolicyByName(t *testing.T) {
	policy, ok := PolicyByName("standard_cancellation")
	require.True(t, ok)
	assert.Equal(t, StandardCancellationPolicy.Name, policy.Name)

	policy, ok = PolicyByName("ap_removal")
	require.True(t, ok)
	assert.Equal(t, APRemovalPolicy.Name, policy.Name)

	_, ok = PolicyByName("unknown")
	assert.False(t, ok)
}

func TestAdminFeeRule(t *testing.T) {
	rule := AdminFeeRule{PercentageOfRefund: 0.05, MinimumFlatAmount: decimal.NewFromInt(50)}

	// Percentage wins when it exceeds the minimum.
	fee := rule.Fee(decimal.NewFromInt(2000))
	assert.True(t, fee.Equal(decimal.NewFromInt(100)), "got %s", fee)

	// The flat minimum applies to small refunds.
	fee = rule.Fee(decimal.NewFromInt(400))
	assert.True(t, fee.Equal(decimal.NewFromInt(50)), "got %s", fee)

	// No fee on a zero refund.
	fee = rule.Fee(decimal.Zero)
	assert.True(t, fee.IsZero(), "got %s", fee)
}
