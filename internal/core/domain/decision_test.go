package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func entry(spend string, conversions int) ThresholdEntry {
	return ThresholdEntry{Spend: decimal.RequireFromString(spend), MinConversions: conversions}
}

func TestEvaluateSingleThreshold(t *testing.T) {
	thresholds := []ThresholdEntry{entry("10", 2)}

	// Spent past the cap with too few conversions: fail, and the reason
	// carries both amounts and the conversion comparison.
	d := Evaluate(decimal.RequireFromString("15"), 1, thresholds)
	require.False(t, d.Pass)
	require.Contains(t, d.Reason, "15")
	require.Contains(t, d.Reason, "10")
	require.Contains(t, d.Reason, "1 < 2")

	// Same spend but conversions above the highest configured bar.
	d = Evaluate(decimal.RequireFromString("15"), 3, thresholds)
	require.True(t, d.Pass)
}

func TestEvaluateExactConversionMatch(t *testing.T) {
	thresholds := []ThresholdEntry{entry("10", 2), entry("50", 5)}

	d := Evaluate(decimal.RequireFromString("30"), 2, thresholds)
	require.False(t, d.Pass, "spend 30 past the 10 cap for 2 conversions")

	d = Evaluate(decimal.RequireFromString("9.99"), 2, thresholds)
	require.True(t, d.Pass, "spend below the cap for 2 conversions")

	d = Evaluate(decimal.RequireFromString("30"), 5, thresholds)
	require.True(t, d.Pass, "spend 30 below the 50 cap for 5 conversions")
}

func TestEvaluateClearedLowerBar(t *testing.T) {
	thresholds := []ThresholdEntry{entry("10", 2), entry("50", 5)}

	// 3 conversions has no exact threshold but clears the 2-conversion
	// bar, so any spend passes.
	d := Evaluate(decimal.RequireFromString("500"), 3, thresholds)
	require.True(t, d.Pass)
}

func TestEvaluateNoData(t *testing.T) {
	thresholds := []ThresholdEntry{entry("10", 2)}

	// Missing insight data resolves upstream to zero spend and zero
	// conversions, which passes any table with a positive minimum spend.
	d := Evaluate(decimal.Zero, 0, thresholds)
	require.True(t, d.Pass)
}

func TestEvaluateEmptyTable(t *testing.T) {
	d := Evaluate(decimal.RequireFromString("100"), 0, nil)
	require.True(t, d.Pass)
}

// Raising conversions at fixed spend never flips a pass into a fail for a
// table whose bars rise with spend.
func TestEvaluateMonotonicInConversions(t *testing.T) {
	thresholds := []ThresholdEntry{entry("10", 1), entry("25", 3), entry("60", 6)}
	spend := decimal.RequireFromString("20")

	passed := false
	for conversions := 0; conversions <= 10; conversions++ {
		d := Evaluate(spend, conversions, thresholds)
		if passed {
			require.True(t, d.Pass, "conversions=%d regressed to fail", conversions)
		}
		passed = passed || d.Pass
	}
	require.True(t, passed, "expected a passing conversion count below 10")
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	thresholds := []ThresholdEntry{entry("50", 5), entry("10", 2)}
	Evaluate(decimal.RequireFromString("30"), 2, thresholds)
	require.Equal(t, "50", thresholds[0].Spend.String())
	require.Equal(t, "10", thresholds[1].Spend.String())
}
