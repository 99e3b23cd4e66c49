package rebalancing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrift_BalancedPortfolio(t *testing.T) {
	assets := []Asset{
		asset("Stock", 60, "6000.00", true),
		asset("Bond", 40, "4000.00", true),
	}

	report, err := Drift(assets)
	require.NoError(t, err)
	require.Len(t, report.Assets, 2)

	for _, a := range report.Assets {
		assert.InDelta(t, 0.0, a.Drift, 1e-9)
	}
	assert.InDelta(t, 0.0, report.MeanAbsDeviation, 1e-9)
	assert.InDelta(t, 0.0, report.MaxDeviation, 1e-9)
	assert.InDelta(t, 0.0, report.StdDeviation, 1e-9)
}

func TestDrift_OverweightAsset(t *testing.T) {
	assets := []Asset{
		asset("A", 50, "750.00", true),
		asset("B", 50, "250.00", true),
	}

	report, err := Drift(assets)
	require.NoError(t, err)

	assert.InDelta(t, 75.0, report.Assets[0].CurrentPct, 1e-9)
	assert.InDelta(t, 25.0, report.Assets[0].Drift, 1e-9)
	assert.InDelta(t, -25.0, report.Assets[1].Drift, 1e-9)
	assert.InDelta(t, 25.0, report.MeanAbsDeviation, 1e-9)
	assert.InDelta(t, 25.0, report.MaxDeviation, 1e-9)
	// Sample standard deviation of {25, -25}.
	assert.InDelta(t, 35.3553, report.StdDeviation, 0.001)
}

func TestDrift_TargetsNormalized(t *testing.T) {
	// Raw targets sum to 80; the report compares against the normalized
	// 50/50 weights.
	assets := []Asset{
		asset("A", 40, "600.00", true),
		asset("B", 40, "400.00", true),
	}

	report, err := Drift(assets)
	require.NoError(t, err)

	assert.InDelta(t, 50.0, report.Assets[0].TargetPct, 1e-9)
	assert.InDelta(t, 10.0, report.Assets[0].Drift, 1e-9)
	assert.InDelta(t, -10.0, report.Assets[1].Drift, 1e-9)
}

func TestDrift_SingleAsset(t *testing.T) {
	assets := []Asset{asset("Everything", 100, "1000.00", true)}

	report, err := Drift(assets)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, report.Assets[0].Drift, 1e-9)
	assert.InDelta(t, 0.0, report.StdDeviation, 1e-9)
}

func TestDrift_EmptyPortfolio(t *testing.T) {
	_, err := Drift(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAssets)
}

func TestDrift_ZeroTotalValue(t *testing.T) {
	assets := []Asset{
		asset("Stock", 60, "0", true),
		asset("Bond", 40, "0", true),
	}

	report, err := Drift(assets)
	require.NoError(t, err)

	assert.InDelta(t, -60.0, report.Assets[0].Drift, 1e-9)
	assert.InDelta(t, -40.0, report.Assets[1].Drift, 1e-9)
	assert.InDelta(t, 50.0, report.MeanAbsDeviation, 1e-9)
	assert.InDelta(t, 60.0, report.MaxDeviation, 1e-9)
}

func TestDrift_InvalidAssets(t *testing.T) {
	assets := []Asset{
		asset("A", 50, "100.00", true),
		asset("A", 50, "100.00", true),
	}

	_, err := Drift(assets)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAssets)
}
