package rebalancing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AssetDrift is one asset's deviation from its normalized target share, in
// percentage points. Positive drift means overweight.
type AssetDrift struct {
	Name       string  `json:"name"`
	TargetPct  float64 `json:"target_pct"`
	CurrentPct float64 `json:"current_pct"`
	Drift      float64 `json:"drift"`
}

// DriftReport summarizes how far current allocations sit from their targets.
// MeanAbsDeviation and MaxDeviation are over drift magnitudes, StdDeviation
// over the signed drifts.
type DriftReport struct {
	Assets           []AssetDrift `json:"assets"`
	MeanAbsDeviation float64      `json:"mean_abs_deviation"`
	MaxDeviation     float64      `json:"max_deviation"`
	StdDeviation     float64      `json:"std_deviation"`
}

// Drift measures per-asset deviation between the current allocation and the
// normalized target allocation. Display analytics only: percentages are
// floats, money never leaves decimal form.
func Drift(assets []Asset) (*DriftReport, error) {
	if err := ValidateAssets(assets); err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("%w: no assets to measure", ErrInvalidAssets)
	}

	currentTotal := decimal.Zero
	totalTargetPct := 0
	for _, a := range assets {
		currentTotal = currentTotal.Add(a.CurrentValue)
		totalTargetPct += a.TargetPct
	}

	results := make([]AssetDrift, len(assets))
	drifts := make([]float64, len(assets))
	absDrifts := make([]float64, len(assets))
	for i, a := range assets {
		currentPct := 0.0
		if currentTotal.IsPositive() {
			currentPct = a.CurrentValue.Div(currentTotal).Mul(hundred).InexactFloat64()
		}
		targetPct := 0.0
		if totalTargetPct > 0 {
			targetPct = float64(a.TargetPct) / float64(totalTargetPct) * 100
		}
		drift := currentPct - targetPct
		drifts[i] = drift
		absDrifts[i] = math.Abs(drift)
		results[i] = AssetDrift{
			Name:       a.Name,
			TargetPct:  targetPct,
			CurrentPct: currentPct,
			Drift:      drift,
		}
	}

	stdDev := 0.0
	if len(drifts) > 1 {
		stdDev = stat.StdDev(drifts, nil)
	}

	return &DriftReport{
		Assets:           results,
		MeanAbsDeviation: stat.Mean(absDrifts, nil),
		MaxDeviation:     floats.Max(absDrifts),
		StdDeviation:     stdDev,
	}, nil
}
