// Package rebalancing provides portfolio rebalancing functionality.
//
// The engine is three pure operations: Allocate distributes a signed cash
// contribution across assets toward their target percentages without forcing
// disallowed sales, MinimumContribution solves for the smallest contribution
// that reaches every target by buying alone, and Drift measures how far the
// current allocation sits from the targets. Calls share no state and are
// safe to run concurrently.
package rebalancing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// pinTolerance absorbs fixed-precision division noise in constraint checks.
// True deltas are exact multiples of 1/(100 * total_target_pct) dollars, so
// any apparent violation smaller than this can only be a division artifact,
// never a real one.
var pinTolerance = decimal.New(1, -9)

// ValidateAssets rejects malformed asset lists before any computation:
// empty or duplicate names, targets outside 0..100, negative values.
// An empty list is valid.
func ValidateAssets(assets []Asset) error {
	seen := make(map[string]struct{}, len(assets))
	for i, a := range assets {
		if a.Name == "" {
			return fmt.Errorf("%w: asset %d has no name", ErrInvalidAssets, i)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("%w: duplicate asset name %q", ErrInvalidAssets, a.Name)
		}
		seen[a.Name] = struct{}{}
		if a.TargetPct < 0 || a.TargetPct > 100 {
			return fmt.Errorf("%w: target for %q is %d, must be 0..100", ErrInvalidAssets, a.Name, a.TargetPct)
		}
		if a.CurrentValue.IsNegative() {
			return fmt.Errorf("%w: current value for %q is negative", ErrInvalidAssets, a.Name)
		}
	}
	return nil
}

// Allocate distributes contribution across assets so each one moves toward
// its share of the new portfolio total, where shares are target percentages
// normalized over their sum (displayed percentages need not sum to 100).
// A negative contribution is a withdrawal.
//
// Two constraints bound every delta: an asset with AllowSell false never
// receives a sale, and no sale removes more than the asset's current value.
// Deltas that would violate either are pinned at the feasible boundary and
// the shortfall is redistributed over the remaining assets by their own
// renormalized weights.
//
// Money is treated in cents: sub-cent input is rounded half up on entry and
// the returned BuySell amounts sum exactly to the (rounded) contribution.
func Allocate(assets []Asset, contribution decimal.Decimal) (*Result, error) {
	if err := ValidateAssets(assets); err != nil {
		return nil, err
	}

	contribution = contribution.Round(2)
	assets = normalizeValues(assets)

	currentTotal := decimal.Zero
	totalTargetPct := 0
	for _, a := range assets {
		currentTotal = currentTotal.Add(a.CurrentValue)
		totalTargetPct += a.TargetPct
	}
	newTotal := currentTotal.Add(contribution)

	// With no positive targets there is nowhere to put money: zero
	// contribution yields a valid no-op, anything else is an error.
	if totalTargetPct == 0 {
		if !contribution.IsZero() {
			return nil, fmt.Errorf("%w: no asset has a positive target to receive %s",
				ErrUnallocatableContribution, contribution.StringFixed(2))
		}
		return buildResult(assets, make([]decimal.Decimal, len(assets)), currentTotal, newTotal, totalTargetPct), nil
	}

	if contribution.IsNegative() {
		sellable := decimal.Zero
		for _, a := range assets {
			if a.AllowSell {
				sellable = sellable.Add(a.CurrentValue)
			}
		}
		if contribution.Neg().GreaterThan(sellable) {
			return nil, fmt.Errorf("%w: withdrawal of %s exceeds sellable value %s",
				ErrInsufficientSellable, contribution.Neg().StringFixed(2), sellable.StringFixed(2))
		}
	}

	deltas := waterFill(assets, contribution)

	rounded, err := settleRounding(assets, deltas, contribution)
	if err != nil {
		return nil, err
	}

	return buildResult(assets, rounded, currentTotal, newTotal, totalTargetPct), nil
}

// waterFill resolves the constrained allocation as an iterative fixed point.
// The adjustable pool starts as the whole list; every pass recomputes the
// pool's normalized weights and ideal deltas against the pool's own new
// total, pins each member whose delta violates its sell constraint at the
// feasible boundary, and folds the pinned delta back into the amount still
// to distribute. A pass either pins at least one member or terminates, so
// the loop runs at most len(assets) passes.
func waterFill(assets []Asset, contribution decimal.Decimal) []decimal.Decimal {
	deltas := make([]decimal.Decimal, len(assets))
	inPool := make([]bool, len(assets))
	for i := range inPool {
		inPool[i] = true
	}
	remaining := contribution

	for {
		poolCurrent := decimal.Zero
		poolTargetPct := 0
		for i, a := range assets {
			if inPool[i] {
				poolCurrent = poolCurrent.Add(a.CurrentValue)
				poolTargetPct += a.TargetPct
			}
		}

		// Only zero-target members left: sellables liquidate, the rest hold.
		if poolTargetPct == 0 {
			for i, a := range assets {
				if !inPool[i] {
					continue
				}
				if a.AllowSell {
					deltas[i] = a.CurrentValue.Neg()
				} else {
					deltas[i] = decimal.Zero
				}
			}
			return deltas
		}

		poolNewTotal := poolCurrent.Add(remaining)
		poolTarget := decimal.NewFromInt(int64(poolTargetPct))

		for i, a := range assets {
			if inPool[i] {
				target := decimal.NewFromInt(int64(a.TargetPct))
				deltas[i] = target.Mul(poolNewTotal).Div(poolTarget).Sub(a.CurrentValue)
			}
		}

		pinned := false
		for i, a := range assets {
			if !inPool[i] {
				continue
			}
			switch {
			case !a.AllowSell && deltas[i].LessThan(pinTolerance.Neg()):
				// No forced sale: hold at the current value.
				deltas[i] = decimal.Zero
				inPool[i] = false
				pinned = true
			case deltas[i].Add(a.CurrentValue).LessThan(pinTolerance.Neg()):
				// A sale can remove at most the whole position.
				deltas[i] = a.CurrentValue.Neg()
				remaining = remaining.Sub(deltas[i])
				inPool[i] = false
				pinned = true
			}
		}

		if !pinned {
			return deltas
		}
	}
}

// settleRounding rounds every delta half up to the cent, then places the
// residual cents on the asset with the largest unrounded delta whose
// constraints admit the adjustment, walking down to the next-largest when
// they do not. The result sums exactly to the contribution.
func settleRounding(assets []Asset, exact []decimal.Decimal, contribution decimal.Decimal) ([]decimal.Decimal, error) {
	rounded := make([]decimal.Decimal, len(exact))
	sum := decimal.Zero
	for i, d := range exact {
		rounded[i] = d.Round(2)
		sum = sum.Add(rounded[i])
	}

	diff := contribution.Sub(sum)
	if diff.IsZero() {
		return rounded, nil
	}

	order := make([]int, len(exact))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return exact[order[a]].Abs().GreaterThan(exact[order[b]].Abs())
	})

	for _, i := range order {
		adjusted := rounded[i].Add(diff)
		if !assets[i].AllowSell && adjusted.IsNegative() {
			continue
		}
		if assets[i].CurrentValue.Add(adjusted).IsNegative() {
			continue
		}
		rounded[i] = adjusted
		return rounded, nil
	}

	return nil, fmt.Errorf("allocation lost %s to rounding with no asset able to absorb it", diff.StringFixed(2))
}

// MinimumContribution solves for the smallest non-negative contribution that
// lets Allocate reach every target without pinning a positive-target asset.
//
// Each sell-blocked asset with a positive target implies a floor on the
// final portfolio total: the total at which its ideal value equals what it
// already holds (current_value divided by its normalized weight). The
// binding floor is the largest one; any total at or above it rebalances by
// buying alone. Zero-target holdings that cannot be sold are permanently
// pinned: they count toward reported totals but not toward the total the
// buying plan has to fill, and they never contribute a floor.
func MinimumContribution(assets []Asset) (decimal.Decimal, error) {
	if err := ValidateAssets(assets); err != nil {
		return decimal.Zero, err
	}

	assets = normalizeValues(assets)

	currentTotal := decimal.Zero
	totalTargetPct := 0
	for _, a := range assets {
		currentTotal = currentTotal.Add(a.CurrentValue)
		totalTargetPct += a.TargetPct
	}
	if totalTargetPct == 0 {
		return decimal.Zero, nil
	}

	adjustableTotal := currentTotal
	for _, a := range assets {
		if a.TargetPct == 0 && !a.AllowSell {
			adjustableTotal = adjustableTotal.Sub(a.CurrentValue)
		}
	}

	totalTarget := decimal.NewFromInt(int64(totalTargetPct))
	maxFloor := decimal.Zero
	for _, a := range assets {
		if a.TargetPct == 0 || a.AllowSell {
			continue
		}
		floor := a.CurrentValue.Mul(totalTarget).Div(decimal.NewFromInt(int64(a.TargetPct)))
		if floor.GreaterThan(maxFloor) {
			maxFloor = floor
		}
	}
	if maxFloor.IsZero() {
		return decimal.Zero, nil
	}

	contribution := maxFloor.Sub(adjustableTotal)
	if contribution.Sign() <= 0 {
		return decimal.Zero, nil
	}

	// Round up to the cent so the solved contribution never lands short of
	// the binding floor.
	return contribution.RoundCeil(2), nil
}

// normalizeValues returns a copy of assets with current values rounded half
// up to the cent. The engine works in whole cents throughout.
func normalizeValues(assets []Asset) []Asset {
	normalized := make([]Asset, len(assets))
	copy(normalized, assets)
	for i := range normalized {
		normalized[i].CurrentValue = normalized[i].CurrentValue.Round(2)
	}
	return normalized
}

func buildResult(assets []Asset, deltas []decimal.Decimal, currentTotal, newTotal decimal.Decimal, totalTargetPct int) *Result {
	results := make([]AssetResult, len(assets))
	totalFinal := decimal.Zero
	for i, a := range assets {
		finalValue := a.CurrentValue.Add(deltas[i])
		totalFinal = totalFinal.Add(finalValue)

		currentPct := 0.0
		if currentTotal.IsPositive() {
			currentPct = a.CurrentValue.Div(currentTotal).Mul(hundred).InexactFloat64()
		}
		finalPct := 0.0
		if newTotal.IsPositive() {
			finalPct = finalValue.Div(newTotal).Mul(hundred).InexactFloat64()
		}

		results[i] = AssetResult{
			Asset:      a,
			CurrentPct: currentPct,
			BuySell:    deltas[i],
			FinalValue: finalValue,
			FinalPct:   finalPct,
		}
	}

	return &Result{
		Assets:         results,
		TotalCurrent:   currentTotal,
		TotalFinal:     totalFinal,
		TotalTargetPct: totalTargetPct,
	}
}
