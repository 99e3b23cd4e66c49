package importer

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Aggregate filters positions to the selected account (empty = all accounts),
// drops ignored symbols, resolves each remaining position to a category and
// sums current values per category. Per-request overrides take precedence
// over the mapped asset carried on the position, which in turn beats a live
// table lookup. Any position left without a category fails the whole
// aggregation, naming the unresolved symbols.
func Aggregate(positions []Position, snap Snapshot, overrides map[string]string, account string) ([]AggregatedAsset, error) {
	totals := make(map[string]decimal.Decimal)
	var unresolved []string
	seen := make(map[string]bool)

	for _, pos := range positions {
		if account != "" && pos.Account != account {
			continue
		}
		if snap.Ignored(pos.Symbol) {
			continue
		}

		category := overrides[pos.Symbol]
		if category == "" {
			category = pos.MappedAsset
		}
		if category == "" {
			category = snap.Mappings[pos.Symbol]
		}
		if category == "" {
			if !seen[pos.Symbol] {
				seen[pos.Symbol] = true
				unresolved = append(unresolved, pos.Symbol)
			}
			continue
		}

		totals[category] = totals[category].Add(pos.CurrentValue)
	}

	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		return nil, &UnresolvedPositionsError{Symbols: unresolved}
	}

	assets := make([]AggregatedAsset, 0, len(totals))
	for name, value := range totals {
		assets = append(assets, AggregatedAsset{Name: name, CurrentValue: value.Round(2)})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })

	return assets, nil
}
