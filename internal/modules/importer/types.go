package importer

import (
	"github.com/shopspring/decimal"
)

// Position is a single brokerage holding taken from a positions export.
// MappedAsset is empty until the symbol resolves through the mapping table.
type Position struct {
	Account      string          `json:"account"`
	Symbol       string          `json:"symbol"`
	Description  string          `json:"description"`
	CurrentValue decimal.Decimal `json:"current_value"`
	MappedAsset  string          `json:"mapped_asset,omitempty"`
}

// ParseResult is the structured output of a positions-export parse.
type ParseResult struct {
	Accounts  []string          `json:"accounts"`
	Positions []Position        `json:"positions"`
	Mapping   map[string]string `json:"mapping"`
}

// AggregatedAsset is the per-category sum of resolved positions.
type AggregatedAsset struct {
	Name         string          `json:"name"`
	CurrentValue decimal.Decimal `json:"current_value"`
}

// Snapshot is an immutable view of the symbol mapping table: symbol to
// category mappings plus the ignore list (applied to both symbols and
// descriptions, e.g. money market sweep funds and pending activity rows).
type Snapshot struct {
	Mappings map[string]string `json:"mappings"`
	Ignore   []string          `json:"ignore"`
}

// Ignored reports whether a symbol or description is on the ignore list.
func (s Snapshot) Ignored(value string) bool {
	for _, entry := range s.Ignore {
		if entry == value {
			return true
		}
	}
	return false
}
