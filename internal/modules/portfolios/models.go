package portfolios

import (
	"github.com/aristath/ballast/internal/modules/rebalancing"
	"github.com/shopspring/decimal"
)

// Portfolio is a saved allocation: a named asset list plus the contribution
// the user last entered. Drafts are allowed, nothing beyond the name is
// validated at save time.
type Portfolio struct {
	Name         string              `json:"name"`
	Assets       []rebalancing.Asset `json:"assets"`
	Contribution decimal.Decimal     `json:"contribution"`
}
