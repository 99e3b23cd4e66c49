package rebalancing

import (
	"github.com/shopspring/decimal"
)

// Asset is one row of a rebalancing request: a named allocation target with
// its current dollar value. The engine never mutates an Asset; every
// computation produces derived AssetResult values.
type Asset struct {
	Name         string          `json:"name"`
	TargetPct    int             `json:"target_pct"`
	CurrentValue decimal.Decimal `json:"current_value"`
	AllowSell    bool            `json:"allow_sell"`
}

// AssetResult is an Asset plus the derived allocation outcome. BuySell is
// signed: positive buys, negative sells. FinalValue is always rounded to the
// cent and never negative.
type AssetResult struct {
	Asset
	CurrentPct float64         `json:"current_pct"`
	BuySell    decimal.Decimal `json:"buy_sell"`
	FinalValue decimal.Decimal `json:"final_value"`
	FinalPct   float64         `json:"final_pct"`
}

// Result is a full allocation outcome. The sum of BuySell across Assets
// equals the contribution passed in, exactly, to the cent.
type Result struct {
	Assets         []AssetResult   `json:"assets"`
	TotalCurrent   decimal.Decimal `json:"total_current"`
	TotalFinal     decimal.Decimal `json:"total_final"`
	TotalTargetPct int             `json:"total_target_pct"`
}
