// Package presets ships the built-in model portfolio catalog.
//
// Presets carry target percentages only; callers merge in live values
// before handing the asset list to the rebalancing engine.
package presets

// Asset is one slice of a preset allocation.
type Asset struct {
	Name      string `json:"name"`
	TargetPct int    `json:"target_pct"`
}

// Preset is a named model allocation. Target percentages sum to 100 in
// every built-in preset.
type Preset struct {
	Name   string  `json:"name"`
	Assets []Asset `json:"assets"`
}

// catalog holds the built-in presets, in display order.
var catalog = []Preset{
	{
		Name: "Rick Ferri 40/40/20",
		Assets: []Asset{
			{Name: "Total Bond", TargetPct: 40},
			{Name: "Total Stock", TargetPct: 40},
			{Name: "Total International Stock", TargetPct: 20},
		},
	},
	{
		Name: "Rick Ferri 60/40",
		Assets: []Asset{
			{Name: "Total Stock", TargetPct: 60},
			{Name: "Total Bond", TargetPct: 40},
		},
	},
	{
		Name: "Rick Ferri 80/20",
		Assets: []Asset{
			{Name: "Total Stock", TargetPct: 80},
			{Name: "Total Bond", TargetPct: 20},
		},
	},
	{
		Name: "Coffeehouse",
		Assets: []Asset{
			{Name: "Total Bond", TargetPct: 40},
			{Name: "Large Cap", TargetPct: 10},
			{Name: "Large Cap Value", TargetPct: 10},
			{Name: "Small Cap", TargetPct: 10},
			{Name: "Small Cap Value", TargetPct: 10},
			{Name: "International", TargetPct: 10},
			{Name: "REIT", TargetPct: 10},
		},
	},
	{
		Name: "California Chill",
		Assets: []Asset{
			{Name: "Domestic Equity", TargetPct: 40},
			{Name: "Foreign Developed Equity", TargetPct: 10},
			{Name: "Emerging Markets Equity", TargetPct: 5},
			{Name: "Real Estate", TargetPct: 15},
			{Name: "U.S Treasury Bonds", TargetPct: 15},
			{Name: "US TIPS Bonds", TargetPct: 15},
		},
	},
}

// All returns the full preset catalog in display order.
func All() []Preset {
	out := make([]Preset, len(catalog))
	copy(out, catalog)
	return out
}

// Find returns the preset with the given name.
func Find(name string) (Preset, bool) {
	for _, p := range catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
