package importer

// defaultSnapshot is the seed table used when the data directory has no
// symbol_map.json yet: the usual index ETFs mapped to their asset classes,
// with brokerage cash sweeps and pending-activity rows ignored.
func defaultSnapshot() Snapshot {
	return Snapshot{
		Mappings: map[string]string{
			"ITOT": "Domestic Equity",
			"VTI":  "Domestic Equity",
			"IEFA": "Foreign Developed Equity",
			"VEA":  "Foreign Developed Equity",
			"IEMG": "Emerging Markets Equity",
			"VWO":  "Emerging Markets Equity",
			"USRT": "Real Estate",
			"VNQ":  "Real Estate",
			"GOVT": "U.S Treasury Bonds",
			"VGIT": "U.S Treasury Bonds",
			"TIP":  "US TIPS Bonds",
			"SCHP": "US TIPS Bonds",
			"VTIP": "US TIPS Bonds",
		},
		Ignore: []string{
			"SPAXX",
			"FDRXX",
			"FCASH",
			"FZFXX",
			"SPRXX",
			"FZDXX",
			"Pending Activity",
		},
	}
}
