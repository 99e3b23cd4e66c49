package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Account Name,Account Number,Symbol,Description,Quantity,Last Price,Current Value
Brokerage,X123,VTI,VANGUARD TOTAL STOCK MARKET ETF,100,$250.00,"$25,000.00"
Brokerage,X123,SPAXX**,FIDELITY GOVERNMENT MONEY MARKET,500,$1.00,$500.00
Roth IRA,X456,ITOT,ISHARES CORE S&P TOTAL US STOCK MKT,50,$100.00,"$5,000.00"
Roth IRA,X456,XYZ,SOME UNMAPPED FUND,10,$10.00,$100.00
Brokerage,X123,GOVT**,ISHARES US TREASURY BOND ETF,20,$25.00,$500.00
Brokerage,X123,PENDING,Pending Activity,,,($2.50)
Brokerage,X123,NOVAL,FUND WITH NO VALUE,,,--
,,,,,,
"The data and information in this spreadsheet is provided for information purposes only."
`

func TestParse_FidelityExport(t *testing.T) {
	result, err := Parse(sampleCSV, defaultSnapshot())
	require.NoError(t, err)

	assert.Equal(t, []string{"Brokerage", "Roth IRA"}, result.Accounts)
	require.Len(t, result.Positions, 4)

	byName := make(map[string]Position)
	for _, p := range result.Positions {
		byName[p.Symbol] = p
	}

	vti := byName["VTI"]
	assert.Equal(t, "Brokerage", vti.Account)
	assert.Equal(t, "25000.00", vti.CurrentValue.StringFixed(2))
	assert.Equal(t, "Domestic Equity", vti.MappedAsset)

	// Trailing money-market marker is trimmed before mapping lookup.
	govt := byName["GOVT"]
	assert.Equal(t, "U.S Treasury Bonds", govt.MappedAsset)

	// Unknown symbols survive the parse with no mapping attached.
	xyz := byName["XYZ"]
	assert.Empty(t, xyz.MappedAsset)

	// Cash sweeps, pending activity, and valueless rows are filtered out.
	assert.NotContains(t, byName, "SPAXX")
	assert.NotContains(t, byName, "PENDING")
	assert.NotContains(t, byName, "NOVAL")
}

func TestParse_EmptyContent(t *testing.T) {
	for _, content := range []string{"", "   \n\n  "} {
		_, err := Parse(content, defaultSnapshot())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidCSV)
	}
}

func TestParse_MissingColumns(t *testing.T) {
	csv := "Account Name,Description\nBrokerage,Some fund\n"

	_, err := Parse(csv, defaultSnapshot())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCSV)
	// Missing columns are reported alphabetically.
	assert.Contains(t, err.Error(), "Current Value, Symbol")
}

func TestParse_NoDataRows(t *testing.T) {
	csv := "Account Name,Symbol,Current Value\n"

	_, err := Parse(csv, defaultSnapshot())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCSV)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestParse_NoUsablePositions(t *testing.T) {
	csv := strings.Join([]string{
		"Account Name,Symbol,Current Value",
		"Brokerage,SPAXX**,$500.00",
		"Brokerage,VTI,--",
		",,",
	}, "\n")

	_, err := Parse(csv, defaultSnapshot())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCSV)
	assert.Contains(t, err.Error(), "no usable positions")
}

func TestParse_ParseErrorType(t *testing.T) {
	_, err := Parse("", defaultSnapshot())
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.NotEmpty(t, parseErr.Reason)
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{name: "dollar with commas", input: "$281,678.11", expected: "281678.11", ok: true},
		{name: "parenthesized negative", input: "($78,731.32)", expected: "-78731.32", ok: true},
		{name: "plain number", input: "1234", expected: "1234.00", ok: true},
		{name: "whitespace padded", input: "  $5.00  ", expected: "5.00", ok: true},
		{name: "double dash absent", input: "--", ok: false},
		{name: "n/a absent", input: "n/a", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "garbage", input: "abc", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := parseCurrency(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, value.StringFixed(2))
			}
		})
	}
}
