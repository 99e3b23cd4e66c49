package importer

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Alphabetical, so missing-column errors list them in a stable order.
var requiredColumns = []string{"Account Name", "Current Value", "Symbol"}

// Parse reads a Fidelity "Positions" CSV export and returns the accounts,
// the usable positions, and the mapping table that was applied. Rows with a
// blank account or symbol, ignored symbols or descriptions, and absent or
// negative values (pending activity) are skipped. A trailing ** marker on a
// symbol (money market funds) is trimmed before lookup.
func Parse(content string, snap Snapshot) (*ParseResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, parseErrorf("the file appears to be empty; upload a Fidelity positions export")
	}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, parseErrorf("could not read csv headers: %v", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, parseErrorf(
			"missing required columns: %s; this does not look like a Fidelity positions export",
			strings.Join(missing, ", "))
	}

	accountIdx := columns["Account Name"]
	symbolIdx := columns["Symbol"]
	valueIdx := columns["Current Value"]
	descriptionIdx, hasDescription := columns["Description"]

	accountSet := make(map[string]bool)
	var positions []Position
	rowCount := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseErrorf("invalid csv format: %v", err)
		}
		rowCount++

		account := strings.TrimSpace(field(row, accountIdx))
		if account == "" {
			continue
		}

		symbol := strings.TrimSpace(field(row, symbolIdx))
		if symbol == "" {
			continue
		}
		clean := strings.TrimRight(symbol, "*")

		if snap.Ignored(symbol) || snap.Ignored(clean) {
			continue
		}

		description := ""
		if hasDescription {
			description = strings.TrimSpace(field(row, descriptionIdx))
		}
		if description != "" && snap.Ignored(description) {
			continue
		}

		value, ok := parseCurrency(field(row, valueIdx))
		if !ok || value.IsNegative() {
			continue
		}

		accountSet[account] = true
		positions = append(positions, Position{
			Account:      account,
			Symbol:       clean,
			Description:  description,
			CurrentValue: value,
			MappedAsset:  snap.Mappings[clean],
		})
	}

	if rowCount == 0 {
		return nil, parseErrorf("no data rows found in the csv file")
	}
	if len(positions) == 0 {
		return nil, parseErrorf(
			"no usable positions found in the csv; every row was empty, valueless, or filtered out")
	}

	accounts := make([]string, 0, len(accountSet))
	for name := range accountSet {
		accounts = append(accounts, name)
	}
	sort.Strings(accounts)

	return &ParseResult{
		Accounts:  accounts,
		Positions: positions,
		Mapping:   snap.Mappings,
	}, nil
}

// parseCurrency reads cells like "$281,678.11" or "($78,731.32)". Absent
// markers ("--", "n/a") and anything unparseable report ok=false.
func parseCurrency(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "--" || strings.EqualFold(s, "n/a") {
		return decimal.Decimal{}, false
	}

	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if negative {
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		value = value.Neg()
	}
	return value, true
}

func field(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
