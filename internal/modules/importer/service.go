// Package importer turns brokerage positions exports into per-category asset
// values: a Fidelity CSV parser, a reloadable symbol mapping table, and an
// aggregator that sums resolved positions by asset class.
package importer

import (
	"github.com/rs/zerolog"
)

// Service wraps parsing and aggregation with the live mapping table.
type Service struct {
	table *MappingTable
	log   zerolog.Logger
}

// NewService creates a new importer service.
func NewService(table *MappingTable, log zerolog.Logger) *Service {
	return &Service{
		table: table,
		log:   log.With().Str("service", "importer").Logger(),
	}
}

// ParseCSV parses an uploaded positions export against the current mapping
// table.
func (s *Service) ParseCSV(content string) (*ParseResult, error) {
	result, err := Parse(content, s.table.Snapshot())
	if err != nil {
		s.log.Warn().Err(err).Msg("CSV parse failed")
		return nil, err
	}

	s.log.Info().
		Int("accounts", len(result.Accounts)).
		Int("positions", len(result.Positions)).
		Msg("Parsed positions export")
	return result, nil
}

// AggregatePositions sums positions into per-category assets.
func (s *Service) AggregatePositions(positions []Position, overrides map[string]string, account string) ([]AggregatedAsset, error) {
	assets, err := Aggregate(positions, s.table.Snapshot(), overrides, account)
	if err != nil {
		s.log.Warn().Err(err).Int("positions", len(positions)).Msg("Aggregation failed")
		return nil, err
	}

	s.log.Debug().
		Int("positions", len(positions)).
		Int("assets", len(assets)).
		Msg("Aggregated positions")
	return assets, nil
}

// Mapping returns a snapshot of the current mapping table.
func (s *Service) Mapping() Snapshot {
	return s.table.Snapshot()
}
