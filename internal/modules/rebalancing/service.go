package rebalancing

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Service exposes the allocation engine to the HTTP layer with structured
// logging. The engine itself is stateless; the service carries no state
// beyond its logger and is safe for concurrent use.
type Service struct {
	log zerolog.Logger
}

// NewService creates a new rebalancing service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "rebalancing").Logger(),
	}
}

// Calculate runs a constrained allocation for the given contribution.
func (s *Service) Calculate(assets []Asset, contribution decimal.Decimal) (*Result, error) {
	result, err := Allocate(assets, contribution)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("assets", len(assets)).
		Str("contribution", contribution.StringFixed(2)).
		Str("total_final", result.TotalFinal.StringFixed(2)).
		Msg("Calculated rebalance")

	return result, nil
}

// MinimumContribution solves for the smallest contribution that rebalances
// without forcing a disallowed sale.
func (s *Service) MinimumContribution(assets []Asset) (decimal.Decimal, error) {
	contribution, err := MinimumContribution(assets)
	if err != nil {
		return decimal.Zero, err
	}

	s.log.Debug().
		Int("assets", len(assets)).
		Str("contribution", contribution.StringFixed(2)).
		Msg("Solved minimum contribution")

	return contribution, nil
}

// Drift reports per-asset deviation from the normalized targets.
func (s *Service) Drift(assets []Asset) (*DriftReport, error) {
	report, err := Drift(assets)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Int("assets", len(assets)).
		Float64("max_deviation", report.MaxDeviation).
		Msg("Measured allocation drift")

	return report, nil
}
