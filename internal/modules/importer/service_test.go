package importer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_ParseThenAggregate(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	table := NewMappingTable(t.TempDir(), log)
	require.NoError(t, table.Load())
	svc := NewService(table, log)

	result, err := svc.ParseCSV(sampleCSV)
	require.NoError(t, err)

	// XYZ has no mapping; an override completes the picture.
	assets, err := svc.AggregatePositions(result.Positions, map[string]string{"XYZ": "Speculative"}, "")
	require.NoError(t, err)

	byName := make(map[string]string)
	for _, a := range assets {
		byName[a.Name] = a.CurrentValue.StringFixed(2)
	}
	assert.Equal(t, "30000.00", byName["Domestic Equity"])
	assert.Equal(t, "500.00", byName["U.S Treasury Bonds"])
	assert.Equal(t, "100.00", byName["Speculative"])
}

func TestService_AggregateReportsUnresolved(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	table := NewMappingTable(t.TempDir(), log)
	require.NoError(t, table.Load())
	svc := NewService(table, log)

	result, err := svc.ParseCSV(sampleCSV)
	require.NoError(t, err)

	_, err = svc.AggregatePositions(result.Positions, nil, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedPositions)
}

func TestService_Mapping(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	table := NewMappingTable(t.TempDir(), log)
	require.NoError(t, table.Load())
	svc := NewService(table, log)

	snap := svc.Mapping()
	assert.NotEmpty(t, snap.Mappings)
	assert.NotEmpty(t, snap.Ignore)
}
