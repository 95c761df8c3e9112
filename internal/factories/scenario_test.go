package factories

import (
	"testing"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/network"
	"github.com/chrisdamba/distsim/internal/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateScenarioBuildsNetwork(t *testing.T) {
	opts := DefaultScenarioOptions()
	opts.Seed = 7
	tables, err := NewScenarioFactory(opts).CreateScenario()
	require.NoError(t, err)

	assert.Len(t, tables.Depots, opts.Depots)
	assert.Len(t, tables.Outlets, opts.Depots*opts.OutletsPerDepot)
	assert.Len(t, tables.Vehicles, opts.Vehicles)
	assert.Nil(t, tables.Requirements)

	settings, err := models.ParseSettings(tables.Settings, models.DefaultConfig())
	require.NoError(t, err)
	n, err := network.Build(tables, settings)
	require.NoError(t, err)

	for _, d := range n.Depots {
		assert.GreaterOrEqual(t, d.StorageCapacity, d.InitialStock, "depot %s", d.ID)
	}
	for _, o := range n.Outlets {
		assert.Greater(t, o.ReorderThreshold, 0.0, "outlet %s", o.ID)
	}
}

func TestCreateScenarioIsRepeatable(t *testing.T) {
	opts := DefaultScenarioOptions()
	opts.Seed = 42

	first, err := NewScenarioFactory(opts).CreateScenario()
	require.NoError(t, err)
	second, err := NewScenarioFactory(opts).CreateScenario()
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCreateScenarioIsFeasible(t *testing.T) {
	for _, withTable := range []bool{false, true} {
		opts := DefaultScenarioOptions()
		opts.Seed = 2024
		opts.Days = 10
		opts.RequirementTable = withTable

		tables, err := NewScenarioFactory(opts).CreateScenario()
		require.NoError(t, err)
		if withTable {
			assert.NotEmpty(t, tables.Requirements)
		}

		sim := simulator.NewSimulator(models.DefaultConfig(), tables)
		res, err := sim.Simulate()
		require.NoError(t, err, "requirement table: %v", withTable)
		assert.LessOrEqual(t, res.Run.LeadDays, sim.Network.Settings.MaxPreDays)
	}
}

func TestCreateScenarioRejectsEmptySizes(t *testing.T) {
	opts := DefaultScenarioOptions()
	opts.Vehicles = 0

	_, err := NewScenarioFactory(opts).CreateScenario()
	assert.ErrorIs(t, err, models.ErrInvalidSetting)
}
