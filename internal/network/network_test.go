package network

import (
	"errors"
	"testing"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func testSettings() models.Settings {
	return models.Settings{
		DistributionDays:   10,
		VehicleCapacity:    10,
		VehiclesTotal:      3,
		MaxTripsPerVehicle: 2,
		DefaultLeadTime:    2,
		HasDefaultLeadTime: true,
		MaxPreDays:         30,
	}
}

func testTables() *models.Tables {
	return &models.Tables{
		Depots: []models.DepotRow{
			{ID: "1", Name: "North Godown", StorageCapacity: 100, InitialStock: 50},
			{ID: "2", Name: "South Godown", StorageCapacity: 80, InitialStock: 20},
		},
		Outlets: []models.OutletRow{
			{ID: "F1", DepotRef: "1", MonthlyDemand: 300, MaxCapacity: 40, LeadTime: ptr(3.0)},
			{ID: "F2", DepotRef: " south godown ", MonthlyDemand: 60, MaxCapacity: 20},
		},
	}
}

func TestResolver(t *testing.T) {
	r := NewResolver([]models.Depot{{ID: "1", Name: "North"}, {ID: "2", Name: "South"}})

	t.Run("resolves ids before names", func(t *testing.T) {
		id, ok := r.Resolve("2")
		assert.True(t, ok)
		assert.Equal(t, "2", id)

		id, ok = r.Resolve("  NORTH ")
		assert.True(t, ok)
		assert.Equal(t, "1", id)
	})

	t.Run("unknown reference is typed", func(t *testing.T) {
		_, err := r.MustResolve("East", "outlet F9")
		var unresolved *UnresolvedError
		require.True(t, errors.As(err, &unresolved))
		assert.Equal(t, "East", unresolved.Ref)
		assert.ErrorIs(t, err, models.ErrUnknownDepot)
	})

	t.Run("parses mixed delimited mapping", func(t *testing.T) {
		ids, err := r.ParseMapping("2; north|2,", "vehicle V1")
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "1"}, ids)
	})

	t.Run("empty mapping is fatal", func(t *testing.T) {
		_, err := r.ParseMapping(" , ;", "vehicle V1")
		assert.ErrorIs(t, err, models.ErrEmptyMapping)
	})

	t.Run("unknown token is fatal", func(t *testing.T) {
		_, err := r.ParseMapping("1,West", "vehicle V1")
		assert.ErrorIs(t, err, models.ErrUnknownDepot)
	})
}

func TestBuild(t *testing.T) {
	t.Run("resolves outlets and applies default lead time", func(t *testing.T) {
		n, err := Build(testTables(), testSettings())
		require.NoError(t, err)

		require.Len(t, n.Outlets, 2)
		assert.Equal(t, "1", n.Outlets[0].DepotID)
		assert.InDelta(t, 30.0, n.Outlets[0].ReorderThreshold, models.Epsilon)
		assert.Equal(t, "2", n.Outlets[1].DepotID)
		assert.Equal(t, 2.0, n.Outlets[1].LeadTime)
		assert.InDelta(t, 4.0, n.Outlets[1].ReorderThreshold, models.Epsilon)
	})

	t.Run("synthetic fleet when vehicle table is absent", func(t *testing.T) {
		n, err := Build(testTables(), testSettings())
		require.NoError(t, err)

		assert.True(t, n.SyntheticFleet)
		require.Len(t, n.Vehicles, 3)
		for _, v := range n.Vehicles {
			assert.Equal(t, 10.0, v.Capacity)
			assert.Equal(t, []string{"1", "2"}, v.MappedDepots)
		}
	})

	t.Run("vehicle defaults and mapping", func(t *testing.T) {
		tables := testTables()
		tables.Vehicles = []models.VehicleRow{
			{ID: "A", Capacity: ptr(5.0), MappedDepots: ptr("North Godown")},
			{ID: "B"},
		}
		n, err := Build(tables, testSettings())
		require.NoError(t, err)

		assert.False(t, n.SyntheticFleet)
		assert.Equal(t, models.Vehicle{ID: "A", Capacity: 5, MappedDepots: []string{"1"}}, n.Vehicles[0])
		assert.Equal(t, models.Vehicle{ID: "B", Capacity: 10, MappedDepots: []string{"1", "2"}}, n.Vehicles[1])
	})

	t.Run("unresolved outlet depot is fatal", func(t *testing.T) {
		tables := testTables()
		tables.Outlets[0].DepotRef = "Nowhere"
		_, err := Build(tables, testSettings())
		assert.ErrorIs(t, err, models.ErrUnknownDepot)
	})

	t.Run("missing lead time without default is fatal", func(t *testing.T) {
		settings := testSettings()
		settings.HasDefaultLeadTime = false
		_, err := Build(testTables(), settings)
		assert.ErrorIs(t, err, models.ErrMissingSetting)
	})

	t.Run("duplicate outlet id is rejected", func(t *testing.T) {
		tables := testTables()
		tables.Outlets[1].ID = "F1"
		_, err := Build(tables, testSettings())
		assert.ErrorIs(t, err, models.ErrDuplicateID)
	})

	t.Run("capacity table overrides storage capacity", func(t *testing.T) {
		tables := testTables()
		tables.Capacities = []models.CapacityRow{{DepotRef: "South Godown", Capacity: 60}}
		n, err := Build(tables, testSettings())
		require.NoError(t, err)

		assert.Equal(t, 100.0, n.Capacity["1"])
		assert.Equal(t, 60.0, n.Capacity["2"])
	})

	t.Run("capacity falls back to depot table", func(t *testing.T) {
		n, err := Build(testTables(), testSettings())
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"1": 100, "2": 80}, n.Capacity)
	})
}
