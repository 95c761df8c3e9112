package simulator

import (
	"testing"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func buildNetwork(t *testing.T, tables *models.Tables, settings models.Settings) *network.Network {
	t.Helper()
	n, err := network.Build(tables, settings)
	require.NoError(t, err)
	return n
}

func settings(days, vehicles, trips int, capacity float64) models.Settings {
	return models.Settings{
		DistributionDays:   days,
		VehicleCapacity:    capacity,
		VehiclesTotal:      vehicles,
		MaxTripsPerVehicle: trips,
		MaxPreDays:         5,
	}
}

func quantities(ds []models.OutletDispatch) []float64 {
	var out []float64
	for _, d := range ds {
		out = append(out, d.Quantity)
	}
	return out
}

func TestOutletEngineSingleOutlet(t *testing.T) {
	n := buildNetwork(t, &models.Tables{
		Depots:  []models.DepotRow{{ID: "1", StorageCapacity: 100, InitialStock: 25}},
		Outlets: []models.OutletRow{{ID: "F1", DepotRef: "1", MonthlyDemand: 300, MaxCapacity: 20, LeadTime: ptr(1.0), InitialStock: 15}},
	}, settings(3, 1, 1, 10))

	res := NewOutletEngine(n).Run("r1")

	assert.Equal(t, []float64{10, 10, 5}, quantities(res.Dispatches))
	for i, d := range res.Dispatches {
		assert.Equal(t, int32(i+1), d.Day)
		assert.Equal(t, "V1", d.VehicleID)
		assert.Equal(t, "r1", d.RunID)
	}

	require.Len(t, res.Snapshots, 6)
	expected := []struct {
		kind  string
		level float64
	}{
		{models.EntityDepot, 15}, {models.EntityOutlet, 15},
		{models.EntityDepot, 5}, {models.EntityOutlet, 15},
		{models.EntityDepot, 0}, {models.EntityOutlet, 10},
	}
	for i, e := range expected {
		assert.Equal(t, e.kind, res.Snapshots[i].EntityType, "snapshot %d", i)
		assert.InDelta(t, e.level, res.Snapshots[i].Level, models.Epsilon, "snapshot %d", i)
	}
	assert.InDelta(t, 0, res.DepotStock["1"], models.Epsilon)
	assert.InDelta(t, 10, res.OutletStock["F1"], models.Epsilon)
}

func TestOutletEnginePrefersSharedVehiclesAndRespectsMapping(t *testing.T) {
	n := buildNetwork(t, &models.Tables{
		Depots: []models.DepotRow{
			{ID: "1", StorageCapacity: 100, InitialStock: 100},
			{ID: "2", StorageCapacity: 100, InitialStock: 100},
		},
		Outlets: []models.OutletRow{
			{ID: "F1", DepotRef: "1", MonthlyDemand: 300, MaxCapacity: 30, LeadTime: ptr(2.0)},
			{ID: "F2", DepotRef: "1", MonthlyDemand: 150, MaxCapacity: 30, LeadTime: ptr(2.0)},
			{ID: "F3", DepotRef: "2", MonthlyDemand: 900, MaxCapacity: 90, LeadTime: ptr(2.0)},
		},
		Vehicles: []models.VehicleRow{
			{ID: "V1", MappedDepots: ptr("1")},
			{ID: "V2", MappedDepots: ptr("1;2")},
		},
	}, settings(1, 2, 1, 10))

	res := NewOutletEngine(n).Run("r1")

	require.Len(t, res.Dispatches, 2)
	assert.Equal(t, "F1", res.Dispatches[0].OutletID)
	assert.Equal(t, "V2", res.Dispatches[0].VehicleID)
	assert.Equal(t, "F2", res.Dispatches[1].OutletID)
	assert.Equal(t, "V1", res.Dispatches[1].VehicleID)
	for _, d := range res.Dispatches {
		assert.Equal(t, "1", d.DepotID)
	}
}

func TestOutletEngineServesMostUrgentFirst(t *testing.T) {
	n := buildNetwork(t, &models.Tables{
		Depots: []models.DepotRow{{ID: "1", StorageCapacity: 50, InitialStock: 10}},
		Outlets: []models.OutletRow{
			{ID: "Calm", DepotRef: "1", MonthlyDemand: 30, MaxCapacity: 20, LeadTime: ptr(2.0), InitialStock: 2},
			{ID: "Urgent", DepotRef: "1", MonthlyDemand: 300, MaxCapacity: 40, LeadTime: ptr(3.0)},
		},
	}, settings(1, 2, 2, 10))

	res := NewOutletEngine(n).Run("r1")

	require.Len(t, res.Dispatches, 1)
	assert.Equal(t, "Urgent", res.Dispatches[0].OutletID)
	assert.InDelta(t, 10, res.Dispatches[0].Quantity, models.Epsilon)
}

func TestOutletEngineSkipsOutletsAboveThreshold(t *testing.T) {
	n := buildNetwork(t, &models.Tables{
		Depots:  []models.DepotRow{{ID: "1", StorageCapacity: 50, InitialStock: 50}},
		Outlets: []models.OutletRow{{ID: "F1", DepotRef: "1", MonthlyDemand: 30, MaxCapacity: 20, LeadTime: ptr(2.0), InitialStock: 20}},
	}, settings(2, 1, 1, 10))

	res := NewOutletEngine(n).Run("r1")

	assert.Empty(t, res.Dispatches)
	assert.InDelta(t, 18, res.OutletStock["F1"], models.Epsilon)
}

func TestOutletEngineTripBound(t *testing.T) {
	var outlets []models.OutletRow
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		outlets = append(outlets, models.OutletRow{ID: id, DepotRef: "1", MonthlyDemand: 300, MaxCapacity: 30, LeadTime: ptr(2.0)})
	}
	n := buildNetwork(t, &models.Tables{
		Depots:  []models.DepotRow{{ID: "1", StorageCapacity: 500, InitialStock: 500}},
		Outlets: outlets,
	}, settings(4, 2, 2, 10))

	res := NewOutletEngine(n).Run("r1")

	type key struct {
		day     int32
		vehicle string
	}
	trips := map[key]int{}
	for _, d := range res.Dispatches {
		trips[key{d.Day, d.VehicleID}]++
	}
	require.NotEmpty(t, trips)
	for k, count := range trips {
		assert.LessOrEqual(t, count, 2, "day %d vehicle %s", k.day, k.vehicle)
	}
	assert.Len(t, res.Dispatches, 4*4)
}

func tableRequirement(t *testing.T, n *network.Network, rows ...models.RequirementRow) *Requirement {
	t.Helper()
	req, err := TableRequirement{Rows: rows}.Requirement(n, nil)
	require.NoError(t, err)
	return req
}

func singleDepot(t *testing.T, capacity float64, s models.Settings) *network.Network {
	return buildNetwork(t, &models.Tables{
		Depots: []models.DepotRow{{ID: "A", Name: "Alpha", StorageCapacity: capacity}},
	}, s)
}

func TestPrestockMinLeadDays(t *testing.T) {
	n := singleDepot(t, 30, settings(3, 1, 1, 10))
	req := tableRequirement(t, n,
		models.RequirementRow{DepotRef: "Alpha", Day: 1, Quantity: 15},
		models.RequirementRow{DepotRef: "A", Day: 2, Quantity: 15},
	)
	engine := NewPrestockEngine(n, req)

	var attempts []int
	engine.OnAttempt = func(lead int, _ bool) { attempts = append(attempts, lead) }

	lead, err := engine.MinLeadDays()
	require.NoError(t, err)
	assert.Equal(t, 2, lead)
	assert.Equal(t, []int{0, 1, 2}, attempts)

	dispatches, stock, err := engine.Materialize("r1", lead)
	require.NoError(t, err)
	assert.Equal(t, []models.DepotDispatch{
		{RunID: "r1", Day: -1, VehicleID: "CG-V1", DepotID: "A", Quantity: 10},
		{RunID: "r1", Day: 0, VehicleID: "CG-V1", DepotID: "A", Quantity: 10},
		{RunID: "r1", Day: 2, VehicleID: "CG-V1", DepotID: "A", Quantity: 10},
	}, dispatches)
	assert.InDelta(t, 0, stock["A"], models.Epsilon)
}

func TestPrestockCanMeetIsMonotonic(t *testing.T) {
	n := singleDepot(t, 30, settings(3, 1, 1, 10))
	req := tableRequirement(t, n,
		models.RequirementRow{DepotRef: "A", Day: 1, Quantity: 15},
		models.RequirementRow{DepotRef: "A", Day: 2, Quantity: 15},
	)
	engine := NewPrestockEngine(n, req)

	assert.False(t, engine.CanMeet(0))
	assert.False(t, engine.CanMeet(1))
	for lead := 2; lead <= 6; lead++ {
		assert.True(t, engine.CanMeet(lead), "lead %d", lead)
	}
}

func TestPrestockRoundRobin(t *testing.T) {
	n := buildNetwork(t, &models.Tables{
		Depots: []models.DepotRow{
			{ID: "A", StorageCapacity: 20},
			{ID: "B", StorageCapacity: 20},
		},
	}, settings(1, 2, 1, 10))
	req := tableRequirement(t, n,
		models.RequirementRow{DepotRef: "A", Day: 1, Quantity: 20},
		models.RequirementRow{DepotRef: "B", Day: 1, Quantity: 20},
	)
	engine := NewPrestockEngine(n, req)

	lead, err := engine.MinLeadDays()
	require.NoError(t, err)
	assert.Equal(t, 1, lead)

	dispatches, _, err := engine.Materialize("r1", lead)
	require.NoError(t, err)
	assert.Equal(t, []models.DepotDispatch{
		{RunID: "r1", Day: 0, VehicleID: "CG-V1", DepotID: "A", Quantity: 10},
		{RunID: "r1", Day: 0, VehicleID: "CG-V2", DepotID: "B", Quantity: 10},
		{RunID: "r1", Day: 1, VehicleID: "CG-V1", DepotID: "A", Quantity: 10},
		{RunID: "r1", Day: 1, VehicleID: "CG-V2", DepotID: "B", Quantity: 10},
	}, dispatches)
}

func TestPrestockInfeasible(t *testing.T) {
	t.Run("lead bound too small", func(t *testing.T) {
		s := settings(3, 1, 1, 10)
		s.MaxPreDays = 1
		n := singleDepot(t, 30, s)
		req := tableRequirement(t, n,
			models.RequirementRow{DepotRef: "A", Day: 1, Quantity: 15},
			models.RequirementRow{DepotRef: "A", Day: 2, Quantity: 15},
		)

		_, err := NewPrestockEngine(n, req).MinLeadDays()
		assert.ErrorIs(t, err, models.ErrInfeasible)
	})

	t.Run("daily requirement above storage", func(t *testing.T) {
		n := singleDepot(t, 12, settings(2, 3, 1, 10))
		req := tableRequirement(t, n, models.RequirementRow{DepotRef: "A", Day: 2, Quantity: 15})
		engine := NewPrestockEngine(n, req)

		_, err := engine.MinLeadDays()
		assert.ErrorIs(t, err, models.ErrInfeasible)
		_, _, err = engine.Materialize("r1", 5)
		assert.ErrorIs(t, err, models.ErrInfeasible)
	})

	t.Run("day one requirement above the fleet without lead days", func(t *testing.T) {
		s := settings(1, 2, 1, 10)
		s.MaxPreDays = 0
		n := singleDepot(t, 100, s)
		req := tableRequirement(t, n, models.RequirementRow{DepotRef: "A", Day: 1, Quantity: 25})
		engine := NewPrestockEngine(n, req)

		_, err := engine.MinLeadDays()
		assert.ErrorIs(t, err, models.ErrInfeasible)
		assert.True(t, engine.CanMeet(1))
	})
}

func TestPrestockLeavesLaterDaysToTheirOwnTrips(t *testing.T) {
	n := singleDepot(t, 100, settings(2, 2, 1, 10))
	req := tableRequirement(t, n,
		models.RequirementRow{DepotRef: "A", Day: 1, Quantity: 10},
		models.RequirementRow{DepotRef: "A", Day: 2, Quantity: 5},
	)
	engine := NewPrestockEngine(n, req)

	lead, err := engine.MinLeadDays()
	require.NoError(t, err)
	assert.Equal(t, 0, lead)

	dispatches, stock, err := engine.Materialize("r1", lead)
	require.NoError(t, err)
	assert.Equal(t, []models.DepotDispatch{
		{RunID: "r1", Day: 1, VehicleID: "CG-V1", DepotID: "A", Quantity: 10},
		{RunID: "r1", Day: 2, VehicleID: "CG-V1", DepotID: "A", Quantity: 5},
	}, dispatches)
	assert.InDelta(t, 0, stock["A"], models.Epsilon)
}

func TestPrestockNothingRequired(t *testing.T) {
	n := singleDepot(t, 10, settings(4, 1, 1, 10))
	engine := NewPrestockEngine(n, NewRequirement(4))

	lead, err := engine.MinLeadDays()
	require.NoError(t, err)
	assert.Equal(t, 0, lead)

	dispatches, _, err := engine.Materialize("r1", lead)
	require.NoError(t, err)
	assert.Empty(t, dispatches)
}
