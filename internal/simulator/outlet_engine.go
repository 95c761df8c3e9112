package simulator

import (
	"math"
	"sort"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/network"
)

// OutletEngine runs the depot-to-outlet replenishment phase.
type OutletEngine struct {
	net *network.Network

	// OnDay is called after each simulated day, if set.
	OnDay func(day int)
}

// OutletResult is the output of the replenishment phase.
type OutletResult struct {
	Dispatches  []models.OutletDispatch
	Snapshots   []models.StockSnapshot
	DepotStock  map[string]float64
	OutletStock map[string]float64
}

type replenishmentNeed struct {
	outlet  models.Outlet
	need    float64
	urgency float64
}

func NewOutletEngine(n *network.Network) *OutletEngine {
	return &OutletEngine{net: n}
}

// Run simulates days 1..Distribution_Days and returns the dispatch ledger and
// end-of-day snapshots.
func (e *OutletEngine) Run(runID string) OutletResult {
	depotIDs := make([]string, 0, len(e.net.Depots))
	initialDepot := make(map[string]float64, len(e.net.Depots))
	for _, d := range e.net.Depots {
		depotIDs = append(depotIDs, d.ID)
		initialDepot[d.ID] = d.InitialStock
	}
	outletIDs := make([]string, 0, len(e.net.Outlets))
	initialOutlet := make(map[string]float64, len(e.net.Outlets))
	for _, o := range e.net.Outlets {
		outletIDs = append(outletIDs, o.ID)
		initialOutlet[o.ID] = o.InitialStock
	}

	depots := newStockBook(depotIDs, func(id string) float64 { return initialDepot[id] })
	outlets := newStockBook(outletIDs, func(id string) float64 { return initialOutlet[id] })

	var result OutletResult
	for day := 1; day <= e.net.Settings.DistributionDays; day++ {
		for _, o := range e.net.Outlets {
			outlets.remove(o.ID, o.DailyDemand)
		}

		trips := make(map[string]int, len(e.net.Vehicles))
		for _, need := range e.needs(depots, outlets) {
			vehicle, ok := e.selectVehicle(need.outlet.DepotID, trips)
			if !ok {
				continue
			}

			qty := math.Min(vehicle.Capacity, math.Min(need.need, depots.level(need.outlet.DepotID)))
			if qty <= models.Epsilon {
				continue
			}

			result.Dispatches = append(result.Dispatches, models.OutletDispatch{
				RunID:     runID,
				Day:       int32(day),
				VehicleID: vehicle.ID,
				DepotID:   need.outlet.DepotID,
				OutletID:  need.outlet.ID,
				Quantity:  qty,
			})
			depots.remove(need.outlet.DepotID, qty)
			outlets.add(need.outlet.ID, qty)
			trips[vehicle.ID]++
		}

		for _, id := range depotIDs {
			result.Snapshots = append(result.Snapshots, snapshot(runID, day, models.EntityDepot, id, depots.level(id)))
		}
		for _, id := range outletIDs {
			result.Snapshots = append(result.Snapshots, snapshot(runID, day, models.EntityOutlet, id, outlets.level(id)))
		}

		if e.OnDay != nil {
			e.OnDay(day)
		}
	}

	result.DepotStock = depots.snapshot()
	result.OutletStock = outlets.snapshot()
	return result
}

// needs lists outlets at or below their reorder threshold, most urgent first.
func (e *OutletEngine) needs(depots, outlets *stockBook) []replenishmentNeed {
	var needs []replenishmentNeed
	for _, o := range e.net.Outlets {
		current := outlets.level(o.ID)
		if current > o.ReorderThreshold+models.Epsilon {
			continue
		}
		need := math.Min(o.MaxCapacity-current, depots.level(o.DepotID))
		if need <= 0 {
			continue
		}
		needs = append(needs, replenishmentNeed{outlet: o, need: need, urgency: o.Urgency(current)})
	}

	sort.SliceStable(needs, func(i, j int) bool {
		return needs[i].urgency > needs[j].urgency
	})
	return needs
}

// selectVehicle picks the first shared vehicle with trips left at depotID, falling
// back to the first dedicated one.
func (e *OutletEngine) selectVehicle(depotID string, trips map[string]int) (models.Vehicle, bool) {
	var fallback *models.Vehicle
	for i := range e.net.Vehicles {
		v := &e.net.Vehicles[i]
		if !v.Serves(depotID) || trips[v.ID] >= e.net.Settings.MaxTripsPerVehicle {
			continue
		}
		if v.Shared() {
			return *v, true
		}
		if fallback == nil {
			fallback = v
		}
	}
	if fallback == nil {
		return models.Vehicle{}, false
	}
	return *fallback, true
}

func snapshot(runID string, day int, kind, id string, level float64) models.StockSnapshot {
	return models.StockSnapshot{
		RunID:      runID,
		Day:        int32(day),
		EntityType: kind,
		EntityID:   id,
		Level:      level,
	}
}
