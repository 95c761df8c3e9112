package simulator

import (
	"fmt"
	"math"
	"sort"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/network"
)

// PrestockEngine plans central-source-to-depot loads, including the lead days
// before day 1 needed to pre-stock depots.
type PrestockEngine struct {
	depots      []string
	capacity    map[string]float64
	req         *Requirement
	days        int
	trips       int
	load        float64
	maxLeadDays int

	// OnAttempt is called after each lead-day count is evaluated, if set.
	OnAttempt func(leadDays int, feasible bool)
}

// loadFunc receives one vehicle load; slot is the vehicle's position in the day's pool.
type loadFunc func(day, slot int, depotID string, qty float64)

func NewPrestockEngine(n *network.Network, req *Requirement) *PrestockEngine {
	depots := make([]string, 0, len(n.Depots))
	for _, d := range n.Depots {
		depots = append(depots, d.ID)
	}
	return &PrestockEngine{
		depots:      depots,
		capacity:    n.Capacity,
		req:         req,
		days:        n.Settings.DistributionDays,
		trips:       n.Settings.VehiclesTotal,
		load:        n.Settings.VehicleCapacity,
		maxLeadDays: n.Settings.MaxPreDays,
	}
}

// CanMeet reports whether starting leadDays before day 1 covers every day's requirement.
func (e *PrestockEngine) CanMeet(leadDays int) bool {
	_, ok := e.simulate(leadDays, nil)
	return ok
}

// MinLeadDays returns the smallest feasible lead-day count up to the configured bound.
func (e *PrestockEngine) MinLeadDays() (int, error) {
	for lead := 0; lead <= e.maxLeadDays; lead++ {
		ok := e.CanMeet(lead)
		if e.OnAttempt != nil {
			e.OnAttempt(lead, ok)
		}
		if ok {
			return lead, nil
		}
	}
	return 0, fmt.Errorf("%w: no schedule with 0..%d lead days, %d vehicles of %g t",
		models.ErrInfeasible, e.maxLeadDays, e.trips, e.load)
}

// Materialize emits one dispatch record per load for the given lead-day count and
// returns the depot stock left after the horizon.
func (e *PrestockEngine) Materialize(runID string, leadDays int) ([]models.DepotDispatch, map[string]float64, error) {
	var records []models.DepotDispatch
	stock, ok := e.simulate(leadDays, func(day, slot int, depotID string, qty float64) {
		records = append(records, models.DepotDispatch{
			RunID:     runID,
			Day:       int32(day),
			VehicleID: fmt.Sprintf("CG-V%d", slot+1),
			DepotID:   depotID,
			Quantity:  qty,
		})
	})
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d lead days", models.ErrInfeasible, leadDays)
	}
	return records, stock, nil
}

func (e *PrestockEngine) room(stock *stockBook, id string) float64 {
	return math.Max(0, e.capacity[id]-stock.level(id))
}

// simulate steps days 1-leadDays..N from empty depots. It stops at the first
// depot that cannot cover its requirement.
func (e *PrestockEngine) simulate(leadDays int, onLoad loadFunc) (map[string]float64, bool) {
	stock := newStockBook(e.depots, nil)
	deliver := func(day int, slot *int, id string, qty float64) {
		if onLoad != nil {
			onLoad(day, *slot, id, qty)
		}
		stock.add(id, qty)
		*slot++
	}

	for day := 1 - leadDays; day <= e.days; day++ {
		slot := 0

		if day >= 1 {
			for _, id := range e.byDeficit(stock, day) {
				required := e.req.At(id, day)
				remaining := math.Min(math.Max(0, required-stock.level(id)), e.room(stock, id))
				for slot < e.trips && remaining > models.Epsilon {
					qty := math.Min(remaining, e.load)
					deliver(day, &slot, id, qty)
					remaining -= qty
				}
				if stock.level(id)+models.Epsilon < required {
					return nil, false
				}
			}
		}

		if slot < e.trips {
			e.prestock(stock, day, &slot, deliver)
		}

		if day >= 1 {
			for _, id := range e.depots {
				stock.remove(id, e.req.At(id, day))
			}
		}
	}
	return stock.snapshot(), true
}

// prestock hands out the day's remaining trips round-robin, one load at a time, to
// depots with unmet requirement after today and free room. Lead days count the
// whole horizon.
func (e *PrestockEngine) prestock(stock *stockBook, day int, slot *int, deliver func(int, *int, string, float64)) {
	future := make(map[string]float64, len(e.depots))
	var candidates []string
	for _, id := range e.depots {
		future[id] = math.Max(0, e.req.From(id, day+1)-stock.level(id))
		if future[id] > models.Epsilon && e.room(stock, id) > models.Epsilon {
			candidates = append(candidates, id)
		}
	}

	idx := 0
	for *slot < e.trips && len(candidates) > 0 {
		idx %= len(candidates)
		id := candidates[idx]

		qty := math.Min(e.load, math.Min(future[id], e.room(stock, id)))
		if qty > models.Epsilon {
			deliver(day, slot, id, qty)
			future[id] -= qty
		}

		if future[id] <= models.Epsilon || e.room(stock, id) <= models.Epsilon {
			candidates = append(candidates[:idx], candidates[idx+1:]...)
		} else {
			idx++
		}
	}
}

// byDeficit orders depots by descending (requirement - stock) for day.
func (e *PrestockEngine) byDeficit(stock *stockBook, day int) []string {
	order := append([]string(nil), e.depots...)
	sort.SliceStable(order, func(i, j int) bool {
		return e.req.At(order[i], day)-stock.level(order[i]) > e.req.At(order[j], day)-stock.level(order[j])
	})
	return order
}
