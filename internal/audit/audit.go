// Package audit replays a finished run against its network and reports every
// ledger entry that breaks a stock, capacity, trip or mapping rule.
package audit

import (
	"fmt"
	"math"
	"sort"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/network"
	"github.com/shopspring/decimal"
)

const (
	CheckNonNegative  = "non-negative"
	CheckCapacity     = "capacity"
	CheckTrips        = "trips"
	CheckMapping      = "mapping"
	CheckConservation = "conservation"
	CheckCoverage     = "coverage"
	CheckHorizon      = "horizon"
)

// RequirementLookup returns the depot requirement of a day in 1..N.
type RequirementLookup interface {
	At(depotID string, day int) float64
}

type Violation struct {
	Check    string
	Day      int
	EntityID string
	Detail   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: day %d %s: %s", v.Check, v.Day, v.EntityID, v.Detail)
}

// Report holds the violations of one run and its exact shipped totals.
type Report struct {
	RunID       string
	Violations  []Violation
	OutletTons  decimal.Decimal
	DepotTons   decimal.Decimal
	Requirement decimal.Decimal
}

func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Err is nil for a clean report and wraps ErrAuditFailed otherwise.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%w: run %s has %d violation(s), first: %s",
		models.ErrAuditFailed, r.RunID, len(r.Violations), r.Violations[0])
}

func (r *Report) add(check string, day int, id, format string, args ...interface{}) {
	r.Violations = append(r.Violations, Violation{Check: check, Day: day, EntityID: id, Detail: fmt.Sprintf(format, args...)})
}

type auditor struct {
	net    *network.Network
	req    RequirementLookup
	res    *models.Result
	report *Report
}

// Verify checks both ledgers of res. req must be the requirement the pre-stocking
// phase planned against.
func Verify(n *network.Network, req RequirementLookup, res *models.Result) *Report {
	a := &auditor{
		net: n,
		req: req,
		res: res,
		report: &Report{
			RunID:       res.Run.ID,
			OutletTons:  decimal.Zero,
			DepotTons:   decimal.Zero,
			Requirement: decimal.Zero,
		},
	}
	a.checkOutletLedger()
	a.checkSnapshots()
	a.replayOutlets()
	a.checkDepotConservation()
	a.replayDepots()
	return a.report
}

func (a *auditor) checkOutletLedger() {
	outlets := make(map[string]models.Outlet, len(a.net.Outlets))
	for _, o := range a.net.Outlets {
		outlets[o.ID] = o
	}
	vehicles := make(map[string]models.Vehicle, len(a.net.Vehicles))
	for _, v := range a.net.Vehicles {
		vehicles[v.ID] = v
	}

	type dayVehicle struct {
		day     int32
		vehicle string
	}
	trips := make(map[dayVehicle]int)

	for _, d := range a.res.OutletDispatches {
		day := int(d.Day)
		a.report.OutletTons = a.report.OutletTons.Add(decimal.NewFromFloat(d.Quantity))

		if d.Quantity <= models.Epsilon {
			a.report.add(CheckNonNegative, day, d.OutletID, "dispatch of %g t", d.Quantity)
		}
		if day < 1 || day > a.net.Settings.DistributionDays {
			a.report.add(CheckHorizon, day, d.OutletID, "outside days 1..%d", a.net.Settings.DistributionDays)
		}

		v, ok := vehicles[d.VehicleID]
		switch {
		case !ok:
			a.report.add(CheckMapping, day, d.VehicleID, "unknown vehicle")
		case !v.Serves(d.DepotID):
			a.report.add(CheckMapping, day, d.VehicleID, "not mapped to depot %s", d.DepotID)
		case d.Quantity > v.Capacity+models.Epsilon:
			a.report.add(CheckCapacity, day, d.VehicleID, "load %g t over vehicle capacity %g t", d.Quantity, v.Capacity)
		}
		if o, ok := outlets[d.OutletID]; !ok || o.DepotID != d.DepotID {
			a.report.add(CheckMapping, day, d.OutletID, "not linked to depot %s", d.DepotID)
		}

		key := dayVehicle{d.Day, d.VehicleID}
		trips[key]++
		if trips[key] == a.net.Settings.MaxTripsPerVehicle+1 {
			a.report.add(CheckTrips, day, d.VehicleID, "more than %d trips", a.net.Settings.MaxTripsPerVehicle)
		}
	}
}

// checkSnapshots bounds every end-of-day level by zero and by the entity's ceiling.
func (a *auditor) checkSnapshots() {
	ceiling := make(map[string]float64, len(a.net.Depots)+len(a.net.Outlets))
	for _, d := range a.net.Depots {
		ceiling[models.EntityDepot+d.ID] = d.InitialStock
	}
	for _, o := range a.net.Outlets {
		ceiling[models.EntityOutlet+o.ID] = math.Max(o.MaxCapacity, o.InitialStock)
	}

	for _, s := range a.res.Snapshots {
		day := int(s.Day)
		if s.Level < -models.Epsilon {
			a.report.add(CheckNonNegative, day, s.EntityID, "%s stock %g t", s.EntityType, s.Level)
		}
		limit, ok := ceiling[s.EntityType+s.EntityID]
		if !ok {
			a.report.add(CheckMapping, day, s.EntityID, "unknown %s", s.EntityType)
			continue
		}
		if s.Level > limit+models.Epsilon {
			a.report.add(CheckCapacity, day, s.EntityID, "%s stock %g t over %g t", s.EntityType, s.Level, limit)
		}
	}
}

// replayOutlets recomputes each outlet level from the previous snapshot, the daily
// consumption and the day's deliveries.
func (a *auditor) replayOutlets() {
	inflow := make(map[string]map[int]float64)
	for _, d := range a.res.OutletDispatches {
		if inflow[d.OutletID] == nil {
			inflow[d.OutletID] = make(map[int]float64)
		}
		inflow[d.OutletID][int(d.Day)] += d.Quantity
	}
	levels := a.levels(models.EntityOutlet)

	for _, o := range a.net.Outlets {
		prev := o.InitialStock
		for _, day := range sortedDays(levels[o.ID]) {
			expected := math.Max(0, prev-o.DailyDemand) + inflow[o.ID][day]
			got := levels[o.ID][day]
			if math.Abs(expected-got) > models.Epsilon {
				a.report.add(CheckConservation, day, o.ID, "stock %g t, deliveries imply %g t", got, expected)
			}
			prev = got
		}
	}
}

// checkDepotConservation matches initial stock minus outflow against the last
// depot snapshot.
func (a *auditor) checkDepotConservation() {
	outflow := make(map[string]decimal.Decimal, len(a.net.Depots))
	for _, d := range a.res.OutletDispatches {
		outflow[d.DepotID] = outflow[d.DepotID].Add(decimal.NewFromFloat(d.Quantity))
	}
	levels := a.levels(models.EntityDepot)
	tolerance := decimal.NewFromFloat(models.Epsilon)

	for _, d := range a.net.Depots {
		days := sortedDays(levels[d.ID])
		if len(days) == 0 {
			continue
		}
		last := days[len(days)-1]
		expected := decimal.NewFromFloat(d.InitialStock).Sub(outflow[d.ID])
		got := decimal.NewFromFloat(levels[d.ID][last])
		if expected.Sub(got).Abs().GreaterThan(tolerance) {
			a.report.add(CheckConservation, last, d.ID, "final stock %s t, initial minus outflow is %s t", got, expected)
		}
	}
}

// replayDepots steps the central-source ledger from empty depots and checks room,
// daily coverage and the per-day vehicle pool.
func (a *auditor) replayDepots() {
	horizon := a.net.Settings.DistributionDays
	first := 1 - a.res.Run.LeadDays

	loads := make(map[int][]models.DepotDispatch)
	for _, d := range a.res.DepotDispatches {
		day := int(d.Day)
		a.report.DepotTons = a.report.DepotTons.Add(decimal.NewFromFloat(d.Quantity))
		if day < first || day > horizon {
			a.report.add(CheckHorizon, day, d.DepotID, "outside days %d..%d", first, horizon)
			continue
		}
		if _, ok := a.net.Capacity[d.DepotID]; !ok {
			a.report.add(CheckMapping, day, d.DepotID, "unknown depot")
			continue
		}
		if d.Quantity <= models.Epsilon || d.Quantity > a.net.Settings.VehicleCapacity+models.Epsilon {
			a.report.add(CheckCapacity, day, d.VehicleID, "load of %g t", d.Quantity)
		}
		loads[day] = append(loads[day], d)
	}

	stock := make(map[string]float64, len(a.net.Depots))
	for day := first; day <= horizon; day++ {
		if n := len(loads[day]); n > a.net.Settings.VehiclesTotal {
			a.report.add(CheckTrips, day, "", "%d loads with %d vehicles", n, a.net.Settings.VehiclesTotal)
		}
		for _, d := range loads[day] {
			stock[d.DepotID] += d.Quantity
		}
		for _, d := range a.net.Depots {
			limit := a.net.Capacity[d.ID]
			if stock[d.ID] > limit+models.Epsilon {
				a.report.add(CheckCapacity, day, d.ID, "pre-stocked %g t over capacity %g t", stock[d.ID], limit)
			}
			if day < 1 {
				continue
			}
			required := a.req.At(d.ID, day)
			a.report.Requirement = a.report.Requirement.Add(decimal.NewFromFloat(required))
			if stock[d.ID]+models.Epsilon < required {
				a.report.add(CheckCoverage, day, d.ID, "stock %g t below requirement %g t", stock[d.ID], required)
			}
			stock[d.ID] = math.Max(0, stock[d.ID]-required)
		}
	}
}

func (a *auditor) levels(kind string) map[string]map[int]float64 {
	out := make(map[string]map[int]float64)
	for _, s := range a.res.Snapshots {
		if s.EntityType != kind {
			continue
		}
		if out[s.EntityID] == nil {
			out[s.EntityID] = make(map[int]float64)
		}
		out[s.EntityID][int(s.Day)] = s.Level
	}
	return out
}

func sortedDays(byDay map[int]float64) []int {
	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}
