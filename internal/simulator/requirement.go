package simulator

import (
	"log"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/network"
)

// Requirement is the per-depot daily requirement over days 1..Days.
type Requirement struct {
	Days  int
	daily map[string][]float64
}

func NewRequirement(days int) *Requirement {
	return &Requirement{Days: days, daily: make(map[string][]float64)}
}

// Add accumulates qty for depotID on day. Days outside 1..Days are rejected.
func (r *Requirement) Add(depotID string, day int, qty float64) bool {
	if day < 1 || day > r.Days {
		return false
	}
	row, ok := r.daily[depotID]
	if !ok {
		row = make([]float64, r.Days+1)
		r.daily[depotID] = row
	}
	row[day] += qty
	return true
}

// At returns the requirement of depotID on day, zero outside the horizon.
func (r *Requirement) At(depotID string, day int) float64 {
	row, ok := r.daily[depotID]
	if !ok || day < 1 || day > r.Days {
		return 0
	}
	return row[day]
}

// From sums the requirement of depotID over day..Days.
func (r *Requirement) From(depotID string, day int) float64 {
	if day < 1 {
		day = 1
	}
	total := 0.0
	for d := day; d <= r.Days; d++ {
		total += r.At(depotID, d)
	}
	return total
}

// RequirementSource supplies the depot requirement for the pre-stocking phase.
type RequirementSource interface {
	Name() string
	Requirement(n *network.Network, ledger []models.OutletDispatch) (*Requirement, error)
}

// TableRequirement is a directly supplied requirement table.
type TableRequirement struct {
	Rows []models.RequirementRow
}

func (TableRequirement) Name() string { return "table" }

func (t TableRequirement) Requirement(n *network.Network, _ []models.OutletDispatch) (*Requirement, error) {
	req := NewRequirement(n.Settings.DistributionDays)
	skipped := 0
	for _, row := range t.Rows {
		id, err := n.Resolver.MustResolve(row.DepotRef, "depot requirement")
		if err != nil {
			return nil, err
		}
		if !req.Add(id, row.Day, row.Quantity) {
			skipped++
		}
	}
	if skipped > 0 {
		log.Printf("Ignored %d requirement row(s) outside days 1..%d", skipped, req.Days)
	}
	return req, nil
}

// DerivedRequirement sums the replenishment ledger by depot and day.
type DerivedRequirement struct{}

func (DerivedRequirement) Name() string { return "derived" }

func (DerivedRequirement) Requirement(n *network.Network, ledger []models.OutletDispatch) (*Requirement, error) {
	req := NewRequirement(n.Settings.DistributionDays)
	for _, d := range ledger {
		req.Add(d.DepotID, int(d.Day), d.Quantity)
	}
	return req, nil
}

// SelectRequirementSource prefers a supplied table and falls back to the ledger.
func SelectRequirementSource(tables *models.Tables) RequirementSource {
	if tables.Requirements != nil {
		return TableRequirement{Rows: tables.Requirements}
	}
	log.Printf("No depot requirement table, deriving it from the outlet dispatch ledger")
	return DerivedRequirement{}
}
