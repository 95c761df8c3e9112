package models

import "time"

// Run identifies one simulation and summarises what it produced.
type Run struct {
	ID               string    `json:"runId"`
	StartedAt        time.Time `json:"startedAt"`
	Horizon          int       `json:"horizonDays"`
	LeadDays         int       `json:"leadDays"`
	RequirementFrom  string    `json:"requirementSource"`
	DepotDispatches  int       `json:"depotDispatches"`
	OutletDispatches int       `json:"outletDispatches"`
	Snapshots        int       `json:"snapshots"`
}

// Result holds the three output ledgers of a run.
type Result struct {
	Run              Run
	DepotDispatches  []DepotDispatch
	OutletDispatches []OutletDispatch
	Snapshots        []StockSnapshot
}
