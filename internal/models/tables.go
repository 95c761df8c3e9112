package models

// The *Row types carry input tables as read, before depot references are resolved.

type DepotRow struct {
	ID              string
	Name            string
	StorageCapacity float64
	InitialStock    float64
}

type OutletRow struct {
	ID            string
	DepotRef      string
	MonthlyDemand float64
	MaxCapacity   float64
	LeadTime      *float64
	InitialStock  float64
}

type VehicleRow struct {
	ID           string
	Capacity     *float64
	MappedDepots *string
}

type RequirementRow struct {
	DepotRef string
	Day      int
	Quantity float64
}

type CapacityRow struct {
	DepotRef string
	Capacity float64
}

// Tables is one scenario's input. A nil optional table means the table was absent.
type Tables struct {
	Settings     map[string]string
	Depots       []DepotRow
	Outlets      []OutletRow
	Vehicles     []VehicleRow
	Requirements []RequirementRow
	Capacities   []CapacityRow
}
