package models

// Outlet is a retail node (FPS) replenished from exactly one depot.
type Outlet struct {
	ID               string
	DepotID          string
	MonthlyDemand    float64
	DailyDemand      float64
	MaxCapacity      float64
	LeadTime         float64
	ReorderThreshold float64
	InitialStock     float64
}

// NewOutlet derives the daily demand and reorder threshold from the monthly figure.
func NewOutlet(id, depotID string, monthlyDemand, maxCapacity, leadTime, initialStock float64) Outlet {
	daily := monthlyDemand / DaysPerMonth
	return Outlet{
		ID:               id,
		DepotID:          depotID,
		MonthlyDemand:    monthlyDemand,
		DailyDemand:      daily,
		MaxCapacity:      maxCapacity,
		LeadTime:         leadTime,
		ReorderThreshold: daily * leadTime,
		InitialStock:     initialStock,
	}
}

// Urgency approximates days until stockout; larger is more urgent.
func (o Outlet) Urgency(stock float64) float64 {
	if o.DailyDemand == 0 {
		return 0
	}
	return (o.ReorderThreshold - stock) / o.DailyDemand
}
