package models

type Vehicle struct {
	ID           string
	Capacity     float64
	MappedDepots []string
}

// Serves reports whether the vehicle may load at the given depot.
func (v Vehicle) Serves(depotID string) bool {
	for _, id := range v.MappedDepots {
		if id == depotID {
			return true
		}
	}
	return false
}

// Shared vehicles are mapped to more than one depot.
func (v Vehicle) Shared() bool {
	return len(v.MappedDepots) > 1
}
