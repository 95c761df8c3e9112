package models

// Depot is an intermediate storage node (LG) fed by the central source.
type Depot struct {
	ID              string
	Name            string
	StorageCapacity float64
	InitialStock    float64
}
