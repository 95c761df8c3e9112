package network

import (
	"fmt"
	"log"
	"strings"

	"github.com/chrisdamba/distsim/internal/models"
)

// Network is the resolved, immutable reference data of one run.
type Network struct {
	Settings models.Settings
	Depots   []models.Depot
	Outlets  []models.Outlet
	Vehicles []models.Vehicle
	// Capacity is the storage capacity the pre-stocking phase plans against.
	Capacity       map[string]float64
	SyntheticFleet bool
	Resolver       *Resolver
}

// Build resolves every depot reference in tables and derives outlet thresholds.
func Build(tables *models.Tables, settings models.Settings) (*Network, error) {
	n := &Network{Settings: settings}

	seen := make(map[string]bool, len(tables.Depots))
	for _, row := range tables.Depots {
		if seen[row.ID] {
			return nil, fmt.Errorf("depot %s: %w", row.ID, models.ErrDuplicateID)
		}
		seen[row.ID] = true
		n.Depots = append(n.Depots, models.Depot{
			ID:              row.ID,
			Name:            strings.TrimSpace(row.Name),
			StorageCapacity: row.StorageCapacity,
			InitialStock:    row.InitialStock,
		})
	}
	n.Resolver = NewResolver(n.Depots)

	if err := n.buildOutlets(tables.Outlets); err != nil {
		return nil, err
	}
	if err := n.buildVehicles(tables.Vehicles); err != nil {
		return nil, err
	}
	if err := n.buildCapacity(tables.Capacities); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Network) buildOutlets(rows []models.OutletRow) error {
	seen := make(map[string]bool, len(rows))
	defaulted := 0
	for _, row := range rows {
		if seen[row.ID] {
			return fmt.Errorf("outlet %s: %w", row.ID, models.ErrDuplicateID)
		}
		seen[row.ID] = true

		depotID, err := n.Resolver.MustResolve(row.DepotRef, "outlet "+row.ID)
		if err != nil {
			return err
		}

		var leadTime float64
		switch {
		case row.LeadTime != nil:
			leadTime = *row.LeadTime
		case n.Settings.HasDefaultLeadTime:
			leadTime = n.Settings.DefaultLeadTime
			defaulted++
		default:
			return fmt.Errorf("outlet %s has no lead time: %w: %s", row.ID, models.ErrMissingSetting, models.SettingDefaultLeadTime)
		}

		n.Outlets = append(n.Outlets, models.NewOutlet(row.ID, depotID, row.MonthlyDemand, row.MaxCapacity, leadTime, row.InitialStock))
	}
	if defaulted > 0 {
		log.Printf("%d outlet(s) without a lead time use the default of %g days", defaulted, n.Settings.DefaultLeadTime)
	}
	return nil
}

func (n *Network) buildVehicles(rows []models.VehicleRow) error {
	if rows == nil {
		log.Printf("No vehicle table, using %d identical vehicles serving every depot", n.Settings.VehiclesTotal)
		n.SyntheticFleet = true
		for i := 1; i <= n.Settings.VehiclesTotal; i++ {
			n.Vehicles = append(n.Vehicles, models.Vehicle{
				ID:           fmt.Sprintf("V%d", i),
				Capacity:     n.Settings.VehicleCapacity,
				MappedDepots: n.Resolver.All(),
			})
		}
		return nil
	}

	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if seen[row.ID] {
			return fmt.Errorf("vehicle %s: %w", row.ID, models.ErrDuplicateID)
		}
		seen[row.ID] = true

		capacity := n.Settings.VehicleCapacity
		if row.Capacity != nil {
			capacity = *row.Capacity
		}

		mapped := n.Resolver.All()
		if row.MappedDepots != nil {
			ids, err := n.Resolver.ParseMapping(*row.MappedDepots, "vehicle "+row.ID)
			if err != nil {
				return err
			}
			mapped = ids
		} else if len(mapped) == 0 {
			return fmt.Errorf("vehicle %s: %w", row.ID, models.ErrEmptyMapping)
		}

		n.Vehicles = append(n.Vehicles, models.Vehicle{ID: row.ID, Capacity: capacity, MappedDepots: mapped})
	}
	return nil
}

func (n *Network) buildCapacity(rows []models.CapacityRow) error {
	n.Capacity = make(map[string]float64, len(n.Depots))
	for _, d := range n.Depots {
		n.Capacity[d.ID] = d.StorageCapacity
	}
	if rows == nil {
		log.Printf("No depot capacity table, using depot storage capacity")
		return nil
	}

	listed := make(map[string]bool, len(rows))
	for _, row := range rows {
		id, err := n.Resolver.MustResolve(row.DepotRef, "depot capacity")
		if err != nil {
			return err
		}
		n.Capacity[id] = row.Capacity
		listed[id] = true
	}
	for _, d := range n.Depots {
		if !listed[d.ID] {
			log.Printf("Depot %s missing from capacity table, using storage capacity %g", d.ID, d.StorageCapacity)
		}
	}
	return nil
}

// Depot returns the depot with the given id.
func (n *Network) Depot(id string) (models.Depot, bool) {
	for _, d := range n.Depots {
		if d.ID == id {
			return d, true
		}
	}
	return models.Depot{}, false
}
