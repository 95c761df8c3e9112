package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/chrisdamba/distsim/internal/models"
)

// WriteTables writes tables in the layout Load reads. Nil optional tables are skipped.
func WriteTables(dir string, files models.InputFiles, tables *models.Tables) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	params := make([]string, 0, len(tables.Settings))
	for k := range tables.Settings {
		params = append(params, k)
	}
	sort.Strings(params)
	settings := [][]string{{"Parameter", "Value"}}
	for _, k := range params {
		settings = append(settings, []string{k, tables.Settings[k]})
	}
	if err := writeCSV(filepath.Join(dir, files.Settings), settings); err != nil {
		return err
	}

	depots := [][]string{{"LG_ID", "LG_Name", "Storage_Capacity_tons", "Initial_Allocation_tons"}}
	for _, d := range tables.Depots {
		depots = append(depots, []string{d.ID, d.Name, formatFloat(d.StorageCapacity), formatFloat(d.InitialStock)})
	}
	if err := writeCSV(filepath.Join(dir, files.Depots), depots); err != nil {
		return err
	}

	outlets := [][]string{{"FPS_ID", "Linked_LG_ID", "Monthly_Demand_tons", "Max_Capacity_tons", "Lead_Time_days", "Initial_Stock_tons"}}
	for _, o := range tables.Outlets {
		outlets = append(outlets, []string{o.ID, o.DepotRef, formatFloat(o.MonthlyDemand), formatFloat(o.MaxCapacity), formatOptional(o.LeadTime), formatFloat(o.InitialStock)})
	}
	if err := writeCSV(filepath.Join(dir, files.Outlets), outlets); err != nil {
		return err
	}

	if tables.Vehicles != nil {
		vehicles := [][]string{{"Vehicle_ID", "Capacity_tons", "Mapped_LG_IDs"}}
		for _, v := range tables.Vehicles {
			mapped := ""
			if v.MappedDepots != nil {
				mapped = *v.MappedDepots
			}
			vehicles = append(vehicles, []string{v.ID, formatOptional(v.Capacity), mapped})
		}
		if err := writeCSV(filepath.Join(dir, files.Vehicles), vehicles); err != nil {
			return err
		}
	}

	if tables.Requirements != nil {
		reqs := [][]string{{"LG_ID", "Day", "Daily_Requirement_tons"}}
		for _, r := range tables.Requirements {
			reqs = append(reqs, []string{r.DepotRef, strconv.Itoa(r.Day), formatFloat(r.Quantity)})
		}
		if err := writeCSV(filepath.Join(dir, files.Requirements), reqs); err != nil {
			return err
		}
	}

	if tables.Capacities != nil {
		caps := [][]string{{"LG_ID", "Capacity_tons"}}
		for _, c := range tables.Capacities {
			caps = append(caps, []string{c.DepotRef, formatFloat(c.Capacity)})
		}
		if err := writeCSV(filepath.Join(dir, files.Capacities), caps); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
