package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chrisdamba/distsim/internal/models"
)

// Loader reads scenario tables from CSV files in one directory.
type Loader struct {
	dir   string
	files models.InputFiles
}

func NewLoader(dir string, files models.InputFiles) *Loader {
	return &Loader{dir: dir, files: files}
}

// Load reads the required tables and whichever optional tables are present.
func (l *Loader) Load() (*models.Tables, error) {
	tables := &models.Tables{}
	var err error

	if tables.Settings, err = l.loadSettings(); err != nil {
		return nil, err
	}
	if tables.Depots, err = l.loadDepots(); err != nil {
		return nil, err
	}
	if tables.Outlets, err = l.loadOutlets(); err != nil {
		return nil, err
	}
	if tables.Vehicles, err = l.loadVehicles(); err != nil {
		return nil, err
	}
	if tables.Requirements, err = l.loadRequirements(); err != nil {
		return nil, err
	}
	if tables.Capacities, err = l.loadCapacities(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (l *Loader) loadSettings() (map[string]string, error) {
	t, err := l.read(l.files.Settings, true)
	if err != nil {
		return nil, err
	}
	if err := t.require("Parameter", "Value"); err != nil {
		return nil, err
	}
	settings := make(map[string]string, len(t.rows))
	for i := range t.rows {
		settings[t.get(i, "Parameter")] = t.get(i, "Value")
	}
	return settings, nil
}

func (l *Loader) loadDepots() ([]models.DepotRow, error) {
	t, err := l.read(l.files.Depots, true)
	if err != nil {
		return nil, err
	}
	if err := t.require("LG_ID", "Storage_Capacity_tons", "Initial_Allocation_tons"); err != nil {
		return nil, err
	}
	rows := make([]models.DepotRow, 0, len(t.rows))
	for i := range t.rows {
		row := models.DepotRow{ID: t.id(i, "LG_ID"), Name: t.get(i, "LG_Name")}
		if row.StorageCapacity, err = t.float(i, "Storage_Capacity_tons"); err != nil {
			return nil, err
		}
		if row.InitialStock, err = t.float(i, "Initial_Allocation_tons"); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (l *Loader) loadOutlets() ([]models.OutletRow, error) {
	t, err := l.read(l.files.Outlets, true)
	if err != nil {
		return nil, err
	}
	if err := t.require("FPS_ID", "Monthly_Demand_tons", "Max_Capacity_tons"); err != nil {
		return nil, err
	}
	depotCol := "Linked_LG_ID"
	if !t.has(depotCol) {
		depotCol = "LG_ID"
	}
	if err := t.require(depotCol); err != nil {
		return nil, err
	}

	rows := make([]models.OutletRow, 0, len(t.rows))
	for i := range t.rows {
		row := models.OutletRow{ID: t.id(i, "FPS_ID"), DepotRef: t.id(i, depotCol)}
		if row.MonthlyDemand, err = t.float(i, "Monthly_Demand_tons"); err != nil {
			return nil, err
		}
		if row.MaxCapacity, err = t.float(i, "Max_Capacity_tons"); err != nil {
			return nil, err
		}
		if row.LeadTime, err = t.optionalFloat(i, "Lead_Time_days"); err != nil {
			return nil, err
		}
		initial, err := t.optionalFloat(i, "Initial_Stock_tons")
		if err != nil {
			return nil, err
		}
		if initial != nil {
			row.InitialStock = *initial
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (l *Loader) loadVehicles() ([]models.VehicleRow, error) {
	t, err := l.read(l.files.Vehicles, false)
	if err != nil || t == nil {
		return nil, err
	}
	if err := t.require("Vehicle_ID"); err != nil {
		return nil, err
	}
	rows := make([]models.VehicleRow, 0, len(t.rows))
	for i := range t.rows {
		row := models.VehicleRow{ID: t.id(i, "Vehicle_ID")}
		if row.Capacity, err = t.optionalFloat(i, "Capacity_tons"); err != nil {
			return nil, err
		}
		if mapped := t.get(i, "Mapped_LG_IDs"); mapped != "" {
			row.MappedDepots = &mapped
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (l *Loader) loadRequirements() ([]models.RequirementRow, error) {
	t, err := l.read(l.files.Requirements, false)
	if err != nil || t == nil {
		return nil, err
	}
	if err := t.require("LG_ID", "Day", "Daily_Requirement_tons"); err != nil {
		return nil, err
	}
	rows := make([]models.RequirementRow, 0, len(t.rows))
	for i := range t.rows {
		day, err := t.wholeNumber(i, "Day")
		if err != nil {
			return nil, err
		}
		row := models.RequirementRow{DepotRef: t.id(i, "LG_ID"), Day: day}
		if row.Quantity, err = t.floatOrZero(i, "Daily_Requirement_tons"); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (l *Loader) loadCapacities() ([]models.CapacityRow, error) {
	t, err := l.read(l.files.Capacities, false)
	if err != nil || t == nil {
		return nil, err
	}
	if err := t.require("LG_ID", "Capacity_tons"); err != nil {
		return nil, err
	}
	rows := make([]models.CapacityRow, 0, len(t.rows))
	for i := range t.rows {
		row := models.CapacityRow{DepotRef: t.id(i, "LG_ID")}
		if row.Capacity, err = t.float(i, "Capacity_tons"); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// read returns nil without error when an optional file does not exist.
func (l *Loader) read(name string, required bool) (*table, error) {
	if name == "" {
		if required {
			return nil, fmt.Errorf("no file name configured for a required table")
		}
		return nil, nil
	}
	path := filepath.Join(l.dir, name)
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		log.Printf("Optional table %s not found, falling back", name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	t, err := parseTable(name, file)
	if err != nil {
		return nil, err
	}
	return t, nil
}

type table struct {
	name    string
	columns map[string]int
	rows    [][]string
}

func parseTable(name string, r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s must have a header row", name)
	}

	t := &table{name: name, columns: make(map[string]int, len(records[0]))}
	for i, col := range records[0] {
		t.columns[strings.TrimPrefix(strings.TrimSpace(col), "\ufeff")] = i
	}
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

func (t *table) has(col string) bool {
	_, ok := t.columns[col]
	return ok
}

func (t *table) require(cols ...string) error {
	for _, col := range cols {
		if !t.has(col) {
			return fmt.Errorf("%s: missing column %s", t.name, col)
		}
	}
	return nil
}

func (t *table) get(row int, col string) string {
	idx, ok := t.columns[col]
	if !ok || idx >= len(t.rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.rows[row][idx])
}

// id normalises spreadsheet-style integer ids ("7.0" -> "7").
func (t *table) id(row int, col string) string {
	v := t.get(row, col)
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == float64(int64(f)) && strings.Contains(v, ".") {
		return strconv.FormatInt(int64(f), 10)
	}
	return v
}

func (t *table) float(row int, col string) (float64, error) {
	v := t.get(row, col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: column %s: invalid number %q", t.name, row+2, col, v)
	}
	return f, nil
}

// wholeNumber accepts spreadsheet-style whole numbers ("3.0") and rejects fractions.
func (t *table) wholeNumber(row int, col string) (int, error) {
	f, err := t.float(row, col)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s row %d: column %s: %q is not a whole number", t.name, row+2, col, t.get(row, col))
	}
	return int(f), nil
}

func (t *table) floatOrZero(row int, col string) (float64, error) {
	if t.get(row, col) == "" {
		return 0, nil
	}
	return t.float(row, col)
}

func (t *table) optionalFloat(row int, col string) (*float64, error) {
	if t.get(row, col) == "" {
		return nil, nil
	}
	f, err := t.float(row, col)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
