package factories

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/jaswdr/faker"
)

// ScenarioOptions sizes a generated scenario.
type ScenarioOptions struct {
	Depots          int
	OutletsPerDepot int
	Days            int
	Vehicles        int
	TripsPerVehicle int
	// RequirementTable adds an explicit depot requirement table.
	RequirementTable bool
	// Seed makes generation repeatable; zero draws from a random source.
	Seed int64
}

func DefaultScenarioOptions() ScenarioOptions {
	return ScenarioOptions{
		Depots:          3,
		OutletsPerDepot: 8,
		Days:            30,
		Vehicles:        6,
		TripsPerVehicle: 3,
	}
}

// ScenarioFactory generates input tables that always pass network validation and
// for which a pre-stocking schedule exists within Max_Pre_Days.
type ScenarioFactory struct {
	opts      ScenarioOptions
	fake      faker.Faker
	usedNames map[string]bool
}

func NewScenarioFactory(opts ScenarioOptions) *ScenarioFactory {
	fake := faker.New()
	if opts.Seed != 0 {
		fake = faker.NewWithSeed(rand.NewSource(opts.Seed))
	}
	return &ScenarioFactory{opts: opts, fake: fake, usedNames: make(map[string]bool)}
}

func (sf *ScenarioFactory) CreateScenario() (*models.Tables, error) {
	o := sf.opts
	if o.Depots < 1 || o.OutletsPerDepot < 1 || o.Days < 1 || o.Vehicles < 1 || o.TripsPerVehicle < 1 {
		return nil, fmt.Errorf("%w: scenario sizes must be positive, got %+v", models.ErrInvalidSetting, o)
	}

	vehicleCapacity := sf.fake.Float64(1, 8, 15)
	tables := &models.Tables{}

	for i := 1; i <= o.Depots; i++ {
		tables.Depots = append(tables.Depots, models.DepotRow{ID: strconv.Itoa(i), Name: sf.createUniqueName()})
	}

	outlet := 0
	for i := range tables.Depots {
		depot := &tables.Depots[i]
		demand := 0.0
		for j := 0; j < o.OutletsPerDepot; j++ {
			outlet++
			row := sf.CreateOutlet(fmt.Sprintf("FPS-%03d", outlet), depot)
			demand += row.MonthlyDemand / models.DaysPerMonth * float64(o.Days)
			tables.Outlets = append(tables.Outlets, row)
		}
		// Initial stock sits within storage, so the whole horizon can be pre-stocked.
		depot.InitialStock = math.Round(demand * sf.fake.Float64(2, 60, 120) / 100)
		depot.StorageCapacity = math.Ceil(depot.InitialStock * sf.fake.Float64(2, 100, 150) / 100)
	}

	tables.Vehicles = sf.CreateVehicles(tables.Depots, vehicleCapacity)

	planned := 0.0
	for _, d := range tables.Depots {
		planned += d.InitialStock
	}
	if o.RequirementTable {
		tables.Requirements = sf.CreateRequirements(tables.Depots)
		planned = 0
		for _, r := range tables.Requirements {
			planned += r.Quantity
		}
	}

	// One load per vehicle per day, at most one partial load per depot.
	loads := math.Ceil(planned/vehicleCapacity) + float64(o.Depots)
	maxPreDays := int(math.Ceil(loads/float64(o.Vehicles))) + 1

	tables.Settings = map[string]string{
		models.SettingDistributionDays:   strconv.Itoa(o.Days),
		models.SettingVehicleCapacity:    strconv.FormatFloat(vehicleCapacity, 'f', -1, 64),
		models.SettingVehiclesTotal:      strconv.Itoa(o.Vehicles),
		models.SettingMaxTripsPerVehicle: strconv.Itoa(o.TripsPerVehicle),
		models.SettingDefaultLeadTime:    strconv.Itoa(sf.fake.IntBetween(2, 4)),
		models.SettingMaxPreDays:         strconv.Itoa(maxPreDays),
	}
	return tables, nil
}

// CreateOutlet links an outlet to depot, by name for every third outlet.
func (sf *ScenarioFactory) CreateOutlet(id string, depot *models.DepotRow) models.OutletRow {
	monthly := sf.fake.Float64(1, 60, 450)
	maxCapacity := math.Round(monthly * sf.fake.Float64(2, 35, 80) / 100)

	row := models.OutletRow{
		ID:            id,
		DepotRef:      depot.ID,
		MonthlyDemand: monthly,
		MaxCapacity:   maxCapacity,
		InitialStock:  math.Round(maxCapacity * sf.fake.Float64(2, 0, 100) / 100),
	}
	if sf.fake.IntBetween(1, 3) == 1 {
		row.DepotRef = depot.Name
	}
	if sf.fake.Bool() {
		lead := sf.fake.Float64(1, 1, 5)
		row.LeadTime = &lead
	}
	return row
}

// CreateVehicles dedicates the first vehicles one per depot. The rest serve either two
// depots or, without a mapping, every depot.
func (sf *ScenarioFactory) CreateVehicles(depots []models.DepotRow, capacity float64) []models.VehicleRow {
	vehicles := make([]models.VehicleRow, 0, sf.opts.Vehicles)
	for i := 0; i < sf.opts.Vehicles; i++ {
		var refs []string
		switch {
		case i < len(depots):
			refs = []string{depots[i].ID}
		case len(depots) > 1 && sf.fake.Bool():
			first := sf.fake.IntBetween(0, len(depots)-1)
			second := (first + 1) % len(depots)
			refs = []string{depots[first].Name, depots[second].ID}
		}

		row := models.VehicleRow{ID: fmt.Sprintf("V%d", i+1)}
		if refs != nil {
			mapping := strings.Join(refs, sf.fake.RandomStringElement([]string{",", ";", "|"}))
			row.MappedDepots = &mapping
		}
		if sf.fake.IntBetween(1, 4) == 1 {
			c := math.Round(capacity * sf.fake.Float64(2, 70, 100)) / 100
			row.Capacity = &c
		}
		vehicles = append(vehicles, row)
	}
	return vehicles
}

// CreateRequirements spreads each depot's initial stock over the horizon so that no
// depot needs more than it can store.
func (sf *ScenarioFactory) CreateRequirements(depots []models.DepotRow) []models.RequirementRow {
	var rows []models.RequirementRow
	for _, d := range depots {
		perDay := math.Floor(d.InitialStock / float64(sf.opts.Days))
		for day := 1; day <= sf.opts.Days; day++ {
			qty := math.Round(perDay * sf.fake.Float64(2, 50, 100)) / 100
			if qty <= 0 {
				continue
			}
			rows = append(rows, models.RequirementRow{DepotRef: d.ID, Day: day, Quantity: qty})
		}
	}
	return rows
}

func (sf *ScenarioFactory) createUniqueName() string {
	base := sf.fake.Address().City() + " Godown"
	name := base
	for counter := 2; sf.usedNames[strings.ToLower(name)]; counter++ {
		name = fmt.Sprintf("%s %d", base, counter)
	}
	sf.usedNames[strings.ToLower(name)] = true
	return name
}
