package models

const (
	EntityDepot  = "LG"
	EntityOutlet = "FPS"

	TopicDepotDispatch  = "cg_lg_dispatch"
	TopicOutletDispatch = "lg_fps_dispatch"
	TopicStockLevels    = "stock_levels"
	TopicRuns           = "runs"

	// Epsilon is the tolerance, in tons, for every "is it covered" comparison.
	Epsilon = 1e-6

	// DaysPerMonth converts monthly outlet demand into a daily rate.
	DaysPerMonth = 30.0
)

// Settings table parameter names.
const (
	SettingDistributionDays   = "Distribution_Days"
	SettingVehicleCapacity    = "Vehicle_Capacity_tons"
	SettingVehiclesTotal      = "Vehicles_Total"
	SettingMaxTripsPerVehicle = "Max_Trips_Per_Vehicle_Per_Day"
	SettingDefaultLeadTime    = "Default_Lead_Time_days"
	SettingMaxPreDays         = "Max_Pre_Days"
)
