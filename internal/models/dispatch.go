package models

// DepotDispatch is one central-source-to-depot vehicle load.
type DepotDispatch struct {
	RunID     string  `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Day       int32   `json:"day" parquet:"name=day,type=INT32"`
	VehicleID string  `json:"vehicleId" parquet:"name=vehicleId,type=BYTE_ARRAY,convertedtype=UTF8"`
	DepotID   string  `json:"depotId" parquet:"name=depotId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Quantity  float64 `json:"quantityTons" parquet:"name=quantityTons,type=DOUBLE"`
}

// OutletDispatch is one depot-to-outlet vehicle trip.
type OutletDispatch struct {
	RunID     string  `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Day       int32   `json:"day" parquet:"name=day,type=INT32"`
	VehicleID string  `json:"vehicleId" parquet:"name=vehicleId,type=BYTE_ARRAY,convertedtype=UTF8"`
	DepotID   string  `json:"depotId" parquet:"name=depotId,type=BYTE_ARRAY,convertedtype=UTF8"`
	OutletID  string  `json:"outletId" parquet:"name=outletId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Quantity  float64 `json:"quantityTons" parquet:"name=quantityTons,type=DOUBLE"`
}

// StockSnapshot is an end-of-day stock level for a depot or an outlet.
type StockSnapshot struct {
	RunID      string  `json:"runId" parquet:"name=runId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Day        int32   `json:"day" parquet:"name=day,type=INT32"`
	EntityType string  `json:"entityType" parquet:"name=entityType,type=BYTE_ARRAY,convertedtype=UTF8"`
	EntityID   string  `json:"entityId" parquet:"name=entityId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Level      float64 `json:"stockLevelTons" parquet:"name=stockLevelTons,type=DOUBLE"`
}
