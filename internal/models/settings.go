package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Settings is the flat parameter table of a scenario.
type Settings struct {
	DistributionDays   int     `mapstructure:"Distribution_Days"`
	VehicleCapacity    float64 `mapstructure:"Vehicle_Capacity_tons"`
	VehiclesTotal      int     `mapstructure:"Vehicles_Total"`
	MaxTripsPerVehicle int     `mapstructure:"Max_Trips_Per_Vehicle_Per_Day"`
	DefaultLeadTime    float64 `mapstructure:"Default_Lead_Time_days"`
	MaxPreDays         int     `mapstructure:"Max_Pre_Days"`

	// HasDefaultLeadTime is false when the table carries no Default_Lead_Time_days row.
	HasDefaultLeadTime bool `mapstructure:"-"`
}

var wholeSettings = []string{
	SettingDistributionDays,
	SettingVehiclesTotal,
	SettingMaxTripsPerVehicle,
	SettingMaxPreDays,
}

var requiredSettings = []string{
	SettingDistributionDays,
	SettingVehiclesTotal,
	SettingMaxTripsPerVehicle,
}

// ParseSettings decodes Parameter/Value pairs. Vehicle_Capacity_tons and Max_Pre_Days
// fall back to the run configuration; the remaining parameters have no default.
func ParseSettings(params map[string]string, cfg *Config) (Settings, error) {
	raw := make(map[string]interface{}, len(params))
	for k, v := range params {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if val == "" {
			continue
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			raw[key] = f
		} else {
			raw[key] = val
		}
	}

	for _, key := range requiredSettings {
		if _, ok := raw[key]; !ok {
			return Settings{}, fmt.Errorf("%w: %s", ErrMissingSetting, key)
		}
	}

	for _, key := range wholeSettings {
		if f, ok := raw[key].(float64); ok && f != math.Trunc(f) {
			return Settings{}, fmt.Errorf("%w: %s must be a whole number, got %g", ErrInvalidSetting, key, f)
		}
	}

	settings := Settings{
		VehicleCapacity: cfg.DefaultVehicleCapacity,
		MaxPreDays:      cfg.MaxLeadDays,
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &settings,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("unable to build settings decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSetting, err)
	}
	_, settings.HasDefaultLeadTime = raw[SettingDefaultLeadTime]

	switch {
	case settings.DistributionDays <= 0:
		return Settings{}, fmt.Errorf("%w: %s must be positive", ErrInvalidSetting, SettingDistributionDays)
	case settings.VehiclesTotal <= 0:
		return Settings{}, fmt.Errorf("%w: %s must be positive", ErrInvalidSetting, SettingVehiclesTotal)
	case settings.MaxTripsPerVehicle <= 0:
		return Settings{}, fmt.Errorf("%w: %s must be positive", ErrInvalidSetting, SettingMaxTripsPerVehicle)
	case settings.VehicleCapacity <= 0:
		return Settings{}, fmt.Errorf("%w: %s must be positive", ErrInvalidSetting, SettingVehicleCapacity)
	case settings.MaxPreDays < 0:
		return Settings{}, fmt.Errorf("%w: %s must not be negative", ErrInvalidSetting, SettingMaxPreDays)
	}

	return settings, nil
}
