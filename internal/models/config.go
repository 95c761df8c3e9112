package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// InputFiles names the scenario tables inside InputDir.
type InputFiles struct {
	Settings     string `mapstructure:"settings"`
	Depots       string `mapstructure:"depots"`
	Outlets      string `mapstructure:"outlets"`
	Vehicles     string `mapstructure:"vehicles"`
	Requirements string `mapstructure:"requirements"`
	Capacities   string `mapstructure:"capacities"`
}

type Config struct {
	InputDir               string     `mapstructure:"input_dir"`
	Files                  InputFiles `mapstructure:"files"`
	MaxLeadDays            int        `mapstructure:"max_lead_days"`
	DefaultVehicleCapacity float64    `mapstructure:"default_vehicle_capacity"`

	OutputDestination string             `mapstructure:"output_destination"` // local or cloud
	OutputFormat      string             `mapstructure:"output_format"`
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`

	KafkaEnabled     bool          `mapstructure:"kafka_enabled"`
	KafkaBrokerList  string        `mapstructure:"kafka_broker_list"`
	KafkaTopicPrefix string        `mapstructure:"kafka_topic_prefix"`
	KafkaTimeout     time.Duration `mapstructure:"kafka_timeout"`

	Database DatabaseConfig `mapstructure:"database"`

	Verify   bool `mapstructure:"verify"`
	Progress bool `mapstructure:"progress"`
}

// SetDefaults registers every documented default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", ".")
	v.SetDefault("files.settings", "Settings.csv")
	v.SetDefault("files.depots", "LGs.csv")
	v.SetDefault("files.outlets", "FPS.csv")
	v.SetDefault("files.vehicles", "Vehicles.csv")
	v.SetDefault("files.requirements", "LG_Daily_Req.csv")
	v.SetDefault("files.capacities", "LG_Capacity.csv")
	v.SetDefault("max_lead_days", 30)
	v.SetDefault("default_vehicle_capacity", 11.5)
	v.SetDefault("output_destination", "local")
	v.SetDefault("output_format", "console")
	v.SetDefault("output_path", "output")
	v.SetDefault("output_folder", "distsim")
	v.SetDefault("kafka_enabled", false)
	v.SetDefault("kafka_broker_list", "localhost:9092")
	v.SetDefault("kafka_topic_prefix", "")
	v.SetDefault("kafka_timeout", 30*time.Second)
	v.SetDefault("cloud_storage.provider", "s3")
	v.SetDefault("cloud_storage.bucket_name", "")
	v.SetDefault("cloud_storage.region", "us-east-1")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "")
	v.SetDefault("verify", false)
	v.SetDefault("progress", false)
}

// DefaultConfig returns the configuration with only defaults applied.
func DefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := decodeConfig(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.GetViper()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("DISTSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // Read in environment variables that match

	return decodeConfig(v)
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &config, nil
}
