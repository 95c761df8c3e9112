package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/chrisdamba/distsim/internal/audit"
	"github.com/chrisdamba/distsim/internal/loader"
	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/repositories/postgres"
	"github.com/chrisdamba/distsim/internal/simulator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "distsim",
	Short: "Simulates two-tier commodity distribution",
	Long: `distsim replays daily replenishment of fair price shops (FPS) from their depots (LG)
and plans the central-source loads, including the minimum number of pre-stocking days
before day 1, that keep every depot covered.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		tables, err := loader.NewLoader(cfg.InputDir, cfg.Files).Load()
		if err != nil {
			log.Fatalf("Error loading scenario from %s: %v", cfg.InputDir, err)
		}

		sim := simulator.NewSimulator(cfg, tables)
		if cfg.Progress {
			bar := progressbar.Default(-1, "simulating")
			sim.Progress = bar
			defer bar.Finish()
		}

		result, err := sim.Run(cmd.Context())
		if err != nil {
			log.Fatalf("Simulation failed: %v", err)
		}

		if cfg.Verify {
			if err := verify(cmd.Context(), cfg, sim, result); err != nil {
				log.Fatalf("Verification failed: %v", err)
			}
		}
	},
}

// verify audits the in-memory run and, when a database is configured, the copy
// read back from it.
func verify(ctx context.Context, cfg *models.Config, sim *simulator.Simulator, result *models.Result) error {
	report := audit.Verify(sim.Network, sim.Requirement, result)
	if err := logReport("run", report); err != nil {
		return err
	}
	if !cfg.Database.Enabled {
		return nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer pool.Close()

	stored, err := audit.VerifyPersisted(ctx, postgres.NewRepositories(pool), sim.Network, sim.Requirement, result)
	if err != nil {
		return err
	}
	return logReport("stored run", stored)
}

func logReport(what string, report *audit.Report) error {
	log.Printf("Verified %s %s: %s t to outlets, %s t to depots against %s t required",
		what, report.RunID, report.OutletTons.StringFixed(3), report.DepotTons.StringFixed(3), report.Requirement.StringFixed(3))
	for _, v := range report.Violations {
		log.Printf("  %s", v)
	}
	return report.Err()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.distsim.yaml)")

	flags := rootCmd.Flags()
	flags.String("input-dir", ".", "Directory holding the scenario CSV tables")
	flags.Int("max-lead-days", 30, "Upper bound of the pre-stocking lead-day search")
	flags.Float64("default-vehicle-capacity", 11.5, "Vehicle capacity in tons when the settings table has none")
	flags.String("output-destination", "local", "Output destination (local or cloud)")
	flags.String("output-format", "console", "Output format (console, csv, json or parquet)")
	flags.String("output-path", "output", "Base path for file output")
	flags.Bool("kafka-enabled", false, "Enable Kafka output")
	flags.String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	flags.Bool("verify", false, "Verify the finished run and fail on any violation")
	flags.Bool("progress", false, "Show a progress bar")

	bindFlags(rootCmd, map[string]string{
		"input-dir":                "input_dir",
		"max-lead-days":            "max_lead_days",
		"default-vehicle-capacity": "default_vehicle_capacity",
		"output-destination":       "output_destination",
		"output-format":            "output_format",
		"output-path":              "output_path",
		"kafka-enabled":            "kafka_enabled",
		"kafka-broker-list":        "kafka_broker_list",
		"verify":                   "verify",
		"progress":                 "progress",
	})
}

// bindFlags maps dashed flag names onto configuration keys.
func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Error loading .env:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".distsim")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
