package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/chrisdamba/distsim/internal/factories"
	"github.com/chrisdamba/distsim/internal/loader"
	"github.com/chrisdamba/distsim/internal/models"
	"github.com/spf13/cobra"
)

var generateOpts = factories.DefaultScenarioOptions()

var generateCmd = &cobra.Command{
	Use:   "generate [dir]",
	Short: "Writes a synthetic feasible scenario as CSV tables",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		dir := cfg.InputDir
		if len(args) == 1 {
			dir = args[0]
		}

		tables, err := factories.NewScenarioFactory(generateOpts).CreateScenario()
		if err != nil {
			log.Fatalf("Error generating scenario: %v", err)
		}
		if err := loader.WriteTables(dir, cfg.Files, tables); err != nil {
			log.Fatalf("Error writing scenario to %s: %v", dir, err)
		}
		log.Printf("Wrote %d depots, %d outlets and %d vehicles to %s",
			len(tables.Depots), len(tables.Outlets), len(tables.Vehicles), dir)
	},
}

func init() {
	flags := generateCmd.Flags()
	flags.IntVar(&generateOpts.Depots, "depots", generateOpts.Depots, "Number of depots")
	flags.IntVar(&generateOpts.OutletsPerDepot, "outlets-per-depot", generateOpts.OutletsPerDepot, "Outlets linked to each depot")
	flags.IntVar(&generateOpts.Days, "days", generateOpts.Days, "Distribution days")
	flags.IntVar(&generateOpts.Vehicles, "vehicles", generateOpts.Vehicles, "Vehicles in the fleet")
	flags.IntVar(&generateOpts.TripsPerVehicle, "trips", generateOpts.TripsPerVehicle, "Maximum trips per vehicle per day")
	flags.BoolVar(&generateOpts.RequirementTable, "requirement-table", false, "Also write a depot daily requirement table")
	flags.Int64Var(&generateOpts.Seed, "seed", 0, "Random seed, 0 for a random scenario")

	rootCmd.AddCommand(generateCmd)
}
