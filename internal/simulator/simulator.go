package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chrisdamba/distsim/internal/models"
	"github.com/chrisdamba/distsim/internal/network"
	"github.com/lucsky/cuid"
)

// ProgressReporter is advanced once per simulated day and once per lead-day attempt.
type ProgressReporter interface {
	Add(num int) error
}

type Simulator struct {
	Config   *models.Config
	Tables   *models.Tables
	Progress ProgressReporter
	// RunID is generated when empty.
	RunID string
	// Output replaces the configured destinations when set.
	Output OutputDestination

	// Set by Simulate.
	Network     *network.Network
	Requirement *Requirement
}

func NewSimulator(config *models.Config, tables *models.Tables) *Simulator {
	return &Simulator{
		Config: config,
		Tables: tables,
	}
}

// Simulate runs the replenishment phase and then the pre-stocking phase. It does not
// write to any output.
func (s *Simulator) Simulate() (*models.Result, error) {
	settings, err := models.ParseSettings(s.Tables.Settings, s.Config)
	if err != nil {
		return nil, err
	}
	n, err := network.Build(s.Tables, settings)
	if err != nil {
		return nil, err
	}
	s.Network = n

	if s.RunID == "" {
		s.RunID = cuid.New()
	}
	source := SelectRequirementSource(s.Tables)
	run := models.Run{
		ID:              s.RunID,
		StartedAt:       time.Now().UTC(),
		Horizon:         settings.DistributionDays,
		RequirementFrom: source.Name(),
	}
	log.Printf("Run %s: %d depots, %d outlets, %d vehicles over %d days",
		run.ID, len(n.Depots), len(n.Outlets), len(n.Vehicles), run.Horizon)

	outlets := NewOutletEngine(n)
	outlets.OnDay = func(int) { s.advance() }
	replenishment := outlets.Run(run.ID)

	req, err := source.Requirement(n, replenishment.Dispatches)
	if err != nil {
		return nil, err
	}
	s.Requirement = req

	prestock := NewPrestockEngine(n, req)
	prestock.OnAttempt = func(int, bool) { s.advance() }
	lead, err := prestock.MinLeadDays()
	if err != nil {
		return nil, err
	}
	depotDispatches, _, err := prestock.Materialize(run.ID, lead)
	if err != nil {
		return nil, err
	}

	run.LeadDays = lead
	run.DepotDispatches = len(depotDispatches)
	run.OutletDispatches = len(replenishment.Dispatches)
	run.Snapshots = len(replenishment.Snapshots)
	log.Printf("Run %s: %d lead day(s), %d depot loads, %d outlet trips",
		run.ID, run.LeadDays, run.DepotDispatches, run.OutletDispatches)

	return &models.Result{
		Run:              run,
		DepotDispatches:  depotDispatches,
		OutletDispatches: replenishment.Dispatches,
		Snapshots:        replenishment.Snapshots,
	}, nil
}

// Run simulates and writes every ledger to the configured output destination. Sinks
// that buffer (S3 objects, Postgres, parquet footers) flush on Close, so a failed
// Close fails the run.
func (s *Simulator) Run(ctx context.Context) (result *models.Result, err error) {
	result, err = s.Simulate()
	if err != nil {
		return nil, err
	}

	output := s.Output
	if output == nil {
		output, err = s.determineOutputDestination(ctx)
		if err != nil {
			return nil, err
		}
	}
	defer func() {
		if cerr := output.Close(); cerr != nil {
			if err == nil {
				result, err = nil, fmt.Errorf("failed to close output: %w", cerr)
				return
			}
			log.Printf("Error closing output: %v", cerr)
		}
	}()

	if err := s.Publish(output, result); err != nil {
		return nil, err
	}
	log.Printf("Simulation completed at %s\n", time.Now().UTC().Format(time.RFC3339))
	return result, nil
}

// Publish writes each record as a JSON message on its topic, the run summary last.
func (s *Simulator) Publish(output OutputDestination, result *models.Result) error {
	for _, d := range result.DepotDispatches {
		if err := s.publish(output, models.TopicDepotDispatch, d); err != nil {
			return err
		}
	}
	for _, d := range result.OutletDispatches {
		if err := s.publish(output, models.TopicOutletDispatch, d); err != nil {
			return err
		}
	}
	for _, snap := range result.Snapshots {
		if err := s.publish(output, models.TopicStockLevels, snap); err != nil {
			return err
		}
	}
	return s.publish(output, models.TopicRuns, result.Run)
}

func (s *Simulator) publish(output OutputDestination, topic string, record interface{}) error {
	msg, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize %s record: %w", topic, err)
	}
	if err := output.WriteMessage(topic, msg); err != nil {
		return fmt.Errorf("failed to write %s record: %w", topic, err)
	}
	return nil
}

func (s *Simulator) advance() {
	if s.Progress == nil {
		return
	}
	if err := s.Progress.Add(1); err != nil {
		log.Printf("Progress: %v", err)
	}
}
