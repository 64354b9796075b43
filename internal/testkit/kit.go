// Package testkit provides in-memory adapters and run fixtures shared by
// tests across the repository.
package testkit

import (
	"context"
	"sync"

	"episim/domain/core"
	"episim/domain/network"
	"episim/domain/results"
	"episim/internal/errors"
	"episim/internal/sim"
	"episim/ports"
)

// DemoPars returns small, fast parameters for fixture runs.
func DemoPars(seed uint64) sim.Pars {
	pars := sim.DefaultPars()
	pars.NAgents = 100
	pars.NPts = 15
	pars.Seed = seed
	return pars
}

// DemoSim assembles a complete small run: demographics, a random pairing
// network, a maternal network and an SIR disease.
func DemoSim(pars sim.Pars) *sim.Sim {
	s := sim.New(pars)

	maternal := network.NewMaternalNet()
	demog := sim.NewDemographics(0.03, 0.015, pars.Dt)
	demog.AttachMaternal(maternal)
	s.AddDemographics(demog)

	pairs := network.NewRandomPairNet(12)
	s.AddNetwork(pairs)
	s.AddNetwork(maternal)

	s.AddDisease(sim.NewSIR(sim.DefaultSIRPars(), pairs, maternal))
	return s
}

// DemoResults runs a fixture sim and returns its results.
func DemoResults(seed uint64) (*results.Results, error) {
	s := DemoSim(DemoPars(seed))
	return s.Run()
}

// InMemoryRunRepository implements ports.RunRepository with map storage.
type InMemoryRunRepository struct {
	mu     sync.RWMutex
	runs   map[core.RunID]ports.RunRecord
	series map[core.RunID]map[string]*results.Result
	order  []core.RunID
}

// NewInMemoryRunRepository creates an empty repository.
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{
		runs:   make(map[core.RunID]ports.RunRecord),
		series: make(map[core.RunID]map[string]*results.Result),
	}
}

// SaveRun stores the record and a copy of every series.
func (r *InMemoryRunRepository) SaveRun(_ context.Context, rec ports.RunRecord, res *results.Results) error {
	if rec.ID == "" {
		return errors.InvalidInput("run ID is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[rec.ID]; exists {
		return errors.InvalidInput("run " + rec.ID.String() + " already stored")
	}
	r.runs[rec.ID] = rec
	r.order = append(r.order, rec.ID)

	stored := make(map[string]*results.Result)
	for _, s := range res.All() {
		vals := make([]float64, len(s.Values))
		copy(vals, s.Values)
		stored[s.Key()] = &results.Result{
			Module: s.Module,
			Name:   s.Name,
			Label:  s.Label,
			Scale:  s.Scale,
			Values: vals,
		}
	}
	r.series[rec.ID] = stored
	return nil
}

// GetRun retrieves a stored run record.
func (r *InMemoryRunRepository) GetRun(_ context.Context, id core.RunID) (*ports.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.runs[id]
	if !ok {
		return nil, errors.NotFound("run " + id.String())
	}
	return &rec, nil
}

// ListRuns returns stored runs newest first.
func (r *InMemoryRunRepository) ListRuns(_ context.Context, limit int) ([]*ports.RunRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*ports.RunRecord, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		rec := r.runs[r.order[i]]
		out = append(out, &rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// GetSeries retrieves one stored series of a run.
func (r *InMemoryRunRepository) GetSeries(_ context.Context, id core.RunID, key string) (*results.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.series[id]
	if !ok {
		return nil, errors.NotFound("run " + id.String())
	}
	s, ok := stored[key]
	if !ok {
		return nil, errors.NotFound("series " + key)
	}
	return s, nil
}
