// Package sim owns the simulation loop: it assembles a population, a
// stream registry, networks and modules, then advances them timestep by
// timestep in a fixed order so that every random decision is reproducible
// from the base seed alone.
package sim

import (
	"episim/domain/agents"
	"episim/domain/core"
	"episim/domain/network"
	"episim/domain/results"
	"episim/domain/rng"
	"episim/internal"
	"episim/internal/errors"
	"episim/ports"
)

// Network is the contact structure contract the loop drives. Both
// RandomPairNet and MaternalNet satisfy it.
type Network interface {
	Name() string
	Edges() *network.Edges
	Init(reg *rng.Registry, people *agents.People) error
	Update(people *agents.People, dt float64) error
}

// Pars are the run-level parameters.
type Pars struct {
	NAgents int     // initial population size
	NPts    int     // number of timesteps, including the initial state
	Dt      float64 // years per timestep
	Seed    uint64  // base seed shared by paired scenarios

	// Initial population shape.
	MaxAge    float64 // initial ages ~ Uniform(0, MaxAge)
	DebutMean float64 // sexual debut age ~ right-sided Normal
	DebutStd  float64
}

// DefaultPars returns a monthly-timestep baseline configuration.
func DefaultPars() Pars {
	return Pars{
		NAgents:   1000,
		NPts:      121,
		Dt:        1.0 / 12,
		Seed:      12345,
		MaxAge:    70,
		DebutMean: 16,
		DebutStd:  3,
	}
}

func (p Pars) validate() error {
	if p.NAgents < 1 {
		return core.NewInvalidArgumentError("n_agents", "must be at least 1")
	}
	if p.NPts < 1 {
		return core.NewInvalidArgumentError("npts", "must be at least 1")
	}
	if p.Dt <= 0 {
		return core.NewInvalidArgumentError("dt", "must be positive")
	}
	return nil
}

// Sim is a single simulation run. Build it with New, attach networks and
// modules, then Init and Run. A Sim is single-threaded by construction:
// the stream protocol ties every draw to the current timestep, so there
// is no parallelism inside a run.
type Sim struct {
	ID   core.RunID
	Pars Pars

	People   *agents.People
	Registry *rng.Registry
	Networks []Network

	demographics []ports.Module
	diseases     []ports.Module

	res *results.Results
	log *internal.Logger

	// Streams for drawing the initial population before timestep zero.
	initAge   *rng.Stream
	initSex   *rng.Stream
	initDebut *rng.Stream

	ti          int
	initialized bool
	complete    bool
}

// New creates an empty run with the given parameters.
func New(pars Pars) *Sim {
	return &Sim{
		ID:        core.RunID(core.NewID()),
		Pars:      pars,
		log:       internal.DefaultLogger.Named("sim"),
		initAge:   rng.NewStream("init_age"),
		initSex:   rng.NewStream("init_sex"),
		initDebut: rng.NewStream("init_debut"),
	}
}

// AddNetwork attaches a contact network. Networks update after
// demographics and before diseases each timestep.
func (s *Sim) AddNetwork(n Network) { s.Networks = append(s.Networks, n) }

// AddDemographics attaches a module that runs in the demographic phase,
// before network updates.
func (s *Sim) AddDemographics(m ports.Module) { s.demographics = append(s.demographics, m) }

// AddDisease attaches a module that runs in the disease phase, after
// network updates.
func (s *Sim) AddDisease(m ports.Module) { s.diseases = append(s.diseases, m) }

// Network returns the attached network with the given name.
func (s *Sim) Network(name string) (Network, error) {
	for _, n := range s.Networks {
		if n.Name() == name {
			return n, nil
		}
	}
	return nil, errors.NotFound("network " + name)
}

// Results returns the run's result series. Empty until Init.
func (s *Sim) Results() *results.Results { return s.res }

// Init builds the population, binds every stream in a fixed registration
// order, draws the initial state, locks the schema and records timestep
// zero. The registry is reset afterwards so the run's first Step sees
// streams in their seeded state regardless of how many draws
// initialization spent.
func (s *Sim) Init() error {
	if s.initialized {
		return core.NewInvalidArgumentError("sim", "already initialized")
	}
	if err := s.Pars.validate(); err != nil {
		return err
	}

	s.Registry = rng.NewRegistry()
	s.Registry.Initialize(s.Pars.Seed)

	var extra []agents.ColumnSpec
	for _, m := range s.modules() {
		extra = append(extra, m.Columns()...)
	}
	people, err := agents.NewPeople(s.Pars.NAgents, extra...)
	if err != nil {
		return err
	}
	s.People = people

	// Registration order is part of the reproducibility contract:
	// initial-state streams, then demographics, networks, diseases, in
	// attach order.
	for _, st := range []*rng.Stream{s.initAge, s.initSex, s.initDebut} {
		if err := st.Bind(s.Registry, people); err != nil {
			return err
		}
	}
	if err := s.drawInitialState(); err != nil {
		return err
	}

	for _, m := range s.demographics {
		if err := m.Init(s.Registry, people); err != nil {
			return errors.Wrapf(err, "init module %s", m.Name())
		}
	}
	for _, n := range s.Networks {
		if err := n.Init(s.Registry, people); err != nil {
			return errors.Wrapf(err, "init network %s", n.Name())
		}
	}
	for _, m := range s.diseases {
		if err := m.Init(s.Registry, people); err != nil {
			return errors.Wrapf(err, "init module %s", m.Name())
		}
	}

	people.Lock()
	if err := s.Registry.ResetAll(); err != nil {
		return err
	}

	if err := s.registerResults(); err != nil {
		return err
	}
	if err := s.collect(0); err != nil {
		return err
	}

	s.ti = 0
	s.initialized = true
	s.log.Debug("sim %s initialized: %d agents, %d streams", s.ID, people.Size(), s.Registry.Len())
	return nil
}

// drawInitialState assigns ages, sexes and debut ages to the founding
// population.
func (s *Sim) drawInitialState() error {
	all := make([]int, s.People.Size())
	for i := range all {
		all[i] = i
	}

	ages, err := s.initAge.Sample(rng.DistUniform, 0, s.Pars.MaxAge, 0, all)
	if err != nil {
		return err
	}
	female, err := s.initSex.Bernoulli(0.5, all)
	if err != nil {
		return err
	}
	debut, err := s.initDebut.Sample(rng.DistNormalPos, s.Pars.DebutMean, s.Pars.DebutStd, 0, all)
	if err != nil {
		return err
	}

	ageCol, err := s.People.Float(agents.ColAge)
	if err != nil {
		return err
	}
	femaleCol, err := s.People.Bool(agents.ColFemale)
	if err != nil {
		return err
	}
	debutCol, err := s.People.Float(agents.ColDebut)
	if err != nil {
		return err
	}
	for i := range all {
		ageCol[i] = ages[i]
		femaleCol[i] = female[i]
		debutCol[i] = debut[i]
	}
	return nil
}

func (s *Sim) modules() []ports.Module {
	out := make([]ports.Module, 0, len(s.demographics)+len(s.diseases))
	out = append(out, s.demographics...)
	out = append(out, s.diseases...)
	return out
}

func (s *Sim) registerResults() error {
	s.res = results.NewResults()
	for _, r := range []*results.Result{
		results.NewResult("sim", "n_alive", s.Pars.NPts, true),
		results.NewResult("sim", "n_agents", s.Pars.NPts, true),
	} {
		if err := s.res.Add(r); err != nil {
			return err
		}
	}
	for _, m := range s.modules() {
		for _, r := range m.Results(s.Pars.NPts) {
			if err := s.res.Add(r); err != nil {
				return err
			}
		}
	}
	return nil
}

// Step advances the run by one timestep: re-arm every stream for ti,
// age the population, then demographics, network updates, diseases and
// result collection, in that order.
func (s *Sim) Step() error {
	if !s.initialized {
		return core.ErrNotInitialized
	}
	if s.complete {
		return core.NewInvalidArgumentError("sim", "run already complete")
	}
	s.ti++
	ti := s.ti

	if err := s.Registry.StepAll(ti); err != nil {
		return err
	}
	if err := s.People.Age(s.Pars.Dt); err != nil {
		return err
	}
	for _, m := range s.demographics {
		if err := m.Update(ti, s.People); err != nil {
			return errors.Wrapf(err, "module %s at ti=%d", m.Name(), ti)
		}
	}
	for _, n := range s.Networks {
		if err := n.Update(s.People, s.Pars.Dt); err != nil {
			return errors.Wrapf(err, "network %s at ti=%d", n.Name(), ti)
		}
	}
	for _, m := range s.diseases {
		if err := m.Update(ti, s.People); err != nil {
			return errors.Wrapf(err, "module %s at ti=%d", m.Name(), ti)
		}
	}
	return s.collect(ti)
}

// Run executes the remaining timesteps and returns the collected
// results.
func (s *Sim) Run() (*results.Results, error) {
	if !s.initialized {
		if err := s.Init(); err != nil {
			return nil, err
		}
	}
	s.log.Info("sim %s running %d timesteps", s.ID, s.Pars.NPts-1)
	for s.ti < s.Pars.NPts-1 {
		if err := s.Step(); err != nil {
			return nil, errors.SimError(s.ID.String(), err)
		}
	}
	s.complete = true
	s.log.Info("sim %s complete", s.ID)
	return s.res, nil
}

// collect records the built-in series and every module's outputs for
// timestep ti.
func (s *Sim) collect(ti int) error {
	scale, err := s.People.Float(agents.ColScale)
	if err != nil {
		return err
	}
	dead, err := s.People.Bool(agents.ColDead)
	if err != nil {
		return err
	}
	var aliveWeighted, totalWeighted float64
	for i := range dead {
		totalWeighted += scale[i]
		if !dead[i] {
			aliveWeighted += scale[i]
		}
	}

	alive, err := s.res.Get("sim.n_alive")
	if err != nil {
		return err
	}
	alive.Values[ti] = aliveWeighted

	agentsRes, err := s.res.Get("sim.n_agents")
	if err != nil {
		return err
	}
	agentsRes.Values[ti] = totalWeighted

	for _, m := range s.modules() {
		if err := m.Collect(ti, s.People, s.res); err != nil {
			return errors.Wrapf(err, "collect %s at ti=%d", m.Name(), ti)
		}
	}
	return nil
}
