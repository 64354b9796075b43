package sim

import (
	"math"
	"sort"

	"episim/domain/agents"
	"episim/domain/results"
	"episim/domain/rng"
)

// SIR column names.
const (
	ColSusceptible = "sir_susceptible"
	ColInfected    = "sir_infected"
	ColRecovered   = "sir_recovered"
	ColTiInfected  = "sir_ti_infected"
	ColTiRecovered = "sir_ti_recovered"
	ColRelTrans    = "sir_rel_trans"
	ColRelSus      = "sir_rel_sus"
)

// SIRPars parameterize the disease.
type SIRPars struct {
	Beta     float64 // per-contact transmission probability per timestep
	InitPrev float64 // initial infection probability per agent
	DurMean  float64 // infectious duration, lognormal mean (timesteps)
	DurStd   float64 // infectious duration, lognormal std (timesteps)
}

// DefaultSIRPars returns a moderately transmissible baseline.
func DefaultSIRPars() SIRPars {
	return SIRPars{Beta: 0.08, InitPrev: 0.05, DurMean: 6, DurStd: 2}
}

// SIR is a susceptible-infected-recovered disease spreading over the
// attached contact networks. Transmission converts per-edge exposure
// into one acquisition probability per susceptible agent, so the random
// decision is per agent and stays aligned across paired scenarios.
type SIR struct {
	pars SIRPars
	nets []Network

	seedInf *rng.Stream
	trans   *rng.Stream
	dur     *rng.Stream

	lastNew int
}

// NewSIR creates the module; transmission happens over nets.
func NewSIR(pars SIRPars, nets ...Network) *SIR {
	return &SIR{
		pars:    pars,
		nets:    nets,
		seedInf: rng.NewStream("sir_init"),
		trans:   rng.NewStream("sir_trans"),
		dur:     rng.NewStream("sir_dur"),
	}
}

// Name returns the module label.
func (s *SIR) Name() string { return "sir" }

// Columns declares the disease state columns.
func (s *SIR) Columns() []agents.ColumnSpec {
	return []agents.ColumnSpec{
		agents.BoolCol(ColSusceptible, true),
		agents.BoolCol(ColInfected, false),
		agents.BoolCol(ColRecovered, false),
		agents.FloatColNaN(ColTiInfected),
		agents.FloatColNaN(ColTiRecovered),
		agents.FloatCol(ColRelTrans, 1),
		agents.FloatCol(ColRelSus, 1),
	}
}

// Init binds the streams and seeds the initial infections.
func (s *SIR) Init(reg *rng.Registry, people *agents.People) error {
	for _, st := range []*rng.Stream{s.seedInf, s.trans, s.dur} {
		if err := st.Bind(reg, people); err != nil {
			return err
		}
	}

	alive, err := people.Alive()
	if err != nil {
		return err
	}
	seeds, err := s.seedInf.BernoulliFilter(s.pars.InitPrev, alive)
	if err != nil {
		return err
	}
	return s.setInfected(0, people, seeds)
}

// Results declares the module's series.
func (s *SIR) Results(npts int) []*results.Result {
	return []*results.Result{
		results.NewResult(s.Name(), "new_infections", npts, true),
		results.NewResult(s.Name(), "n_susceptible", npts, true),
		results.NewResult(s.Name(), "n_infected", npts, true),
		results.NewResult(s.Name(), "n_recovered", npts, true),
		results.NewResult(s.Name(), "prevalence", npts, false),
	}
}

// setInfected moves the given agents into the infected state at ti and
// schedules their recovery times from the duration stream.
func (s *SIR) setInfected(ti int, people *agents.People, indices []int) error {
	s.lastNew = len(indices)
	if len(indices) == 0 {
		// The duration stream still consumes its slot so later streams
		// stay aligned whether or not anyone was infected.
		_, err := s.dur.Sample(rng.DistLognormalInt, s.pars.DurMean, s.pars.DurStd, 0, nil)
		return err
	}

	durs, err := s.dur.Sample(rng.DistLognormalInt, s.pars.DurMean, s.pars.DurStd, 0, indices)
	if err != nil {
		return err
	}

	sus, err := people.Bool(ColSusceptible)
	if err != nil {
		return err
	}
	inf, err := people.Bool(ColInfected)
	if err != nil {
		return err
	}
	tiInf, err := people.Float(ColTiInfected)
	if err != nil {
		return err
	}
	tiRec, err := people.Float(ColTiRecovered)
	if err != nil {
		return err
	}
	for i, idx := range indices {
		sus[idx] = false
		inf[idx] = true
		tiInf[idx] = float64(ti)
		d := math.Max(durs[i], 1)
		tiRec[idx] = float64(ti) + d
	}
	return nil
}

// Update applies recoveries then transmission for timestep ti.
func (s *SIR) Update(ti int, people *agents.People) error {
	if err := s.applyRecoveries(ti, people); err != nil {
		return err
	}
	newInf, err := s.transmit(people)
	if err != nil {
		return err
	}
	return s.setInfected(ti, people, newInf)
}

func (s *SIR) applyRecoveries(ti int, people *agents.People) error {
	inf, err := people.Bool(ColInfected)
	if err != nil {
		return err
	}
	rec, err := people.Bool(ColRecovered)
	if err != nil {
		return err
	}
	tiRec, err := people.Float(ColTiRecovered)
	if err != nil {
		return err
	}
	for i := range inf {
		if inf[i] && tiRec[i] <= float64(ti) {
			inf[i] = false
			rec[i] = true
		}
	}
	return nil
}

// transmit accumulates per-edge exposure into one acquisition
// probability per susceptible agent and draws the outcomes in a single
// per-agent trial.
func (s *SIR) transmit(people *agents.People) ([]int, error) {
	inf, err := people.Bool(ColInfected)
	if err != nil {
		return nil, err
	}
	sus, err := people.Bool(ColSusceptible)
	if err != nil {
		return nil, err
	}
	dead, err := people.Bool(agents.ColDead)
	if err != nil {
		return nil, err
	}
	relTrans, err := people.Float(ColRelTrans)
	if err != nil {
		return nil, err
	}
	relSus, err := people.Float(ColRelSus)
	if err != nil {
		return nil, err
	}

	// escape[i] is the probability agent i avoids every exposure.
	escape := make(map[int]float64)
	expose := func(src, dst int, edgeBeta float64) {
		if !inf[src] || dead[src] || !sus[dst] || dead[dst] {
			return
		}
		p := s.pars.Beta * edgeBeta * relTrans[src] * relSus[dst]
		if p <= 0 {
			return
		}
		if p > 1 {
			p = 1
		}
		if _, ok := escape[dst]; !ok {
			escape[dst] = 1
		}
		escape[dst] *= 1 - p
	}
	for _, net := range s.nets {
		e := net.Edges()
		p1, p2, beta := e.P1(), e.P2(), e.Beta()
		for i := range p1 {
			expose(p1[i], p2[i], beta[i])
			expose(p2[i], p1[i], beta[i])
		}
	}

	if len(escape) == 0 {
		// Consume the transmission slot anyway to keep streams aligned.
		if _, err := s.trans.Uniform01(nil); err != nil {
			return nil, err
		}
		return nil, nil
	}

	candidates := make([]int, 0, len(escape))
	for idx := range escape {
		candidates = append(candidates, idx)
	}
	sort.Ints(candidates)
	probs := make([]float64, len(candidates))
	for i, idx := range candidates {
		probs[i] = 1 - escape[idx]
	}
	return s.trans.BernoulliPFilter(probs, candidates)
}

// Collect records the timestep's counts and prevalence.
func (s *SIR) Collect(ti int, people *agents.People, res *results.Results) error {
	scale, err := people.Float(agents.ColScale)
	if err != nil {
		return err
	}
	dead, err := people.Bool(agents.ColDead)
	if err != nil {
		return err
	}
	sus, err := people.Bool(ColSusceptible)
	if err != nil {
		return err
	}
	inf, err := people.Bool(ColInfected)
	if err != nil {
		return err
	}
	rec, err := people.Bool(ColRecovered)
	if err != nil {
		return err
	}

	var nSus, nInf, nRec, nAlive float64
	for i := range dead {
		if dead[i] {
			continue
		}
		nAlive += scale[i]
		switch {
		case inf[i]:
			nInf += scale[i]
		case rec[i]:
			nRec += scale[i]
		case sus[i]:
			nSus += scale[i]
		}
	}

	set := func(name string, v float64) error {
		r, err := res.Get(s.Name() + "." + name)
		if err != nil {
			return err
		}
		r.Values[ti] = v
		return nil
	}
	if err := set("new_infections", float64(s.lastNew)); err != nil {
		return err
	}
	if err := set("n_susceptible", nSus); err != nil {
		return err
	}
	if err := set("n_infected", nInf); err != nil {
		return err
	}
	if err := set("n_recovered", nRec); err != nil {
		return err
	}
	prev := 0.0
	if nAlive > 0 {
		prev = nInf / nAlive
	}
	return set("prevalence", prev)
}
