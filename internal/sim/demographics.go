package sim

import (
	"sort"

	"episim/domain/agents"
	"episim/domain/core"
	"episim/domain/network"
	"episim/domain/results"
	"episim/domain/rng"
)

// Demographics applies crude birth and death rates each timestep. Births
// grow the agent store; newborns enter at age zero with drawn sexes.
// When a maternal network is attached, each newborn is connected to a
// mother drawn from the alive females for the post-partum period.
type Demographics struct {
	birthRate float64 // annual births per person alive
	deathRate float64 // annual deaths per person alive
	dt        float64
	postPart  float64 // post-partum transmission window, in timesteps

	maternal *network.MaternalNet

	births  *rng.Stream
	sexes   *rng.Stream
	deaths  *rng.Stream
	mothers *rng.Stream

	people *agents.People

	lastBirths int
	lastDeaths int
}

// NewDemographics creates the module from annual per-capita rates.
func NewDemographics(birthRate, deathRate, dt float64) *Demographics {
	return &Demographics{
		birthRate: birthRate,
		deathRate: deathRate,
		dt:        dt,
		postPart:  6,
		births:    rng.NewStream("births"),
		sexes:     rng.NewStream("birth_sex"),
		deaths:    rng.NewStream("deaths"),
		mothers:   rng.NewStream("birth_mother"),
	}
}

// AttachMaternal wires a maternal network that will receive a
// mother-newborn edge per birth.
func (d *Demographics) AttachMaternal(net *network.MaternalNet) { d.maternal = net }

// Name returns the module label.
func (d *Demographics) Name() string { return "demographics" }

// Columns returns no extra columns: the base schema already carries
// everything demographics needs.
func (d *Demographics) Columns() []agents.ColumnSpec { return nil }

// Init binds the module's streams.
func (d *Demographics) Init(reg *rng.Registry, people *agents.People) error {
	d.people = people
	for _, s := range []*rng.Stream{d.births, d.sexes, d.deaths, d.mothers} {
		if err := s.Bind(reg, people); err != nil {
			return err
		}
	}
	return nil
}

// Results declares the module's series.
func (d *Demographics) Results(npts int) []*results.Result {
	return []*results.Result{
		results.NewResult(d.Name(), "births", npts, true),
		results.NewResult(d.Name(), "deaths", npts, true),
	}
}

// Update applies deaths then births for timestep ti.
func (d *Demographics) Update(ti int, people *agents.People) error {
	if err := d.applyDeaths(ti, people); err != nil {
		return err
	}
	return d.applyBirths(people)
}

func (d *Demographics) applyDeaths(ti int, people *agents.People) error {
	alive, err := people.Alive()
	if err != nil {
		return err
	}
	prob := d.deathRate * d.dt
	if prob > 1 {
		prob = 1
	}
	dying, err := d.deaths.BernoulliFilter(prob, alive)
	if err != nil {
		return err
	}
	d.lastDeaths = len(dying)
	return people.Die(dying, ti)
}

func (d *Demographics) applyBirths(people *agents.People) error {
	nAlive, err := people.NAlive()
	if err != nil {
		return err
	}

	lam := float64(nAlive) * d.birthRate * d.dt
	counts, err := d.births.Sample(rng.DistPoisson, lam, 0, 1, nil)
	if err != nil {
		return err
	}
	nNew := int(counts[0])
	d.lastBirths = nNew
	if nNew == 0 {
		return nil
	}

	// Newborn attributes are per-newborn size draws, not block draws:
	// the newborns have no block slot until the store grows.
	sexVals, err := d.sexes.Sample(rng.DistUniform, 0, 1, nNew, nil)
	if err != nil {
		return err
	}
	female := make([]bool, nNew)
	for i, v := range sexVals {
		female[i] = v < 0.5
	}

	var momIdx []int
	if d.maternal != nil {
		momIdx, err = d.drawMothers(people, nNew)
		if err != nil {
			return err
		}
	}

	uids, err := people.AddAgents(make([]float64, nNew), female)
	if err != nil {
		return err
	}

	if d.maternal != nil && len(momIdx) > 0 {
		n := len(momIdx)
		unborn := core.UIDsToInts(uids[:n])
		dur := make([]float64, n)
		for i := range dur {
			dur[i] = d.postPart
		}
		return d.maternal.AddPairs(momIdx, unborn, dur)
	}
	return nil
}

// drawMothers picks up to n distinct alive females by ranking a uniform
// draw per candidate, so the choice is stable under unrelated population
// changes.
func (d *Demographics) drawMothers(people *agents.People, n int) ([]int, error) {
	females, err := people.Female()
	if err != nil {
		return nil, err
	}
	dead, err := people.Bool(agents.ColDead)
	if err != nil {
		return nil, err
	}
	var cands []int
	for _, f := range females {
		if !dead[f] {
			cands = append(cands, f)
		}
	}
	if len(cands) == 0 {
		return nil, nil
	}

	locs, err := d.mothers.Uniform01(cands)
	if err != nil {
		return nil, err
	}
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if locs[order[a]] != locs[order[b]] {
			return locs[order[a]] < locs[order[b]]
		}
		return cands[order[a]] < cands[order[b]]
	})
	if n > len(order) {
		n = len(order)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = cands[order[i]]
	}
	return out, nil
}

// Collect records the timestep's birth and death counts.
func (d *Demographics) Collect(ti int, _ *agents.People, res *results.Results) error {
	births, err := res.Get("demographics.births")
	if err != nil {
		return err
	}
	births.Values[ti] = float64(d.lastBirths)

	deaths, err := res.Get("demographics.deaths")
	if err != nil {
		return err
	}
	deaths.Values[ti] = float64(d.lastDeaths)
	return nil
}
