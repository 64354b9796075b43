package network

import (
	"sort"

	"episim/domain/agents"
	"episim/domain/rng"
)

// RandomPairNet randomly pairs available males and females into
// partnerships with Poisson-distributed durations.
//
// Pairing is driven entirely by per-agent draws: each available agent
// receives a uniform location from its sex's stream, and partners are
// matched by rank. Because every draw is keyed to the agent's row in the
// full block, adding unrelated agents to the population does not perturb
// the pairings of existing agents.
type RandomPairNet struct {
	edges   *Edges
	meanDur float64

	pairM *rng.Stream
	pairF *rng.Stream
	dur   *rng.Stream
}

// EdgeDur is the per-edge remaining duration column.
const EdgeDur = "dur"

// NewRandomPairNet creates an uninitialized pairing network. Durations
// are drawn as Poisson(meanDur) timesteps.
func NewRandomPairNet(meanDur float64) *RandomPairNet {
	return &RandomPairNet{
		edges:   NewEdges(EdgeDur),
		meanDur: meanDur,
		pairM:   rng.NewStream("pair_m"),
		pairF:   rng.NewStream("pair_f"),
		dur:     rng.NewStream("pair_dur"),
	}
}

// Name returns the network label.
func (n *RandomPairNet) Name() string { return "randompair" }

// Edges returns the network's edge list.
func (n *RandomPairNet) Edges() *Edges { return n.edges }

// Init binds the network's streams and forms the initial partnerships.
func (n *RandomPairNet) Init(reg *rng.Registry, people *agents.People) error {
	for _, s := range []*rng.Stream{n.pairM, n.pairF, n.dur} {
		if err := s.Bind(reg, people); err != nil {
			return err
		}
	}
	_, err := n.AddPairs(people)
	return err
}

// AddPairs forms new partnerships between unpartnered available males
// and females, returning the number of pairs added.
func (n *RandomPairNet) AddPairs(people *agents.People) (int, error) {
	members := make(map[int]bool)
	for _, m := range n.edges.Members() {
		members[m] = true
	}

	availM, availF, err := n.available(people, members)
	if err != nil {
		return 0, err
	}
	if len(availM) == 0 || len(availF) == 0 {
		return 0, nil
	}

	locM, err := n.pairM.Uniform01(availM)
	if err != nil {
		return 0, err
	}
	locF, err := n.pairF.Uniform01(availF)
	if err != nil {
		return 0, err
	}

	rankM := rankByValue(availM, locM)
	rankF := rankByValue(availF, locF)

	nPairs := len(rankM)
	if len(rankF) < nPairs {
		nPairs = len(rankF)
	}
	p1 := rankM[:nPairs]
	p2 := rankF[:nPairs]

	durs, err := n.dur.Poisson(n.meanDur, p1)
	if err != nil {
		return 0, err
	}

	beta := make([]float64, nPairs)
	for i := range beta {
		beta[i] = 1
	}
	if err := n.edges.Append(p1, p2, beta, map[string][]float64{EdgeDur: durs}); err != nil {
		return 0, err
	}
	return nPairs, nil
}

// Update ages existing partnerships by dt, dissolves the expired ones
// and those with a dead partner, then forms new pairs.
func (n *RandomPairNet) Update(people *agents.People, dt float64) error {
	dead, err := people.Bool(agents.ColDead)
	if err != nil {
		return err
	}

	durs, err := n.edges.Extra(EdgeDur)
	if err != nil {
		return err
	}
	keep := make([]bool, n.edges.Len())
	for i := range durs {
		durs[i] -= dt
		keep[i] = durs[i] > 0 && !dead[n.edges.P1()[i]] && !dead[n.edges.P2()[i]]
	}
	if err := n.edges.Keep(keep); err != nil {
		return err
	}

	_, err = n.AddPairs(people)
	return err
}

// available returns unpartnered alive males and females.
func (n *RandomPairNet) available(people *agents.People, members map[int]bool) (availM, availF []int, err error) {
	female, err := people.Bool(agents.ColFemale)
	if err != nil {
		return nil, nil, err
	}
	dead, err := people.Bool(agents.ColDead)
	if err != nil {
		return nil, nil, err
	}
	for i := range female {
		if dead[i] || members[i] {
			continue
		}
		if female[i] {
			availF = append(availF, i)
		} else {
			availM = append(availM, i)
		}
	}
	return availM, availF, nil
}

// rankByValue orders indices by their drawn location, ties broken by
// index so the ordering is fully deterministic.
func rankByValue(indices []int, values []float64) []int {
	out := make([]int, len(indices))
	copy(out, indices)
	byIndex := make(map[int]float64, len(indices))
	for i, idx := range indices {
		byIndex[idx] = values[i]
	}
	sort.Slice(out, func(a, b int) bool {
		va, vb := byIndex[out[a]], byIndex[out[b]]
		if va != vb {
			return va < vb
		}
		return out[a] < out[b]
	})
	return out
}
