package network

import (
	"episim/domain/agents"
	"episim/domain/rng"
)

// MaternalNet connects pregnant women to their unborn children for
// vertical transmission. It starts empty and is filled by the pregnancy
// module as conceptions occur; edges are never removed, but beta drops
// to zero once the post-partum period ends.
type MaternalNet struct {
	edges *Edges
}

// NewMaternalNet creates an empty maternal network.
func NewMaternalNet() *MaternalNet {
	return &MaternalNet{edges: NewEdges(EdgeDur)}
}

// Name returns the network label.
func (n *MaternalNet) Name() string { return "maternal" }

// Edges returns the network's edge list.
func (n *MaternalNet) Edges() *Edges { return n.edges }

// Init is a no-op: maternal connections involve no random draws, so the
// network binds no streams.
func (n *MaternalNet) Init(_ *rng.Registry, _ *agents.People) error { return nil }

// AddPairs connects mothers to their as-yet-unborn children for the
// given durations.
func (n *MaternalNet) AddPairs(mothers, unborn []int, dur []float64) error {
	beta := make([]float64, len(mothers))
	for i := range beta {
		beta[i] = 1
	}
	return n.edges.Append(mothers, unborn, beta, map[string][]float64{EdgeDur: dur})
}

// Update ages the connections by dt and zeroes transmissibility for
// pairs past the post-partum period. Connections are kept for history.
func (n *MaternalNet) Update(_ *agents.People, dt float64) error {
	durs, err := n.edges.Extra(EdgeDur)
	if err != nil {
		return err
	}
	beta := n.edges.Beta()
	for i := range durs {
		durs[i] -= dt
		if durs[i] <= 0 {
			beta[i] = 0
		}
	}
	return nil
}
