// Package network holds contact networks: edge lists connecting pairs of
// agents, plus the pairing rules that create and dissolve those edges.
package network

import (
	"fmt"
	"sort"

	"episim/domain/core"
)

// Edges is a single network's edge list. Every edge has two endpoints
// (p1, p2, row positions into the agent store) and a relative
// transmissibility beta; networks may declare extra per-edge float
// columns such as duration or act counts. All columns must stay the same
// length; Validate enforces this along with endpoint range.
type Edges struct {
	p1    []int
	p2    []int
	beta  []float64
	extra map[string][]float64
	order []string // extra column names, declaration order
}

// NewEdges creates an empty edge list with the given extra columns.
func NewEdges(extraCols ...string) *Edges {
	e := &Edges{extra: make(map[string][]float64)}
	for _, name := range extraCols {
		e.extra[name] = nil
		e.order = append(e.order, name)
	}
	return e
}

// Len returns the number of edges.
func (e *Edges) Len() int { return len(e.p1) }

// P1 returns the first-endpoint column.
func (e *Edges) P1() []int { return e.p1 }

// P2 returns the second-endpoint column.
func (e *Edges) P2() []int { return e.p2 }

// Beta returns the per-edge transmissibility column.
func (e *Edges) Beta() []float64 { return e.beta }

// Extra returns a declared extra column.
func (e *Edges) Extra(name string) ([]float64, error) {
	col, ok := e.extra[name]
	if !ok {
		return nil, core.NewNotFoundError("edge column", name)
	}
	return col, nil
}

// Append adds a batch of edges. All slices must have equal length;
// extra must supply every declared extra column.
func (e *Edges) Append(p1, p2 []int, beta []float64, extra map[string][]float64) error {
	n := len(p1)
	if len(p2) != n {
		return core.NewLengthMismatchError("p2", n, len(p2))
	}
	if len(beta) != n {
		return core.NewLengthMismatchError("beta", n, len(beta))
	}
	for _, name := range e.order {
		col, ok := extra[name]
		if !ok {
			return core.NewNotFoundError("edge column in batch", name)
		}
		if len(col) != n {
			return core.NewLengthMismatchError(name, n, len(col))
		}
	}
	e.p1 = append(e.p1, p1...)
	e.p2 = append(e.p2, p2...)
	e.beta = append(e.beta, beta...)
	for _, name := range e.order {
		e.extra[name] = append(e.extra[name], extra[name]...)
	}
	return nil
}

// Keep retains only the edges where mask is true.
func (e *Edges) Keep(mask []bool) error {
	if len(mask) != e.Len() {
		return core.NewLengthMismatchError("mask", e.Len(), len(mask))
	}
	out := 0
	for i, keep := range mask {
		if !keep {
			continue
		}
		e.p1[out] = e.p1[i]
		e.p2[out] = e.p2[i]
		e.beta[out] = e.beta[i]
		for _, name := range e.order {
			e.extra[name][out] = e.extra[name][i]
		}
		out++
	}
	e.p1 = e.p1[:out]
	e.p2 = e.p2[:out]
	e.beta = e.beta[:out]
	for _, name := range e.order {
		e.extra[name] = e.extra[name][:out]
	}
	return nil
}

// Validate checks the integrity of the edge list: equal column lengths
// and endpoints within the current block. Length mismatches cannot be
// repaired and abort the run.
func (e *Edges) Validate(blockSize int) error {
	n := e.Len()
	if len(e.p2) != n {
		return core.NewLengthMismatchError("p2", n, len(e.p2))
	}
	if len(e.beta) != n {
		return core.NewLengthMismatchError("beta", n, len(e.beta))
	}
	for _, name := range e.order {
		if len(e.extra[name]) != n {
			return core.NewLengthMismatchError(name, n, len(e.extra[name]))
		}
	}
	for i := 0; i < n; i++ {
		if e.p1[i] < 0 || e.p1[i] >= blockSize || e.p2[i] < 0 || e.p2[i] >= blockSize {
			return core.NewInvalidArgumentError("edge",
				fmt.Sprintf("edge %d endpoints (%d,%d) outside block of size %d", i, e.p1[i], e.p2[i], blockSize))
		}
	}
	return nil
}

// Members returns the sorted unique indices of everyone present in the
// network.
func (e *Edges) Members() []int {
	seen := make(map[int]bool, 2*e.Len())
	for i := range e.p1 {
		seen[e.p1[i]] = true
		seen[e.p2[i]] = true
	}
	return sortedKeys(seen)
}

// FindContacts returns the sorted unique partners of the given agents.
// Edges are treated as bidirectional; sorting makes the result
// reproducible for a given seed.
func (e *Edges) FindContacts(indices []int) []int {
	want := make(map[int]bool, len(indices))
	for _, i := range indices {
		want[i] = true
	}
	found := make(map[int]bool)
	for i := range e.p1 {
		if want[e.p1[i]] {
			found[e.p2[i]] = true
		}
		if want[e.p2[i]] {
			found[e.p1[i]] = true
		}
	}
	return sortedKeys(found)
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
