// Package results holds per-timestep simulation outputs: one named
// series per tracked quantity, grouped by owning module.
package results

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"episim/domain/core"
)

// Result is a per-timestep series for one tracked quantity, e.g.
// "sir.new_infections".
type Result struct {
	Module string
	Name   string
	Label  string
	Scale  bool // whether the value scales with population size
	Values []float64
}

// NewResult creates a zero-filled series of npts timesteps.
func NewResult(module, name string, npts int, scale bool) *Result {
	return &Result{
		Module: module,
		Name:   name,
		Label:  name,
		Scale:  scale,
		Values: make([]float64, npts),
	}
}

// Key returns the unique key of the result: <module>.<name>.
func (r *Result) Key() string {
	if r.Module == "" {
		return r.Name
	}
	return r.Module + "." + r.Name
}

// Summary holds descriptive statistics of a series.
type Summary struct {
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Q25    float64
	Q75    float64
	Total  float64
	Final  float64
}

// Summarize computes descriptive statistics over the series.
func (r *Result) Summarize() (Summary, error) {
	if len(r.Values) == 0 {
		return Summary{}, core.NewInvalidArgumentError("values", "empty series")
	}
	var (
		s   Summary
		err error
	)
	if s.Mean, err = stats.Mean(r.Values); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(r.Values); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(r.Values); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(r.Values); err != nil {
		return s, err
	}
	if s.Q25, err = percentile(r.Values, 25); err != nil {
		return s, err
	}
	if s.Q75, err = percentile(r.Values, 75); err != nil {
		return s, err
	}
	if s.Total, err = stats.Sum(r.Values); err != nil {
		return s, err
	}
	s.Final = r.Values[len(r.Values)-1]
	return s, nil
}

// percentile tolerates short series: the interpolating estimator needs
// at least four points, below that the nearest-rank value is used.
func percentile(vals []float64, p float64) (float64, error) {
	if len(vals) < 4 {
		return stats.PercentileNearestRank(vals, p)
	}
	return stats.Percentile(vals, p)
}

// Results is an ordered collection of result series keyed module.name.
type Results struct {
	order []string
	byKey map[string]*Result
}

// NewResults creates an empty collection.
func NewResults() *Results {
	return &Results{byKey: make(map[string]*Result)}
}

// Add registers a series; duplicate keys are rejected.
func (rs *Results) Add(r *Result) error {
	key := r.Key()
	if _, exists := rs.byKey[key]; exists {
		return core.NewInvalidArgumentError("result", fmt.Sprintf("duplicate key %q", key))
	}
	rs.byKey[key] = r
	rs.order = append(rs.order, key)
	return nil
}

// Get returns the series with the given key.
func (rs *Results) Get(key string) (*Result, error) {
	r, ok := rs.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrResultNotFound, key)
	}
	return r, nil
}

// All returns the series in registration order.
func (rs *Results) All() []*Result {
	out := make([]*Result, 0, len(rs.order))
	for _, key := range rs.order {
		out = append(out, rs.byKey[key])
	}
	return out
}

// Modules returns the distinct owning modules in first-seen order.
func (rs *Results) Modules() []string {
	seen := make(map[string]bool)
	var out []string
	for _, key := range rs.order {
		mod := rs.byKey[key].Module
		if !seen[mod] {
			seen[mod] = true
			out = append(out, mod)
		}
	}
	return out
}

// Fingerprint hashes every series' key and values in registration
// order. Two runs are bit-identical exactly when their fingerprints
// match, which is how determinism regressions get caught.
func (rs *Results) Fingerprint() core.Hash {
	var buf bytes.Buffer
	for _, key := range rs.order {
		buf.WriteString(key)
		for _, v := range rs.byKey[key].Values {
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
			buf.Write(b[:])
		}
	}
	return core.NewHash(buf.Bytes())
}

// ByModule returns the series owned by one module, in order.
func (rs *Results) ByModule(module string) []*Result {
	var out []*Result
	for _, key := range rs.order {
		if rs.byKey[key].Module == module {
			out = append(out, rs.byKey[key])
		}
	}
	return out
}
