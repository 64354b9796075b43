package rng

import (
	"fmt"
	"math"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"episim/domain/core"
)

// BlockSizer reports the current block size: the number of agents created
// so far, which is the length of every full draw vector a Stream produces.
// In practice this is the AgentStore of the owning run.
type BlockSizer interface {
	Size() int
}

// Stream is one independently seeded random number stream, associated with
// one decision per timestep.
//
// Every draw primitive generates a full vector of length store.Size() and
// returns only the elements at the requested indices. Element i of the
// full vector depends only on the generator state and the block size,
// never on which indices were requested, so two calls with different
// index subsets on the same timestep agree exactly on their overlap. This
// is the common-random-number guarantee that keeps paired scenarios
// comparable without stochastic noise from unrelated draws.
type Stream struct {
	name   string
	offset *int // explicit seed offset, nil for auto-assignment

	seed  uint64
	src   *Xoshiro256
	rnd   *exprand.Rand
	init  [4]uint64 // generator state captured immediately after seeding
	store BlockSizer

	bound bool
	ready bool // no draw produced yet on the current timestep
}

// NewStream creates an unbound stream whose seed offset will be assigned
// sequentially, in registration order, when it is bound.
func NewStream(name string) *Stream {
	return &Stream{name: name, ready: true}
}

// NewStreamWithOffset creates an unbound stream requesting an explicit
// seed offset. Binding fails if the offset is already in use.
func NewStreamWithOffset(name string, offset int) *Stream {
	return &Stream{name: name, offset: &offset, ready: true}
}

// Name returns the stream's human label.
func (s *Stream) Name() string { return s.name }

// Seed returns the absolute seed (base + offset). Zero until bound.
func (s *Stream) Seed() uint64 { return s.seed }

// Ready reports whether the stream can produce a draw on the current
// timestep.
func (s *Stream) Ready() bool { return s.ready }

// BlockSize returns the current block size from the bound store.
func (s *Stream) BlockSize() int { return s.store.Size() }

// Bind resolves the stream's seed through the registry, seeds the
// generator, and captures the initial state. It may be called exactly
// once per stream.
func (s *Stream) Bind(reg *Registry, store BlockSizer) error {
	if s.bound {
		return fmt.Errorf("%w: stream %q", core.ErrAlreadyBound, s.name)
	}
	if store == nil {
		return core.NewInvalidArgumentError("store", "block size provider is required")
	}

	seed, err := reg.Add(s)
	if err != nil {
		return err
	}

	s.seed = seed
	s.src = NewXoshiro256(seed)
	s.rnd = exprand.New(s.src)
	s.init = s.src.State()
	s.store = store
	s.bound = true
	s.ready = true
	return nil
}

// Reset restores the initial state, making the stream ready again without
// changing its timestep position. Used to re-synchronize after an
// out-of-band draw, such as state initialization before timestep zero.
func (s *Stream) Reset() error {
	if !s.bound {
		return fmt.Errorf("%w: stream %q", core.ErrNotInitialized, s.name)
	}
	s.src.SetState(s.init)
	s.ready = true
	return nil
}

// Step advances the stream to timestep t by restoring the initial state
// and taking t jumps. The resulting draw sequence depends only on the
// seed and t, never on the order or number of previous Step calls, which
// is what keeps unrelated streams from drifting out of sync.
func (s *Stream) Step(t int) error {
	if t < 0 {
		return core.NewInvalidArgumentError("t", "timestep must be non-negative")
	}
	if err := s.Reset(); err != nil {
		return err
	}
	for i := 0; i < t; i++ {
		s.src.Jump()
	}
	s.ready = true
	return nil
}

// preDraw validates the draw protocol and consumes the ready flag.
// Callers check their parameters first, so a rejected call leaves the
// timestep's draw available.
func (s *Stream) preDraw() error {
	if !s.bound {
		return fmt.Errorf("%w: stream %q", core.ErrNotInitialized, s.name)
	}
	if !s.ready {
		return core.NewNotReadyError(s.name)
	}
	s.ready = false
	return nil
}

// Uniform01 draws a full block of Unif(0,1) variates and returns the
// elements at indices. A nil index slice returns the whole block.
func (s *Stream) Uniform01(indices []int) ([]float64, error) {
	if err := s.preDraw(); err != nil {
		return nil, err
	}
	return subsetFloat(s.uniformBlock(s.store.Size()), indices), nil
}

// Poisson draws Poisson(rate) variates for the whole block and returns
// the elements at indices.
func (s *Stream) Poisson(rate float64, indices []int) ([]float64, error) {
	if rate < 0 {
		return nil, core.NewInvalidArgumentError("rate", "must be non-negative")
	}
	if err := s.preDraw(); err != nil {
		return nil, err
	}
	block := s.poissonBlock(rate, s.store.Size())
	return subsetFloat(block, indices), nil
}

// Bernoulli performs independent trials with probability prob for the
// whole block and returns the outcomes at indices.
func (s *Stream) Bernoulli(prob float64, indices []int) ([]bool, error) {
	if err := s.preDraw(); err != nil {
		return nil, err
	}
	block := s.uniformBlock(s.store.Size())
	if indices == nil {
		out := make([]bool, len(block))
		for i, u := range block {
			out[i] = u < prob
		}
		return out, nil
	}
	out := make([]bool, len(indices))
	for i, idx := range indices {
		out[i] = block[idx] < prob
	}
	return out, nil
}

// BernoulliFilter performs Bernoulli trials over the block and returns
// the subset of indices whose trials succeeded, preserving order. A nil
// index slice filters the whole block.
func (s *Stream) BernoulliFilter(prob float64, indices []int) ([]int, error) {
	hits, err := s.Bernoulli(prob, indices)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(hits))
	for i, hit := range hits {
		if !hit {
			continue
		}
		if indices == nil {
			out = append(out, i)
		} else {
			out = append(out, indices[i])
		}
	}
	return out, nil
}

// BernoulliPFilter performs per-agent Bernoulli trials with individual
// probabilities, returning the indices whose trials succeeded in order.
// probs[i] is the probability for indices[i]. Agents outside indices
// still consume their slot in the block, so overlapping calls agree.
func (s *Stream) BernoulliPFilter(probs []float64, indices []int) ([]int, error) {
	if len(probs) != len(indices) {
		return nil, core.NewLengthMismatchError("probs", len(indices), len(probs))
	}
	if err := s.preDraw(); err != nil {
		return nil, err
	}
	block := s.uniformBlock(s.store.Size())
	out := make([]int, 0, len(indices))
	for i, idx := range indices {
		if block[idx] < probs[i] {
			out = append(out, idx)
		}
	}
	return out, nil
}

// Choice draws weighted categorical variates (one category index per
// agent) for the whole block and returns the elements at indices.
func (s *Stream) Choice(weights []float64, indices []int) ([]int, error) {
	if len(weights) == 0 {
		return nil, core.NewInvalidArgumentError("weights", "must be non-empty")
	}
	if err := s.preDraw(); err != nil {
		return nil, err
	}
	cat := distuv.NewCategorical(weights, s.src)
	n := s.store.Size()
	block := make([]int, n)
	for i := range block {
		block[i] = int(cat.Rand())
	}
	if indices == nil {
		return block, nil
	}
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = block[idx]
	}
	return out, nil
}

// Sample draws from the distribution identified by dist. With a non-nil
// index slice it draws a full block and subsets, preserving the CRN
// guarantee; with a nil index slice it draws exactly size variates, the
// form used for per-edge quantities like partnership durations.
//
// Parameter conventions follow the configuration format:
//
//	uniform       low=par1, high=par2
//	normal        mean=par1, std=par2
//	normal_pos    right-sided normal (absolute value)
//	normal_int    rounded right-sided normal
//	lognormal     mean=par1, std=par2 of the lognormal itself
//	lognormal_int rounded lognormal
//	poisson       rate=par1 (par2 unused)
//	neg_binomial  mean=par1, dispersion k=par2; k→∞ recovers Poisson
//	beta          alpha=par1, beta=par2
//	gamma         shape=par1, scale=par2
//	choice        number of equally likely categories=par1
func (s *Stream) Sample(dist Dist, par1, par2 float64, size int, indices []int) ([]float64, error) {
	if indices == nil && size < 0 {
		return nil, core.NewInvalidArgumentError("size", "must be non-negative")
	}
	if err := checkDistPars(dist, par1, par2); err != nil {
		return nil, err
	}
	if err := s.preDraw(); err != nil {
		return nil, err
	}
	n := size
	if indices != nil {
		n = s.store.Size()
	}
	return subsetFloat(s.sampleVals(dist, par1, par2, n), indices), nil
}

// checkDistPars rejects out-of-domain distribution parameters. It runs
// before the ready flag is consumed, so a rejected call does not cost
// the stream its draw for the timestep.
func checkDistPars(dist Dist, par1, par2 float64) error {
	switch dist {
	case DistUniform:
		if par2 < par1 {
			return core.NewInvalidArgumentError("uniform", "high must be >= low")
		}
	case DistNormal, DistNormalPos, DistNormalInt:
		if par2 < 0 {
			return core.NewInvalidArgumentError("normal", "std must be non-negative")
		}
	case DistLognormal, DistLognormalInt:
		// Degenerate means zero-fill instead of failing.
	case DistPoisson:
		if par1 < 0 {
			return core.NewInvalidArgumentError("poisson", "rate must be non-negative")
		}
	case DistNegBinomial:
		if par2 <= 0 {
			return core.NewInvalidArgumentError("neg_binomial", "dispersion must be positive")
		}
	case DistBeta:
		if par1 <= 0 || par2 <= 0 {
			return core.NewInvalidArgumentError("beta", "alpha and beta must be positive")
		}
	case DistGamma:
		if par1 <= 0 || par2 <= 0 {
			return core.NewInvalidArgumentError("gamma", "shape and scale must be positive")
		}
	case DistChoice:
		if int(par1) < 1 {
			return core.NewInvalidArgumentError("choice", "need at least one category")
		}
	default:
		if _, err := ParseDist(string(dist)); err != nil {
			return err
		}
		return core.NewInvalidArgumentError("dist", fmt.Sprintf("unhandled distribution %q", dist))
	}
	return nil
}

// sampleVals generates n variates from the current generator state.
// Parameters have already passed checkDistPars.
func (s *Stream) sampleVals(dist Dist, par1, par2 float64, n int) []float64 {
	out := make([]float64, n)

	switch dist {
	case DistUniform:
		d := distuv.Uniform{Min: par1, Max: par2, Src: s.src}
		for i := range out {
			out[i] = d.Rand()
		}

	case DistNormal, DistNormalPos, DistNormalInt:
		d := distuv.Normal{Mu: par1, Sigma: par2, Src: s.src}
		for i := range out {
			v := d.Rand()
			switch dist {
			case DistNormalPos:
				v = math.Abs(v)
			case DistNormalInt:
				v = math.Round(math.Abs(v))
			}
			out[i] = v
		}

	case DistLognormal, DistLognormalInt:
		// Degenerate means are tolerated by zero-filling rather than
		// failing, so one out-of-domain agent cannot abort a whole
		// block draw.
		if par1 <= 0 {
			return out
		}
		mu := math.Log(par1 * par1 / math.Sqrt(par2*par2+par1*par1))
		sigma := math.Sqrt(math.Log(par2*par2/(par1*par1) + 1))
		d := distuv.LogNormal{Mu: mu, Sigma: sigma, Src: s.src}
		for i := range out {
			v := d.Rand()
			if dist == DistLognormalInt {
				v = math.Round(v)
			}
			out[i] = v
		}

	case DistPoisson:
		copy(out, s.poissonBlock(par1, n))

	case DistNegBinomial:
		// Mean m and dispersion k give r=k, p=k/(m+k); sampled as a
		// gamma-Poisson mixture with lambda ~ Gamma(k, scale m/k).
		m, k := par1, par2
		if m <= 0 {
			return out
		}
		g := distuv.Gamma{Alpha: k, Beta: k / m, Src: s.src}
		for i := range out {
			lam := g.Rand()
			if lam <= 0 {
				continue
			}
			out[i] = distuv.Poisson{Lambda: lam, Src: s.src}.Rand()
		}

	case DistBeta:
		d := distuv.Beta{Alpha: par1, Beta: par2, Src: s.src}
		for i := range out {
			out[i] = d.Rand()
		}

	case DistGamma:
		d := distuv.Gamma{Alpha: par1, Beta: 1 / par2, Src: s.src}
		for i := range out {
			out[i] = d.Rand()
		}

	case DistChoice:
		k := int(par1)
		for i := range out {
			v := math.Floor(s.rnd.Float64() * float64(k))
			if v >= float64(k) {
				v = float64(k - 1)
			}
			out[i] = v
		}
	}

	return out
}

func (s *Stream) uniformBlock(n int) []float64 {
	block := make([]float64, n)
	for i := range block {
		block[i] = s.rnd.Float64()
	}
	return block
}

func (s *Stream) poissonBlock(rate float64, n int) []float64 {
	block := make([]float64, n)
	if rate == 0 {
		return block
	}
	d := distuv.Poisson{Lambda: rate, Src: s.src}
	for i := range block {
		block[i] = d.Rand()
	}
	return block
}

func subsetFloat(block []float64, indices []int) []float64 {
	if indices == nil {
		return block
	}
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = block[idx]
	}
	return out
}
