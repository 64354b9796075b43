package rng

import "math/bits"

// Xoshiro256 implements the xoshiro256** generator (Blackman & Vigna).
// It satisfies golang.org/x/exp/rand.Source, so gonum's distuv
// distributions can consume it directly.
//
// The generator is used here because it exposes a well-defined jump
// operation: Jump() advances the state by 2^128 steps, producing a
// sub-stream that is statistically independent of the pre-jump stream.
// The whole reproducibility contract of Stream.Step rests on this
// property; substituting a generator without an equivalent skip-ahead
// would silently break cross-scenario determinism.
type Xoshiro256 struct {
	s [4]uint64
}

// NewXoshiro256 creates a generator seeded from a single 64-bit seed.
func NewXoshiro256(seed uint64) *Xoshiro256 {
	x := &Xoshiro256{}
	x.Seed(seed)
	return x
}

// Seed initializes the 256-bit state from a 64-bit seed using the
// SplitMix64 expansion recommended by the xoshiro authors. A zero seed
// is valid: SplitMix64 never yields the all-zero state.
func (x *Xoshiro256) Seed(seed uint64) {
	sm := seed
	for i := range x.s {
		x.s[i] = splitmix64(&sm)
	}
}

// Uint64 returns the next value in the sequence.
func (x *Xoshiro256) Uint64() uint64 {
	result := bits.RotateLeft64(x.s[1]*5, 7) * 9

	t := x.s[1] << 17
	x.s[2] ^= x.s[0]
	x.s[3] ^= x.s[1]
	x.s[1] ^= x.s[2]
	x.s[0] ^= x.s[3]
	x.s[2] ^= t
	x.s[3] = bits.RotateLeft64(x.s[3], 45)

	return result
}

// jumpPoly is the canonical xoshiro256 jump polynomial, equivalent to
// 2^128 calls to Uint64.
var jumpPoly = [4]uint64{0x180ec6d33cfd0aba, 0xd5a61266f0c9392c, 0xa9582618e03fc9aa, 0x39abdc4529b1661c}

// Jump advances the generator by 2^128 steps. Sequences separated by a
// jump never overlap in practice, so repeated jumps partition the full
// period into independent sub-streams.
func (x *Xoshiro256) Jump() {
	var s0, s1, s2, s3 uint64
	for _, jp := range jumpPoly {
		for b := 0; b < 64; b++ {
			if jp&(1<<uint(b)) != 0 {
				s0 ^= x.s[0]
				s1 ^= x.s[1]
				s2 ^= x.s[2]
				s3 ^= x.s[3]
			}
			x.Uint64()
		}
	}
	x.s = [4]uint64{s0, s1, s2, s3}
}

// State returns a snapshot of the internal state.
func (x *Xoshiro256) State() [4]uint64 {
	return x.s
}

// SetState restores a snapshot previously taken with State.
func (x *Xoshiro256) SetState(s [4]uint64) {
	x.s = s
}

// splitmix64 is the canonical SplitMix64 step; see Vigna 2014 for the
// constants and rationale.
func splitmix64(x *uint64) uint64 {
	*x += 0x9e3779b97f4a7c15
	z := *x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
