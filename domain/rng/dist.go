package rng

import (
	"fmt"
	"strings"

	"episim/domain/core"
)

// Dist identifies one of the closed set of supported distribution shapes.
// The set is fixed and small, so dispatch happens once, centrally, in
// Stream.Sample rather than through per-distribution types.
type Dist string

const (
	DistUniform      Dist = "uniform"
	DistNormal       Dist = "normal"
	DistNormalPos    Dist = "normal_pos"
	DistNormalInt    Dist = "normal_int"
	DistLognormal    Dist = "lognormal"
	DistLognormalInt Dist = "lognormal_int"
	DistPoisson      Dist = "poisson"
	DistNegBinomial  Dist = "neg_binomial"
	DistBeta         Dist = "beta"
	DistGamma        Dist = "gamma"
	DistChoice       Dist = "choice"
)

// distChoices lists the official names, used in error messages.
var distChoices = []Dist{
	DistUniform,
	DistNormal,
	DistNormalPos,
	DistNormalInt,
	DistLognormal,
	DistLognormalInt,
	DistPoisson,
	DistNegBinomial,
	DistBeta,
	DistGamma,
	DistChoice,
}

// distAliases maps accepted shorthand to official names.
var distAliases = map[string]Dist{
	"unif":    DistUniform,
	"norm":    DistNormal,
	"lognorm": DistLognormal,
}

// ParseDist resolves a configuration string to a distribution kind.
func ParseDist(s string) (Dist, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if d, ok := distAliases[name]; ok {
		return d, nil
	}
	d := Dist(name)
	for _, known := range distChoices {
		if d == known {
			return d, nil
		}
	}
	return "", core.NewInvalidArgumentError("dist",
		fmt.Sprintf("distribution %q is not implemented; choices are: %v", s, distChoices))
}

// DistSpec bundles a distribution kind with its two parameters, the way
// configuration files describe distribution choices (e.g. partnership
// duration ~ normal_pos(1, 1)).
type DistSpec struct {
	Dist Dist    `json:"dist"`
	Par1 float64 `json:"par1"`
	Par2 float64 `json:"par2"`
}
