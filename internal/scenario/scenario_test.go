package scenario

import (
	"context"
	"errors"
	"testing"

	"episim/domain/core"
	"episim/domain/network"
	"episim/internal/sim"
)

func sirScenario(label string, beta float64) Spec {
	return Spec{
		Label: label,
		Build: func(pars sim.Pars) (*sim.Sim, error) {
			s := sim.New(pars)
			s.AddDemographics(sim.NewDemographics(0.04, 0.02, pars.Dt))
			pairs := network.NewRandomPairNet(12)
			s.AddNetwork(pairs)
			sirPars := sim.DefaultSIRPars()
			sirPars.Beta = beta
			s.AddDisease(sim.NewSIR(sirPars, pairs))
			return s, nil
		},
	}
}

func testPars() sim.Pars {
	p := sim.DefaultPars()
	p.NAgents = 150
	p.NPts = 20
	p.Seed = 777
	return p
}

func TestRunnerEmpty(t *testing.T) {
	_, err := NewRunner(testPars()).Run(context.Background())
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRunnerOutcomeOrder(t *testing.T) {
	r := NewRunner(testPars(),
		sirScenario("baseline", 0.05),
		sirScenario("high", 0.3),
		sirScenario("off", 0),
	)
	outs, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(outs) != 3 {
		t.Fatalf("got %d outcomes", len(outs))
	}
	for i, label := range []string{"baseline", "high", "off"} {
		if outs[i].Label != label {
			t.Errorf("outcome %d is %q, want %q", i, outs[i].Label, label)
		}
		if outs[i].Results == nil {
			t.Errorf("outcome %q missing results", label)
		}
		if outs[i].RunID == "" {
			t.Errorf("outcome %q missing run ID", label)
		}
	}
}

func TestRunnerPairedDifference(t *testing.T) {
	r := NewRunner(testPars(),
		sirScenario("baseline", 0),
		sirScenario("treated", 0.3),
	)
	outs, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Shared base seed keeps the demographic side identical, so the
	// difference in the demographic series is exactly zero.
	diff, err := Difference(outs[0].Results, outs[1].Results, "demographics.births")
	if err != nil {
		t.Fatal(err)
	}
	for ti, d := range diff {
		if d != 0 {
			t.Fatalf("births differ at ti=%d by %v", ti, d)
		}
	}

	// The disease series carry the effect.
	diff, err = Difference(outs[0].Results, outs[1].Results, "sir.n_infected")
	if err != nil {
		t.Fatal(err)
	}
	var any bool
	for _, d := range diff {
		if d != 0 {
			any = true
			break
		}
	}
	if !any {
		t.Error("beta change produced identical infection series")
	}
}

func TestRunnerBuildFailure(t *testing.T) {
	bad := Spec{
		Label: "bad",
		Build: func(pars sim.Pars) (*sim.Sim, error) {
			pars.NAgents = 0
			s := sim.New(pars)
			if err := s.Init(); err != nil {
				return nil, err
			}
			return s, nil
		},
	}
	_, err := NewRunner(testPars(), sirScenario("ok", 0.1), bad).Run(context.Background())
	if err == nil {
		t.Fatal("expected failure to propagate")
	}
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("cause lost: %v", err)
	}
}

func TestDifferenceMissingSeries(t *testing.T) {
	r := NewRunner(testPars(), sirScenario("a", 0.1), sirScenario("b", 0.2))
	outs, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Difference(outs[0].Results, outs[1].Results, "nope.series"); !core.IsNotFoundError(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}
