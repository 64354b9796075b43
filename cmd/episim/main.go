package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"episim/adapters/excel"
	"episim/adapters/postgres"
	"episim/domain/network"
	"episim/internal"
	"episim/internal/config"
	"episim/internal/report"
	"episim/internal/scenario"
	"episim/internal/sim"
	"episim/ports"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		seed    = flag.Uint64("seed", cfg.Sim.Seed, "base seed shared by all scenarios")
		agents  = flag.Int("agents", cfg.Sim.NAgents, "initial population size")
		steps   = flag.Int("steps", cfg.Sim.NPts, "number of timesteps")
		beta    = flag.Float64("beta", sim.DefaultSIRPars().Beta, "baseline transmission probability")
		altBeta = flag.Float64("alt-beta", 0, "second-scenario transmission probability (0 disables the comparison)")
		xlsx    = flag.String("xlsx", cfg.Paths.ExcelFile, "results workbook path")
		htmlOut = flag.String("report", cfg.Paths.ReportFile, "HTML report path")
	)
	flag.Parse()

	log := internal.DefaultLogger
	pars := sim.DefaultPars()
	pars.Seed = *seed
	pars.NAgents = *agents
	pars.NPts = *steps
	pars.Dt = cfg.Sim.Dt

	specs := []scenario.Spec{sirSpec("baseline", *beta)}
	if *altBeta > 0 {
		specs = append(specs, sirSpec("alternative", *altBeta))
	}

	ctx := context.Background()
	outcomes, err := scenario.NewRunner(pars, specs...).Run(ctx)
	if err != nil {
		return err
	}

	if *xlsx != "" {
		if err := excel.NewResultWriter().Export(*xlsx, outcomes[0].Results); err != nil {
			return err
		}
		log.Info("wrote results workbook to %s", *xlsx)
	}

	if *htmlOut != "" {
		md, err := report.BuildMarkdown("Simulation Report", outcomes...)
		if err != nil {
			return err
		}
		if err := report.WriteHTML(*htmlOut, "Simulation Report", md); err != nil {
			return err
		}
		log.Info("wrote report to %s", *htmlOut)
	}

	if cfg.Database.URL != "" {
		if err := persist(ctx, cfg.Database.URL, pars, outcomes); err != nil {
			return err
		}
		log.Info("persisted %d run(s)", len(outcomes))
	}
	return nil
}

// sirSpec builds the standard demo assembly: demographics with a
// maternal network, a random pairing network, and an SIR disease with
// the given transmission probability.
func sirSpec(label string, beta float64) scenario.Spec {
	return scenario.Spec{
		Label: label,
		Build: func(pars sim.Pars) (*sim.Sim, error) {
			s := sim.New(pars)

			maternal := network.NewMaternalNet()
			demog := sim.NewDemographics(0.02, 0.01, pars.Dt)
			demog.AttachMaternal(maternal)
			s.AddDemographics(demog)

			pairs := network.NewRandomPairNet(12)
			s.AddNetwork(pairs)
			s.AddNetwork(maternal)

			sirPars := sim.DefaultSIRPars()
			sirPars.Beta = beta
			s.AddDisease(sim.NewSIR(sirPars, pairs, maternal))
			return s, nil
		},
	}
}

func persist(ctx context.Context, url string, pars sim.Pars, outcomes []scenario.Outcome) error {
	db, err := postgres.Connect(url)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return err
	}
	repo := postgres.NewRunRepository(db)
	for _, out := range outcomes {
		rec := ports.RunRecord{
			ID:       out.RunID,
			Scenario: out.Label,
			Seed:     pars.Seed,
			NAgents:  pars.NAgents,
			NPts:     pars.NPts,
		}
		if err := repo.SaveRun(ctx, rec, out.Results); err != nil {
			return err
		}
	}
	return nil
}
