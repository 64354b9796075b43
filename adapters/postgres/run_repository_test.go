package postgres

import (
	"context"
	"os"
	"testing"

	"episim/domain/core"
	"episim/internal/errors"
	"episim/internal/testkit"
	"episim/ports"
)

// Tests run only against a real database, pointed at by TEST_DATABASE_URL.
func testRepo(t *testing.T) ports.RunRepository {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := Connect(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return NewRunRepository(db)
}

func TestRunRepositoryRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	res, err := testkit.DemoResults(21)
	if err != nil {
		t.Fatal(err)
	}
	rec := ports.RunRecord{
		ID:       core.RunID(core.NewID()),
		Scenario: "integration",
		Seed:     21,
		NAgents:  100,
		NPts:     15,
	}
	if err := repo.SaveRun(ctx, rec, res); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetRun(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if *got != rec {
		t.Errorf("got %+v, want %+v", *got, rec)
	}

	orig, err := res.Get("sim.n_alive")
	if err != nil {
		t.Fatal(err)
	}
	stored, err := repo.GetSeries(ctx, rec.ID, "sim.n_alive")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Values) != len(orig.Values) {
		t.Fatalf("series length %d, want %d", len(stored.Values), len(orig.Values))
	}
	for i := range orig.Values {
		if stored.Values[i] != orig.Values[i] {
			t.Fatalf("series differs at %d", i)
		}
	}

	runs, err := repo.ListRuns(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, r := range runs {
		if r.ID == rec.ID {
			found = true
		}
	}
	if !found {
		t.Error("saved run missing from listing")
	}
}

func TestRunRepositoryNotFound(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	_, err := repo.GetRun(ctx, core.RunID(core.NewID()))
	if errors.GetCode(err) != errors.CodeNotFound {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}
