package excel

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"episim/domain/results"
)

func sampleResults(t *testing.T) *results.Results {
	t.Helper()
	res := results.NewResults()
	r1 := results.NewResult("sim", "n_alive", 3, true)
	copy(r1.Values, []float64{100, 99, 98})
	r2 := results.NewResult("sir", "n_infected", 3, true)
	copy(r2.Values, []float64{5, 8, 12})
	for _, r := range []*results.Result{r1, r2} {
		if err := res.Add(r); err != nil {
			t.Fatal(err)
		}
	}
	return res
}

func TestResultWriterExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := NewResultWriter().Export(path, sampleResults(t)); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := map[string]bool{"sim": false, "sir": false, "summary": false}
	for _, s := range sheets {
		if _, ok := want[s]; ok {
			want[s] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("missing sheet %q in %v", name, sheets)
		}
	}

	header, err := f.GetCellValue("sir", "B1")
	if err != nil {
		t.Fatal(err)
	}
	if header != "n_infected" {
		t.Errorf("sir!B1 = %q", header)
	}
	val, err := f.GetCellValue("sir", "B3")
	if err != nil {
		t.Fatal(err)
	}
	if val != "8" {
		t.Errorf("sir!B3 = %q, want 8", val)
	}

	// Summary carries one row per series.
	rows, err := f.GetRows("summary")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("summary rows = %d, want header + 2", len(rows))
	}
	if len(rows) > 1 && rows[1][0] != "sim.n_alive" {
		t.Errorf("summary first series = %q", rows[1][0])
	}
}

func TestResultWriterEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	err := NewResultWriter().Export(path, results.NewResults())
	if err == nil {
		t.Fatal("expected error for empty results")
	}
}
