package agents

import (
	"errors"
	"math"
	"testing"

	"episim/domain/core"
)

func TestStoreGrowthCorrectness(t *testing.T) {
	st, err := NewStore(10, FloatCol("age", 0), BoolCol("dead", false))
	if err != nil {
		t.Fatal(err)
	}
	if st.Size() != 10 || st.Capacity() != 10 {
		t.Fatalf("expected n=10 s=10, got n=%d s=%d", st.Size(), st.Capacity())
	}

	// Mark the original rows so we can check they survive reallocation.
	age, err := st.Float("age")
	if err != nil {
		t.Fatal(err)
	}
	for i := range age {
		age[i] = float64(i) * 1.5
	}

	uids, err := st.Grow(2)
	if err != nil {
		t.Fatal(err)
	}

	// 10+2 > 10, so capacity reallocates to max(12, 15) = 15.
	if st.Size() != 12 {
		t.Errorf("expected n=12, got %d", st.Size())
	}
	if st.Capacity() != 15 {
		t.Errorf("expected s=15 after 50%% growth, got %d", st.Capacity())
	}

	if len(uids) != 2 || uids[0] != 10 || uids[1] != 11 {
		t.Errorf("expected sequential UIDs [10 11], got %v", uids)
	}

	age, err = st.Float("age")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if age[i] != float64(i)*1.5 {
			t.Errorf("row %d changed during reallocation: %v", i, age[i])
		}
	}
	for i := 10; i < 12; i++ {
		if age[i] != 0 {
			t.Errorf("new row %d not filled: %v", i, age[i])
		}
	}
}

func TestStoreGrowWithinCapacity(t *testing.T) {
	st, err := NewStore(10, FloatCol("x", 0))
	if err != nil {
		t.Fatal(err)
	}
	// 10 -> 12 reallocates to 15, leaving 3 spare slots.
	if _, err := st.Grow(2); err != nil {
		t.Fatal(err)
	}
	if st.Capacity() != 15 {
		t.Fatalf("expected capacity 15, got %d", st.Capacity())
	}

	// Growing into the spare slots must not reallocate.
	if _, err := st.Grow(3); err != nil {
		t.Fatal(err)
	}
	if st.Size() != 15 || st.Capacity() != 15 {
		t.Errorf("expected n=15 s=15, got n=%d s=%d", st.Size(), st.Capacity())
	}
}

func TestStoreGrowErrors(t *testing.T) {
	st, err := NewStore(3)
	if err != nil {
		t.Fatal(err)
	}

	_, err = st.Grow(-1)
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for negative growth, got %v", err)
	}

	uids, err := st.Grow(0)
	if err != nil || len(uids) != 0 {
		t.Errorf("Grow(0) should be a no-op, got %v, %v", uids, err)
	}
}

func TestStoreUnknownColumn(t *testing.T) {
	st, err := NewStore(3, FloatCol("age", 0))
	if err != nil {
		t.Fatal(err)
	}
	_, err = st.Float("height")
	if !core.IsNotFoundError(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
	_, err = st.Bool("age")
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("expected type mismatch error, got %v", err)
	}
}

func TestStoreLock(t *testing.T) {
	st, err := NewStore(3)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.AddColumn(FloatCol("pre_lock", 1)); err != nil {
		t.Fatalf("AddColumn before lock: %v", err)
	}

	st.Lock()
	err = st.AddColumn(FloatCol("post_lock", 1))
	if !errors.Is(err, core.ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}

	// Rows can still grow after locking.
	if _, err := st.Grow(2); err != nil {
		t.Errorf("Grow after lock should work: %v", err)
	}
}

func TestStoreFillPolicies(t *testing.T) {
	t.Run("constant and NaN fills", func(t *testing.T) {
		st, err := NewStore(3,
			FloatCol("scale", 1.0),
			FloatColNaN("ti_dead"),
			IntCol("count", 7),
			BoolCol("flag", true),
		)
		if err != nil {
			t.Fatal(err)
		}

		scale, _ := st.Float("scale")
		tiDead, _ := st.Float("ti_dead")
		count, _ := st.Int("count")
		flag, _ := st.Bool("flag")
		for i := 0; i < 3; i++ {
			if scale[i] != 1.0 {
				t.Errorf("scale[%d] = %v", i, scale[i])
			}
			if !math.IsNaN(tiDead[i]) {
				t.Errorf("ti_dead[%d] = %v, want NaN", i, tiDead[i])
			}
			if count[i] != 7 {
				t.Errorf("count[%d] = %v", i, count[i])
			}
			if !flag[i] {
				t.Errorf("flag[%d] = false", i)
			}
		}
	})

	t.Run("distribution fill covers growth", func(t *testing.T) {
		calls := 0
		fill := func(n int) []float64 {
			calls++
			out := make([]float64, n)
			for i := range out {
				out[i] = 42
			}
			return out
		}
		st, err := NewStore(2, FloatColDist("draw", fill))
		if err != nil {
			t.Fatal(err)
		}
		if calls != 1 {
			t.Fatalf("expected one fill call at construction, got %d", calls)
		}
		if _, err := st.Grow(5); err != nil {
			t.Fatal(err)
		}
		vals, _ := st.Float("draw")
		for i, v := range vals {
			if v != 42 {
				t.Errorf("draw[%d] = %v", i, v)
			}
		}
	})
}

func TestStoreFilters(t *testing.T) {
	st, err := NewStore(5, BoolCol("dead", false), FloatColNaN("ti_dead"))
	if err != nil {
		t.Fatal(err)
	}
	dead, _ := st.Bool("dead")
	dead[1], dead[3] = true, true
	tiDead, _ := st.Float("ti_dead")
	tiDead[1], tiDead[3] = 4, 9

	trueInds, err := st.True("dead")
	if err != nil {
		t.Fatal(err)
	}
	if len(trueInds) != 2 || trueInds[0] != 1 || trueInds[1] != 3 {
		t.Errorf("True: %v", trueInds)
	}

	falseInds, err := st.False("dead")
	if err != nil {
		t.Fatal(err)
	}
	if len(falseInds) != 3 {
		t.Errorf("False: %v", falseInds)
	}

	defined, err := st.Defined("ti_dead")
	if err != nil {
		t.Fatal(err)
	}
	if len(defined) != 2 {
		t.Errorf("Defined: %v", defined)
	}

	late, err := st.FilterFloat("ti_dead", func(v float64) bool { return v > 5 })
	if err != nil {
		t.Fatal(err)
	}
	if len(late) != 1 || late[0] != 3 {
		t.Errorf("FilterFloat: %v", late)
	}
}

func TestStoreSetFloatLengthCheck(t *testing.T) {
	st, err := NewStore(3, FloatCol("age", 0))
	if err != nil {
		t.Fatal(err)
	}
	err = st.SetFloat("age", []float64{1, 2})
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
	if err := st.SetFloat("age", []float64{1, 2, 3}); err != nil {
		t.Errorf("SetFloat with matching length: %v", err)
	}
}

func TestStoreUIDsNeverReused(t *testing.T) {
	st, err := NewStore(2)
	if err != nil {
		t.Fatal(err)
	}
	for round := 0; round < 3; round++ {
		if _, err := st.Grow(3); err != nil {
			t.Fatal(err)
		}
	}
	uids, err := st.UIDs()
	if err != nil {
		t.Fatal(err)
	}
	if len(uids) != 11 {
		t.Fatalf("expected 11 agents, got %d", len(uids))
	}
	for i, uid := range uids {
		if uid != int64(i) {
			t.Errorf("uid[%d] = %d", i, uid)
		}
	}
}
