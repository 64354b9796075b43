package agents

import (
	"fmt"
	"math"

	"episim/domain/core"
)

// Kind enumerates the supported column element types.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
)

// FillFunc produces n fill values for a distribution-driven column, e.g.
// initial ages drawn from a configured distribution. It is invoked
// whenever new slots are allocated, including capacity added ahead of
// the logical size during growth.
type FillFunc func(n int) []float64

// ColumnSpec declares one per-agent attribute: name, element type, and
// fill policy. The column set is fixed at construction time plus explicit
// AddColumn calls made before the store is locked.
type ColumnSpec struct {
	Name      string
	Kind      Kind
	FillFloat float64
	FillInt   int64
	FillBool  bool
	FillDist  FillFunc // optional, float columns only
}

// FloatCol declares a float64 column with a constant fill value.
func FloatCol(name string, fill float64) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindFloat, FillFloat: fill}
}

// FloatColNaN declares a float64 column filled with NaN, the convention
// for "not yet defined" values such as time-of-death.
func FloatColNaN(name string) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindFloat, FillFloat: math.NaN()}
}

// FloatColDist declares a float64 column filled by sampling fn.
func FloatColDist(name string, fn FillFunc) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindFloat, FillDist: fn}
}

// IntCol declares an int64 column with a constant fill value.
func IntCol(name string, fill int64) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindInt, FillInt: fill}
}

// BoolCol declares a bool column with a constant fill value.
func BoolCol(name string, fill bool) ColumnSpec {
	return ColumnSpec{Name: name, Kind: KindBool, FillBool: fill}
}

type column struct {
	spec ColumnSpec
	f    []float64
	i    []int64
	b    []bool
}

// Store is growable columnar storage of typed per-agent attributes,
// addressed by row position. The logical size n (agents created so far)
// is the "block size" every random stream bound to this store must match;
// the allocated capacity s is at least n. Dead agents are never removed,
// only marked via a liveness column, so row position doubles as the
// agent's permanent UID.
type Store struct {
	n      int // logical size: agents created so far
	s      int // allocated capacity
	locked bool
	order  []string
	cols   map[string]*column
}

// UIDColumn is the auto-created column holding each agent's permanent
// identifier.
const UIDColumn = "uid"

// NewStore creates a store with initialN agents and the given columns.
// A uid column is always present; UIDs 0..initialN-1 are assigned.
func NewStore(initialN int, specs ...ColumnSpec) (*Store, error) {
	if initialN < 0 {
		return nil, core.NewInvalidArgumentError("initialN", "must be non-negative")
	}
	st := &Store{
		n:    initialN,
		s:    initialN,
		cols: make(map[string]*column),
	}
	if err := st.addColumn(IntCol(UIDColumn, 0)); err != nil {
		return nil, err
	}
	for _, spec := range specs {
		if err := st.addColumn(spec); err != nil {
			return nil, err
		}
	}
	uids := st.cols[UIDColumn].i
	for i := range uids {
		uids[i] = int64(i)
	}
	return st, nil
}

// Size returns the current logical size n: the block size streams must
// synchronize to.
func (st *Store) Size() int { return st.n }

// Capacity returns the allocated slot count s.
func (st *Store) Capacity() int { return st.s }

// Lock forbids adding further columns. Rows can still be added with Grow.
func (st *Store) Lock() { st.locked = true }

// Locked reports whether the schema is locked.
func (st *Store) Locked() bool { return st.locked }

// Columns returns the column names in declaration order.
func (st *Store) Columns() []string {
	out := make([]string, len(st.order))
	copy(out, st.order)
	return out
}

// Has reports whether a column exists.
func (st *Store) Has(name string) bool {
	_, ok := st.cols[name]
	return ok
}

// AddColumn adds a new column to an unlocked store, filling all current
// slots per the column's fill policy.
func (st *Store) AddColumn(spec ColumnSpec) error {
	if st.locked {
		return fmt.Errorf("%w: cannot add column %q", core.ErrLocked, spec.Name)
	}
	return st.addColumn(spec)
}

func (st *Store) addColumn(spec ColumnSpec) error {
	if spec.Name == "" {
		return core.NewInvalidArgumentError("column", "name must be non-empty")
	}
	if _, exists := st.cols[spec.Name]; exists {
		return core.NewInvalidArgumentError("column", fmt.Sprintf("duplicate name %q", spec.Name))
	}
	col := &column{spec: spec}
	col.alloc(st.s)
	st.cols[spec.Name] = col
	st.order = append(st.order, spec.Name)
	return nil
}

// Grow appends k new agents, reallocating columns when n+k exceeds the
// capacity. Reallocation grows capacity to max(s+k, s+s/2) — at least 50%
// — which amortizes growth cost to O(1) per agent over a run. Existing
// rows are preserved unchanged. Returns the new agents' UIDs, assigned
// sequentially.
func (st *Store) Grow(k int) ([]core.UID, error) {
	if k < 0 {
		return nil, core.NewInvalidArgumentError("k", "growth count must be non-negative")
	}
	if k == 0 {
		return nil, nil
	}

	if st.n+k > st.s {
		grown := st.s + st.s/2
		if st.s+k > grown {
			grown = st.s + k
		}
		extra := grown - st.s
		for _, name := range st.order {
			st.cols[name].extend(extra)
		}
		st.s = grown
	}

	uids := make([]core.UID, k)
	uidCol := st.cols[UIDColumn].i
	for i := 0; i < k; i++ {
		uid := core.UID(st.n + i)
		uids[i] = uid
		uidCol[int(uid)] = int64(uid)
	}
	st.n += k
	return uids, nil
}

// Float returns the visible (length n) view of a float column. Writes
// through the returned slice update the store.
func (st *Store) Float(name string) ([]float64, error) {
	col, err := st.get(name, KindFloat)
	if err != nil {
		return nil, err
	}
	return col.f[:st.n], nil
}

// Int returns the visible view of an int column.
func (st *Store) Int(name string) ([]int64, error) {
	col, err := st.get(name, KindInt)
	if err != nil {
		return nil, err
	}
	return col.i[:st.n], nil
}

// Bool returns the visible view of a bool column.
func (st *Store) Bool(name string) ([]bool, error) {
	col, err := st.get(name, KindBool)
	if err != nil {
		return nil, err
	}
	return col.b[:st.n], nil
}

// SetFloat overwrites a float column; vals must match the block size.
func (st *Store) SetFloat(name string, vals []float64) error {
	dst, err := st.Float(name)
	if err != nil {
		return err
	}
	if len(vals) != len(dst) {
		return core.NewLengthMismatchError(name, len(dst), len(vals))
	}
	copy(dst, vals)
	return nil
}

// True returns the row indices where a bool column is true.
func (st *Store) True(name string) ([]int, error) {
	vals, err := st.Bool(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(vals))
	for i, v := range vals {
		if v {
			out = append(out, i)
		}
	}
	return out, nil
}

// False returns the row indices where a bool column is false.
func (st *Store) False(name string) ([]int, error) {
	vals, err := st.Bool(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(vals))
	for i, v := range vals {
		if !v {
			out = append(out, i)
		}
	}
	return out, nil
}

// Defined returns the row indices where a float column is not NaN.
func (st *Store) Defined(name string) ([]int, error) {
	return st.FilterFloat(name, func(v float64) bool { return !math.IsNaN(v) })
}

// Undefined returns the row indices where a float column is NaN.
func (st *Store) Undefined(name string) ([]int, error) {
	return st.FilterFloat(name, math.IsNaN)
}

// FilterFloat returns the row indices of a float column matching pred.
func (st *Store) FilterFloat(name string, pred func(float64) bool) ([]int, error) {
	vals, err := st.Float(name)
	if err != nil {
		return nil, err
	}
	var out []int
	for i, v := range vals {
		if pred(v) {
			out = append(out, i)
		}
	}
	return out, nil
}

// UIDs returns the visible uid column.
func (st *Store) UIDs() ([]int64, error) {
	return st.Int(UIDColumn)
}

func (st *Store) get(name string, kind Kind) (*column, error) {
	col, ok := st.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrColumnNotFound, name)
	}
	if col.spec.Kind != kind {
		return nil, core.NewInvalidArgumentError("column", fmt.Sprintf("%q has a different element type", name))
	}
	return col, nil
}

func (c *column) alloc(n int) {
	switch c.spec.Kind {
	case KindFloat:
		c.f = make([]float64, n)
		c.fillFloat(c.f)
	case KindInt:
		c.i = make([]int64, n)
		for i := range c.i {
			c.i[i] = c.spec.FillInt
		}
	case KindBool:
		c.b = make([]bool, n)
		for i := range c.b {
			c.b[i] = c.spec.FillBool
		}
	}
}

func (c *column) extend(extra int) {
	switch c.spec.Kind {
	case KindFloat:
		tail := make([]float64, extra)
		c.fillFloat(tail)
		c.f = append(c.f, tail...)
	case KindInt:
		tail := make([]int64, extra)
		for i := range tail {
			tail[i] = c.spec.FillInt
		}
		c.i = append(c.i, tail...)
	case KindBool:
		tail := make([]bool, extra)
		for i := range tail {
			tail[i] = c.spec.FillBool
		}
		c.b = append(c.b, tail...)
	}
}

func (c *column) fillFloat(dst []float64) {
	if c.spec.FillDist != nil {
		copy(dst, c.spec.FillDist(len(dst)))
		return
	}
	if c.spec.FillFloat != 0 {
		for i := range dst {
			dst[i] = c.spec.FillFloat
		}
	}
}
