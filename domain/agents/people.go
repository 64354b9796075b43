package agents

import (
	"math"

	"episim/domain/core"
)

// Base column names shared by every simulation.
const (
	ColAge    = "age"
	ColFemale = "female"
	ColDebut  = "debut"
	ColDead   = "dead"
	ColTiDead = "ti_dead" // time index of death
	ColScale  = "scale"
)

// People wraps an agent store with the base demographic schema. Disease
// and network modules add their own columns during initialization, after
// which the schema is locked.
type People struct {
	*Store
}

// NewPeople creates n agents with the base schema plus any extra columns.
func NewPeople(n int, extra ...ColumnSpec) (*People, error) {
	specs := []ColumnSpec{
		FloatCol(ColAge, 0),
		BoolCol(ColFemale, false),
		FloatCol(ColDebut, 0),
		BoolCol(ColDead, false),
		FloatColNaN(ColTiDead),
		FloatCol(ColScale, 1.0),
	}
	specs = append(specs, extra...)
	st, err := NewStore(n, specs...)
	if err != nil {
		return nil, err
	}
	return &People{Store: st}, nil
}

// Alive returns the indices of everyone alive.
func (p *People) Alive() ([]int, error) {
	return p.False(ColDead)
}

// Dead returns the indices of everyone dead.
func (p *People) Dead() ([]int, error) {
	return p.True(ColDead)
}

// NAlive returns the number of people alive.
func (p *People) NAlive() (int, error) {
	alive, err := p.Alive()
	if err != nil {
		return 0, err
	}
	return len(alive), nil
}

// Female returns the indices of all females.
func (p *People) Female() ([]int, error) {
	return p.True(ColFemale)
}

// Male returns the indices of all males.
func (p *People) Male() ([]int, error) {
	return p.False(ColFemale)
}

// Active returns the indices of everyone alive and past their sexual
// debut.
func (p *People) Active() ([]int, error) {
	age, err := p.Float(ColAge)
	if err != nil {
		return nil, err
	}
	debut, err := p.Float(ColDebut)
	if err != nil {
		return nil, err
	}
	dead, err := p.Bool(ColDead)
	if err != nil {
		return nil, err
	}
	var out []int
	for i := range age {
		if !dead[i] && age[i] >= debut[i] {
			out = append(out, i)
		}
	}
	return out, nil
}

// Count returns the number of people matching a bool column, weighted by
// the scale column when weighted is true.
func (p *People) Count(name string, weighted bool) (float64, error) {
	inds, err := p.True(name)
	if err != nil {
		return 0, err
	}
	if !weighted {
		return float64(len(inds)), nil
	}
	scale, err := p.Float(ColScale)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, i := range inds {
		total += scale[i]
	}
	return total, nil
}

// Die marks the given agents dead at time index ti.
func (p *People) Die(indices []int, ti int) error {
	dead, err := p.Bool(ColDead)
	if err != nil {
		return err
	}
	tiDead, err := p.Float(ColTiDead)
	if err != nil {
		return err
	}
	for _, i := range indices {
		dead[i] = true
		tiDead[i] = float64(ti)
	}
	return nil
}

// AddAgents grows the population by k and sets the newborns' ages and
// sexes. The two value slices must have length k.
func (p *People) AddAgents(ages []float64, female []bool) ([]core.UID, error) {
	if len(ages) != len(female) {
		return nil, core.NewLengthMismatchError("female", len(ages), len(female))
	}
	uids, err := p.Grow(len(ages))
	if err != nil {
		return nil, err
	}
	ageCol, err := p.Float(ColAge)
	if err != nil {
		return nil, err
	}
	femaleCol, err := p.Bool(ColFemale)
	if err != nil {
		return nil, err
	}
	for i, uid := range uids {
		ageCol[int(uid)] = ages[i]
		femaleCol[int(uid)] = female[i]
	}
	return uids, nil
}

// IntAge returns ages truncated to integers.
func (p *People) IntAge() ([]int, error) {
	age, err := p.Float(ColAge)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(age))
	for i, a := range age {
		out[i] = int(math.Trunc(a))
	}
	return out, nil
}

// Age advances everyone's age by dt years. The dead age too; their rows
// are retained but excluded by liveness filters.
func (p *People) Age(dt float64) error {
	age, err := p.Float(ColAge)
	if err != nil {
		return err
	}
	for i := range age {
		age[i] += dt
	}
	return nil
}
