package ports

import (
	"episim/domain/agents"
	"episim/domain/results"
	"episim/domain/rng"
)

// Module is a pluggable simulation component: a disease, a demographic
// process, or an intervention. Modules declare their agent-state columns
// up front, bind their random streams during Init, and are stepped once
// per timestep.
type Module interface {
	// Name returns the module's unique label, used to key its streams,
	// columns and results.
	Name() string

	// Columns returns the agent-state columns the module owns. They are
	// added to the population before the store is locked.
	Columns() []agents.ColumnSpec

	// Init binds the module's streams to the registry and seeds initial
	// conditions. Called once, before the first timestep.
	Init(reg *rng.Registry, people *agents.People) error

	// Update advances the module by one timestep.
	Update(ti int, people *agents.People) error

	// Results returns the module's result series for registration.
	Results(npts int) []*results.Result

	// Collect records the module's outputs for timestep ti.
	Collect(ti int, people *agents.People, res *results.Results) error
}
