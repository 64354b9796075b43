package ports

import (
	"episim/domain/results"
)

// ResultExporter writes a run's result series to an external format,
// e.g. an Excel workbook with one sheet per module.
type ResultExporter interface {
	Export(path string, res *results.Results) error
}
