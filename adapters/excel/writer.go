package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"episim/domain/results"
	apperrors "episim/internal/errors"
)

// ResultWriter exports run results to an Excel workbook with one sheet
// per module plus a summary sheet of descriptive statistics.
type ResultWriter struct{}

// NewResultWriter creates a workbook exporter
func NewResultWriter() *ResultWriter {
	return &ResultWriter{}
}

// Export writes the workbook to path
func (w *ResultWriter) Export(path string, res *results.Results) error {
	modules := res.Modules()
	if len(modules) == 0 {
		return apperrors.InvalidInput("no results to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, module := range modules {
		sheet := module
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return apperrors.ExportError(path, err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return apperrors.ExportError(path, err)
			}
		}
		if err := writeModuleSheet(f, sheet, res.ByModule(module)); err != nil {
			return apperrors.ExportError(path, err)
		}
	}

	if err := writeSummarySheet(f, res); err != nil {
		return apperrors.ExportError(path, err)
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.ExportError(path, err)
	}
	return nil
}

// writeModuleSheet lays out one module: a timestep column followed by
// one column per series.
func writeModuleSheet(f *excelize.File, sheet string, series []*results.Result) error {
	if err := f.SetCellValue(sheet, "A1", "ti"); err != nil {
		return err
	}

	npts := 0
	for col, s := range series {
		cell, err := excelize.CoordinatesToCellName(col+2, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, s.Label); err != nil {
			return err
		}
		if len(s.Values) > npts {
			npts = len(s.Values)
		}
	}

	for ti := 0; ti < npts; ti++ {
		cell, err := excelize.CoordinatesToCellName(1, ti+2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, ti); err != nil {
			return err
		}
		for col, s := range series {
			if ti >= len(s.Values) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+2, ti+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, s.Values[ti]); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeSummarySheet appends a sheet of per-series descriptive
// statistics.
func writeSummarySheet(f *excelize.File, res *results.Results) error {
	const sheet = "summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"series", "mean", "median", "min", "max", "q25", "q75", "total", "final"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for row, s := range res.All() {
		sum, err := s.Summarize()
		if err != nil {
			return fmt.Errorf("summarize %s: %w", s.Key(), err)
		}
		vals := []interface{}{s.Key(), sum.Mean, sum.Median, sum.Min, sum.Max, sum.Q25, sum.Q75, sum.Total, sum.Final}
		for col, v := range vals {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
