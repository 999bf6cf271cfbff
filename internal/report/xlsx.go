package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/banshee-data/monophoton/internal/analysis/regions"
)

// Sheet names of the xlsx report.
const (
	SheetYields   = "Yields"
	SheetCutFlows = "CutFlows"
)

// WriteXLSX saves the yields and cut flows as a two-sheet workbook.
func WriteXLSX(path string, yields []regions.Yield, flows []regions.Flow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetYields); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetCutFlows); err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetYields, "A1", &[]interface{}{"region", "count", "uncertainty"}); err != nil {
		return err
	}
	for i, y := range yields {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetYields, cell, &[]interface{}{y.Name, y.Count, y.Uncertainty}); err != nil {
			return err
		}
	}

	if err := f.SetSheetRow(SheetCutFlows, "A1", &[]interface{}{"region", "step", "label", "sum_w", "uncertainty", "efficiency"}); err != nil {
		return err
	}
	row := 2
	for _, fl := range flows {
		var total float64
		if len(fl.Steps) > 0 {
			total = fl.Steps[0].SumW
		}
		for i, st := range fl.Steps {
			eff := 0.0
			if total > 0 {
				eff = st.SumW / total
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(SheetCutFlows, cell, &[]interface{}{fl.Region, i + 1, st.Name, st.SumW, st.Uncertainty(), eff}); err != nil {
				return err
			}
			row++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
