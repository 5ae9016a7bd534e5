package axisplot

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const xlsxSheetName = "Data"

// WriteXLSX writes the bound data of model as a workbook with a single sheet:
// a time column followed by one column per series. Gaps are left blank.
func WriteXLSX(w io.Writer, model RenderModel) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, 0, len(model.Series)+1)
	header = append(header, "time")
	for _, bound := range model.Series {
		header = append(header, fmt.Sprintf("%s (%s)", bound.Series.DisplayName, bound.Series.ValueField))
	}
	if err := f.SetSheetRow(xlsxSheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, timestamp := range model.Timestamps() {
		row := make([]interface{}, 0, len(model.Series)+1)
		row = append(row, timestamp)
		for _, bound := range model.Series {
			if y := bound.Points[i].Y; y != nil {
				row = append(row, *y)
			} else {
				row = append(row, nil)
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(xlsxSheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}
