package export

import (
	"fmt"
	"io"

	"github.com/pantrylabs/amazon-lentil-scraper/internal/models"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Products"

// DefaultWorkbookName is the filename offered for workbook downloads.
const DefaultWorkbookName = "amazon_lentils.xlsx"

// WriteExcel serializes the table as an xlsx workbook: header row first,
// then one row per record in table order.
func WriteExcel(w io.Writer, table models.ProductTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	columns := models.Columns()
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}

		fields := rec.Row()
		row := make([]interface{}, len(fields))
		for j, v := range fields {
			row[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
