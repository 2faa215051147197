package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet holding the export.
const SheetName = "Asistencias"

// WriteXLSX serializes rows as an xlsx workbook onto w: one header row,
// one row per record, column order per Headers. Naming the file and
// delivering it is the caller's business.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		vals := row.values()
		cells := make([]interface{}, len(vals))
		for j, v := range vals {
			cells[j] = v
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}
