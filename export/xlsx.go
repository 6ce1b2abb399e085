package export

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

func writeSheet(f *excelize.File, t table) error {
	sw, err := f.NewStreamWriter(t.name)
	if err != nil {
		return err
	}

	header := make([]any, len(t.header))
	for i, h := range t.header {
		header[i] = h
	}

	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range t.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	return sw.Flush()
}

// XLSX writes a workbook with one sheet per table into dir and returns its
// path.
func XLSX(dir string, b *Bundle) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range b.tables() {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.name); err != nil {
				return "", err
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return "", err
		}

		if err := writeSheet(f, t); err != nil {
			return "", fmt.Errorf("writing sheet %s: %w", t.name, err)
		}
	}

	path := filepath.Join(dir, b.Document.ID+".xlsx")

	if err := f.SaveAs(path); err != nil {
		return "", err
	}

	return path, nil
}
