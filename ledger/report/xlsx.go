package report

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Users"

// XLSXExporter writes the users dataset as an Excel workbook.
type XLSXExporter struct{}

// FileName implements Exporter.
func (XLSXExporter) FileName() string { return "users_report.xlsx" }

// Export writes rows into a temporary XLSX file under dir.
func (XLSXExporter) Export(dir string, rows []Row) (string, error) {
	f, err := os.CreateTemp(dir, "users-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("create xlsx: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("create xlsx: %w", err)
	}

	wb := excelize.NewFile()
	defer wb.Close()

	idx, err := wb.NewSheet(xlsxSheet)
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write xlsx: %w", err)
	}
	wb.SetActiveSheet(idx)
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write xlsx: %w", err)
	}

	for col, name := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := wb.SetCellValue(xlsxSheet, cell, name); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("write xlsx: %w", err)
		}
	}
	for i, row := range rows {
		values := []any{row.ID, row.Username, row.Email}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := wb.SetCellValue(xlsxSheet, cell, v); err != nil {
				_ = os.Remove(path)
				return "", fmt.Errorf("write xlsx: %w", err)
			}
		}
	}

	if err := wb.SaveAs(path); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("save xlsx: %w", err)
	}
	return path, nil
}
