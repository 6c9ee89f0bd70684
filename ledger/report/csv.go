package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// CSVExporter writes the users dataset as a CSV file.
type CSVExporter struct{}

// FileName implements Exporter.
func (CSVExporter) FileName() string { return "users_report.csv" }

// Export writes rows into a temporary CSV file under dir.
func (CSVExporter) Export(dir string, rows []Row) (string, error) {
	f, err := os.CreateTemp(dir, "users-*.csv")
	if err != nil {
		return "", fmt.Errorf("create csv: %w", err)
	}

	w := csv.NewWriter(f)
	writeErr := w.Write(header)
	for _, row := range rows {
		if writeErr != nil {
			break
		}
		writeErr = w.Write([]string{
			strconv.FormatInt(row.ID, 10),
			row.Username,
			row.Email,
		})
	}
	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}

	closeErr := f.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write csv: %w", writeErr)
	}
	return f.Name(), nil
}
