package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

var sampleRows = []Row{
	{ID: 1, Username: "alice", Email: "alice@example.com"},
	{ID: 2, Username: "bob", Email: "bob@example.com"},
}

func TestCSVExport(t *testing.T) {
	dir := t.TempDir()
	path, err := CSVExporter{}.Export(dir, sampleRows)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("artifact written outside dir: %s", path)
	}
	if !strings.HasSuffix(path, ".csv") {
		t.Errorf("unexpected extension: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := [][]string{
		{"ID", "Username", "Email"},
		{"1", "alice", "alice@example.com"},
		{"2", "bob", "bob@example.com"},
	}
	if len(records) != len(want) {
		t.Fatalf("rows = %d, want %d", len(records), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if records[i][j] != want[i][j] {
				t.Errorf("cell [%d][%d] = %q, want %q", i, j, records[i][j], want[i][j])
			}
		}
	}
}

func TestCSVExportEmptyDataset(t *testing.T) {
	path, err := CSVExporter{}.Export(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("rows = %d, want header only", len(records))
	}
}

func TestXLSXExport(t *testing.T) {
	dir := t.TempDir()
	path, err := XLSXExporter{}.Export(dir, sampleRows)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasSuffix(path, ".xlsx") {
		t.Errorf("unexpected extension: %s", path)
	}

	wb, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer wb.Close()

	checks := []struct {
		cell string
		want string
	}{
		{"A1", "ID"},
		{"B1", "Username"},
		{"C1", "Email"},
		{"A2", "1"},
		{"B2", "alice"},
		{"C3", "bob@example.com"},
	}
	for _, c := range checks {
		got, err := wb.GetCellValue("Users", c.cell)
		if err != nil {
			t.Fatalf("cell %s: %v", c.cell, err)
		}
		if got != c.want {
			t.Errorf("cell %s = %q, want %q", c.cell, got, c.want)
		}
	}
}

func TestFileNames(t *testing.T) {
	if got := (CSVExporter{}).FileName(); got != "users_report.csv" {
		t.Errorf("csv file name = %q", got)
	}
	if got := (XLSXExporter{}).FileName(); got != "users_report.xlsx" {
		t.Errorf("xlsx file name = %q", got)
	}
}
