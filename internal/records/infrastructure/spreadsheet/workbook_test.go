package spreadsheet

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	records "feedboard/internal/records/domain"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i, err)
		}
	}
	path := filepath.Join(t.TempDir(), "consumption.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestWorkbookSource_LoadDocuments(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Date", "devA", "devB"},
		{"2024-01-01", "10", "20"},
		{"2024-01-02", "11", "21"},
	})
	source, err := NewWorkbookSource(path)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	docs, dropped, err := source.LoadDocuments(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if dropped != 0 {
		t.Fatalf("dropped = %d, want 0", dropped)
	}
	if len(docs) != 4 {
		t.Fatalf("docs = %d, want 4", len(docs))
	}
	for _, doc := range docs {
		if doc.Provisional == nil || doc.Corrected == nil {
			t.Fatalf("doc %s/%s: workbook rows must fill both value columns", doc.DeviceID, doc.Date)
		}
		if *doc.Provisional != *doc.Corrected {
			t.Fatalf("doc %s: provisional %v != corrected %v", doc.DeviceID, *doc.Provisional, *doc.Corrected)
		}
	}
}

func TestWorkbookSource_DropsMalformedCells(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Date", "devA", "devB"},
		{"2024-01-01", "10", "not-a-number"},
		{"garbage", "1", "2"},
	})
	source, err := NewWorkbookSource(path)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	docs, dropped, err := source.LoadDocuments(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("docs = %d, want only the devA cell", len(docs))
	}
	if docs[0].DeviceID != "devA" {
		t.Fatalf("device = %s, want devA", docs[0].DeviceID)
	}
	if dropped != 3 {
		t.Fatalf("dropped = %d, want 3 (one bad cell, two cells behind a bad date)", dropped)
	}
}

func TestWorkbookSource_MissingFileIsUnavailable(t *testing.T) {
	source, err := NewWorkbookSource(filepath.Join(t.TempDir(), "missing.xlsx"))
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	_, _, err = source.LoadDocuments(context.Background())
	if !errors.Is(err, records.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestWorkbookSource_EmptyPathRejected(t *testing.T) {
	if _, err := NewWorkbookSource(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
