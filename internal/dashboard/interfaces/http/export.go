package dashhttp

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"feedboard/internal/dashboard/application"
	"feedboard/internal/observability/metrics"

	dashboard "feedboard/internal/dashboard/domain"
	records "feedboard/internal/records/domain"
)

// ExportHandler serves GET /api/v1/exports/report.{xlsx,pdf} with the
// filtered report.
type ExportHandler struct {
	service *application.Service
	format  string
}

// NewExportHandler constructs an ExportHandler for "xlsx" or "pdf".
func NewExportHandler(service *application.Service, format string) (*ExportHandler, error) {
	if service == nil {
		return nil, errors.New("export handler: nil service")
	}
	if format != "xlsx" && format != "pdf" {
		return nil, fmt.Errorf("export handler: unsupported format %q", format)
	}
	return &ExportHandler{service: service, format: format}, nil
}

func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sess := h.service.Session(r.Header.Get(sessionHeader))
	w.Header().Set(sessionHeader, sess.ID)

	start := time.Now()
	report, mode, err := h.service.Report(r.Context(), sess)
	if err != nil {
		metrics.ObserveExport(h.format, metrics.ResultError, time.Since(start))
		writeRenderError(w, err)
		return
	}

	var data []byte
	var contentType string
	switch h.format {
	case "xlsx":
		data, err = BuildReportXLSX(report, mode)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		data, err = BuildReportPDF(report, mode)
		contentType = "application/pdf"
	}
	if err != nil {
		metrics.ObserveExport(h.format, metrics.ResultError, time.Since(start))
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(h.format, metrics.ResultSuccess, time.Since(start))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=feed-report.%s", h.format))
	_, _ = w.Write(data)
}

// BuildReportXLSX renders the filtered report as a workbook: a summary sheet
// with per-device totals and a records sheet with the raw rows.
func BuildReportXLSX(report dashboard.Report, mode records.ValueMode) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	recordsSheet := "records"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(recordsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Feed Consumption Report")
	_ = f.SetCellValue(summarySheet, "A2", "Value column")
	_ = f.SetCellValue(summarySheet, "B2", string(mode))

	_ = f.SetCellValue(summarySheet, "A4", "Device")
	_ = f.SetCellValue(summarySheet, "B4", "Total")
	for i, total := range report.DeviceTotals {
		row := i + 5
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), total.DeviceID)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), total.Total)
	}

	dailyStart := len(report.DeviceTotals) + 6
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", dailyStart), "Date")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", dailyStart), "Daily total")
	for i, total := range report.DailyTotals {
		row := dailyStart + i + 1
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), total.Date.Format(dateLayout))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), total.Total)
	}

	_ = f.SetCellValue(recordsSheet, "A1", "Date")
	_ = f.SetCellValue(recordsSheet, "B1", "Device")
	_ = f.SetCellValue(recordsSheet, "C1", "Consumption")
	_ = f.SetCellValue(recordsSheet, "D1", "Last weight")
	_ = f.SetCellValue(recordsSheet, "E1", "Last corrected weight")
	for i, row := range report.Preview {
		n := i + 2
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("A%d", n), row.Date.Format(dateLayout))
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("B%d", n), row.DeviceID)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("C%d", n), row.Value)
		if row.LastWeight != nil {
			_ = f.SetCellValue(recordsSheet, fmt.Sprintf("D%d", n), *row.LastWeight)
		}
		if row.LastCorrectedWeight != nil {
			_ = f.SetCellValue(recordsSheet, fmt.Sprintf("E%d", n), *row.LastCorrectedWeight)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildReportPDF renders a printable summary of the filtered report.
func BuildReportPDF(report dashboard.Report, mode records.ValueMode) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Feed Consumption Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Value column: %s", mode))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Device", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, total := range report.DeviceTotals {
		pdf.CellFormat(60, 6, total.DeviceID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.3f", total.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Daily total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, total := range report.DailyTotals {
		pdf.CellFormat(60, 6, total.Date.Format(dateLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.3f", total.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
