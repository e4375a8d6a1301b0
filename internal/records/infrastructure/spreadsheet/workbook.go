package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	records "feedboard/internal/records/domain"
)

// WorkbookSource reads a wide consumption workbook: first column a date,
// remaining columns one numeric series per device.
type WorkbookSource struct {
	path  string
	sheet string
}

// NewWorkbookSource constructs a source for the workbook at path.
func NewWorkbookSource(path string, opts ...Option) (*WorkbookSource, error) {
	if path == "" {
		return nil, errors.New("workbook source: empty path")
	}
	source := &WorkbookSource{path: path}
	for _, opt := range opts {
		opt(source)
	}
	return source, nil
}

// Option configures the workbook source.
type Option func(*WorkbookSource)

// WithSheet overrides the default sheet (the workbook's first sheet).
func WithSheet(name string) Option {
	return func(source *WorkbookSource) {
		if source != nil && name != "" {
			source.sheet = name
		}
	}
}

// Name identifies this source in cache keys and metrics labels.
func (s *WorkbookSource) Name() string { return "spreadsheet" }

// Path returns the workbook path, for the file watcher.
func (s *WorkbookSource) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// LoadDocuments opens the workbook and melts the wide table into long-form
// documents. Unreadable workbooks are reported as source-unavailable;
// malformed rows and cells are dropped and counted.
func (s *WorkbookSource) LoadDocuments(ctx context.Context) ([]records.Document, int, error) {
	if s == nil {
		return nil, 0, errors.New("workbook source: nil source")
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", records.ErrUnavailable, err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", records.ErrUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	table := records.WideTable{Devices: headerDevices(rows[0])}
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		wide := records.WideRow{Date: row[0]}
		if len(row) > 1 {
			wide.Cells = row[1:]
		}
		table.Rows = append(table.Rows, wide)
	}

	docs, dropped := records.Reshape(table)
	return docs, dropped, nil
}

func headerDevices(header []string) []string {
	if len(header) <= 1 {
		return nil
	}
	devices := make([]string, 0, len(header)-1)
	for _, name := range header[1:] {
		devices = append(devices, strings.TrimSpace(name))
	}
	return devices
}
