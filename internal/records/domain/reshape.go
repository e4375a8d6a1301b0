package records

import (
	"strconv"
	"strings"
	"time"
)

// WideTable is a spreadsheet-shaped table: one row per date, one column per
// device. Device ids are opaque strings and are never coerced to numbers.
type WideTable struct {
	Devices []string
	Rows    []WideRow
}

// WideRow is one dated row of a wide table. Cells align with WideTable.Devices.
type WideRow struct {
	Date  string
	Cells []string
}

var wideDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"01-02-06",
	time.RFC3339,
}

// Reshape melts a wide table into long-form documents, one per date and
// device. Rows with an unparseable date and cells with a non-numeric or blank
// value are dropped; the second return is the drop count. Values land in both
// value columns since a wide table carries a single series per device.
func Reshape(table WideTable) ([]Document, int) {
	var docs []Document
	dropped := 0

	for _, row := range table.Rows {
		date, ok := parseWideDate(row.Date)
		if !ok {
			dropped += len(table.Devices)
			continue
		}
		for i, device := range table.Devices {
			if device == "" {
				dropped++
				continue
			}
			if i >= len(row.Cells) {
				dropped++
				continue
			}
			value, ok := parseWideValue(row.Cells[i])
			if !ok {
				dropped++
				continue
			}
			v := value
			docs = append(docs, Document{
				Date:        date,
				DeviceID:    device,
				Provisional: &v,
				Corrected:   &v,
			})
		}
	}
	return docs, dropped
}

func parseWideDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range wideDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return DateOf(t), true
		}
	}
	return time.Time{}, false
}

func parseWideValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	raw = strings.ReplaceAll(raw, ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
