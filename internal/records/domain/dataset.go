package records

import (
	"sort"
	"time"
)

// Dataset is an immutable record set produced by one load. It carries the
// generation stamp of the load so callers can detect a cache refresh.
type Dataset struct {
	records    []Record
	minDate    time.Time
	maxDate    time.Time
	generation int64
}

// NewDataset builds a dataset from records, sorting by date then device.
func NewDataset(recs []Record, generation int64) *Dataset {
	sorted := make([]Record, len(recs))
	copy(sorted, recs)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].DeviceID < sorted[j].DeviceID
	})

	ds := &Dataset{records: sorted, generation: generation}
	if len(sorted) > 0 {
		ds.minDate = sorted[0].Date
		ds.maxDate = sorted[len(sorted)-1].Date
	}
	return ds
}

// Empty reports whether the dataset holds no records.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.records) == 0
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Generation returns the load stamp of this dataset.
func (d *Dataset) Generation() int64 {
	if d == nil {
		return 0
	}
	return d.generation
}

// Bounds returns the observed [min, max] calendar dates. Zero times when the
// dataset is empty.
func (d *Dataset) Bounds() (time.Time, time.Time) {
	if d == nil {
		return time.Time{}, time.Time{}
	}
	return d.minDate, d.maxDate
}

// RecordsBetween returns records with start <= date <= end, in date order.
// An inverted range yields nothing.
func (d *Dataset) RecordsBetween(start, end time.Time) []Record {
	if d == nil || start.After(end) {
		return nil
	}
	var out []Record
	for _, rec := range d.records {
		if rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// DevicesBetween returns the sorted distinct device ids present within the
// range. This is the device catalog for that range.
func (d *Dataset) DevicesBetween(start, end time.Time) []string {
	if d == nil || start.After(end) {
		return nil
	}
	seen := make(map[string]struct{})
	var devices []string
	for _, rec := range d.records {
		if rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		if _, ok := seen[rec.DeviceID]; ok {
			continue
		}
		seen[rec.DeviceID] = struct{}{}
		devices = append(devices, rec.DeviceID)
	}
	sort.Strings(devices)
	return devices
}
