package dashboard

import (
	"sort"
	"time"

	records "feedboard/internal/records/domain"
)

// FilterState tracks one session's date range and device selection. The
// device catalog is always derived from the bound dataset and the current
// range, and the invariant "all-selected flag ⇔ selection equals a non-empty
// catalog" is restored before every mutator returns.
type FilterState struct {
	dataset *records.Dataset

	start time.Time
	end   time.Time

	selection   map[string]struct{}
	allSelected bool
}

// NewFilterState binds a state to a dataset, spanning its full date range
// with nothing selected.
func NewFilterState(dataset *records.Dataset) *FilterState {
	s := &FilterState{
		dataset:   dataset,
		selection: make(map[string]struct{}),
	}
	s.start, s.end = dataset.Bounds()
	s.restoreAggregate()
	return s
}

// DateRange returns the current range.
func (s *FilterState) DateRange() (time.Time, time.Time) {
	return s.start, s.end
}

// Bounds returns the bound dataset's [min, max] dates.
func (s *FilterState) Bounds() (time.Time, time.Time) {
	return s.dataset.Bounds()
}

// Catalog returns the sorted distinct device ids within the current range.
func (s *FilterState) Catalog() []string {
	return s.dataset.DevicesBetween(s.start, s.end)
}

// SetDateRange moves the range. Dates outside the dataset bounds are
// rejected, not clamped; a silently corrected range would show the user
// mismatched data without warning. On success the selection is pruned to the
// new catalog and departed devices are never resurrected.
func (s *FilterState) SetDateRange(start, end time.Time) error {
	start = records.DateOf(start)
	end = records.DateOf(end)
	if start.After(end) {
		return ErrInvalidRange
	}
	minDate, maxDate := s.dataset.Bounds()
	if start.Before(minDate) || end.After(maxDate) {
		return ErrOutOfBounds
	}

	s.start = start
	s.end = end
	s.prune()
	s.restoreAggregate()
	return nil
}

// ToggleAll selects the entire catalog or clears the selection. Idempotent.
func (s *FilterState) ToggleAll(checked bool) {
	s.selection = make(map[string]struct{})
	if checked {
		for _, device := range s.Catalog() {
			s.selection[device] = struct{}{}
		}
	}
	s.restoreAggregate()
}

// ToggleDevice adds or removes one device. A device outside the current
// catalog is ignored.
func (s *FilterState) ToggleDevice(deviceID string, checked bool) {
	if !s.inCatalog(deviceID) {
		return
	}
	if checked {
		s.selection[deviceID] = struct{}{}
	} else {
		delete(s.selection, deviceID)
	}
	s.restoreAggregate()
}

// AllSelected reports the aggregate flag.
func (s *FilterState) AllSelected() bool {
	return s.allSelected
}

// EffectiveSelection returns the selection intersected with the current
// catalog, sorted. The intersection guards against callers that bypassed the
// prune step.
func (s *FilterState) EffectiveSelection() []string {
	var out []string
	for _, device := range s.Catalog() {
		if _, ok := s.selection[device]; ok {
			out = append(out, device)
		}
	}
	return out
}

// FilteredRecords returns the records within the range whose device is in
// the effective selection, in date order.
func (s *FilterState) FilteredRecords() []records.Record {
	selected := make(map[string]struct{})
	for _, device := range s.EffectiveSelection() {
		selected[device] = struct{}{}
	}
	if len(selected) == 0 {
		return nil
	}
	var out []records.Record
	for _, rec := range s.dataset.RecordsBetween(s.start, s.end) {
		if _, ok := selected[rec.DeviceID]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Rebind swaps in a freshly loaded dataset, clamping the range into the new
// bounds and pruning the selection. Used when the cached record set rolls
// over mid-session.
func (s *FilterState) Rebind(dataset *records.Dataset) {
	if dataset == nil || dataset.Generation() == s.dataset.Generation() {
		return
	}
	s.dataset = dataset
	minDate, maxDate := dataset.Bounds()
	if s.start.Before(minDate) {
		s.start = minDate
	}
	if s.end.After(maxDate) {
		s.end = maxDate
	}
	if s.start.After(s.end) {
		s.start, s.end = minDate, maxDate
	}
	s.prune()
	s.restoreAggregate()
}

// Generation returns the bound dataset's load stamp.
func (s *FilterState) Generation() int64 {
	return s.dataset.Generation()
}

func (s *FilterState) inCatalog(deviceID string) bool {
	for _, device := range s.Catalog() {
		if device == deviceID {
			return true
		}
	}
	return false
}

func (s *FilterState) prune() {
	catalog := make(map[string]struct{})
	for _, device := range s.Catalog() {
		catalog[device] = struct{}{}
	}
	for device := range s.selection {
		if _, ok := catalog[device]; !ok {
			delete(s.selection, device)
		}
	}
}

func (s *FilterState) restoreAggregate() {
	catalog := s.Catalog()
	if len(catalog) == 0 || len(s.selection) != len(catalog) {
		s.allSelected = false
		return
	}
	for _, device := range catalog {
		if _, ok := s.selection[device]; !ok {
			s.allSelected = false
			return
		}
	}
	s.allSelected = true
}

// SelectedDevices returns the raw selection, sorted. Unlike
// EffectiveSelection it does not intersect with the catalog; tests use it to
// observe the prune behavior directly.
func (s *FilterState) SelectedDevices() []string {
	out := make([]string, 0, len(s.selection))
	for device := range s.selection {
		out = append(out, device)
	}
	sort.Strings(out)
	return out
}
