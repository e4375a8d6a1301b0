package records

import "time"

// ValueMode selects which consumption figure a document contributes as the
// record value.
type ValueMode string

const (
	ModeProvisional ValueMode = "provisional"
	ModeCorrected   ValueMode = "corrected"
)

// ParseValueMode validates a mode string.
func ParseValueMode(value string) (ValueMode, bool) {
	switch ValueMode(value) {
	case ModeProvisional, ModeCorrected:
		return ValueMode(value), true
	default:
		return "", false
	}
}

// Record is one device-day consumption figure, ready for filtering.
type Record struct {
	Date     time.Time
	DeviceID string
	Value    float64

	LastWeight          *float64
	LastCorrectedWeight *float64
}

// Document is a raw daily summary as delivered by a source. Value fields are
// pointers because the collector may not have produced them yet.
type Document struct {
	Date     time.Time `json:"date"`
	DeviceID string    `json:"device_id"`

	Provisional *float64 `json:"daily_consumption,omitempty"`
	Corrected   *float64 `json:"corrected_daily_consumption,omitempty"`

	LastWeight          *float64 `json:"last_weight,omitempty"`
	LastCorrectedWeight *float64 `json:"last_corrected_weight,omitempty"`
}

// RecordForMode projects the document onto a record using the selected value
// column. Returns false when the document has no usable value for the mode,
// an empty device id, or no date; such documents are dropped before they
// reach the filter state.
func (d Document) RecordForMode(mode ValueMode) (Record, bool) {
	if d.DeviceID == "" || d.Date.IsZero() {
		return Record{}, false
	}
	var value *float64
	switch mode {
	case ModeCorrected:
		value = d.Corrected
	default:
		value = d.Provisional
	}
	if value == nil {
		return Record{}, false
	}
	return Record{
		Date:                DateOf(d.Date),
		DeviceID:            d.DeviceID,
		Value:               *value,
		LastWeight:          d.LastWeight,
		LastCorrectedWeight: d.LastCorrectedWeight,
	}, true
}

// DateOf normalizes a timestamp to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
