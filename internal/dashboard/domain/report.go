package dashboard

import (
	"sort"
	"time"

	records "feedboard/internal/records/domain"
)

// Report holds the aggregates behind the dashboard charts and the raw
// preview table.
type Report struct {
	Series       []DeviceSeries `json:"series"`
	DeviceTotals []DeviceTotal  `json:"device_totals"`
	DailyTotals  []DailyTotal   `json:"daily_totals"`
	Preview      []PreviewRow   `json:"preview"`
}

// DeviceSeries is one device's date-ordered consumption series.
type DeviceSeries struct {
	DeviceID string  `json:"device_id"`
	Points   []Point `json:"points"`
}

// Point is one dated value.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DeviceTotal is one device's summed consumption over the filtered range.
type DeviceTotal struct {
	DeviceID string  `json:"device_id"`
	Total    float64 `json:"total"`
}

// DailyTotal is the all-device sum for one day.
type DailyTotal struct {
	Date  time.Time `json:"date"`
	Total float64   `json:"total"`
}

// PreviewRow is one raw-data row shown in the preview table.
type PreviewRow struct {
	Date                time.Time `json:"date"`
	DeviceID            string    `json:"device_id"`
	Value               float64   `json:"value"`
	LastWeight          *float64  `json:"last_weight,omitempty"`
	LastCorrectedWeight *float64  `json:"last_corrected_weight,omitempty"`
}

// BuildReport groups and sums the filtered records. Devices sort
// lexicographically, dates ascending.
func BuildReport(recs []records.Record) Report {
	byDevice := make(map[string][]Point)
	deviceTotals := make(map[string]float64)
	dailyTotals := make(map[time.Time]float64)

	report := Report{}
	for _, rec := range recs {
		byDevice[rec.DeviceID] = append(byDevice[rec.DeviceID], Point{Date: rec.Date, Value: rec.Value})
		deviceTotals[rec.DeviceID] += rec.Value
		dailyTotals[rec.Date] += rec.Value
		report.Preview = append(report.Preview, PreviewRow{
			Date:                rec.Date,
			DeviceID:            rec.DeviceID,
			Value:               rec.Value,
			LastWeight:          rec.LastWeight,
			LastCorrectedWeight: rec.LastCorrectedWeight,
		})
	}

	devices := make([]string, 0, len(byDevice))
	for device := range byDevice {
		devices = append(devices, device)
	}
	sort.Strings(devices)

	for _, device := range devices {
		points := byDevice[device]
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		report.Series = append(report.Series, DeviceSeries{DeviceID: device, Points: points})
		report.DeviceTotals = append(report.DeviceTotals, DeviceTotal{DeviceID: device, Total: deviceTotals[device]})
	}

	days := make([]time.Time, 0, len(dailyTotals))
	for day := range dailyTotals {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	for _, day := range days {
		report.DailyTotals = append(report.DailyTotals, DailyTotal{Date: day, Total: dailyTotals[day]})
	}

	sort.SliceStable(report.Preview, func(i, j int) bool {
		if !report.Preview[i].Date.Equal(report.Preview[j].Date) {
			return report.Preview[i].Date.Before(report.Preview[j].Date)
		}
		return report.Preview[i].DeviceID < report.Preview[j].DeviceID
	})

	return report
}

// Empty reports whether the report holds no data points.
func (r Report) Empty() bool {
	return len(r.Preview) == 0
}
