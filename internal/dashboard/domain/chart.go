package dashboard

import (
	"time"

	records "feedboard/internal/records/domain"
)

// Default color palette for chart series.
var chartPalette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

const chartDateLayout = "2006-01-02"

// ChartConfig is a declarative chart description. The rendering layer is an
// external collaborator; this service never rasterizes anything.
type ChartConfig struct {
	ChartType  string        `json:"chart_type"`
	Title      string        `json:"title"`
	XAxis      string        `json:"x_axis"`
	YAxis      string        `json:"y_axis"`
	ShowLegend bool          `json:"show_legend"`
	ShowGrid   bool          `json:"show_grid"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors"`
}

// ChartSeries is one named series of labeled points.
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// ChartPoint is one labeled value.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Charts bundles the three dashboard charts.
type Charts struct {
	Line ChartConfig `json:"line"`
	Bar  ChartConfig `json:"bar"`
	Area ChartConfig `json:"area"`
}

// BuildCharts produces the per-device time series (line), per-device totals
// (bar) and daily totals (area) configs for a report.
func BuildCharts(report Report, mode records.ValueMode) Charts {
	valueLabel := "Daily consumption"
	if mode == records.ModeCorrected {
		valueLabel = "Daily consumption (corrected)"
	}

	line := ChartConfig{
		ChartType:  "line",
		Title:      valueLabel + " by device",
		XAxis:      "Date",
		YAxis:      valueLabel,
		ShowLegend: true,
		ShowGrid:   true,
	}
	for _, series := range report.Series {
		points := make([]ChartPoint, 0, len(series.Points))
		for _, p := range series.Points {
			points = append(points, ChartPoint{Label: formatChartDate(p.Date), Value: p.Value})
		}
		line.Series = append(line.Series, ChartSeries{Name: series.DeviceID, Points: points})
	}
	line.Colors = assignColors(len(line.Series))

	bar := ChartConfig{
		ChartType:  "bar",
		Title:      "Total by device",
		XAxis:      "Device",
		YAxis:      valueLabel,
		ShowLegend: false,
		ShowGrid:   true,
	}
	barPoints := make([]ChartPoint, 0, len(report.DeviceTotals))
	for _, total := range report.DeviceTotals {
		barPoints = append(barPoints, ChartPoint{Label: total.DeviceID, Value: total.Total})
	}
	if len(barPoints) > 0 {
		bar.Series = []ChartSeries{{Name: "Total", Points: barPoints}}
	}
	bar.Colors = assignColors(len(barPoints))

	area := ChartConfig{
		ChartType:  "area",
		Title:      "Daily total, all devices",
		XAxis:      "Date",
		YAxis:      valueLabel,
		ShowLegend: false,
		ShowGrid:   true,
	}
	areaPoints := make([]ChartPoint, 0, len(report.DailyTotals))
	for _, total := range report.DailyTotals {
		areaPoints = append(areaPoints, ChartPoint{Label: formatChartDate(total.Date), Value: total.Total})
	}
	if len(areaPoints) > 0 {
		area.Series = []ChartSeries{{Name: "All devices", Points: areaPoints}}
	}
	area.Colors = assignColors(1)

	return Charts{Line: line, Bar: bar, Area: area}
}

func formatChartDate(t time.Time) string {
	return t.Format(chartDateLayout)
}

func assignColors(count int) []string {
	if count <= 0 {
		return nil
	}
	colors := make([]string, count)
	for i := range colors {
		colors[i] = chartPalette[i%len(chartPalette)]
	}
	return colors
}
