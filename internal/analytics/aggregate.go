package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"matchday/internal/models"
)

// monthLabelFormat renders e.g. "Jan '24".
const monthLabelFormat = "Jan '06"

// GroupCount buckets rows by key, preserving first-seen-key order. It is a
// mapping, not a sort: callers that want a ranking sort the result.
func GroupCount[T any](rows []T, keyFn func(T) string) []models.ChartData {
	counts := make(map[string]float64, len(rows))
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		key := keyFn(row)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	data := make([]models.ChartData, 0, len(order))
	for _, key := range order {
		data = append(data, models.ChartData{Label: key, Value: counts[key]})
	}
	return data
}

// TopN sorts a breakdown descending by value and truncates. Ties keep their
// original relative order.
func TopN(data []models.ChartData, n int) []models.ChartData {
	sorted := make([]models.ChartData, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// SumByMonth sums a value per calendar month, labeled like "Jan '24".
// Buckets appear in first-seen order and only months with at least one row
// are present; the last six such buckets are returned. Rows with a zero
// date or value are skipped, matching the source data's sparse fields.
func SumByMonth[T any](rows []T, dateFn func(T) time.Time, valueFn func(T) float64) []models.ChartData {
	sums := make(map[string]float64)
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		date := dateFn(row)
		value := valueFn(row)
		if date.IsZero() || value == 0 {
			continue
		}
		label := date.Format(monthLabelFormat)
		if _, seen := sums[label]; !seen {
			order = append(order, label)
		}
		sums[label] += value
	}

	if len(order) > 6 {
		order = order[len(order)-6:]
	}

	data := make([]models.ChartData, 0, len(order))
	for _, label := range order {
		data = append(data, models.ChartData{Label: label, Value: sums[label]})
	}
	return data
}

// PieSegmentPath renders one slice of a 100x100 pie (center 50,50 radius
// 40) as an SVG path. Empty string when the total or the slice is zero. A
// slice covering the whole circle is drawn as two half arcs, because the
// single-arc form collapses to a zero-length path at exactly 360 degrees.
func PieSegmentPath(data []models.ChartData, index int) string {
	if index < 0 || index >= len(data) {
		return ""
	}

	var total float64
	for _, d := range data {
		total += d.Value
	}
	if total == 0 || data[index].Value == 0 {
		return ""
	}

	var startAngle float64
	for i := 0; i < index; i++ {
		startAngle += data[i].Value / total * 360
	}
	angle := data[index].Value / total * 360

	if angle >= 360 {
		return "M 50 10 A 40 40 0 1 1 50 90 A 40 40 0 1 1 50 10 Z"
	}

	endAngle := startAngle + angle
	startRad := (startAngle - 90) * math.Pi / 180
	endRad := (endAngle - 90) * math.Pi / 180

	x1 := 50 + 40*math.Cos(startRad)
	y1 := 50 + 40*math.Sin(startRad)
	x2 := 50 + 40*math.Cos(endRad)
	y2 := 50 + 40*math.Sin(endRad)

	largeArc := 0
	if angle > 180 {
		largeArc = 1
	}

	return fmt.Sprintf("M 50 50 L %.2f %.2f A 40 40 0 %d 1 %.2f %.2f Z", x1, y1, largeArc, x2, y2)
}

// Percentage formats a value's share of the breakdown, one decimal place.
func Percentage(data []models.ChartData, value float64) string {
	var total float64
	for _, d := range data {
		total += d.Value
	}
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", value/total*100)
}

// MaxValue returns the largest value in the breakdown, at least 1 so bar
// heights never divide by zero.
func MaxValue(data []models.ChartData) float64 {
	max := 1.0
	for _, d := range data {
		if d.Value > max {
			max = d.Value
		}
	}
	return max
}
