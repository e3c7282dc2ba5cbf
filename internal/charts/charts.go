// Package charts renders the dashboard datasets as SVG images.
package charts

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sales-dashboard/internal/models"
)

// ErrNoData is returned when the dataset to render is empty.
var ErrNoData = errors.New("no data to render")

type Kind string

const (
	KindHistogram    Kind = "histogram"
	KindGenderCity   Kind = "gender-city"
	KindProductLines Kind = "product-lines"
)

func Kinds() []Kind {
	return []Kind{KindHistogram, KindGenderCity, KindProductLines}
}

func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, slices.Contains(Kinds(), k)
}

const (
	minWidth    = 480
	height      = 360
	minBarWidth = 36
	barSpacing  = 8
	sidePad     = 160
	maxTicks    = 10
	// Upper bound of one axis label glyph at the default axis font size.
	glyphWidth = 9
)

var (
	histogramColor = drawing.ColorFromHex("004080")
	cityColors     = []drawing.Color{
		drawing.ColorFromHex("003f5c"),
		drawing.ColorFromHex("0074D9"),
		drawing.ColorFromHex("6699cc"),
	}
	pieColors = []drawing.Color{
		drawing.ColorFromHex("0074D9"),
		drawing.ColorFromHex("005288"),
		drawing.ColorFromHex("003f5c"),
		drawing.ColorFromHex("0066cc"),
		drawing.ColorFromHex("6699cc"),
		drawing.ColorFromHex("99c2e6"),
	}
)

// Render writes the chart of the given kind for result to w.
func Render(w io.Writer, kind Kind, result models.Result) error {
	switch kind {
	case KindHistogram:
		return Histogram(w, result.Histogram)
	case KindGenderCity:
		return GenderCity(w, result.GenderCityCounts)
	case KindProductLines:
		return ProductLines(w, result)
	default:
		return fmt.Errorf("unknown chart kind %q", kind)
	}
}

// Histogram renders the distribution of purchase totals.
func Histogram(w io.Writer, buckets []models.Bucket) error {
	if len(buckets) == 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, 0, len(buckets))
	counts := make([]int, 0, len(buckets))
	for _, b := range buckets {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%.0f-%.0f", b.Lower, b.Upper),
			Value: float64(b.Count),
			Style: chart.Style{FillColor: histogramColor, StrokeColor: histogramColor},
		})
		counts = append(counts, b.Count)
	}

	return renderBars(w, "Distribution of purchase totals", bars, slices.Max(counts))
}

// GenderCity renders purchase counts grouped by gender, one bar per city.
func GenderCity(w io.Writer, counts []models.GenderCityCount) error {
	if len(counts) == 0 {
		return ErrNoData
	}

	cityColor := make(map[string]drawing.Color)
	bars := make([]chart.Value, 0, len(counts))
	maxCount := 0
	for _, c := range counts {
		col, ok := cityColor[c.City]
		if !ok {
			col = cityColors[len(cityColor)%len(cityColors)]
			cityColor[c.City] = col
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s / %s", c.Gender, c.City),
			Value: float64(c.Count),
			Style: chart.Style{FillColor: col, StrokeColor: col},
		})
		maxCount = max(maxCount, c.Count)
	}

	return renderBars(w, "Purchases by gender and city", bars, maxCount)
}

// ProductLines renders the share of each product line as a pie.
func ProductLines(w io.Writer, result models.Result) error {
	if result.RecordCount == 0 || len(result.ProductLineCounts) == 0 {
		return ErrNoData
	}

	values := make([]chart.Value, 0, len(result.ProductLineCounts))
	for i, pl := range result.ProductLineCounts {
		col := pieColors[i%len(pieColors)]
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", pl.ProductLine, result.Share(i)*100),
			Value: float64(pl.Count),
			Style: chart.Style{FillColor: col, StrokeColor: drawing.ColorWhite},
		})
	}

	pie := chart.PieChart{
		Title:  "Product line share",
		Width:  minWidth,
		Height: height,
		Values: values,
	}
	return pie.Render(chart.SVG, w)
}

func renderBars(w io.Writer, title string, bars []chart.Value, maxCount int) error {
	bw := barWidth(bars)
	top, ticks := countTicks(maxCount)
	bc := chart.BarChart{
		Title:      title,
		Width:      max(minWidth, len(bars)*(bw+barSpacing)+sidePad),
		Height:     height,
		BarWidth:   bw,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
			Ticks: ticks,
		},
		Bars: bars,
	}
	return bc.Render(chart.SVG, w)
}

// barWidth widens the bars until every word of every label fits on one
// line, since go-chart wraps labels to the bar width.
func barWidth(bars []chart.Value) int {
	longest := 0
	for _, b := range bars {
		for _, word := range strings.Fields(b.Label) {
			longest = max(longest, utf8.RuneCountInString(word))
		}
	}
	return max(minBarWidth, longest*glyphWidth)
}

// countTicks returns the top of a count axis and integer ticks from 0 to
// that top, at most maxTicks+1 of them.
func countTicks(maxCount int) (float64, []chart.Tick) {
	step := max(1, (maxCount+maxTicks)/maxTicks)
	top := ((maxCount + step) / step) * step

	ticks := make([]chart.Tick, 0, top/step+1)
	for v := 0; v <= top; v += step {
		ticks = append(ticks, chart.Tick{Value: float64(v), Label: strconv.Itoa(v)})
	}
	return float64(top), ticks
}
