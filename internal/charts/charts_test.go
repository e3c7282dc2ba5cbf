package charts

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"

	"sales-dashboard/internal/models"
)

func sampleResult() models.Result {
	return models.Result{
		TotalAmount:  decimal.NewFromInt(35),
		InvoiceCount: 3,
		RecordCount:  3,
		Histogram: []models.Bucket{
			{Lower: 5, Upper: 10, Count: 2},
			{Lower: 10, Upper: 20, Count: 1},
		},
		GenderCityCounts: []models.GenderCityCount{
			{Gender: models.GenderFemale, City: "Yangon", Count: 1},
			{Gender: models.GenderMale, City: "Naypyitaw", Count: 1},
			{Gender: models.GenderMale, City: "Yangon", Count: 1},
		},
		ProductLineCounts: []models.ProductLineCount{
			{ProductLine: "Electronic accessories", Count: 1},
			{ProductLine: "Health and beauty", Count: 2},
		},
	}
}

func TestRender(t *testing.T) {
	result := sampleResult()

	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, kind, result); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !strings.Contains(buf.String(), "<svg") {
				t.Errorf("Render() output is not SVG: %.80s", buf.String())
			}
		})
	}
}

func TestRender_LabelsShareAndGroups(t *testing.T) {
	result := sampleResult()

	var pie bytes.Buffer
	if err := ProductLines(&pie, result); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(pie.String(), "66.7%") {
		t.Error("product line pie should label shares as percentages")
	}

	var bars bytes.Buffer
	if err := GenderCity(&bars, result.GenderCityCounts); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(bars.String(), "Naypyitaw") {
		t.Error("gender/city chart should label each group")
	}
}

func TestRender_LabelsKeepWholeWords(t *testing.T) {
	counts := []models.GenderCityCount{
		{Gender: models.GenderFemale, City: "Naypyitaw", Count: 3},
		{Gender: models.GenderFemale, City: "Yangon", Count: 1},
		{Gender: models.GenderMale, City: "Mandalay", Count: 2},
	}

	var buf bytes.Buffer
	if err := GenderCity(&buf, counts); err != nil {
		t.Fatal(err)
	}

	svg := buf.String()
	for _, word := range []string{"Naypyitaw", "Yangon", "Mandalay"} {
		if !strings.Contains(svg, word) {
			t.Errorf("label word %s should be drawn unbroken", word)
		}
	}
	if strings.Contains(svg, ">Yang<") || strings.Contains(svg, ">Naypyi<") {
		t.Error("labels should not be split inside a word")
	}
}

func TestBarWidth(t *testing.T) {
	tests := []struct {
		labels []string
		want   int
	}{
		{[]string{"1-2"}, minBarWidth},
		{[]string{"Male / Yangon", "Female / Naypyitaw"}, 9 * glyphWidth},
		{[]string{"Electronic accessories"}, 11 * glyphWidth},
	}

	for _, tt := range tests {
		bars := make([]chart.Value, 0, len(tt.labels))
		for _, l := range tt.labels {
			bars = append(bars, chart.Value{Label: l, Value: 1})
		}
		if got := barWidth(bars); got != tt.want {
			t.Errorf("barWidth(%v) = %d, want %d", tt.labels, got, tt.want)
		}
	}
}

func TestCountTicks(t *testing.T) {
	for _, maxCount := range []int{0, 1, 2, 7, 9, 10, 19, 55, 120, 999} {
		top, ticks := countTicks(maxCount)

		if top <= float64(maxCount) {
			t.Errorf("countTicks(%d) top = %v, want above the largest count", maxCount, top)
		}
		if len(ticks) < 2 || len(ticks) > maxTicks+1 {
			t.Errorf("countTicks(%d) returned %d ticks", maxCount, len(ticks))
		}
		if ticks[0].Value != 0 || ticks[len(ticks)-1].Value != top {
			t.Errorf("countTicks(%d) ticks span [%v, %v], want [0, %v]", maxCount, ticks[0].Value, ticks[len(ticks)-1].Value, top)
		}

		seen := make(map[string]bool)
		for i, tick := range ticks {
			if tick.Value != float64(int(tick.Value)) {
				t.Errorf("countTicks(%d) tick %v is not an integer", maxCount, tick.Value)
			}
			if i > 0 && tick.Value <= ticks[i-1].Value {
				t.Errorf("countTicks(%d) ticks are not increasing", maxCount)
			}
			if seen[tick.Label] {
				t.Errorf("countTicks(%d) repeats label %q", maxCount, tick.Label)
			}
			seen[tick.Label] = true
		}
	}
}

func TestRender_Empty(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			var buf bytes.Buffer
			err := Render(&buf, kind, models.Result{})
			if !errors.Is(err, ErrNoData) {
				t.Errorf("Render() error = %v, want ErrNoData", err)
			}
			if buf.Len() != 0 {
				t.Errorf("Render() wrote %d bytes for an empty result", buf.Len())
			}
		})
	}
}

func TestRender_UnknownKind(t *testing.T) {
	if err := Render(&bytes.Buffer{}, Kind("scatter"), sampleResult()); err == nil {
		t.Error("Render() should reject unknown kinds")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want Kind
	}{
		{"histogram", true, KindHistogram},
		{"gender-city", true, KindGenderCity},
		{"product-lines", true, KindProductLines},
		{"Histogram", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseKind(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
