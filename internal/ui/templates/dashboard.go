// Package templates holds the HTML components of the dashboard page and
// the fragments patched into it over SSE.
package templates

import (
	"context"
	"html/template"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"sales-dashboard/internal/models"
)

const (
	Title    = "Supermarket Sales Analysis"
	Subtitle = "Purchases by gender, city and product line"

	datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"
	exportPath     = "/api/export.xlsx"
)

// Element ids patched by the SSE handler.
const (
	IndicatorsID = "indicators"
	ChartsID     = "charts"
)

var genderLabels = map[string]string{
	models.FilterAll:           "Both",
	string(models.GenderMale):   "Male",
	string(models.GenderFemale): "Female",
}

var fragments = template.Must(template.New("dashboard").Parse(`
{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script type="module" src="{{.Script}}"></script>
</head>
<body data-signals='{"gender":"All","city":"All"}' data-init="@get('/sse/dashboard')">
<header><h1>{{.Title}}</h1><p>{{.Subtitle}}</p></header>
<main>
{{template "filters" .Filters}}
{{template "indicators" .Indicators}}
{{template "charts" .Charts}}
</main>
</body>
</html>{{end}}

{{define "filters"}}<section id="filters">
<label for="gender-filter">Gender</label>
<select id="gender-filter" data-bind-gender data-on-change="@get('/sse/dashboard')">
{{range .Genders}}<option value="{{.Value}}">{{.Label}}</option>
{{end}}</select>
<label for="city-filter">City</label>
<select id="city-filter" data-bind-city data-on-change="@get('/sse/dashboard')">
{{range .Cities}}<option value="{{.Value}}">{{.Label}}</option>
{{end}}</select>
</section>{{end}}

{{define "indicators"}}<section id="indicators" class="indicators">
<div class="card"><h3>Total purchases</h3><h2>{{.Total}}</h2></div>
<div class="card"><h3>Number of purchases</h3><h2>{{.Count}}</h2></div>
</section>{{end}}

{{define "charts"}}<section id="charts" class="charts">
{{range .Images}}<figure class="card"><img id="chart-{{.Kind}}" src="{{.URL}}" alt="{{.Alt}}"></figure>
{{end}}<p><a id="export-link" href="{{.ExportURL}}">Download workbook</a></p>
</section>{{end}}
`))

type option struct {
	Value, Label string
}

type filtersView struct {
	Genders, Cities []option
}

type indicatorsView struct {
	Total, Count string
}

type chartImage struct {
	Kind, URL, Alt string
}

type chartsView struct {
	Images    []chartImage
	ExportURL string
}

type pageView struct {
	Title, Subtitle, Script string
	Filters                 filtersView
	Indicators              indicatorsView
	Charts                  chartsView
}

func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return fragments.ExecuteTemplate(w, name, data)
	})
}

// Dashboard renders the full page: filter panel, KPI cards and charts.
func Dashboard(genders, cities []string) templ.Component {
	return component("page", pageView{
		Title:      Title,
		Subtitle:   Subtitle,
		Script:     datastarScript,
		Filters:    newFiltersView(genders, cities),
		Indicators: newIndicatorsView(models.Result{}),
		Charts:     newChartsView(models.AllFilter()),
	})
}

// FilterPanel renders the gender and city selects bound to datastar signals.
func FilterPanel(genders, cities []string) templ.Component {
	return component("filters", newFiltersView(genders, cities))
}

func newFiltersView(genders, cities []string) filtersView {
	var v filtersView
	for _, g := range genders {
		label, ok := genderLabels[g]
		if !ok {
			label = g
		}
		v.Genders = append(v.Genders, option{Value: g, Label: label})
	}
	for _, c := range cities {
		label := c
		if c == models.FilterAll {
			label = "All cities"
		}
		v.Cities = append(v.Cities, option{Value: c, Label: label})
	}
	return v
}

// Indicators renders the KPI cards.
func Indicators(result models.Result) templ.Component {
	return component("indicators", newIndicatorsView(result))
}

func newIndicatorsView(result models.Result) indicatorsView {
	return indicatorsView{
		Total: FormatAmount(result),
		Count: strconv.Itoa(result.InvoiceCount),
	}
}

// FormatAmount renders the total with two decimals and a dollar suffix.
func FormatAmount(result models.Result) string {
	return result.TotalAmount.StringFixed(2) + " $"
}

// Charts renders the three chart images and the workbook link for state.
func Charts(state models.FilterState) templ.Component {
	return component("charts", newChartsView(state))
}

func newChartsView(state models.FilterState) chartsView {
	return chartsView{
		Images: []chartImage{
			{Kind: "histogram", URL: ChartURL("histogram", state), Alt: "Distribution of purchase totals"},
			{Kind: "gender-city", URL: ChartURL("gender-city", state), Alt: "Purchases by gender and city"},
			{Kind: "product-lines", URL: ChartURL("product-lines", state), Alt: "Product line share"},
		},
		ExportURL: ExportURL(state),
	}
}

// ChartURL is the image URL of a chart for state.
func ChartURL(kind string, state models.FilterState) string {
	return "/charts/" + kind + ".svg?" + filterQuery(state)
}

// ExportURL is the workbook download URL for state.
func ExportURL(state models.FilterState) string {
	return exportPath + "?" + filterQuery(state)
}

func filterQuery(state models.FilterState) string {
	q := url.Values{}
	q.Set("gender", state.Gender)
	q.Set("city", state.City)
	return q.Encode()
}
