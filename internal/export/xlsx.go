package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetSummary      = "Summary"
	SheetHistogram    = "Histogram"
	SheetGenderCity   = "Gender x City"
	SheetProductLines = "Product lines"
)

// Filename is the download name of the workbook for state.
func Filename(state models.FilterState) string {
	return fmt.Sprintf("sales_%s_%s.xlsx", state.Gender, state.City)
}

// Write encodes the workbook of result to w.
func Write(w io.Writer, state models.FilterState, result models.Result) error {
	f, err := Workbook(state, result)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// Workbook builds one sheet for the KPIs and one per chart dataset.
// The caller owns the returned file and must Close it.
func Workbook(state models.FilterState, result models.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	b := &builder{f: f}

	b.header, b.err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#004080"}, Pattern: 1},
	})
	if b.err == nil {
		b.money, b.err = f.NewStyle(&excelize.Style{NumFmt: 4})
	}
	if b.err == nil {
		b.percent, b.err = f.NewStyle(&excelize.Style{NumFmt: 10})
	}
	if b.err == nil {
		b.err = f.SetSheetName("Sheet1", SheetSummary)
	}

	b.summary(state, result)
	b.histogram(result.Histogram)
	b.genderCity(result.GenderCityCounts)
	b.productLines(result)

	if b.err != nil {
		f.Close()
		return nil, fmt.Errorf("build workbook: %w", b.err)
	}
	return f, nil
}

// builder records the first error and turns every later call into a no-op.
type builder struct {
	f                      *excelize.File
	header, money, percent int
	err                    error
}

func (b *builder) sheet(name string, headers ...any) {
	if b.err != nil {
		return
	}
	if name != SheetSummary {
		if _, b.err = b.f.NewSheet(name); b.err != nil {
			return
		}
	}
	b.row(name, 1, headers...)
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		b.err = err
		return
	}
	b.style(name, "A1", last, b.header)
	if b.err == nil {
		b.err = b.f.SetColWidth(name, "A", "D", 22)
	}
}

func (b *builder) row(sheet string, n int, values ...any) {
	if b.err != nil {
		return
	}
	b.err = b.f.SetSheetRow(sheet, fmt.Sprintf("A%d", n), &values)
}

func (b *builder) style(sheet, from, to string, style int) {
	if b.err != nil {
		return
	}
	b.err = b.f.SetCellStyle(sheet, from, to, style)
}

func (b *builder) summary(state models.FilterState, result models.Result) {
	b.sheet(SheetSummary, "Metric", "Value")
	b.row(SheetSummary, 2, "Gender filter", state.Gender)
	b.row(SheetSummary, 3, "City filter", state.City)
	b.row(SheetSummary, 4, "Total amount", result.TotalAmount.InexactFloat64())
	b.row(SheetSummary, 5, "Invoices", result.InvoiceCount)
	b.row(SheetSummary, 6, "Records", result.RecordCount)
	b.style(SheetSummary, "B4", "B4", b.money)
}

func (b *builder) histogram(buckets []models.Bucket) {
	b.sheet(SheetHistogram, "Lower", "Upper", "Count")
	for i, bucket := range buckets {
		b.row(SheetHistogram, i+2, bucket.Lower, bucket.Upper, bucket.Count)
	}
	if len(buckets) > 0 {
		b.style(SheetHistogram, "A2", fmt.Sprintf("B%d", len(buckets)+1), b.money)
	}
}

func (b *builder) genderCity(counts []models.GenderCityCount) {
	b.sheet(SheetGenderCity, "Gender", "City", "Count")
	for i, c := range counts {
		b.row(SheetGenderCity, i+2, string(c.Gender), c.City, c.Count)
	}
}

func (b *builder) productLines(result models.Result) {
	b.sheet(SheetProductLines, "Product line", "Count", "Share")
	for i, pl := range result.ProductLineCounts {
		b.row(SheetProductLines, i+2, pl.ProductLine, pl.Count, result.Share(i))
	}
	if n := len(result.ProductLineCounts); n > 0 {
		b.style(SheetProductLines, "C2", fmt.Sprintf("C%d", n+1), b.percent)
	}
}
