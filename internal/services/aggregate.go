package services

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

// HistogramBins is the number of equal-width histogram buckets spanning
// the observed [min, max] of the filtered totals.
const HistogramBins = 10

// Aggregate computes the KPIs and chart datasets of a filtered subset.
// An empty subset yields zero KPIs and empty collections.
func Aggregate(filtered []models.Transaction) models.Result {
	result := models.Result{
		TotalAmount:       decimal.Zero,
		RecordCount:       len(filtered),
		Histogram:         []models.Bucket{},
		GenderCityCounts:  []models.GenderCityCount{},
		ProductLineCounts: []models.ProductLineCount{},
	}
	if len(filtered) == 0 {
		return result
	}

	type genderCity struct {
		gender models.Gender
		city   string
	}

	invoices := make(map[string]struct{}, len(filtered))
	pairs := make(map[genderCity]int)
	lines := make(map[string]int)
	totals := make([]float64, len(filtered))

	for i, tx := range filtered {
		result.TotalAmount = result.TotalAmount.Add(tx.Total)
		invoices[tx.InvoiceID] = struct{}{}
		pairs[genderCity{tx.Gender, tx.City}]++
		lines[tx.ProductLine]++
		totals[i] = tx.Total.InexactFloat64()
	}

	result.InvoiceCount = len(invoices)
	result.Histogram = histogram(totals, HistogramBins)

	for k, n := range pairs {
		result.GenderCityCounts = append(result.GenderCityCounts, models.GenderCityCount{
			Gender: k.gender,
			City:   k.city,
			Count:  n,
		})
	}
	slices.SortFunc(result.GenderCityCounts, func(a, b models.GenderCityCount) int {
		if c := cmp.Compare(a.Gender, b.Gender); c != 0 {
			return c
		}
		return cmp.Compare(a.City, b.City)
	})

	for line, n := range lines {
		result.ProductLineCounts = append(result.ProductLineCounts, models.ProductLineCount{
			ProductLine: line,
			Count:       n,
		})
	}
	slices.SortFunc(result.ProductLineCounts, func(a, b models.ProductLineCount) int {
		return cmp.Compare(a.ProductLine, b.ProductLine)
	})

	return result
}

// histogram bins values into n equal-width buckets over [min, max].
// Buckets are half-open except the last, which also holds max. When all
// values are equal a single [v, v] bucket is returned.
func histogram(values []float64, n int) []models.Bucket {
	if len(values) == 0 || n <= 0 {
		return []models.Bucket{}
	}

	lo, hi := slices.Min(values), slices.Max(values)
	if lo == hi {
		return []models.Bucket{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(n)
	buckets := make([]models.Bucket, n)
	for i := range buckets {
		buckets[i].Lower = lo + float64(i)*width
		buckets[i].Upper = lo + float64(i+1)*width
	}
	buckets[n-1].Upper = hi

	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= n {
			idx = n - 1
		}
		buckets[idx].Count++
	}
	return buckets
}
