package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FilterAll disables the predicate of the filter field it is assigned to.
const FilterAll = "All"

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// Genders lists the legal gender values in display order.
func Genders() []Gender {
	return []Gender{GenderMale, GenderFemale}
}

func ParseGender(s string) (Gender, bool) {
	switch Gender(s) {
	case GenderMale, GenderFemale:
		return Gender(s), true
	default:
		return "", false
	}
}

// Transaction is one sale line of the dataset.
type Transaction struct {
	InvoiceID   string
	Gender      Gender
	City        string
	ProductLine string
	Total       decimal.Decimal
	Date        time.Time
}

// Week is the ISO week number of Date.
func (t Transaction) Week() int {
	_, week := t.Date.ISOWeek()
	return week
}

// FilterState is the gender/city selection driving a recomputation.
// Either field may hold FilterAll.
type FilterState struct {
	Gender string `json:"gender"`
	City   string `json:"city"`
}

func AllFilter() FilterState {
	return FilterState{Gender: FilterAll, City: FilterAll}
}

func (f FilterState) IsAll() bool {
	return f.Gender == FilterAll && f.City == FilterAll
}

type Bucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

type GenderCityCount struct {
	Gender Gender `json:"gender"`
	City   string `json:"city"`
	Count  int    `json:"count"`
}

type ProductLineCount struct {
	ProductLine string `json:"product_line"`
	Count       int    `json:"count"`
}

// Result holds the KPIs and chart datasets of one filtered subset.
type Result struct {
	TotalAmount       decimal.Decimal    `json:"total_amount"`
	InvoiceCount      int                `json:"invoice_count"`
	RecordCount       int                `json:"record_count"`
	Histogram         []Bucket           `json:"histogram"`
	GenderCityCounts  []GenderCityCount  `json:"gender_city_counts"`
	ProductLineCounts []ProductLineCount `json:"product_line_counts"`
}

// Share returns the proportion of records in product line i, or 0 when
// the result is empty.
func (r Result) Share(i int) float64 {
	if r.RecordCount == 0 || i < 0 || i >= len(r.ProductLineCounts) {
		return 0
	}
	return float64(r.ProductLineCounts[i].Count) / float64(r.RecordCount)
}
