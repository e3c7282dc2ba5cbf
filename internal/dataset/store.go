package dataset

import (
	"slices"
	"time"

	"sales-dashboard/internal/models"
)

// Store is the immutable in-memory transaction table. It is built once
// and shared read-only by every request.
type Store struct {
	records      []models.Transaction
	cities       []string
	cityIndex    map[string]struct{}
	productLines []string
	first, last  time.Time
	source       string
	loadDuration time.Duration
}

// New builds a Store over records. The slice is owned by the Store
// afterwards and must not be modified by the caller.
func New(records []models.Transaction) *Store {
	s := &Store{
		records:   records,
		cityIndex: make(map[string]struct{}),
	}

	lines := make(map[string]struct{})
	for i, tx := range records {
		if _, ok := s.cityIndex[tx.City]; !ok {
			s.cityIndex[tx.City] = struct{}{}
			s.cities = append(s.cities, tx.City)
		}
		if _, ok := lines[tx.ProductLine]; !ok {
			lines[tx.ProductLine] = struct{}{}
			s.productLines = append(s.productLines, tx.ProductLine)
		}
		if i == 0 || tx.Date.Before(s.first) {
			s.first = tx.Date
		}
		if i == 0 || tx.Date.After(s.last) {
			s.last = tx.Date
		}
	}
	slices.Sort(s.productLines)
	return s
}

// Records returns the full ordered dataset. Callers must treat it as read-only.
func (s *Store) Records() []models.Transaction {
	return s.records
}

func (s *Store) Len() int {
	return len(s.records)
}

// Cities returns every distinct city in order of first appearance.
func (s *Store) Cities() []string {
	return slices.Clone(s.cities)
}

func (s *Store) HasCity(city string) bool {
	_, ok := s.cityIndex[city]
	return ok
}

func (s *Store) ProductLines() []string {
	return slices.Clone(s.productLines)
}

// DateRange returns the earliest and latest transaction dates.
func (s *Store) DateRange() (time.Time, time.Time) {
	return s.first, s.last
}

func (s *Store) Source() string {
	return s.source
}

func (s *Store) Stats() map[string]any {
	stats := map[string]any{
		"record_count":  len(s.records),
		"cities":        s.Cities(),
		"product_lines": s.ProductLines(),
		"source":        s.source,
		"load_duration": s.loadDuration.String(),
	}
	if len(s.records) > 0 {
		stats["first_date"] = s.first.Format(time.DateOnly)
		stats["last_date"] = s.last.Format(time.DateOnly)
	}
	return stats
}
