package services

import (
	stderrors "errors"
	"fmt"
	"slices"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
)

// ErrInvalidFilterState reports a filter field outside its legal values.
var ErrInvalidFilterState = stderrors.New("invalid filter state")

// CityLookup reports whether a city belongs to the dataset.
type CityLookup interface {
	HasCity(city string) bool
}

// ValidateFilter checks state against the legal gender values and the
// cities known to the dataset. Illegal values are never coerced.
func ValidateFilter(state models.FilterState, cities CityLookup) error {
	if state.Gender != models.FilterAll {
		if _, ok := models.ParseGender(state.Gender); !ok {
			return invalidFilter(fmt.Errorf("%w: unknown gender %q", ErrInvalidFilterState, state.Gender))
		}
	}
	if state.City != models.FilterAll && !cities.HasCity(state.City) {
		return invalidFilter(fmt.Errorf("%w: unknown city %q", ErrInvalidFilterState, state.City))
	}
	return nil
}

func invalidFilter(cause error) *errors.AppError {
	appErr := errors.InvalidFilterWrap(cause, "Invalid filter state")
	appErr.Details = cause.Error()
	return appErr
}

// Filter returns the records matching state in their original order.
// The input slice is never modified.
func Filter(records []models.Transaction, state models.FilterState) []models.Transaction {
	if state.IsAll() {
		return slices.Clone(records)
	}
	out := make([]models.Transaction, 0, len(records))
	for _, tx := range records {
		if matches(tx, state) {
			out = append(out, tx)
		}
	}
	return out
}

func matches(tx models.Transaction, state models.FilterState) bool {
	genderOK := state.Gender == models.FilterAll || string(tx.Gender) == state.Gender
	cityOK := state.City == models.FilterAll || tx.City == state.City
	return genderOK && cityOK
}
