package core

import (
	"errors"
	"sort"
	"strconv"
)

// ErrNoExpenses signals an empty dataset to the chart. It is an
// informational case, not a failure: callers show a note instead of
// rendering.
var ErrNoExpenses = errors.New("no expenses to show")

// CategoryTotal is an amount aggregated under one category name.
type CategoryTotal struct {
	Category string
	Total    Money
	Share    float64 // fraction of the grand total, 0..1
}

// Percent returns the share as a percentage with one decimal,
// e.g. "50.0".
func (ct CategoryTotal) Percent() string {
	return strconv.FormatFloat(ct.Share*100, 'f', 1, 64)
}

// Breakdown is the category-grouped sum of amounts with proportional
// shares, ready for rendering as a pie chart.
type Breakdown struct {
	Total  Money
	Slices []CategoryTotal
}

// ComputeBreakdown groups expenses by category, sums amounts and
// assigns each slice its share of the grand total. Slices are ordered
// by descending total, ties broken by category name, so rendering is
// deterministic. Empty input yields ErrNoExpenses.
func ComputeBreakdown(expenses []Expense) (Breakdown, error) {
	if len(expenses) == 0 {
		return Breakdown{}, ErrNoExpenses
	}

	totals := make(map[string]int64)
	var grand int64
	for _, e := range expenses {
		totals[e.Category] += e.Amount.Cents
		grand += e.Amount.Cents
	}
	if grand <= 0 {
		return Breakdown{}, ErrNoExpenses
	}

	b := Breakdown{Total: Money{Cents: grand}}
	for category, cents := range totals {
		b.Slices = append(b.Slices, CategoryTotal{
			Category: category,
			Total:    Money{Cents: cents},
			Share:    float64(cents) / float64(grand),
		})
	}
	sort.Slice(b.Slices, func(i, j int) bool {
		if b.Slices[i].Total.Cents != b.Slices[j].Total.Cents {
			return b.Slices[i].Total.Cents > b.Slices[j].Total.Cents
		}
		return b.Slices[i].Category < b.Slices[j].Category
	})
	return b, nil
}
