package core

import (
	"errors"
	"testing"
)

func expense(amountCents int64, category string) Expense {
	return Expense{Amount: Money{Cents: amountCents}, Category: category}
}

func TestComputeBreakdown(t *testing.T) {
	b, err := ComputeBreakdown([]Expense{
		expense(1000, "Food"),
		expense(2000, "Food"),
		expense(3000, "Transportation"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Total.Cents != 6000 {
		t.Fatalf("expected grand total 6000, got %d", b.Total.Cents)
	}
	if len(b.Slices) != 2 {
		t.Fatalf("expected 2 slices, got %d", len(b.Slices))
	}
	// Equal totals are ordered by category name.
	if b.Slices[0].Category != "Food" || b.Slices[1].Category != "Transportation" {
		t.Fatalf("unexpected slice order: %q, %q", b.Slices[0].Category, b.Slices[1].Category)
	}
	for _, s := range b.Slices {
		if s.Total.Cents != 3000 {
			t.Fatalf("%s expected total 3000, got %d", s.Category, s.Total.Cents)
		}
		if s.Percent() != "50.0" {
			t.Fatalf("%s expected 50.0%%, got %s", s.Category, s.Percent())
		}
	}
}

func TestComputeBreakdownOrdering(t *testing.T) {
	b, err := ComputeBreakdown([]Expense{
		expense(500, "Other"),
		expense(9000, "Shopping"),
		expense(1500, "Food"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Shopping", "Food", "Other"}
	for i, s := range b.Slices {
		if s.Category != want[i] {
			t.Fatalf("slice %d expected %q, got %q", i, want[i], s.Category)
		}
	}
}

func TestComputeBreakdownPercentPrecision(t *testing.T) {
	b, err := ComputeBreakdown([]Expense{
		expense(100, "Food"),
		expense(200, "Other"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Slices[0].Percent() != "66.7" {
		t.Fatalf("expected 66.7, got %s", b.Slices[0].Percent())
	}
	if b.Slices[1].Percent() != "33.3" {
		t.Fatalf("expected 33.3, got %s", b.Slices[1].Percent())
	}
}

func TestComputeBreakdownEmpty(t *testing.T) {
	if _, err := ComputeBreakdown(nil); !errors.Is(err, ErrNoExpenses) {
		t.Fatalf("expected ErrNoExpenses, got %v", err)
	}
	if _, err := ComputeBreakdown([]Expense{}); !errors.Is(err, ErrNoExpenses) {
		t.Fatalf("expected ErrNoExpenses, got %v", err)
	}
}
