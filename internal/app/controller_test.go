package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"expenses/internal/core"
)

// fakeStore is an in-memory RecordStore for controller tests.
type fakeStore struct {
	items  []core.Expense
	nextID int64
	err    error
}

func (f *fakeStore) Add(_ context.Context, e core.Expense) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if err := e.Validate(); err != nil {
		return 0, err
	}
	f.nextID++
	e.ID = f.nextID
	f.items = append(f.items, e)
	return e.ID, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]core.Expense, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]core.Expense, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	for i, e := range f.items {
		if e.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func fixedClock() func() time.Time {
	ts := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestSubmitNewExpense(t *testing.T) {
	store := &fakeStore{}
	c := NewController(store, WithClock(fixedClock()))

	e, err := c.SubmitNewExpense(context.Background(), "12.34", "Food")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if e.ID != 1 || e.Amount.Cents != 1234 || e.Category != "Food" {
		t.Fatalf("unexpected expense: %+v", e)
	}
	if e.FormattedDate() != "2025-04-01 10:00:00" {
		t.Fatalf("expected stamped timestamp, got %q", e.FormattedDate())
	}
	if got := c.Form(); got != (Form{}) {
		t.Fatalf("form not cleared after submit: %+v", got)
	}
}

func TestSubmitNewExpenseValidation(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		category string
		want     error
	}{
		{"empty amount", "", "Food", core.ErrEmptyAmount},
		{"non-numeric amount", "abc", "Food", core.ErrInvalidAmount},
		{"zero amount", "0", "Food", core.ErrInvalidAmount},
		{"negative amount", "-5", "Food", core.ErrInvalidAmount},
		{"empty category", "10", "", core.ErrEmptyCategory},
		{"blank category", "10", "   ", core.ErrEmptyCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeStore{}
			c := NewController(store)
			_, err := c.SubmitNewExpense(context.Background(), tc.amount, tc.category)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if len(store.items) != 0 {
				t.Fatalf("store mutated on validation failure")
			}
		})
	}
}

func TestSubmitNewExpenseStorageError(t *testing.T) {
	boom := errors.New("disk full")
	c := NewController(&fakeStore{err: boom})
	_, err := c.SubmitNewExpense(context.Background(), "10", "Food")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}

func TestDeleteSelected(t *testing.T) {
	store := &fakeStore{}
	c := NewController(store)

	e, err := c.SubmitNewExpense(context.Background(), "10", "Food")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	c.SelectRow(e.ID, e.Amount, e.Category)
	if _, ok := c.Selection(); !ok {
		t.Fatalf("expected a selection")
	}

	if err := c.DeleteSelected(context.Background()); err != nil {
		t.Fatalf("delete selected: %v", err)
	}
	if _, ok := c.Selection(); ok {
		t.Fatalf("selection not cleared after delete")
	}
	if len(store.items) != 0 {
		t.Fatalf("record not deleted")
	}
}

func TestDeleteSelectedWithoutSelection(t *testing.T) {
	store := &fakeStore{}
	c := NewController(store)
	_, _ = c.SubmitNewExpense(context.Background(), "10", "Food")

	err := c.DeleteSelected(context.Background())
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if len(store.items) != 1 {
		t.Fatalf("store mutated by delete with no selection")
	}
}

func TestSelectRowMirrorsForm(t *testing.T) {
	c := NewController(&fakeStore{})
	c.SelectRow(7, core.Money{Cents: 1250}, "Shopping")

	id, ok := c.Selection()
	if !ok || id != 7 {
		t.Fatalf("expected selection 7, got %d (ok=%v)", id, ok)
	}
	form := c.Form()
	if form.Amount != "12.50" || form.Category != "Shopping" {
		t.Fatalf("unexpected mirrored form: %+v", form)
	}

	c.ClearSelection()
	if _, ok := c.Selection(); ok {
		t.Fatalf("expected cleared selection")
	}
	if got := c.Form(); got != (Form{}) {
		t.Fatalf("expected cleared form, got %+v", got)
	}
}

func TestToggleTheme(t *testing.T) {
	c := NewController(&fakeStore{})
	if c.DarkMode() {
		t.Fatalf("initial theme should be light")
	}
	if !c.ToggleTheme() {
		t.Fatalf("expected dark after first toggle")
	}
	if c.ToggleTheme() {
		t.Fatalf("expected light after second toggle")
	}
}

func TestBreakdown(t *testing.T) {
	store := &fakeStore{}
	c := NewController(store)

	if _, err := c.Breakdown(context.Background()); !errors.Is(err, core.ErrNoExpenses) {
		t.Fatalf("expected ErrNoExpenses on empty store, got %v", err)
	}

	_, _ = c.SubmitNewExpense(context.Background(), "10", "Food")
	_, _ = c.SubmitNewExpense(context.Background(), "20", "Food")
	_, _ = c.SubmitNewExpense(context.Background(), "30", "Transportation")

	b, err := c.Breakdown(context.Background())
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if b.Total.Cents != 6000 || len(b.Slices) != 2 {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
}
