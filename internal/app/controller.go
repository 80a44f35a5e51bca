// Package app holds the application controller: it owns the transient
// UI state (current selection, theme flag, mirrored form fields) and
// mediates every user-triggered operation against the record store.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"expenses/internal/core"
)

// ErrNoSelection is returned by DeleteSelected when no row is selected.
// It is recovered locally as a user-visible warning with no side
// effects.
var ErrNoSelection = errors.New("no expense selected")

// RecordStore is the durable store the controller mediates. The
// concrete implementation is injected, never reached through globals.
type RecordStore interface {
	Add(ctx context.Context, e core.Expense) (int64, error)
	ListAll(ctx context.Context) ([]core.Expense, error)
	Delete(ctx context.Context, id int64) error
}

// Form mirrors the entry fields shown by the presentation surface.
type Form struct {
	Amount   string
	Category string
}

type Controller struct {
	store RecordStore
	now   func() time.Time

	// net/http serves handlers on separate goroutines; the lock keeps
	// the transient state coherent. Semantics stay single-user.
	mu       sync.Mutex
	selected int64 // 0 means none-selected
	darkMode bool
	form     Form
}

type Option func(*Controller)

// WithClock overrides the timestamp source. Tests use it to pin dates.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithDarkMode sets the initial theme flag.
func WithDarkMode(dark bool) Option {
	return func(c *Controller) { c.darkMode = dark }
}

func NewController(store RecordStore, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitNewExpense validates the form fields, stamps the current
// timestamp and appends the record. Validation failures surface the
// core sentinels without touching the store or clearing the form; on
// success the form is cleared.
func (c *Controller) SubmitNewExpense(ctx context.Context, amountText, categoryText string) (core.Expense, error) {
	category := strings.TrimSpace(categoryText)
	if category == "" {
		return core.Expense{}, core.ErrEmptyCategory
	}
	cents, err := core.ParseDecimalToCents(amountText)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     c.now(),
	}
	id, err := c.store.Add(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	e.ID = id

	c.mu.Lock()
	c.form = Form{}
	c.mu.Unlock()

	slog.InfoContext(ctx, "Expense submitted",
		"id", id, "amount_cents", cents, "category", category)
	return e, nil
}

// DeleteSelected removes the currently selected record and clears the
// selection. With nothing selected it returns ErrNoSelection and
// changes nothing.
func (c *Controller) DeleteSelected(ctx context.Context) error {
	c.mu.Lock()
	id := c.selected
	c.mu.Unlock()

	if id == 0 {
		return ErrNoSelection
	}
	if err := c.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	c.ClearSelection()
	slog.InfoContext(ctx, "Selected expense deleted", "id", id)
	return nil
}

// SelectRow records id as the current selection and mirrors the row
// values into the form for the edit-by-delete-and-readd workflow.
func (c *Controller) SelectRow(id int64, amount core.Money, category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = id
	c.form = Form{Amount: amount.String(), Category: category}
}

// ClearSelection transitions back to the none-selected state and
// empties the form.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = 0
	c.form = Form{}
}

// Selection returns the selected id and whether one is set.
func (c *Controller) Selection() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != 0
}

// Form returns the current mirrored form fields.
func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// ToggleTheme flips the dark-mode flag and returns the new value.
// Purely presentational; no data effect.
func (c *Controller) ToggleTheme() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.darkMode = !c.darkMode
	return c.darkMode
}

// DarkMode reports the current theme flag.
func (c *Controller) DarkMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.darkMode
}

// Expenses returns all records ordered by date descending.
func (c *Controller) Expenses(ctx context.Context) ([]core.Expense, error) {
	return c.store.ListAll(ctx)
}

// Breakdown aggregates the stored records by category. An empty store
// yields core.ErrNoExpenses, the "nothing to show" signal.
func (c *Controller) Breakdown(ctx context.Context) (core.Breakdown, error) {
	expenses, err := c.store.ListAll(ctx)
	if err != nil {
		return core.Breakdown{}, fmt.Errorf("list expenses: %w", err)
	}
	return core.ComputeBreakdown(expenses)
}
