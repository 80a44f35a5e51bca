// Package storage implements the durable expense record store on a
// single SQLite table.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"

	_ "modernc.org/sqlite"
)

// Repository provides create/list/delete access to persisted expense
// records. Delete has two policies: stable identifiers (default) and
// the legacy compaction that renumbers surviving rows densely from 1.
type Repository struct {
	db      *sql.DB
	compact bool
}

type Option func(*Repository)

// WithCompaction enables the legacy delete behavior: after a removal
// the table is rebuilt and surviving rows are renumbered densely
// starting from 1, preserving their relative order. Identifiers are
// not stable across deletes under this policy.
func WithCompaction() Option {
	return func(r *Repository) { r.compact = true }
}

func NewRepository(dbPath string, opts ...Option) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &Repository{db: db}
	for _, opt := range opts {
		opt(repo)
	}

	return repo, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Add validates and appends a new record, returning the assigned id.
// Validation failures surface the core sentinels without touching the
// table.
func (r *Repository) Add(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (amount, category, date) VALUES (?, ?, ?)`,
		e.Amount.Unit(), e.Category, e.FormattedDate())
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpCreate,
		applog.FieldExpenseID, id,
		applog.FieldAmountCents, e.Amount.Cents,
		applog.FieldCategory, e.Category,
		applog.FieldDate, e.FormattedDate())

	return id, nil
}

// ListAll returns every record ordered by date descending, id breaking
// ties. An empty table yields an empty slice, not an error.
func (r *Repository) ListAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, category, date FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var (
			id       int64
			amount   float64
			category string
			date     string
		)
		if err := rows.Scan(&id, &amount, &category, &date); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		ts, err := parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", date, err)
		}
		expenses = append(expenses, core.Expense{
			ID:       id,
			Amount:   core.MoneyFromUnit(amount),
			Category: category,
			Date:     ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}

	return expenses, nil
}

// Delete removes the record with the given id. A missing id is a
// no-op returning nil. Under the compaction policy the table is
// rebuilt afterwards inside the same transaction.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if !r.compact {
		res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete expense %d: %w", id, err)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			slog.DebugContext(ctx, "Delete of missing expense is a no-op",
				applog.FieldComponent, applog.ComponentStorage,
				applog.FieldOperation, applog.OpDelete,
				applog.FieldExpenseID, id)
			return nil
		}
		slog.InfoContext(ctx, "Expense deleted",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldOperation, applog.OpDelete,
			applog.FieldExpenseID, id)
		return nil
	}
	return r.deleteAndCompact(ctx, id)
}

func (r *Repository) deleteAndCompact(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	// Rebuild the table so surviving rows get dense ids from 1 in their
	// existing storage order.
	stmts := []string{
		`CREATE TABLE expenses_compact (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			amount REAL NOT NULL,
			category TEXT NOT NULL,
			date TEXT NOT NULL
		)`,
		`INSERT INTO expenses_compact (amount, category, date)
			SELECT amount, category, date FROM expenses ORDER BY id`,
		`DROP TABLE expenses`,
		`ALTER TABLE expenses_compact RENAME TO expenses`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("compact expenses table: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Expense deleted and table compacted",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)
	return nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(core.DateLayout, s)
}
