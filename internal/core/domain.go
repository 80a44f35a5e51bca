package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the persisted timestamp format. It sorts
// lexicographically, so ordering on the text column matches
// chronological order even when rows are inserted out of sequence.
const DateLayout = "2006-01-02 15:04:05"

// Categories are the labels offered by the entry form. The store
// accepts free text; the set is suggested, not closed.
var Categories = []string{
	"Food",
	"Transportation",
	"Education",
	"Shopping",
	"Entertainment",
	"Other",
}

type (
	Money struct {
		Cents int64
	}

	Expense struct {
		ID       int64
		Amount   Money
		Category string
		Date     time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyAmount   = errors.New("empty amount")
	ErrEmptyCategory = errors.New("empty category")
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Category) > 100 {
		return errors.New("category too long (max 100 characters)")
	}
	return nil
}

// IsValidation reports whether err belongs to the input-validation
// class, as opposed to storage failures.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyAmount) ||
		errors.Is(err, ErrEmptyCategory)
}

// FormattedDate returns the persisted representation of the timestamp,
// truncated to second precision.
func (e Expense) FormattedDate() string {
	return e.Date.Format(DateLayout)
}
