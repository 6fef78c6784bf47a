package core

import (
	"errors"
	"strings"
)

const (
	Income  TransactionType = "income"
	Outcome TransactionType = "outcome"
)

type (
	TransactionType string

	Money struct {
		Cents int64
	}

	// Category is a user-defined label shared by many transactions.
	// Titles are unique (case-sensitive) within a ledger.
	Category struct {
		ID    string
		Title string
	}

	Transaction struct {
		ID       string
		Title    string
		Value    Money
		Type     TransactionType
		Category Category
	}
)

// MaxTitleLen caps transaction titles.
const MaxTitleLen = 200

var (
	ErrEmptyTitle          = errors.New("empty title")
	ErrTitleTooLong        = errors.New("title too long")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrEmptyCategory       = errors.New("empty category title")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransactionNotFound = errors.New("transaction not found")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Outcome
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(t.Title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if err := t.Value.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category.Title) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// IsValidationError reports whether err is malformed caller input rather
// than a balance, existence, or storage failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyTitle) ||
		errors.Is(err, ErrTitleTooLong) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidType) ||
		errors.Is(err, ErrEmptyCategory)
}
