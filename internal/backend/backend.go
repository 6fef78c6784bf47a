// Package backend selects and constructs the ledger store implementation.
package backend

import (
	"gofinances/internal/store"
)

// Type names a store implementation.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{SQLite, Memory}
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result holds the constructed stores and an optional cleanup function.
type Result struct {
	Categories   store.CategoryStore
	Transactions store.TransactionStore
	Cleanup      CleanupFunc
}

// Close runs the cleanup function when one is set.
func (r *Result) Close() error {
	if r.Cleanup != nil {
		return r.Cleanup()
	}
	return nil
}
