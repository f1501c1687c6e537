// Package store holds the bounded history of classified log records.
package store

import (
	"fmt"

	"opslens/src/contracts"
)

const (
	// DefaultCapacity is the number of records retained before FIFO eviction.
	DefaultCapacity = 10000

	// DefaultQueryLimit is applied when a query does not set a limit.
	DefaultQueryLimit = 1000
)

// Store defines the operations over the retained log history.
type Store interface {
	// Append adds records in order and evicts the oldest records beyond capacity.
	Append(batch []contracts.ClassifiedLog)

	// All returns every retained record, oldest first.
	All() []contracts.ClassifiedLog

	// Filter returns the records matching pred, in store order.
	Filter(pred func(contracts.ClassifiedLog) bool) []contracts.ClassifiedLog

	// Query filters, sorts newest first and truncates. total is the
	// filtered count before truncation.
	Query(opts QueryOptions) (logs []contracts.ClassifiedLog, total int)

	// Recent returns up to n records, newest first.
	Recent(n int) []contracts.ClassifiedLog

	// Get returns the record with the given ID.
	Get(id string) (contracts.ClassifiedLog, error)

	// Clear removes every record.
	Clear()

	// Len returns the number of retained records.
	Len() int
}

// QueryOptions are exact-match filters for Query. Empty fields match anything.
type QueryOptions struct {
	Source   contracts.Source
	Category contracts.Category
	Severity contracts.Severity
	Limit    int
}

// Matches reports whether log passes every set filter.
func (o QueryOptions) Matches(log contracts.ClassifiedLog) bool {
	if o.Source != "" && log.Source != o.Source {
		return false
	}
	if o.Category != "" && log.Category != o.Category {
		return false
	}
	if o.Severity != "" && log.Severity != o.Severity {
		return false
	}
	return true
}

// ErrNotFound is returned when a record is not retained.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("log not found: %s", e.ID)
}
