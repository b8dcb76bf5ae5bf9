// Package errs collects the sentinel error values and wrapper types spec.md
// §7 groups under LogicalError and TransactionAborted, so callers across
// txn, planner, backup and protocol can test for them with errors.Is/As
// instead of string matching, the same way the teacher wraps storage
// errors with fmt.Errorf("%w", ...) rather than inventing a parallel
// string-keyed error scheme (core/state/history_reader_v3.go).
package errs

import "fmt"

// LogicalError sentinels (spec.md §7): these surface to the client without
// affecting the connection, unlike protocol or storage errors.
var (
	ErrUnknownKeyspace   = fmt.Errorf("lexidb: unknown keyspace")
	ErrReadOnlyViolation = fmt.Errorf("lexidb: read-only violation")
)

// TransactionAbortedError carries the cause of an aborted transaction
// (spec.md §7 "TransactionAborted (carries cause)"). Encoding and storage
// errors abort the current transaction by wrapping themselves in this type.
type TransactionAbortedError struct {
	Cause error
}

func (e *TransactionAbortedError) Error() string {
	if e.Cause == nil {
		return "lexidb: transaction aborted"
	}
	return fmt.Sprintf("lexidb: transaction aborted: %v", e.Cause)
}

func (e *TransactionAbortedError) Unwrap() error { return e.Cause }

// ErrTransactionClosed is returned when an operation is attempted on a
// transaction that has already committed or aborted.
var ErrTransactionClosed = fmt.Errorf("lexidb: transaction already completed")
