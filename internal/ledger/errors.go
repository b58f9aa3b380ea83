package ledger

import "errors"

var (
	// ErrQueryFailure indicates the external store was unreachable or
	// rejected a query. Callers either recover with zero results (opening
	// balance) or clear the current report (assembly).
	ErrQueryFailure = errors.New("ledger: query failure")
	// ErrInvalidRange indicates the report window could not be resolved to
	// a valid calendar range after defaulting.
	ErrInvalidRange = errors.New("ledger: invalid date range")
	// ErrStaleSelection indicates a fetch completed after the selection it
	// served was replaced; its result has been discarded.
	ErrStaleSelection = errors.New("ledger: selection changed during fetch")
)
