package reconciliation

import "errors"

var (
	// ErrStatementNotFound is returned when a statement id does not resolve for the owner.
	ErrStatementNotFound = errors.New("reconciliation: statement not found")
	// ErrItemNotFound is returned when a statement item id does not resolve for the owner.
	ErrItemNotFound = errors.New("reconciliation: statement item not found")
	// ErrNoItems is returned when a batch insert carries no items.
	ErrNoItems = errors.New("reconciliation: no items supplied")
)
