package settlement

import "errors"

var (
	// ErrNoSourcesSelected is returned when a payment is executed with no source ids.
	ErrNoSourcesSelected = errors.New("settlement: no sources selected")
	// ErrNoBankAccount is returned when no bank account id is supplied.
	ErrNoBankAccount = errors.New("settlement: no bank account selected")
	// ErrSourcesNotFound is returned when any selected id is absent or owned by
	// another owner. The whole call aborts; partial authorization never settles.
	ErrSourcesNotFound = errors.New("settlement: some sources not found")
	// ErrSourceNotPayable is returned when a selected source is not in its
	// payable state, including sources already settled.
	ErrSourceNotPayable = errors.New("settlement: source not in payable state")
	// ErrInsufficientFunds is returned before any mutation when the bank
	// balance does not cover the batch total.
	ErrInsufficientFunds = errors.New("settlement: insufficient funds")
	// ErrDuplicateExecution is returned when the idempotency key was already
	// used by this owner.
	ErrDuplicateExecution = errors.New("settlement: duplicate execution")
	// ErrPaymentNotFound is returned when a payment id does not resolve for the owner.
	ErrPaymentNotFound = errors.New("settlement: payment not found")
)
