package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnauthenticated is returned when an operation arrives without a resolved owner.
	ErrUnauthenticated = errors.New("ledger: missing owner")
	// ErrAccountNotFound is returned when an account id does not resolve for the owner.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrVoucherNotFound is returned when a voucher id does not resolve for the owner.
	ErrVoucherNotFound = errors.New("ledger: voucher not found")
	// ErrEntryNotFound is returned when a voucher entry id does not resolve for the owner.
	ErrEntryNotFound = errors.New("ledger: voucher entry not found")
	// ErrAlreadyPosted is returned when posting a voucher that is already posted.
	ErrAlreadyPosted = errors.New("ledger: voucher already posted")
	// ErrNotPosted is returned when unposting a voucher that is not posted.
	ErrNotPosted = errors.New("ledger: voucher not posted")
	// ErrPostedVoucherImmutable is returned when editing a posted voucher.
	// Unpost, edit and repost is the only legal path.
	ErrPostedVoucherImmutable = errors.New("ledger: posted voucher must be unposted before editing")
	// ErrNoEntries is returned when a voucher carries no entries.
	ErrNoEntries = errors.New("ledger: voucher has no entries")
	// ErrInvalidEntry is returned when an entry fails field validation.
	ErrInvalidEntry = errors.New("ledger: invalid voucher entry")
	// ErrInvalidAccountType is returned for an unknown account type.
	ErrInvalidAccountType = errors.New("ledger: invalid account type")
	// ErrParentCycle is returned when an account parent update would form a cycle.
	ErrParentCycle = errors.New("ledger: account parent chain forms a cycle")
)

// UnbalancedError reports a voucher whose debit and credit totals differ.
// Both totals are carried so callers can surface them.
type UnbalancedError struct {
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("ledger: debits (%s) != credits (%s)", e.DebitTotal.StringFixed(2), e.CreditTotal.StringFixed(2))
}
