package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SignedDelta returns the balance change a single entry causes on an account
// of type t. Asset and Expense accounts increase on debit and decrease on
// credit; Liability, Equity and Income accounts increase on credit and
// decrease on debit. This is the only place balance arithmetic is defined:
// apply and reverse are both expressed through it.
func SignedDelta(t AccountType, d Direction, amount decimal.Decimal) (decimal.Decimal, error) {
	if !d.Valid() {
		return decimal.Zero, fmt.Errorf("%w: direction %q", ErrInvalidEntry, d)
	}
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		if d == Debit {
			return amount, nil
		}
		return amount.Neg(), nil
	case AccountTypeLiability, AccountTypeEquity, AccountTypeIncome:
		if d == Credit {
			return amount, nil
		}
		return amount.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAccountType, t)
	}
}

// AccountDelta is one pending balance mutation. Repositories apply a delta
// batch in a single transaction so balances and posting flags move together.
type AccountDelta struct {
	AccountID int64
	Delta     decimal.Decimal
}

// PostingDeltas computes the balance mutations applying the entries would
// cause. types maps account id to its type and must cover every entry.
func PostingDeltas(entries []VoucherEntry, types map[int64]AccountType) ([]AccountDelta, error) {
	return deltas(entries, types, false)
}

// ReversalDeltas computes the exact negation of PostingDeltas, so that
// apply followed by reverse is the identity on every balance.
func ReversalDeltas(entries []VoucherEntry, types map[int64]AccountType) ([]AccountDelta, error) {
	return deltas(entries, types, true)
}

func deltas(entries []VoucherEntry, types map[int64]AccountType, reverse bool) ([]AccountDelta, error) {
	out := make([]AccountDelta, 0, len(entries))
	for _, e := range entries {
		t, ok := types[e.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: account %d", ErrAccountNotFound, e.AccountID)
		}
		d, err := SignedDelta(t, e.Direction, e.Amount)
		if err != nil {
			return nil, err
		}
		if reverse {
			d = d.Neg()
		}
		out = append(out, AccountDelta{AccountID: e.AccountID, Delta: d})
	}
	return out, nil
}

// MergeDeltas folds deltas touching the same account into one, preserving
// first-seen account order.
func MergeDeltas(in []AccountDelta) []AccountDelta {
	sums := make(map[int64]decimal.Decimal, len(in))
	var order []int64
	for _, d := range in {
		if _, seen := sums[d.AccountID]; !seen {
			order = append(order, d.AccountID)
		}
		sums[d.AccountID] = sums[d.AccountID].Add(d.Delta)
	}
	out := make([]AccountDelta, 0, len(order))
	for _, id := range order {
		out = append(out, AccountDelta{AccountID: id, Delta: sums[id]})
	}
	return out
}
