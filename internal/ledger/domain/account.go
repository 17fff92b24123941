package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is one of the five account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}
	return false
}

// CodePrefix returns the numeric prefix used when auto-generating account
// codes for this type.
func (t AccountType) CodePrefix() string {
	switch t {
	case AccountTypeAsset:
		return "100"
	case AccountTypeLiability:
		return "200"
	case AccountTypeEquity:
		return "400"
	case AccountTypeIncome:
		return "600"
	case AccountTypeExpense:
		return "660"
	default:
		return "999"
	}
}

// Account is one row in the chart of accounts. Balance reflects exactly the
// posted voucher entries applied under the SignedDelta rule; the parent tree
// is display-only and balances are never rolled up from children.
type Account struct {
	ID          int64
	Code        string
	Name        string
	Type        AccountType
	ParentID    int64 // 0 = top-level
	Description string
	Balance     decimal.Decimal
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Codes of the payable accounts the settlement workflow debits. Looked up by
// prefix and auto-created with zero balance when absent.
const (
	CodeAccountsPayable = "2202"
	CodeTaxPayable      = "2221"
)
