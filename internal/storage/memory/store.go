// Package memory is a single in-memory store implementing every repository
// interface. One mutex covers all entity maps so multi-entity operations
// (settlement batches, posting) are atomic, mirroring what the Postgres
// repositories get from database transactions.
package memory

import (
	"sync"

	ledger "finbooks/internal/ledger/domain"
	payables "finbooks/internal/payables/domain"
	reconciliation "finbooks/internal/reconciliation/domain"
	settlement "finbooks/internal/settlement/domain"
)

// Store holds all entities. The zero value is not usable; use New.
type Store struct {
	mu sync.RWMutex

	nextAccountID   int64
	nextVoucherID   int64
	nextEntryID     int64
	nextStatementID int64
	nextItemID      int64
	nextVendorID    int64
	nextBillID      int64
	nextOrderID     int64
	nextDeclID      int64
	nextPaymentID   int64

	accounts     map[int64]*ledger.Account
	vouchers     map[int64]*ledger.Voucher
	statements   map[int64]*reconciliation.BankStatement
	vendors      map[int64]*payables.Vendor
	bills        map[int64]*payables.Bill
	orders       map[int64]*payables.PurchaseOrder
	declarations map[int64]*payables.TaxDeclaration
	payments     map[int64]*settlement.Payment

	voucherSeq map[int64]int64 // per-owner voucher counter
	orderSeq   map[int64]int64 // per-owner purchase-order counter
	seenKeys   map[idemKey]bool
}

type idemKey struct {
	ownerID int64
	key     string
}

// accountRepo and voucherRepo are views over the shared store; both ledger
// interfaces use plain CRUD method names, so they cannot live on Store itself.
type accountRepo struct{ *Store }

type voucherRepo struct{ *Store }

// Accounts returns the store's chart-of-accounts repository view.
func (s *Store) Accounts() ledger.AccountRepository { return accountRepo{s} }

// Vouchers returns the store's voucher repository view.
func (s *Store) Vouchers() ledger.VoucherRepository { return voucherRepo{s} }

// New constructs an empty store.
func New() *Store {
	return &Store{
		accounts:     make(map[int64]*ledger.Account),
		vouchers:     make(map[int64]*ledger.Voucher),
		statements:   make(map[int64]*reconciliation.BankStatement),
		vendors:      make(map[int64]*payables.Vendor),
		bills:        make(map[int64]*payables.Bill),
		orders:       make(map[int64]*payables.PurchaseOrder),
		declarations: make(map[int64]*payables.TaxDeclaration),
		payments:     make(map[int64]*settlement.Payment),
		voucherSeq:   make(map[int64]int64),
		orderSeq:     make(map[int64]int64),
		seenKeys:     make(map[idemKey]bool),
	}
}

func cloneAccount(a *ledger.Account) *ledger.Account {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func cloneVoucher(v *ledger.Voucher) *ledger.Voucher {
	if v == nil {
		return nil
	}
	c := *v
	c.Entries = append([]ledger.VoucherEntry(nil), v.Entries...)
	return &c
}

func cloneStatement(s *reconciliation.BankStatement) *reconciliation.BankStatement {
	if s == nil {
		return nil
	}
	c := *s
	c.Items = append([]reconciliation.StatementItem(nil), s.Items...)
	return &c
}

func cloneOrder(po *payables.PurchaseOrder) *payables.PurchaseOrder {
	if po == nil {
		return nil
	}
	c := *po
	c.Items = append([]payables.PurchaseOrderItem(nil), po.Items...)
	return &c
}
