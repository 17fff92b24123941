package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	ledgerapp "finbooks/internal/ledger/application"
	ledger "finbooks/internal/ledger/domain"
	reconciliation "finbooks/internal/reconciliation/domain"
	"finbooks/internal/storage/memory"
)

type fixture struct {
	svc      *Service
	chart    *ledgerapp.ChartService
	vouchers *ledgerapp.VoucherService
	bank     *ledger.Account
	expense  *ledger.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	chart, err := ledgerapp.NewChartService(store.Accounts(), nil)
	if err != nil {
		t.Fatalf("chart service: %v", err)
	}
	vouchers, err := ledgerapp.NewVoucherService(store.Vouchers(), store.Accounts(), nil, nil, nil)
	if err != nil {
		t.Fatalf("voucher service: %v", err)
	}
	svc, err := NewService(store, store.Vouchers(), chart, nil)
	if err != nil {
		t.Fatalf("reconciliation service: %v", err)
	}

	bank, err := chart.CreateAccount(ctx, 1, ledgerapp.AccountInput{Code: "1002", Name: "Bank Deposits", Type: ledger.AccountTypeAsset})
	if err != nil {
		t.Fatalf("create bank: %v", err)
	}
	expense, err := chart.CreateAccount(ctx, 1, ledgerapp.AccountInput{Code: "6602", Name: "Administrative Expenses", Type: ledger.AccountTypeExpense})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	return &fixture{svc: svc, chart: chart, vouchers: vouchers, bank: bank, expense: expense}
}

// bankEntry posts a voucher moving amount out of the bank account and
// returns the bank-side entry id.
func (f *fixture) bankEntry(t *testing.T, amount string) int64 {
	t.Helper()
	ctx := context.Background()
	voucher, err := f.vouchers.CreateVoucher(ctx, 1, ledgerapp.VoucherInput{
		Entries: []ledger.VoucherEntry{
			{AccountID: f.expense.ID, Direction: ledger.Debit, Amount: decimal.RequireFromString(amount)},
			{AccountID: f.bank.ID, Direction: ledger.Credit, Amount: decimal.RequireFromString(amount)},
		},
	})
	if err != nil {
		t.Fatalf("create voucher: %v", err)
	}
	for _, e := range voucher.Entries {
		if e.AccountID == f.bank.ID {
			return e.ID
		}
	}
	t.Fatal("no bank entry on voucher")
	return 0
}

func newStatement(items int) *reconciliation.BankStatement {
	stmt := &reconciliation.BankStatement{
		StatementDate:  time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		OpeningBalance: decimal.RequireFromString("1000.00"),
		ClosingBalance: decimal.RequireFromString("800.00"),
	}
	for i := 0; i < items; i++ {
		stmt.Items = append(stmt.Items, reconciliation.StatementItem{
			TransactionDate: time.Date(2026, 7, 10+i, 0, 0, 0, 0, time.UTC),
			Description:     "wire",
			Amount:          decimal.RequireFromString("-100.00"),
		})
	}
	return stmt
}

func TestCreateStatementStartsPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stmt := newStatement(2)
	stmt.AccountID = f.bank.ID
	stmt.Items[0].Reconciled = true // must be ignored
	created, err := f.svc.CreateStatement(ctx, 1, stmt)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != reconciliation.StatusPending {
		t.Fatalf("status = %s, want pending", created.Status)
	}
	for _, item := range created.Items {
		if item.Reconciled || item.VoucherEntryID != 0 {
			t.Fatal("imported item carried reconciliation state")
		}
	}
}

func TestReconcileDerivesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stmt := newStatement(2)
	stmt.AccountID = f.bank.ID
	if _, err := f.svc.CreateStatement(ctx, 1, stmt); err != nil {
		t.Fatalf("create: %v", err)
	}
	entry1 := f.bankEntry(t, "100.00")
	entry2 := f.bankEntry(t, "100.00")

	got, err := f.svc.Reconcile(ctx, 1, stmt.Items[0].ID, entry1)
	if err != nil {
		t.Fatalf("link first: %v", err)
	}
	if got.Status != reconciliation.StatusPartiallyReconciled {
		t.Fatalf("status = %s, want partially_reconciled", got.Status)
	}

	got, err = f.svc.Reconcile(ctx, 1, stmt.Items[1].ID, entry2)
	if err != nil {
		t.Fatalf("link second: %v", err)
	}
	if got.Status != reconciliation.StatusCompleted {
		t.Fatalf("status = %s, want completed", got.Status)
	}

	got, err = f.svc.Reconcile(ctx, 1, stmt.Items[1].ID, 0)
	if err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if got.Status != reconciliation.StatusPartiallyReconciled {
		t.Fatalf("status after unlink = %s, want partially_reconciled", got.Status)
	}
}

func TestReconcileRejectsUnknownEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stmt := newStatement(1)
	stmt.AccountID = f.bank.ID
	if _, err := f.svc.CreateStatement(ctx, 1, stmt); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.Reconcile(ctx, 1, stmt.Items[0].ID, 9999); !errors.Is(err, ledger.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestUnreconciledEntriesExcludesClaimed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stmt := newStatement(1)
	stmt.AccountID = f.bank.ID
	if _, err := f.svc.CreateStatement(ctx, 1, stmt); err != nil {
		t.Fatalf("create: %v", err)
	}
	entry1 := f.bankEntry(t, "100.00")
	entry2 := f.bankEntry(t, "60.00")

	candidates, err := f.svc.UnreconciledEntries(ctx, 1)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}

	if _, err := f.svc.Reconcile(ctx, 1, stmt.Items[0].ID, entry1); err != nil {
		t.Fatalf("link: %v", err)
	}
	candidates, err = f.svc.UnreconciledEntries(ctx, 1)
	if err != nil {
		t.Fatalf("candidates after link: %v", err)
	}
	if len(candidates) != 1 || candidates[0].EntryID != entry2 {
		t.Fatalf("claimed entry still listed: %+v", candidates)
	}
}

func TestAddItemsRecomputesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stmt := newStatement(1)
	stmt.AccountID = f.bank.ID
	if _, err := f.svc.CreateStatement(ctx, 1, stmt); err != nil {
		t.Fatalf("create: %v", err)
	}
	entry1 := f.bankEntry(t, "100.00")
	if _, err := f.svc.Reconcile(ctx, 1, stmt.Items[0].ID, entry1); err != nil {
		t.Fatalf("link: %v", err)
	}

	// A completed statement drops back to partially_reconciled when new
	// unmatched items arrive.
	err := f.svc.AddItems(ctx, 1, stmt.ID, []reconciliation.StatementItem{{
		TransactionDate: time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC),
		Description:     "fee",
		Amount:          decimal.RequireFromString("-5.00"),
	}})
	if err != nil {
		t.Fatalf("add items: %v", err)
	}
	got, err := f.svc.GetStatement(ctx, 1, stmt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != reconciliation.StatusPartiallyReconciled {
		t.Fatalf("status = %s, want partially_reconciled", got.Status)
	}
	if len(got.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(got.Items))
	}
}
