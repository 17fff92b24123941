package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	ledger "finbooks/internal/ledger/domain"
	"finbooks/internal/storage/memory"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newVoucherFixture(t *testing.T) (*VoucherService, *ChartService, ledger.AccountRepository) {
	t.Helper()
	store := memory.New()
	chart, err := NewChartService(store.Accounts(), nil)
	if err != nil {
		t.Fatalf("chart service: %v", err)
	}
	clock := fixedClock{at: time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)}
	svc, err := NewVoucherService(store.Vouchers(), store.Accounts(), nil, clock, nil)
	if err != nil {
		t.Fatalf("voucher service: %v", err)
	}
	return svc, chart, store.Accounts()
}

func mustAccount(t *testing.T, chart *ChartService, ownerID int64, code, name string, typ ledger.AccountType) *ledger.Account {
	t.Helper()
	account, err := chart.CreateAccount(context.Background(), ownerID, AccountInput{Code: code, Name: name, Type: typ})
	if err != nil {
		t.Fatalf("create account %s: %v", code, err)
	}
	return account
}

func entry(accountID int64, d ledger.Direction, amount string) ledger.VoucherEntry {
	return ledger.VoucherEntry{AccountID: accountID, Direction: d, Amount: decimal.RequireFromString(amount)}
}

func TestCreateVoucherRejectsImbalance(t *testing.T) {
	svc, chart, _ := newVoucherFixture(t)
	ctx := context.Background()
	bank := mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	expense := mustAccount(t, chart, 1, "6602", "Administrative Expenses", ledger.AccountTypeExpense)

	_, err := svc.CreateVoucher(ctx, 1, VoucherInput{
		Entries: []ledger.VoucherEntry{
			entry(expense.ID, ledger.Debit, "100.00"),
			entry(bank.ID, ledger.Credit, "90.00"),
		},
	})
	var unbalanced *ledger.UnbalancedError
	if !errors.As(err, &unbalanced) {
		t.Fatalf("expected UnbalancedError, got %v", err)
	}
	if !unbalanced.DebitTotal.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("wrong debit total: %s", unbalanced.DebitTotal)
	}
}

func TestCreateVoucherAssignsSequentialNumbers(t *testing.T) {
	svc, chart, _ := newVoucherFixture(t)
	ctx := context.Background()
	bank := mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	cash := mustAccount(t, chart, 1, "1001", "Cash", ledger.AccountTypeAsset)

	date := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	entries := []ledger.VoucherEntry{
		entry(cash.ID, ledger.Debit, "50.00"),
		entry(bank.ID, ledger.Credit, "50.00"),
	}
	first, err := svc.CreateVoucher(ctx, 1, VoucherInput{Date: date, Entries: entries})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.CreateVoucher(ctx, 1, VoucherInput{Date: date, Entries: entries})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if first.Number != "20260715-0001" || second.Number != "20260715-0002" {
		t.Fatalf("unexpected numbers: %s, %s", first.Number, second.Number)
	}
	if first.Posted {
		t.Fatal("new voucher must not be posted")
	}
}

func TestPostVoucherMovesBalances(t *testing.T) {
	svc, chart, accounts := newVoucherFixture(t)
	ctx := context.Background()
	bank := mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	payable := mustAccount(t, chart, 1, "2202", "Accounts Payable", ledger.AccountTypeLiability)

	voucher, err := svc.CreateVoucher(ctx, 1, VoucherInput{
		Entries: []ledger.VoucherEntry{
			entry(payable.ID, ledger.Debit, "250.00"),
			entry(bank.ID, ledger.Credit, "250.00"),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	posted, err := svc.PostVoucher(ctx, 1, voucher.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !posted.Posted || posted.PostedAt.IsZero() {
		t.Fatal("voucher not marked posted")
	}
	if posted.Status != ledger.VoucherStatusReviewed {
		t.Fatalf("status = %s, want reviewed", posted.Status)
	}

	gotBank, _ := accounts.Get(ctx, 1, bank.ID)
	if !gotBank.Balance.Equal(decimal.RequireFromString("-250.00")) {
		t.Fatalf("bank balance = %s, want -250.00", gotBank.Balance)
	}
	gotPayable, _ := accounts.Get(ctx, 1, payable.ID)
	if !gotPayable.Balance.Equal(decimal.RequireFromString("-250.00")) {
		t.Fatalf("payable balance = %s, want -250.00", gotPayable.Balance)
	}
}

func TestPostVoucherTwiceConflicts(t *testing.T) {
	svc, chart, _ := newVoucherFixture(t)
	ctx := context.Background()
	bank := mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	cash := mustAccount(t, chart, 1, "1001", "Cash", ledger.AccountTypeAsset)

	voucher, err := svc.CreateVoucher(ctx, 1, VoucherInput{
		Entries: []ledger.VoucherEntry{
			entry(cash.ID, ledger.Debit, "10.00"),
			entry(bank.ID, ledger.Credit, "10.00"),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.PostVoucher(ctx, 1, voucher.ID); err != nil {
		t.Fatalf("first post: %v", err)
	}
	if _, err := svc.PostVoucher(ctx, 1, voucher.ID); !errors.Is(err, ledger.ErrAlreadyPosted) {
		t.Fatalf("expected ErrAlreadyPosted, got %v", err)
	}
}

func TestRacingPostsApplyDeltasOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	chart, err := NewChartService(store.Accounts(), nil)
	if err != nil {
		t.Fatalf("chart service: %v", err)
	}
	clock := fixedClock{at: time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)}
	svc, err := NewVoucherService(store.Vouchers(), store.Accounts(), nil, clock, nil)
	if err != nil {
		t.Fatalf("voucher service: %v", err)
	}
	bank := mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	cash := mustAccount(t, chart, 1, "1001", "Cash", ledger.AccountTypeAsset)

	voucher, err := svc.CreateVoucher(ctx, 1, VoucherInput{
		Entries: []ledger.VoucherEntry{
			entry(cash.ID, ledger.Debit, "100.00"),
			entry(bank.ID, ledger.Credit, "100.00"),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A second poster that read the voucher before the first one committed.
	staleVoucher, err := store.Vouchers().Get(ctx, 1, voucher.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := svc.PostVoucher(ctx, 1, voucher.ID); err != nil {
		t.Fatalf("post: %v", err)
	}

	deltas := []ledger.AccountDelta{
		{AccountID: cash.ID, Delta: decimal.RequireFromString("100.00")},
		{AccountID: bank.ID, Delta: decimal.RequireFromString("-100.00")},
	}
	err = store.Vouchers().SetPosted(ctx, staleVoucher, true, clock.Now().UTC(), ledger.VoucherStatusReviewed, deltas)
	if !errors.Is(err, ledger.ErrAlreadyPosted) {
		t.Fatalf("expected ErrAlreadyPosted, got %v", err)
	}

	// The loser applied nothing: each balance moved exactly once.
	gotCash, _ := store.Accounts().Get(ctx, 1, cash.ID)
	if !gotCash.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("cash balance = %s, want 100.00", gotCash.Balance)
	}
	gotBank, _ := store.Accounts().Get(ctx, 1, bank.ID)
	if !gotBank.Balance.Equal(decimal.RequireFromString("-100.00")) {
		t.Fatalf("bank balance = %s, want -100.00", gotBank.Balance)
	}
}

func TestDeleteReversalRequiresPostedVoucher(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	chart, err := NewChartService(store.Accounts(), nil)
	if err != nil {
		t.Fatalf("chart service: %v", err)
	}
	clock := fixedClock{at: time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)}
	svc, err := NewVoucherService(store.Vouchers(), store.Accounts(), nil, clock, nil)
	if err != nil {
		t.Fatalf("voucher service: %v", err)
	}
	bank := mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	expense := mustAccount(t, chart, 1, "6602", "Administrative Expenses", ledger.AccountTypeExpense)

	voucher, err := svc.CreateVoucher(ctx, 1, VoucherInput{
		Entries: []ledger.VoucherEntry{
			entry(expense.ID, ledger.Debit, "75.00"),
			entry(bank.ID, ledger.Credit, "75.00"),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	posted, err := svc.PostVoucher(ctx, 1, voucher.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	// A deleter holding the posted copy races an unpost that wins.
	if _, err := svc.UnpostVoucher(ctx, 1, voucher.ID); err != nil {
		t.Fatalf("unpost: %v", err)
	}

	reversal := []ledger.AccountDelta{
		{AccountID: expense.ID, Delta: decimal.RequireFromString("-75.00")},
		{AccountID: bank.ID, Delta: decimal.RequireFromString("75.00")},
	}
	err = store.Vouchers().DeleteWithReversal(ctx, posted, reversal)
	if !errors.Is(err, ledger.ErrNotPosted) {
		t.Fatalf("expected ErrNotPosted, got %v", err)
	}

	// The voucher survived and the reversal was not applied a second time.
	if _, err := svc.GetVoucher(ctx, 1, voucher.ID); err != nil {
		t.Fatalf("voucher gone after rejected delete: %v", err)
	}
	for _, id := range []int64{bank.ID, expense.ID} {
		account, _ := store.Accounts().Get(ctx, 1, id)
		if !account.Balance.IsZero() {
			t.Fatalf("account %d balance = %s, want 0", id, account.Balance)
		}
	}
}

func TestUnpostRestoresBalances(t *testing.T) {
	svc, chart, accounts := newVoucherFixture(t)
	ctx := context.Background()
	bank := mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	income := mustAccount(t, chart, 1, "6001", "Operating Revenue", ledger.AccountTypeIncome)

	voucher, err := svc.CreateVoucher(ctx, 1, VoucherInput{
		Entries: []ledger.VoucherEntry{
			entry(bank.ID, ledger.Debit, "400.00"),
			entry(income.ID, ledger.Credit, "400.00"),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.PostVoucher(ctx, 1, voucher.ID); err != nil {
		t.Fatalf("post: %v", err)
	}
	unposted, err := svc.UnpostVoucher(ctx, 1, voucher.ID)
	if err != nil {
		t.Fatalf("unpost: %v", err)
	}
	if unposted.Posted || !unposted.PostedAt.IsZero() {
		t.Fatal("voucher still marked posted")
	}

	for _, id := range []int64{bank.ID, income.ID} {
		account, _ := accounts.Get(ctx, 1, id)
		if !account.Balance.IsZero() {
			t.Fatalf("account %d balance = %s after unpost, want 0", id, account.Balance)
		}
	}

	if _, err := svc.UnpostVoucher(ctx, 1, voucher.ID); !errors.Is(err, ledger.ErrNotPosted) {
		t.Fatalf("expected ErrNotPosted, got %v", err)
	}
}

func TestUpdatePostedVoucherRejected(t *testing.T) {
	svc, chart, _ := newVoucherFixture(t)
	ctx := context.Background()
	bank := mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	cash := mustAccount(t, chart, 1, "1001", "Cash", ledger.AccountTypeAsset)

	entries := []ledger.VoucherEntry{
		entry(cash.ID, ledger.Debit, "10.00"),
		entry(bank.ID, ledger.Credit, "10.00"),
	}
	voucher, err := svc.CreateVoucher(ctx, 1, VoucherInput{Entries: entries})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.PostVoucher(ctx, 1, voucher.ID); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := svc.UpdateVoucher(ctx, 1, voucher.ID, VoucherInput{Entries: entries}); !errors.Is(err, ledger.ErrPostedVoucherImmutable) {
		t.Fatalf("expected ErrPostedVoucherImmutable, got %v", err)
	}
}

func TestDeletePostedVoucherReverses(t *testing.T) {
	svc, chart, accounts := newVoucherFixture(t)
	ctx := context.Background()
	bank := mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	expense := mustAccount(t, chart, 1, "6602", "Administrative Expenses", ledger.AccountTypeExpense)

	voucher, err := svc.CreateVoucher(ctx, 1, VoucherInput{
		Entries: []ledger.VoucherEntry{
			entry(expense.ID, ledger.Debit, "75.00"),
			entry(bank.ID, ledger.Credit, "75.00"),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.PostVoucher(ctx, 1, voucher.ID); err != nil {
		t.Fatalf("post: %v", err)
	}
	if err := svc.DeleteVoucher(ctx, 1, voucher.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, id := range []int64{bank.ID, expense.ID} {
		account, _ := accounts.Get(ctx, 1, id)
		if !account.Balance.IsZero() {
			t.Fatalf("account %d balance = %s after delete, want 0", id, account.Balance)
		}
	}
	if _, err := svc.GetVoucher(ctx, 1, voucher.ID); !errors.Is(err, ledger.ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound, got %v", err)
	}
}

func TestVoucherOwnerIsolation(t *testing.T) {
	svc, chart, _ := newVoucherFixture(t)
	ctx := context.Background()
	bank := mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	cash := mustAccount(t, chart, 1, "1001", "Cash", ledger.AccountTypeAsset)

	voucher, err := svc.CreateVoucher(ctx, 1, VoucherInput{
		Entries: []ledger.VoucherEntry{
			entry(cash.ID, ledger.Debit, "10.00"),
			entry(bank.ID, ledger.Credit, "10.00"),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetVoucher(ctx, 2, voucher.ID); !errors.Is(err, ledger.ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound for foreign owner, got %v", err)
	}
	if _, err := svc.PostVoucher(ctx, 2, voucher.ID); !errors.Is(err, ledger.ErrVoucherNotFound) {
		t.Fatalf("expected ErrVoucherNotFound for foreign post, got %v", err)
	}
}
