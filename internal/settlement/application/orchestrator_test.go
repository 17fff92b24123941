package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	ledgerapp "finbooks/internal/ledger/application"
	ledger "finbooks/internal/ledger/domain"
	payablesapp "finbooks/internal/payables/application"
	payables "finbooks/internal/payables/domain"
	settlement "finbooks/internal/settlement/domain"
	"finbooks/internal/storage/memory"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type fixture struct {
	store    *memory.Store
	orch     *Orchestrator
	chart    *ledgerapp.ChartService
	vouchers *ledgerapp.VoucherService
	payables *payablesapp.Service
	bank     *ledger.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	clock := fixedClock{at: time.Date(2026, 7, 15, 14, 0, 0, 0, time.UTC)}

	chart, err := ledgerapp.NewChartService(store.Accounts(), nil)
	if err != nil {
		t.Fatalf("chart service: %v", err)
	}
	vouchers, err := ledgerapp.NewVoucherService(store.Vouchers(), store.Accounts(), nil, clock, nil)
	if err != nil {
		t.Fatalf("voucher service: %v", err)
	}
	paySvc, err := payablesapp.NewService(store, clock, nil)
	if err != nil {
		t.Fatalf("payables service: %v", err)
	}
	orch, err := NewOrchestrator(store, store.Accounts(), chart, store, nil, clock, nil)
	if err != nil {
		t.Fatalf("orchestrator: %v", err)
	}

	f := &fixture{store: store, orch: orch, chart: chart, vouchers: vouchers, payables: paySvc}

	f.bank, err = chart.CreateAccount(ctx, 1, ledgerapp.AccountInput{Code: "1002", Name: "Bank Deposits", Type: ledger.AccountTypeAsset})
	if err != nil {
		t.Fatalf("create bank: %v", err)
	}
	income, err := chart.CreateAccount(ctx, 1, ledgerapp.AccountInput{Code: "6001", Name: "Operating Revenue", Type: ledger.AccountTypeIncome})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}

	// Fund the bank account with a posted revenue voucher.
	voucher, err := vouchers.CreateVoucher(ctx, 1, ledgerapp.VoucherInput{
		Entries: []ledger.VoucherEntry{
			{AccountID: f.bank.ID, Direction: ledger.Debit, Amount: decimal.RequireFromString("1000.00")},
			{AccountID: income.ID, Direction: ledger.Credit, Amount: decimal.RequireFromString("1000.00")},
		},
	})
	if err != nil {
		t.Fatalf("create funding voucher: %v", err)
	}
	if _, err := vouchers.PostVoucher(ctx, 1, voucher.ID); err != nil {
		t.Fatalf("post funding voucher: %v", err)
	}
	return f
}

func (f *fixture) awaitingBill(t *testing.T, amount string) *payables.Bill {
	t.Helper()
	bill, err := f.payables.CreateBill(context.Background(), 1, &payables.Bill{
		Amount: decimal.RequireFromString(amount),
		Status: payables.BillStatusAwaitingPayment,
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	return bill
}

func (f *fixture) filedDeclaration(t *testing.T, amount string) *payables.TaxDeclaration {
	t.Helper()
	ctx := context.Background()
	d, err := f.payables.CreateDeclaration(ctx, 1, &payables.TaxDeclaration{
		Period: "2026-06", TaxType: "VAT", TaxPayable: decimal.RequireFromString(amount),
	})
	if err != nil {
		t.Fatalf("create declaration: %v", err)
	}
	filed, err := f.payables.SubmitDeclaration(ctx, 1, d.ID)
	if err != nil {
		t.Fatalf("submit declaration: %v", err)
	}
	return filed
}

func (f *fixture) bankBalance(t *testing.T) decimal.Decimal {
	t.Helper()
	account, err := f.store.Accounts().Get(context.Background(), 1, f.bank.ID)
	if err != nil {
		t.Fatalf("get bank: %v", err)
	}
	return account.Balance
}

func TestExecutePaymentSettlesMixedSources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.awaitingBill(t, "100.00")
	decl := f.filedDeclaration(t, "330.00")

	batch, err := f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{
		BankAccountID:     f.bank.ID,
		Method:            "bank_transfer",
		IdempotencyKey:    "batch-1",
		BillIDs:           []int64{bill.ID},
		TaxDeclarationIDs: []int64{decl.ID},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(batch.Items) != 2 {
		t.Fatalf("got %d batch items, want 2", len(batch.Items))
	}
	if !batch.TotalAmount().Equal(decimal.RequireFromString("430.00")) {
		t.Fatalf("total = %s, want 430.00", batch.TotalAmount())
	}

	// Bank decreases by the full batch total.
	if !f.bankBalance(t).Equal(decimal.RequireFromString("570.00")) {
		t.Fatalf("bank balance = %s, want 570.00", f.bankBalance(t))
	}

	// Sources transitioned.
	gotBill, _ := f.store.GetBill(ctx, 1, bill.ID)
	if gotBill.Status != payables.BillStatusPaid {
		t.Fatalf("bill status = %s, want paid", gotBill.Status)
	}
	gotDecl, _ := f.store.GetDeclaration(ctx, 1, decl.ID)
	if gotDecl.Status != payables.TaxStatusPaid {
		t.Fatalf("declaration status = %s, want paid", gotDecl.Status)
	}

	// Each payment links a posted settlement voucher.
	for _, item := range batch.Items {
		if item.Payment.ID == 0 || item.Payment.VoucherID == 0 {
			t.Fatalf("payment not fully linked: %+v", item.Payment)
		}
		voucher, err := f.store.Vouchers().Get(ctx, 1, item.Payment.VoucherID)
		if err != nil {
			t.Fatalf("get settlement voucher: %v", err)
		}
		if !voucher.Posted {
			t.Fatal("settlement voucher not posted")
		}
		if item.Payment.ReceiptNumber != batch.ReceiptNumber {
			t.Fatalf("receipt mismatch: %s vs %s", item.Payment.ReceiptNumber, batch.ReceiptNumber)
		}
	}

	payments, err := f.orch.ListPayments(ctx, 1)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("got %d payments, want 2", len(payments))
	}
}

func TestExecutePaymentDuplicateSelectionSettlesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.awaitingBill(t, "100.00")

	batch, err := f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{
		BankAccountID:  f.bank.ID,
		IdempotencyKey: "batch-1",
		BillIDs:        []int64{bill.ID, bill.ID},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(batch.Items) != 1 {
		t.Fatalf("got %d batch items, want 1", len(batch.Items))
	}
	if !f.bankBalance(t).Equal(decimal.RequireFromString("900.00")) {
		t.Fatalf("bank balance = %s, want 900.00", f.bankBalance(t))
	}
	payments, err := f.orch.ListPayments(ctx, 1)
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("got %d payments, want 1", len(payments))
	}
}

func TestExecuteBatchRejectsAlreadySettledSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.awaitingBill(t, "100.00")

	if _, err := f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{
		BankAccountID:  f.bank.ID,
		IdempotencyKey: "batch-1",
		BillIDs:        []int64{bill.ID},
	}); err != nil {
		t.Fatalf("first execute: %v", err)
	}

	// A second batch that validated the bill before the first one committed:
	// distinct key, same source, prior status captured as awaiting_payment.
	stale := &settlement.Batch{
		OwnerID:        1,
		BankAccountID:  f.bank.ID,
		ReceiptNumber:  "PAY-20260715140001-1",
		IdempotencyKey: "batch-2",
		ExecutedAt:     time.Date(2026, 7, 15, 14, 0, 1, 0, time.UTC),
		Items: []settlement.BatchItem{{
			Payment: settlement.Payment{
				BillID:        bill.ID,
				Amount:        decimal.RequireFromString("100.00"),
				BankAccountID: f.bank.ID,
				Status:        settlement.PaymentStatusSuccess,
				OwnerID:       1,
			},
			Voucher: &ledger.Voucher{Date: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC), Posted: true, OwnerID: 1},
			Transition: settlement.SourceTransition{
				Kind:       settlement.SourceBill,
				ID:         bill.ID,
				PrevStatus: string(payables.BillStatusAwaitingPayment),
				NewStatus:  string(payables.BillStatusPaid),
			},
		}},
		Deltas: []ledger.AccountDelta{{AccountID: f.bank.ID, Delta: decimal.RequireFromString("-100.00")}},
	}
	if err := f.store.ExecuteBatch(ctx, stale); !errors.Is(err, settlement.ErrSourceNotPayable) {
		t.Fatalf("expected ErrSourceNotPayable, got %v", err)
	}

	// The bill was debited exactly once.
	if !f.bankBalance(t).Equal(decimal.RequireFromString("900.00")) {
		t.Fatalf("bank balance = %s, want 900.00", f.bankBalance(t))
	}
	payments, _ := f.orch.ListPayments(ctx, 1)
	if len(payments) != 1 {
		t.Fatalf("got %d payments, want 1", len(payments))
	}
}

func TestExecuteBatchRechecksFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.awaitingBill(t, "2000.00")

	// A batch whose funds check ran against a balance read that is now stale.
	batch := &settlement.Batch{
		OwnerID:        1,
		BankAccountID:  f.bank.ID,
		ReceiptNumber:  "PAY-20260715140002-1",
		IdempotencyKey: "batch-1",
		ExecutedAt:     time.Date(2026, 7, 15, 14, 0, 2, 0, time.UTC),
		Items: []settlement.BatchItem{{
			Payment: settlement.Payment{
				BillID:        bill.ID,
				Amount:        decimal.RequireFromString("2000.00"),
				BankAccountID: f.bank.ID,
				Status:        settlement.PaymentStatusSuccess,
				OwnerID:       1,
			},
			Voucher: &ledger.Voucher{Date: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC), Posted: true, OwnerID: 1},
			Transition: settlement.SourceTransition{
				Kind:       settlement.SourceBill,
				ID:         bill.ID,
				PrevStatus: string(payables.BillStatusAwaitingPayment),
				NewStatus:  string(payables.BillStatusPaid),
			},
		}},
		Deltas: []ledger.AccountDelta{{AccountID: f.bank.ID, Delta: decimal.RequireFromString("-2000.00")}},
	}
	if err := f.store.ExecuteBatch(ctx, batch); !errors.Is(err, settlement.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if !f.bankBalance(t).Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("bank balance = %s, want 1000.00", f.bankBalance(t))
	}
	gotBill, _ := f.store.GetBill(ctx, 1, bill.ID)
	if gotBill.Status != payables.BillStatusAwaitingPayment {
		t.Fatalf("bill status mutated: %s", gotBill.Status)
	}
	payments, _ := f.orch.ListPayments(ctx, 1)
	if len(payments) != 0 {
		t.Fatalf("payments created on failure: %d", len(payments))
	}
}

func TestExecutePaymentInsufficientFundsLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.awaitingBill(t, "2000.00")

	_, err := f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{
		BankAccountID:  f.bank.ID,
		IdempotencyKey: "batch-1",
		BillIDs:        []int64{bill.ID},
	})
	if !errors.Is(err, settlement.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if !f.bankBalance(t).Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("bank balance mutated: %s", f.bankBalance(t))
	}
	gotBill, _ := f.store.GetBill(ctx, 1, bill.ID)
	if gotBill.Status != payables.BillStatusAwaitingPayment {
		t.Fatalf("bill status mutated: %s", gotBill.Status)
	}
	payments, _ := f.orch.ListPayments(ctx, 1)
	if len(payments) != 0 {
		t.Fatalf("payments created on failure: %d", len(payments))
	}

	// The failed key is not burned; the same key works once funds allow.
	small := f.awaitingBill(t, "10.00")
	if _, err := f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{
		BankAccountID:  f.bank.ID,
		IdempotencyKey: "batch-1",
		BillIDs:        []int64{small.ID},
	}); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestExecutePaymentIdempotencyReplayRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.awaitingBill(t, "100.00")
	second := f.awaitingBill(t, "50.00")

	if _, err := f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{
		BankAccountID:  f.bank.ID,
		IdempotencyKey: "batch-1",
		BillIDs:        []int64{first.ID},
	}); err != nil {
		t.Fatalf("first execute: %v", err)
	}

	_, err := f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{
		BankAccountID:  f.bank.ID,
		IdempotencyKey: "batch-1",
		BillIDs:        []int64{second.ID},
	})
	if !errors.Is(err, settlement.ErrDuplicateExecution) {
		t.Fatalf("expected ErrDuplicateExecution, got %v", err)
	}
	if !f.bankBalance(t).Equal(decimal.RequireFromString("900.00")) {
		t.Fatalf("replay mutated balances: %s", f.bankBalance(t))
	}
}

func TestExecutePaymentRejectsNonPayableSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.payables.CreateBill(ctx, 1, &payables.Bill{Amount: decimal.RequireFromString("40.00")})
	if err != nil {
		t.Fatalf("create pending bill: %v", err)
	}
	payable := f.awaitingBill(t, "60.00")

	_, err = f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{
		BankAccountID:  f.bank.ID,
		IdempotencyKey: "batch-1",
		BillIDs:        []int64{payable.ID, pending.ID},
	})
	if !errors.Is(err, settlement.ErrSourceNotPayable) {
		t.Fatalf("expected ErrSourceNotPayable, got %v", err)
	}

	// All-or-nothing: the payable bill was not settled either.
	gotPayable, _ := f.store.GetBill(ctx, 1, payable.ID)
	if gotPayable.Status != payables.BillStatusAwaitingPayment {
		t.Fatalf("payable bill mutated: %s", gotPayable.Status)
	}
	if !f.bankBalance(t).Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("bank mutated: %s", f.bankBalance(t))
	}
}

func TestExecutePaymentForeignSourceFailsWholeBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.awaitingBill(t, "100.00")

	// A bill owned by someone else.
	foreign, err := f.payables.CreateBill(ctx, 2, &payables.Bill{
		Amount: decimal.RequireFromString("10.00"),
		Status: payables.BillStatusAwaitingPayment,
	})
	if err != nil {
		t.Fatalf("create foreign bill: %v", err)
	}

	_, err = f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{
		BankAccountID:  f.bank.ID,
		IdempotencyKey: "batch-1",
		BillIDs:        []int64{mine.ID, foreign.ID},
	})
	if !errors.Is(err, settlement.ErrSourcesNotFound) {
		t.Fatalf("expected ErrSourcesNotFound, got %v", err)
	}
	gotMine, _ := f.store.GetBill(ctx, 1, mine.ID)
	if gotMine.Status != payables.BillStatusAwaitingPayment {
		t.Fatalf("own bill mutated: %s", gotMine.Status)
	}
}

func TestExecutePaymentRequiresSourcesAndBank(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{BankAccountID: f.bank.ID}); !errors.Is(err, settlement.ErrNoSourcesSelected) {
		t.Fatalf("expected ErrNoSourcesSelected, got %v", err)
	}
	bill := f.awaitingBill(t, "10.00")
	if _, err := f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{BillIDs: []int64{bill.ID}}); !errors.Is(err, settlement.ErrNoBankAccount) {
		t.Fatalf("expected ErrNoBankAccount, got %v", err)
	}
}

func TestExecutePaymentCreatesPayableAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	decl := f.filedDeclaration(t, "330.00")

	if _, err := f.orch.ExecutePayment(ctx, 1, ExecutePaymentCommand{
		BankAccountID:     f.bank.ID,
		IdempotencyKey:    "batch-1",
		TaxDeclarationIDs: []int64{decl.ID},
	}); err != nil {
		t.Fatalf("execute: %v", err)
	}

	taxAccount, err := f.store.Accounts().FirstByCodePrefix(ctx, 1, ledger.CodeTaxPayable)
	if err != nil {
		t.Fatalf("find tax payable: %v", err)
	}
	if taxAccount == nil {
		t.Fatal("tax payable account not created")
	}
	// Liability debited by the settlement: balance moves negative.
	if !taxAccount.Balance.Equal(decimal.RequireFromString("-330.00")) {
		t.Fatalf("tax payable balance = %s, want -330.00", taxAccount.Balance)
	}
}
