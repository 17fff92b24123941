package application

import (
	"context"
	"errors"
	"testing"

	ledger "finbooks/internal/ledger/domain"
	"finbooks/internal/storage/memory"
)

func newChartFixture(t *testing.T) *ChartService {
	t.Helper()
	chart, err := NewChartService(memory.New().Accounts(), nil)
	if err != nil {
		t.Fatalf("chart service: %v", err)
	}
	return chart
}

func TestCreateAccountGeneratesCode(t *testing.T) {
	chart := newChartFixture(t)
	ctx := context.Background()

	first, err := chart.CreateAccount(ctx, 1, AccountInput{Name: "Cash", Type: ledger.AccountTypeAsset})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Code != "100001" {
		t.Fatalf("code = %s, want 100001", first.Code)
	}
	second, err := chart.CreateAccount(ctx, 1, AccountInput{Name: "Bank", Type: ledger.AccountTypeAsset})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.Code != "100002" {
		t.Fatalf("code = %s, want 100002", second.Code)
	}

	liability, err := chart.CreateAccount(ctx, 1, AccountInput{Name: "Payable", Type: ledger.AccountTypeLiability})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if liability.Code != "200001" {
		t.Fatalf("code = %s, want 200001", liability.Code)
	}
}

func TestCreateAccountRejectsUnknownType(t *testing.T) {
	chart := newChartFixture(t)
	_, err := chart.CreateAccount(context.Background(), 1, AccountInput{Name: "Weird", Type: "weird"})
	if !errors.Is(err, ledger.ErrInvalidAccountType) {
		t.Fatalf("expected ErrInvalidAccountType, got %v", err)
	}
}

func TestUpdateAccountRejectsParentCycle(t *testing.T) {
	chart := newChartFixture(t)
	ctx := context.Background()

	root, err := chart.CreateAccount(ctx, 1, AccountInput{Code: "1002", Name: "Bank Deposits", Type: ledger.AccountTypeAsset})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	child, err := chart.CreateAccount(ctx, 1, AccountInput{Code: "100201", Name: "Checking", Type: ledger.AccountTypeAsset, ParentID: root.ID})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	// Self-parent.
	if _, err := chart.UpdateAccount(ctx, 1, root.ID, AccountInput{Name: "Bank Deposits", Type: ledger.AccountTypeAsset, ParentID: root.ID}); !errors.Is(err, ledger.ErrParentCycle) {
		t.Fatalf("expected ErrParentCycle for self-parent, got %v", err)
	}
	// Parenting root under its own child.
	if _, err := chart.UpdateAccount(ctx, 1, root.ID, AccountInput{Name: "Bank Deposits", Type: ledger.AccountTypeAsset, ParentID: child.ID}); !errors.Is(err, ledger.ErrParentCycle) {
		t.Fatalf("expected ErrParentCycle for descendant parent, got %v", err)
	}
}

func TestListBankAccounts(t *testing.T) {
	chart := newChartFixture(t)
	ctx := context.Background()

	mustAccount(t, chart, 1, "1002", "Bank Deposits", ledger.AccountTypeAsset)
	mustAccount(t, chart, 1, "100201", "Checking", ledger.AccountTypeAsset)
	mustAccount(t, chart, 1, "1050", "Offshore Bank", ledger.AccountTypeAsset)
	mustAccount(t, chart, 1, "1001", "Cash", ledger.AccountTypeAsset)
	mustAccount(t, chart, 1, "2202", "Bank Loans", ledger.AccountTypeLiability)

	banks, err := chart.ListBankAccounts(ctx, 1)
	if err != nil {
		t.Fatalf("list banks: %v", err)
	}
	if len(banks) != 3 {
		t.Fatalf("got %d bank accounts, want 3", len(banks))
	}
	for _, b := range banks {
		if b.Type != ledger.AccountTypeAsset {
			t.Fatalf("non-asset account %s in bank list", b.Code)
		}
	}
}

func TestEnsurePayableAccountIdempotent(t *testing.T) {
	chart := newChartFixture(t)
	ctx := context.Background()

	first, err := chart.EnsurePayableAccount(ctx, 1, ledger.CodeAccountsPayable, "Accounts Payable")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if first.Type != ledger.AccountTypeLiability || !first.Balance.IsZero() {
		t.Fatalf("unexpected payable account: %+v", first)
	}
	second, err := chart.EnsurePayableAccount(ctx, 1, ledger.CodeAccountsPayable, "Accounts Payable")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("ensure created a duplicate: %d vs %d", second.ID, first.ID)
	}
}

func TestSeedDefaults(t *testing.T) {
	chart := newChartFixture(t)
	ctx := context.Background()

	seed, err := DefaultChart()
	if err != nil {
		t.Fatalf("default chart: %v", err)
	}
	created, err := chart.SeedDefaults(ctx, 1, seed)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if created != len(seed) {
		t.Fatalf("created %d, want %d", created, len(seed))
	}

	// Seeding is a no-op for a non-empty chart.
	again, err := chart.SeedDefaults(ctx, 1, seed)
	if err != nil {
		t.Fatalf("seed again: %v", err)
	}
	if again != 0 {
		t.Fatalf("re-seed created %d accounts", again)
	}

	accounts, err := chart.ListAccounts(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var sawChild bool
	for _, a := range accounts {
		if a.Code == "100201" {
			sawChild = true
			if a.ParentID == 0 {
				t.Fatal("seeded child lost its parent")
			}
		}
	}
	if !sawChild {
		t.Fatal("seed missing child account 100201")
	}
}
