package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	payables "finbooks/internal/payables/domain"
	"finbooks/internal/storage/memory"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newService(t *testing.T) *Service {
	t.Helper()
	clock := fixedClock{at: time.Date(2026, 7, 15, 9, 30, 0, 0, time.UTC)}
	svc, err := NewService(memory.New(), clock, nil)
	if err != nil {
		t.Fatalf("payables service: %v", err)
	}
	return svc
}

func TestCreateBillDefaultsToPendingReview(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	vendor, err := svc.CreateVendor(ctx, 1, &payables.Vendor{Name: "Acme Supplies"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	bill, err := svc.CreateBill(ctx, 1, &payables.Bill{
		VendorID: vendor.ID,
		Amount:   decimal.RequireFromString("120.50"),
		DueDate:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	if bill.Status != payables.BillStatusPendingReview {
		t.Fatalf("status = %s, want pending_review", bill.Status)
	}
	if bill.Number == "" {
		t.Fatal("bill number not assigned")
	}
}

func TestCreateBillRejectsUnknownVendor(t *testing.T) {
	svc := newService(t)
	_, err := svc.CreateBill(context.Background(), 1, &payables.Bill{VendorID: 99, Amount: decimal.New(1, 0)})
	if !errors.Is(err, payables.ErrVendorNotFound) {
		t.Fatalf("expected ErrVendorNotFound, got %v", err)
	}
}

func TestCreateOrderAssignsNumberAndTotal(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	vendor, err := svc.CreateVendor(ctx, 1, &payables.Vendor{Name: "Acme Supplies"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	po, err := svc.CreateOrder(ctx, 1, &payables.PurchaseOrder{
		VendorID:  vendor.ID,
		OrderDate: time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
		Items: []payables.PurchaseOrderItem{
			{ProductName: "Paper", Quantity: decimal.New(10, 0), UnitPrice: decimal.RequireFromString("2.50")},
			{ProductName: "Ink", Quantity: decimal.New(2, 0), UnitPrice: decimal.RequireFromString("15.00")},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if po.Number != "20260715-0001" {
		t.Fatalf("number = %s, want 20260715-0001", po.Number)
	}
	if !po.Total().Equal(decimal.RequireFromString("55.00")) {
		t.Fatalf("total = %s, want 55.00", po.Total())
	}
	if po.Status != payables.PurchaseOrderStatusPending {
		t.Fatalf("status = %s, want pending", po.Status)
	}
}

func TestSubmitDeclarationStampsReceipt(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	d, err := svc.CreateDeclaration(ctx, 1, &payables.TaxDeclaration{
		Period:     "2026-06",
		TaxType:    "VAT",
		TaxPayable: decimal.RequireFromString("330.00"),
	})
	if err != nil {
		t.Fatalf("create declaration: %v", err)
	}
	if d.Status != payables.TaxStatusPending {
		t.Fatalf("status = %s, want pending", d.Status)
	}

	filed, err := svc.SubmitDeclaration(ctx, 1, d.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if filed.Status != payables.TaxStatusSuccess {
		t.Fatalf("status = %s, want success", filed.Status)
	}
	if !strings.HasPrefix(filed.ReceiptNumber, "TAX-20260715093000-") {
		t.Fatalf("receipt = %s", filed.ReceiptNumber)
	}
	if filed.DeclaredAt.IsZero() {
		t.Fatal("declared-at not stamped")
	}
}

func TestAwaitingPaymentAggregation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	vendor, err := svc.CreateVendor(ctx, 1, &payables.Vendor{Name: "Acme Supplies"})
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}

	// One payable of each kind, plus one of each in a non-payable state.
	if _, err := svc.CreateBill(ctx, 1, &payables.Bill{VendorID: vendor.ID, Amount: decimal.RequireFromString("100.00"), Status: payables.BillStatusAwaitingPayment}); err != nil {
		t.Fatalf("create bill: %v", err)
	}
	if _, err := svc.CreateBill(ctx, 1, &payables.Bill{VendorID: vendor.ID, Amount: decimal.RequireFromString("50.00")}); err != nil {
		t.Fatalf("create pending bill: %v", err)
	}

	d, err := svc.CreateDeclaration(ctx, 1, &payables.TaxDeclaration{Period: "2026-06", TaxType: "VAT", TaxPayable: decimal.RequireFromString("330.00")})
	if err != nil {
		t.Fatalf("create declaration: %v", err)
	}
	if _, err := svc.SubmitDeclaration(ctx, 1, d.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.CreateDeclaration(ctx, 1, &payables.TaxDeclaration{Period: "2026-07", TaxType: "VAT", TaxPayable: decimal.RequireFromString("20.00")}); err != nil {
		t.Fatalf("create pending declaration: %v", err)
	}

	po, err := svc.CreateOrder(ctx, 1, &payables.PurchaseOrder{
		VendorID: vendor.ID,
		Items:    []payables.PurchaseOrderItem{{ProductName: "Paper", Quantity: decimal.New(4, 0), UnitPrice: decimal.RequireFromString("25.00")}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	po.Status = payables.PurchaseOrderStatusApproved
	if _, err := svc.UpdateOrder(ctx, 1, po); err != nil {
		t.Fatalf("approve order: %v", err)
	}

	items, err := svc.AwaitingPayment(ctx, 1)
	if err != nil {
		t.Fatalf("awaiting payment: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d awaiting items, want 3", len(items))
	}
	byKind := map[string]AwaitingItem{}
	for _, item := range items {
		byKind[item.Kind] = item
	}
	if !byKind["bill"].Amount.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("bill amount = %s", byKind["bill"].Amount)
	}
	if !byKind["tax_declaration"].Amount.Equal(decimal.RequireFromString("330.00")) {
		t.Fatalf("tax amount = %s", byKind["tax_declaration"].Amount)
	}
	if !byKind["purchase_order"].Amount.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("order amount = %s", byKind["purchase_order"].Amount)
	}

	// Foreign owners see nothing.
	other, err := svc.AwaitingPayment(ctx, 2)
	if err != nil {
		t.Fatalf("awaiting for other owner: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("owner isolation broken: %d items", len(other))
	}
}
