package payables

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxDeclarationStatus is the filing lifecycle. A successful filing becomes
// payable; settling it marks it paid.
type TaxDeclarationStatus string

const (
	TaxStatusPending   TaxDeclarationStatus = "pending"
	TaxStatusSubmitted TaxDeclarationStatus = "submitted"
	TaxStatusSuccess   TaxDeclarationStatus = "success"
	TaxStatusFailed    TaxDeclarationStatus = "failed"
	TaxStatusPaid      TaxDeclarationStatus = "paid"
)

// TaxDeclaration is a periodic tax filing. Amounts are supplied by the
// caller; no tax-rule computation happens here.
type TaxDeclaration struct {
	ID              int64
	Period          string // "2026-07"
	TaxType         string
	TaxableIncome   decimal.Decimal
	TaxRate         decimal.Decimal
	InputTax        decimal.Decimal
	OutputTax       decimal.Decimal
	TaxableAmount   decimal.Decimal
	DeductionAmount decimal.Decimal
	TaxPayable      decimal.Decimal
	Status          TaxDeclarationStatus
	DeclaredAt      time.Time
	ReceiptNumber   string
	FailureReason   string
	OwnerID         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
