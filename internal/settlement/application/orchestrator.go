package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finbooks/internal/eventing"
	ledger "finbooks/internal/ledger/domain"
	"finbooks/internal/observability/metrics"
	payables "finbooks/internal/payables/domain"
	settlement "finbooks/internal/settlement/domain"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// PayableAccounts resolves or creates the liability accounts the settlement
// vouchers debit.
type PayableAccounts interface {
	EnsurePayableAccount(ctx context.Context, ownerID int64, codePrefix, name string) (*ledger.Account, error)
}

// EventPublisher emits settlement events.
type EventPublisher interface {
	PublishPaymentExecuted(ctx context.Context, event eventing.PaymentExecuted) error
}

// ExecutePaymentCommand selects the payable sources for one settlement
// batch. A zero IdempotencyKey gets a generated one, so replay protection
// is only as strong as the caller's key discipline.
type ExecutePaymentCommand struct {
	BankAccountID     int64
	Method            string
	PaymentDate       time.Time
	IdempotencyKey    string
	BillIDs           []int64
	TaxDeclarationIDs []int64
	PurchaseOrderIDs  []int64
}

// Orchestrator executes settlement batches: it validates every selected
// source, builds the settlement vouchers and balance deltas, and hands one
// all-or-nothing batch to the repository.
type Orchestrator struct {
	payments  settlement.Repository
	accounts  ledger.AccountRepository
	chart     PayableAccounts
	sources   payables.Repository
	publisher EventPublisher
	clock     Clock
	logger    *log.Logger
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(
	payments settlement.Repository,
	accounts ledger.AccountRepository,
	chart PayableAccounts,
	sources payables.Repository,
	publisher EventPublisher,
	clock Clock,
	logger *log.Logger,
) (*Orchestrator, error) {
	if payments == nil {
		return nil, errors.New("settlement orchestrator: nil payment repository")
	}
	if accounts == nil {
		return nil, errors.New("settlement orchestrator: nil account repository")
	}
	if chart == nil {
		return nil, errors.New("settlement orchestrator: nil payable accounts")
	}
	if sources == nil {
		return nil, errors.New("settlement orchestrator: nil payables repository")
	}
	if clock == nil {
		clock = systemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		payments:  payments,
		accounts:  accounts,
		chart:     chart,
		sources:   sources,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}, nil
}

// ExecutePayment settles the selected sources in one batch. All validation
// happens before the first mutation; a failed batch leaves every source,
// voucher and balance untouched.
func (o *Orchestrator) ExecutePayment(ctx context.Context, ownerID int64, cmd ExecutePaymentCommand) (*settlement.Batch, error) {
	start := o.clock.Now()
	batch, err := o.executePayment(ctx, ownerID, cmd)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveSettlement(result, o.clock.Now().Sub(start))
	if err == nil {
		total, _ := batch.TotalAmount().Float64()
		metrics.AddSettledAmount(total)
	}
	return batch, err
}

func (o *Orchestrator) executePayment(ctx context.Context, ownerID int64, cmd ExecutePaymentCommand) (*settlement.Batch, error) {
	if len(cmd.BillIDs)+len(cmd.TaxDeclarationIDs)+len(cmd.PurchaseOrderIDs) == 0 {
		return nil, settlement.ErrNoSourcesSelected
	}
	if cmd.BankAccountID == 0 {
		return nil, settlement.ErrNoBankAccount
	}

	// A source repeated in the selection settles once; without the dedupe
	// the length check below cannot tell a duplicate from a missing id.
	billIDs := uniqueIDs(cmd.BillIDs)
	declarationIDs := uniqueIDs(cmd.TaxDeclarationIDs)
	orderIDs := uniqueIDs(cmd.PurchaseOrderIDs)

	key := cmd.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	seen, err := o.payments.SeenIdempotencyKey(ctx, ownerID, key)
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, settlement.ErrDuplicateExecution
	}

	bank, err := o.accounts.Get(ctx, ownerID, cmd.BankAccountID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, settlement.ErrNoBankAccount
		}
		return nil, err
	}

	bills, err := o.sources.FindBillsByIDs(ctx, ownerID, billIDs)
	if err != nil {
		return nil, err
	}
	declarations, err := o.sources.FindDeclarationsByIDs(ctx, ownerID, declarationIDs)
	if err != nil {
		return nil, err
	}
	orders, err := o.sources.FindOrdersByIDs(ctx, ownerID, orderIDs)
	if err != nil {
		return nil, err
	}
	if len(bills) != len(billIDs) || len(declarations) != len(declarationIDs) || len(orders) != len(orderIDs) {
		return nil, settlement.ErrSourcesNotFound
	}

	total := decimal.Zero
	for _, b := range bills {
		if b.Status != payables.BillStatusAwaitingPayment {
			return nil, fmt.Errorf("%w: bill %s is %s", settlement.ErrSourceNotPayable, b.Number, b.Status)
		}
		total = total.Add(b.Amount)
	}
	for _, d := range declarations {
		if d.Status != payables.TaxStatusSuccess {
			return nil, fmt.Errorf("%w: declaration %s is %s", settlement.ErrSourceNotPayable, d.Period, d.Status)
		}
		total = total.Add(d.TaxPayable)
	}
	for _, po := range orders {
		if po.Status != payables.PurchaseOrderStatusApproved {
			return nil, fmt.Errorf("%w: order %s is %s", settlement.ErrSourceNotPayable, po.Number, po.Status)
		}
		total = total.Add(po.Total())
	}
	if bank.Balance.LessThan(total) {
		return nil, fmt.Errorf("%w: bank balance %s, batch total %s",
			settlement.ErrInsufficientFunds, bank.Balance.StringFixed(2), total.StringFixed(2))
	}

	// Payable accounts are looked up or created before the batch. Creation
	// is idempotent and a zero-balance account is harmless if the batch
	// later fails.
	accountsPayable, err := o.chart.EnsurePayableAccount(ctx, ownerID, ledger.CodeAccountsPayable, "Accounts Payable")
	if err != nil {
		return nil, err
	}
	var taxPayable *ledger.Account
	if len(declarations) > 0 {
		taxPayable, err = o.chart.EnsurePayableAccount(ctx, ownerID, ledger.CodeTaxPayable, "Taxes Payable")
		if err != nil {
			return nil, err
		}
	}

	types := map[int64]ledger.AccountType{
		bank.ID:            bank.Type,
		accountsPayable.ID: accountsPayable.Type,
	}
	if taxPayable != nil {
		types[taxPayable.ID] = taxPayable.Type
	}

	executedAt := o.clock.Now().UTC()
	paymentDate := cmd.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = executedAt
	}
	receipt := fmt.Sprintf("PAY-%s-%d", executedAt.Format("20060102150405"), ownerID)

	batch := &settlement.Batch{
		OwnerID:        ownerID,
		BankAccountID:  bank.ID,
		ReceiptNumber:  receipt,
		IdempotencyKey: key,
		ExecutedAt:     executedAt,
	}
	var allDeltas []ledger.AccountDelta

	addItem := func(amount decimal.Decimal, payable *ledger.Account, description string, payment settlement.Payment, transition settlement.SourceTransition) error {
		voucher := &ledger.Voucher{
			Date:        paymentDate,
			Description: description,
			Status:      ledger.VoucherStatusReviewed,
			Posted:      true,
			PostedAt:    executedAt,
			OwnerID:     ownerID,
			Entries: []ledger.VoucherEntry{
				{AccountID: payable.ID, Direction: ledger.Debit, Amount: amount, Description: description},
				{AccountID: bank.ID, Direction: ledger.Credit, Amount: amount, Description: description},
			},
		}
		deltas, err := ledger.PostingDeltas(voucher.Entries, types)
		if err != nil {
			return err
		}
		allDeltas = append(allDeltas, deltas...)

		payment.Amount = amount
		payment.Method = cmd.Method
		payment.BankAccountID = bank.ID
		payment.PaymentDate = paymentDate
		payment.ReceiptNumber = receipt
		payment.Status = settlement.PaymentStatusSuccess
		payment.OwnerID = ownerID

		batch.Items = append(batch.Items, settlement.BatchItem{
			Payment:    payment,
			Voucher:    voucher,
			Transition: transition,
		})
		return nil
	}

	for _, b := range bills {
		err := addItem(b.Amount, accountsPayable,
			fmt.Sprintf("Settle bill %s", b.Number),
			settlement.Payment{BillID: b.ID},
			settlement.SourceTransition{
				Kind:       settlement.SourceBill,
				ID:         b.ID,
				PrevStatus: string(payables.BillStatusAwaitingPayment),
				NewStatus:  string(payables.BillStatusPaid),
			})
		if err != nil {
			return nil, err
		}
	}
	for _, d := range declarations {
		err := addItem(d.TaxPayable, taxPayable,
			fmt.Sprintf("Settle %s tax for %s", d.TaxType, d.Period),
			settlement.Payment{TaxDeclarationID: d.ID},
			settlement.SourceTransition{
				Kind:       settlement.SourceTax,
				ID:         d.ID,
				PrevStatus: string(payables.TaxStatusSuccess),
				NewStatus:  string(payables.TaxStatusPaid),
			})
		if err != nil {
			return nil, err
		}
	}
	for _, po := range orders {
		err := addItem(po.Total(), accountsPayable,
			fmt.Sprintf("Settle purchase order %s", po.Number),
			settlement.Payment{PurchaseOrderID: po.ID},
			settlement.SourceTransition{
				Kind:       settlement.SourcePurchaseOrder,
				ID:         po.ID,
				PrevStatus: string(payables.PurchaseOrderStatusApproved),
				NewStatus:  string(payables.PurchaseOrderStatusCompleted),
			})
		if err != nil {
			return nil, err
		}
	}

	batch.Deltas = ledger.MergeDeltas(allDeltas)
	if err := o.payments.ExecuteBatch(ctx, batch); err != nil {
		return nil, err
	}
	o.logger.Printf("settlement: executed batch %s for owner %d, %d payments, total %s",
		receipt, ownerID, len(batch.Items), batch.TotalAmount().StringFixed(2))

	if o.publisher != nil {
		ids := make([]int64, 0, len(batch.Items))
		for _, item := range batch.Items {
			ids = append(ids, item.Payment.ID)
		}
		event := eventing.PaymentExecuted{
			OwnerID:       ownerID,
			ReceiptNumber: receipt,
			PaymentIDs:    ids,
			TotalAmount:   batch.TotalAmount(),
			OccurredAt:    executedAt,
		}
		if err := o.publisher.PublishPaymentExecuted(ctx, event); err != nil {
			o.logger.Printf("settlement: publish executed event for %s: %v", receipt, err)
		}
	}
	return batch, nil
}

// uniqueIDs keeps the first occurrence of each id, preserving order.
func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// GetPayment loads one payment.
func (o *Orchestrator) GetPayment(ctx context.Context, ownerID, id int64) (*settlement.Payment, error) {
	return o.payments.GetPayment(ctx, ownerID, id)
}

// ListPayments returns the owner's payments, newest first.
func (o *Orchestrator) ListPayments(ctx context.Context, ownerID int64) ([]settlement.Payment, error) {
	return o.payments.ListPayments(ctx, ownerID)
}
