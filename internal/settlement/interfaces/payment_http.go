// Package interfaces exposes settlement over HTTP.
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finbooks/internal/audit"
	"finbooks/internal/auth"
	ledger "finbooks/internal/ledger/domain"
	payablesapp "finbooks/internal/payables/application"
	payables "finbooks/internal/payables/domain"
	settlementapp "finbooks/internal/settlement/application"
	settlement "finbooks/internal/settlement/domain"
)

const dateLayout = "2006-01-02"

// AwaitingLister aggregates payable sources ready for settlement.
type AwaitingLister interface {
	AwaitingPayment(ctx context.Context, ownerID int64) ([]payablesapp.AwaitingItem, error)
}

type awaitingResponse struct {
	Kind        string `json:"kind"`
	ID          int64  `json:"id"`
	Reference   string `json:"reference"`
	VendorID    int64  `json:"vendor_id,omitempty"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

// BankAccountNamer resolves bank account names for receipts.
type BankAccountNamer interface {
	GetAccount(ctx context.Context, ownerID, id int64) (*ledger.Account, error)
}

// PaymentHandler handles payment execution and history APIs.
type PaymentHandler struct {
	orchestrator *settlementapp.Orchestrator
	awaiting     AwaitingLister
	accounts     BankAccountNamer
	auditLogger  audit.Logger
}

// NewPaymentHandler constructs a handler.
func NewPaymentHandler(orchestrator *settlementapp.Orchestrator, awaiting AwaitingLister, accounts BankAccountNamer, auditLogger audit.Logger) (*PaymentHandler, error) {
	if orchestrator == nil {
		return nil, errors.New("payment handler: nil orchestrator")
	}
	return &PaymentHandler{
		orchestrator: orchestrator,
		awaiting:     awaiting,
		accounts:     accounts,
		auditLogger:  auditLogger,
	}, nil
}

// ServeHTTP handles payment routes under /api/v1/payments.
func (h *PaymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/payments/execute" && r.Method == http.MethodPost {
		h.handleExecute(w, r)
		return
	}
	if path == "/api/v1/payments/awaiting" && r.Method == http.MethodGet {
		h.handleAwaiting(w, r)
		return
	}
	if path == "/api/v1/payments" && r.Method == http.MethodGet {
		h.handleList(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/payments/") {
		h.handleByID(w, r, strings.TrimPrefix(path, "/api/v1/payments/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type executeRequest struct {
	BankAccountID     int64   `json:"bank_account_id"`
	Method            string  `json:"method"`
	PaymentDate       string  `json:"payment_date"`
	IdempotencyKey    string  `json:"idempotency_key"`
	BillIDs           []int64 `json:"bill_ids"`
	TaxDeclarationIDs []int64 `json:"tax_declaration_ids"`
	PurchaseOrderIDs  []int64 `json:"purchase_order_ids"`
}

type paymentResponse struct {
	ID               int64  `json:"id"`
	BillID           int64  `json:"bill_id,omitempty"`
	TaxDeclarationID int64  `json:"tax_declaration_id,omitempty"`
	PurchaseOrderID  int64  `json:"purchase_order_id,omitempty"`
	VoucherID        int64  `json:"voucher_id"`
	PaymentDate      string `json:"payment_date"`
	Amount           string `json:"amount"`
	Method           string `json:"method,omitempty"`
	BankAccountID    int64  `json:"bank_account_id"`
	ReceiptNumber    string `json:"receipt_number"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
}

func renderPayment(p *settlement.Payment) paymentResponse {
	return paymentResponse{
		ID:               p.ID,
		BillID:           p.BillID,
		TaxDeclarationID: p.TaxDeclarationID,
		PurchaseOrderID:  p.PurchaseOrderID,
		VoucherID:        p.VoucherID,
		PaymentDate:      p.PaymentDate.UTC().Format(dateLayout),
		Amount:           p.Amount.StringFixed(2),
		Method:           p.Method,
		BankAccountID:    p.BankAccountID,
		ReceiptNumber:    p.ReceiptNumber,
		Status:           string(p.Status),
		CreatedAt:        p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *PaymentHandler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	var paymentDate time.Time
	if req.PaymentDate != "" {
		var err error
		paymentDate, err = time.Parse(dateLayout, req.PaymentDate)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	batch, err := h.orchestrator.ExecutePayment(r.Context(), ownerID, settlementapp.ExecutePaymentCommand{
		BankAccountID:     req.BankAccountID,
		Method:            req.Method,
		PaymentDate:       paymentDate,
		IdempotencyKey:    req.IdempotencyKey,
		BillIDs:           req.BillIDs,
		TaxDeclarationIDs: req.TaxDeclarationIDs,
		PurchaseOrderIDs:  req.PurchaseOrderIDs,
	})
	if err != nil {
		respondExecuteError(w, err)
		return
	}
	payments := make([]paymentResponse, 0, len(batch.Items))
	for i := range batch.Items {
		payments = append(payments, renderPayment(&batch.Items[i].Payment))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"receipt_number": batch.ReceiptNumber,
		"total_amount":   batch.TotalAmount().StringFixed(2),
		"payments":       payments,
	})
	h.logAudit(r, "payment.execute", batch.ReceiptNumber, map[string]any{
		"sources": len(batch.Items),
		"total":   batch.TotalAmount().StringFixed(2),
	})
}

func (h *PaymentHandler) handleAwaiting(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	if h.awaiting == nil {
		respondJSON(w, http.StatusOK, []awaitingResponse{})
		return
	}
	items, err := h.awaiting.AwaitingPayment(r.Context(), ownerID)
	if err != nil {
		respondExecuteError(w, err)
		return
	}
	out := make([]awaitingResponse, 0, len(items))
	for _, item := range items {
		out = append(out, awaitingResponse{
			Kind:        item.Kind,
			ID:          item.ID,
			Reference:   item.Reference,
			VendorID:    item.VendorID,
			Amount:      item.Amount.StringFixed(2),
			Description: item.Description,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *PaymentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	payments, err := h.orchestrator.ListPayments(r.Context(), ownerID)
	if err != nil {
		respondExecuteError(w, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, renderPayment(&payments[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *PaymentHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	parts := strings.Split(rest, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if len(parts) == 2 && parts[1] == "receipt.pdf" && r.Method == http.MethodGet {
		h.handleReceipt(w, r, ownerID, id)
		return
	}
	if len(parts) == 1 && r.Method == http.MethodGet {
		payment, err := h.orchestrator.GetPayment(r.Context(), ownerID, id)
		if err != nil {
			respondExecuteError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderPayment(payment))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *PaymentHandler) handleReceipt(w http.ResponseWriter, r *http.Request, ownerID, id int64) {
	payment, err := h.orchestrator.GetPayment(r.Context(), ownerID, id)
	if err != nil {
		respondExecuteError(w, err)
		return
	}
	// A batch shares one receipt number; the receipt lists every payment in it.
	all, err := h.orchestrator.ListPayments(r.Context(), ownerID)
	if err != nil {
		respondExecuteError(w, err)
		return
	}
	var batch []settlement.Payment
	for _, p := range all {
		if p.ReceiptNumber == payment.ReceiptNumber {
			batch = append(batch, p)
		}
	}
	bankName := ""
	if h.accounts != nil {
		if account, err := h.accounts.GetAccount(r.Context(), ownerID, payment.BankAccountID); err == nil {
			bankName = account.Name
		}
	}
	data, err := BuildReceiptPDF(batch, bankName)
	if err != nil {
		http.Error(w, "receipt export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, "payment.receipt", payment.ReceiptNumber, nil)
}

func respondExecuteError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, settlement.ErrDuplicateExecution):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, settlement.ErrPaymentNotFound),
		errors.Is(err, settlement.ErrSourcesNotFound),
		errors.Is(err, payables.ErrBillNotFound),
		errors.Is(err, payables.ErrDeclarationNotFound),
		errors.Is(err, payables.ErrOrderNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, settlement.ErrNoSourcesSelected),
		errors.Is(err, settlement.ErrNoBankAccount),
		errors.Is(err, settlement.ErrSourceNotPayable),
		errors.Is(err, settlement.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ownerFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ownerID := auth.OwnerIDFromContext(r.Context())
	if ownerID == 0 {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return 0, false
	}
	return ownerID, true
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *PaymentHandler) logAudit(r *http.Request, action, resourceID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	ownerID := auth.OwnerIDFromContext(r.Context())
	if ownerID == 0 {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		OwnerID:       ownerID,
		Actor:         auth.SubjectFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        action,
		ResourceType:  "payment",
		ResourceID:    resourceID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}
