package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"finbooks/internal/audit"
	payablesapp "finbooks/internal/payables/application"
	payables "finbooks/internal/payables/domain"
)

// BillHandler handles bill APIs.
type BillHandler struct {
	service     *payablesapp.Service
	auditLogger audit.Logger
}

// NewBillHandler constructs a handler.
func NewBillHandler(service *payablesapp.Service, auditLogger audit.Logger) (*BillHandler, error) {
	if service == nil {
		return nil, errors.New("bill handler: nil service")
	}
	return &BillHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles bill routes under /api/v1/bills.
func (h *BillHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/bills" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
			return
		case http.MethodGet:
			h.handleList(w, r)
			return
		}
	}
	if strings.HasPrefix(path, "/api/v1/bills/") {
		h.handleByID(w, r, strings.TrimPrefix(path, "/api/v1/bills/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type billRequest struct {
	Number          string `json:"number"`
	VendorID        int64  `json:"vendor_id"`
	PurchaseOrderID int64  `json:"purchase_order_id"`
	Amount          string `json:"amount"`
	DueDate         string `json:"due_date"`
	Status          string `json:"status"`
	Description     string `json:"description"`
}

func (req billRequest) toBill() (*payables.Bill, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		return nil, err
	}
	return &payables.Bill{
		Number:          req.Number,
		VendorID:        req.VendorID,
		PurchaseOrderID: req.PurchaseOrderID,
		Amount:          amount,
		DueDate:         due,
		Status:          payables.BillStatus(req.Status),
		Description:     req.Description,
	}, nil
}

type billResponse struct {
	ID              int64  `json:"id"`
	Number          string `json:"number"`
	VendorID        int64  `json:"vendor_id"`
	PurchaseOrderID int64  `json:"purchase_order_id,omitempty"`
	Amount          string `json:"amount"`
	DueDate         string `json:"due_date,omitempty"`
	Status          string `json:"status"`
	Description     string `json:"description,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func renderBill(b *payables.Bill) billResponse {
	resp := billResponse{
		ID:              b.ID,
		Number:          b.Number,
		VendorID:        b.VendorID,
		PurchaseOrderID: b.PurchaseOrderID,
		Amount:          b.Amount.StringFixed(2),
		Status:          string(b.Status),
		Description:     b.Description,
		CreatedAt:       formatTime(b.CreatedAt),
		UpdatedAt:       formatTime(b.UpdatedAt),
	}
	if !b.DueDate.IsZero() {
		resp.DueDate = b.DueDate.UTC().Format(dateLayout)
	}
	return resp
}

func (h *BillHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req billRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	bill, err := req.toBill()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateBill(r.Context(), ownerID, bill)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, renderBill(created))
	logAudit(h.auditLogger, r, "bill.create", "bill", created.Number, map[string]any{
		"amount": created.Amount.StringFixed(2),
	})
}

func (h *BillHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	status := payables.BillStatus(r.URL.Query().Get("status"))
	bills, err := h.service.ListBills(r.Context(), ownerID, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]billResponse, 0, len(bills))
	for i := range bills {
		out = append(out, renderBill(&bills[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *BillHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	id, err := parseID(rest)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		bill, err := h.service.GetBill(r.Context(), ownerID, id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderBill(bill))
	case http.MethodPut:
		var req billRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		bill, err := req.toBill()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		bill.ID = id
		updated, err := h.service.UpdateBill(r.Context(), ownerID, bill)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderBill(updated))
		logAudit(h.auditLogger, r, "bill.update", "bill", updated.Number, nil)
	case http.MethodDelete:
		if err := h.service.DeleteBill(r.Context(), ownerID, id); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		logAudit(h.auditLogger, r, "bill.delete", "bill", rest, nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
