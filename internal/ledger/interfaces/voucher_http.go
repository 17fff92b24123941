package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"finbooks/internal/audit"
	ledgerapp "finbooks/internal/ledger/application"
)

// VoucherHandler handles voucher APIs.
type VoucherHandler struct {
	service     *ledgerapp.VoucherService
	auditLogger audit.Logger
}

// NewVoucherHandler constructs a handler.
func NewVoucherHandler(service *ledgerapp.VoucherService, auditLogger audit.Logger) (*VoucherHandler, error) {
	if service == nil {
		return nil, errors.New("voucher handler: nil service")
	}
	return &VoucherHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles voucher routes under /api/v1/vouchers.
func (h *VoucherHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/vouchers" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
			return
		case http.MethodGet:
			h.handleList(w, r)
			return
		}
	}
	if strings.HasPrefix(path, "/api/v1/vouchers/") {
		h.handleByID(w, r, strings.TrimPrefix(path, "/api/v1/vouchers/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *VoucherHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req voucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	in, err := req.toInput()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	voucher, err := h.service.CreateVoucher(r.Context(), ownerID, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, renderVoucher(voucher))
	logAudit(h.auditLogger, r, "voucher.create", "voucher", voucher.Number, map[string]any{
		"entries": len(voucher.Entries),
	})
}

func (h *VoucherHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	vouchers, err := h.service.ListVouchers(r.Context(), ownerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]voucherResponse, 0, len(vouchers))
	for i := range vouchers {
		out = append(out, renderVoucher(&vouchers[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *VoucherHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	parts := strings.Split(rest, "/")
	id, err := parseID(parts[0])
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "post":
			voucher, err := h.service.PostVoucher(r.Context(), ownerID, id)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, renderVoucher(voucher))
			logAudit(h.auditLogger, r, "voucher.post", "voucher", voucher.Number, nil)
			return
		case "unpost":
			voucher, err := h.service.UnpostVoucher(r.Context(), ownerID, id)
			if err != nil {
				respondServiceError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, renderVoucher(voucher))
			logAudit(h.auditLogger, r, "voucher.unpost", "voucher", voucher.Number, nil)
			return
		}
	}
	if len(parts) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		voucher, err := h.service.GetVoucher(r.Context(), ownerID, id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderVoucher(voucher))
	case http.MethodPut:
		var req voucherRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		in, err := req.toInput()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		voucher, err := h.service.UpdateVoucher(r.Context(), ownerID, id, in)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderVoucher(voucher))
		logAudit(h.auditLogger, r, "voucher.update", "voucher", voucher.Number, nil)
	case http.MethodDelete:
		if err := h.service.DeleteVoucher(r.Context(), ownerID, id); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		logAudit(h.auditLogger, r, "voucher.delete", "voucher", parts[0], nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
