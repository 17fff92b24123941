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

// DeclarationHandler handles tax declaration APIs.
type DeclarationHandler struct {
	service     *payablesapp.Service
	auditLogger audit.Logger
}

// NewDeclarationHandler constructs a handler.
func NewDeclarationHandler(service *payablesapp.Service, auditLogger audit.Logger) (*DeclarationHandler, error) {
	if service == nil {
		return nil, errors.New("declaration handler: nil service")
	}
	return &DeclarationHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles declaration routes under /api/v1/tax-declarations.
func (h *DeclarationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/tax-declarations" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
			return
		case http.MethodGet:
			h.handleList(w, r)
			return
		}
	}
	if strings.HasPrefix(path, "/api/v1/tax-declarations/") {
		h.handleByID(w, r, strings.TrimPrefix(path, "/api/v1/tax-declarations/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type declarationRequest struct {
	Period          string `json:"period"`
	TaxType         string `json:"tax_type"`
	TaxableIncome   string `json:"taxable_income"`
	TaxRate         string `json:"tax_rate"`
	InputTax        string `json:"input_tax"`
	OutputTax       string `json:"output_tax"`
	TaxableAmount   string `json:"taxable_amount"`
	DeductionAmount string `json:"deduction_amount"`
	TaxPayable      string `json:"tax_payable"`
}

func (req declarationRequest) toDeclaration() (*payables.TaxDeclaration, error) {
	d := &payables.TaxDeclaration{Period: req.Period, TaxType: req.TaxType}
	var err error
	if d.TaxableIncome, err = parseAmount(req.TaxableIncome); err != nil {
		return nil, err
	}
	if d.TaxRate, err = parseAmount(req.TaxRate); err != nil {
		return nil, err
	}
	if d.InputTax, err = parseAmount(req.InputTax); err != nil {
		return nil, err
	}
	if d.OutputTax, err = parseAmount(req.OutputTax); err != nil {
		return nil, err
	}
	if d.TaxableAmount, err = parseAmount(req.TaxableAmount); err != nil {
		return nil, err
	}
	if d.DeductionAmount, err = parseAmount(req.DeductionAmount); err != nil {
		return nil, err
	}
	if d.TaxPayable, err = parseAmount(req.TaxPayable); err != nil {
		return nil, err
	}
	return d, nil
}

type declarationResponse struct {
	ID              int64  `json:"id"`
	Period          string `json:"period"`
	TaxType         string `json:"tax_type"`
	TaxableIncome   string `json:"taxable_income"`
	TaxRate         string `json:"tax_rate"`
	InputTax        string `json:"input_tax"`
	OutputTax       string `json:"output_tax"`
	TaxableAmount   string `json:"taxable_amount"`
	DeductionAmount string `json:"deduction_amount"`
	TaxPayable      string `json:"tax_payable"`
	Status          string `json:"status"`
	DeclaredAt      string `json:"declared_at,omitempty"`
	ReceiptNumber   string `json:"receipt_number,omitempty"`
	FailureReason   string `json:"failure_reason,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func renderDeclaration(d *payables.TaxDeclaration) declarationResponse {
	return declarationResponse{
		ID:              d.ID,
		Period:          d.Period,
		TaxType:         d.TaxType,
		TaxableIncome:   d.TaxableIncome.StringFixed(2),
		TaxRate:         d.TaxRate.String(),
		InputTax:        d.InputTax.StringFixed(2),
		OutputTax:       d.OutputTax.StringFixed(2),
		TaxableAmount:   d.TaxableAmount.StringFixed(2),
		DeductionAmount: d.DeductionAmount.StringFixed(2),
		TaxPayable:      d.TaxPayable.StringFixed(2),
		Status:          string(d.Status),
		DeclaredAt:      formatTime(d.DeclaredAt),
		ReceiptNumber:   d.ReceiptNumber,
		FailureReason:   d.FailureReason,
		CreatedAt:       formatTime(d.CreatedAt),
		UpdatedAt:       formatTime(d.UpdatedAt),
	}
}

func (h *DeclarationHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req declarationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	d, err := req.toDeclaration()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateDeclaration(r.Context(), ownerID, d)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, renderDeclaration(created))
	logAudit(h.auditLogger, r, "tax_declaration.create", "tax_declaration", created.Period, map[string]any{
		"tax_type": created.TaxType,
	})
}

func (h *DeclarationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	status := payables.TaxDeclarationStatus(r.URL.Query().Get("status"))
	declarations, err := h.service.ListDeclarations(r.Context(), ownerID, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]declarationResponse, 0, len(declarations))
	for i := range declarations {
		out = append(out, renderDeclaration(&declarations[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *DeclarationHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
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
	if len(parts) == 2 && parts[1] == "submit" && r.Method == http.MethodPost {
		d, err := h.service.SubmitDeclaration(r.Context(), ownerID, id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderDeclaration(d))
		logAudit(h.auditLogger, r, "tax_declaration.submit", "tax_declaration", d.ReceiptNumber, map[string]any{
			"period": d.Period,
		})
		return
	}
	if len(parts) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		d, err := h.service.GetDeclaration(r.Context(), ownerID, id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderDeclaration(d))
	case http.MethodPut:
		var req declarationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		d, err := req.toDeclaration()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.ID = id
		updated, err := h.service.UpdateDeclaration(r.Context(), ownerID, d)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderDeclaration(updated))
		logAudit(h.auditLogger, r, "tax_declaration.update", "tax_declaration", updated.Period, nil)
	case http.MethodDelete:
		if err := h.service.DeleteDeclaration(r.Context(), ownerID, id); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		logAudit(h.auditLogger, r, "tax_declaration.delete", "tax_declaration", parts[0], nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
