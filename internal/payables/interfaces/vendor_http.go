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

// VendorHandler handles vendor APIs.
type VendorHandler struct {
	service     *payablesapp.Service
	auditLogger audit.Logger
}

// NewVendorHandler constructs a handler.
func NewVendorHandler(service *payablesapp.Service, auditLogger audit.Logger) (*VendorHandler, error) {
	if service == nil {
		return nil, errors.New("vendor handler: nil service")
	}
	return &VendorHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles vendor routes under /api/v1/vendors.
func (h *VendorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/vendors" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
			return
		case http.MethodGet:
			h.handleList(w, r)
			return
		}
	}
	if strings.HasPrefix(path, "/api/v1/vendors/") {
		h.handleByID(w, r, strings.TrimPrefix(path, "/api/v1/vendors/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type vendorRequest struct {
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

type vendorResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Contact     string `json:"contact,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func renderVendor(v *payables.Vendor) vendorResponse {
	return vendorResponse{
		ID:          v.ID,
		Name:        v.Name,
		Contact:     v.Contact,
		Email:       v.Email,
		Phone:       v.Phone,
		Address:     v.Address,
		Description: v.Description,
		CreatedAt:   formatTime(v.CreatedAt),
		UpdatedAt:   formatTime(v.UpdatedAt),
	}
}

func (h *VendorHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req vendorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	vendor, err := h.service.CreateVendor(r.Context(), ownerID, &payables.Vendor{
		Name:        req.Name,
		Contact:     req.Contact,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, renderVendor(vendor))
	logAudit(h.auditLogger, r, "vendor.create", "vendor", vendor.Name, nil)
}

func (h *VendorHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	vendors, err := h.service.ListVendors(r.Context(), ownerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]vendorResponse, 0, len(vendors))
	for i := range vendors {
		out = append(out, renderVendor(&vendors[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *VendorHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
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
		vendor, err := h.service.GetVendor(r.Context(), ownerID, id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderVendor(vendor))
	case http.MethodPut:
		var req vendorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		vendor, err := h.service.UpdateVendor(r.Context(), ownerID, &payables.Vendor{
			ID:          id,
			Name:        req.Name,
			Contact:     req.Contact,
			Email:       req.Email,
			Phone:       req.Phone,
			Address:     req.Address,
			Description: req.Description,
		})
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderVendor(vendor))
		logAudit(h.auditLogger, r, "vendor.update", "vendor", vendor.Name, nil)
	case http.MethodDelete:
		if err := h.service.DeleteVendor(r.Context(), ownerID, id); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		logAudit(h.auditLogger, r, "vendor.delete", "vendor", rest, nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
