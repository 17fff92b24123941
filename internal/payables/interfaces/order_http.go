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

// OrderHandler handles purchase order APIs.
type OrderHandler struct {
	service     *payablesapp.Service
	auditLogger audit.Logger
}

// NewOrderHandler constructs a handler.
func NewOrderHandler(service *payablesapp.Service, auditLogger audit.Logger) (*OrderHandler, error) {
	if service == nil {
		return nil, errors.New("order handler: nil service")
	}
	return &OrderHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles order routes under /api/v1/purchase-orders.
func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/purchase-orders" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
			return
		case http.MethodGet:
			h.handleList(w, r)
			return
		}
	}
	if strings.HasPrefix(path, "/api/v1/purchase-orders/") {
		h.handleByID(w, r, strings.TrimPrefix(path, "/api/v1/purchase-orders/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type orderItemRequest struct {
	ProductName string `json:"product_name"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	AccountID   int64  `json:"account_id"`
	Description string `json:"description"`
}

type orderRequest struct {
	VendorID    int64              `json:"vendor_id"`
	OrderDate   string             `json:"order_date"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	Items       []orderItemRequest `json:"items"`
}

func (req orderRequest) toOrder() (*payables.PurchaseOrder, error) {
	date, err := parseDate(req.OrderDate)
	if err != nil {
		return nil, err
	}
	items := make([]payables.PurchaseOrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		qty, err := parseAmount(it.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := parseAmount(it.UnitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, payables.PurchaseOrderItem{
			ProductName: it.ProductName,
			Quantity:    qty,
			UnitPrice:   price,
			AccountID:   it.AccountID,
			Description: it.Description,
		})
	}
	return &payables.PurchaseOrder{
		VendorID:    req.VendorID,
		OrderDate:   date,
		Description: req.Description,
		Status:      payables.PurchaseOrderStatus(req.Status),
		Items:       items,
	}, nil
}

type orderItemResponse struct {
	ID          int64  `json:"id"`
	ProductName string `json:"product_name"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	AccountID   int64  `json:"account_id,omitempty"`
	Description string `json:"description,omitempty"`
}

type orderResponse struct {
	ID          int64               `json:"id"`
	Number      string              `json:"number"`
	VendorID    int64               `json:"vendor_id"`
	OrderDate   string              `json:"order_date"`
	Description string              `json:"description,omitempty"`
	Status      string              `json:"status"`
	Total       string              `json:"total"`
	Items       []orderItemResponse `json:"items"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
}

func renderOrder(po *payables.PurchaseOrder) orderResponse {
	resp := orderResponse{
		ID:          po.ID,
		Number:      po.Number,
		VendorID:    po.VendorID,
		OrderDate:   po.OrderDate.UTC().Format(dateLayout),
		Description: po.Description,
		Status:      string(po.Status),
		Total:       po.Total().StringFixed(2),
		Items:       make([]orderItemResponse, 0, len(po.Items)),
		CreatedAt:   formatTime(po.CreatedAt),
		UpdatedAt:   formatTime(po.UpdatedAt),
	}
	for _, item := range po.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:          item.ID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			AccountID:   item.AccountID,
			Description: item.Description,
		})
	}
	return resp
}

func (h *OrderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	po, err := req.toOrder()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateOrder(r.Context(), ownerID, po)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, renderOrder(created))
	logAudit(h.auditLogger, r, "purchase_order.create", "purchase_order", created.Number, map[string]any{
		"total": created.Total().StringFixed(2),
	})
}

func (h *OrderHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	status := payables.PurchaseOrderStatus(r.URL.Query().Get("status"))
	orders, err := h.service.ListOrders(r.Context(), ownerID, status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, renderOrder(&orders[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *OrderHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
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
		po, err := h.service.GetOrder(r.Context(), ownerID, id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderOrder(po))
	case http.MethodPut:
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		po, err := req.toOrder()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		po.ID = id
		updated, err := h.service.UpdateOrder(r.Context(), ownerID, po)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderOrder(updated))
		logAudit(h.auditLogger, r, "purchase_order.update", "purchase_order", updated.Number, nil)
	case http.MethodDelete:
		if err := h.service.DeleteOrder(r.Context(), ownerID, id); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		logAudit(h.auditLogger, r, "purchase_order.delete", "purchase_order", rest, nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
