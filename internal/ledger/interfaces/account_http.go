package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"finbooks/internal/audit"
	ledgerapp "finbooks/internal/ledger/application"
	ledger "finbooks/internal/ledger/domain"
)

// AccountHandler handles chart-of-accounts APIs.
type AccountHandler struct {
	service     *ledgerapp.ChartService
	seed        []ledgerapp.SeedAccount
	auditLogger audit.Logger
}

// NewAccountHandler constructs a handler. An empty seed falls back to the
// embedded default chart.
func NewAccountHandler(service *ledgerapp.ChartService, seed []ledgerapp.SeedAccount, auditLogger audit.Logger) (*AccountHandler, error) {
	if service == nil {
		return nil, errors.New("account handler: nil service")
	}
	return &AccountHandler{service: service, seed: seed, auditLogger: auditLogger}, nil
}

// ServeHTTP handles account routes under /api/v1/accounts.
func (h *AccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/accounts" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
			return
		case http.MethodGet:
			h.handleList(w, r)
			return
		}
	}
	if path == "/api/v1/accounts/bank" && r.Method == http.MethodGet {
		h.handleListBank(w, r)
		return
	}
	if path == "/api/v1/accounts/seed" && r.Method == http.MethodPost {
		h.handleSeed(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/accounts/") {
		h.handleByID(w, r, strings.TrimPrefix(path, "/api/v1/accounts/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type accountRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	ParentID    int64  `json:"parent_id"`
	Description string `json:"description"`
}

func (req accountRequest) toInput() ledgerapp.AccountInput {
	return ledgerapp.AccountInput{
		Code:        req.Code,
		Name:        req.Name,
		Type:        ledger.AccountType(req.Type),
		ParentID:    req.ParentID,
		Description: req.Description,
	}
}

func (h *AccountHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	account, err := h.service.CreateAccount(r.Context(), ownerID, req.toInput())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, renderAccount(account))
	logAudit(h.auditLogger, r, "account.create", "account", account.Code, map[string]any{
		"name": account.Name,
		"type": account.Type,
	})
}

func (h *AccountHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	accounts, err := h.service.ListAccounts(r.Context(), ownerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, renderAccounts(accounts))
}

func (h *AccountHandler) handleListBank(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	accounts, err := h.service.ListBankAccounts(r.Context(), ownerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, renderAccounts(accounts))
}

func (h *AccountHandler) handleSeed(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	seed := h.seed
	if len(seed) == 0 {
		var err error
		seed, err = ledgerapp.DefaultChart()
		if err != nil {
			http.Error(w, "chart seed unavailable", http.StatusInternalServerError)
			return
		}
	}
	created, err := h.service.SeedDefaults(r.Context(), ownerID, seed)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"created": created})
	logAudit(h.auditLogger, r, "account.seed", "account", "", map[string]any{"created": created})
}

func (h *AccountHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
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
		account, err := h.service.GetAccount(r.Context(), ownerID, id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderAccount(account))
	case http.MethodPut:
		var req accountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		account, err := h.service.UpdateAccount(r.Context(), ownerID, id, req.toInput())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderAccount(account))
		logAudit(h.auditLogger, r, "account.update", "account", account.Code, map[string]any{
			"name": account.Name,
		})
	case http.MethodDelete:
		if err := h.service.DeleteAccount(r.Context(), ownerID, id); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		logAudit(h.auditLogger, r, "account.delete", "account", rest, nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
