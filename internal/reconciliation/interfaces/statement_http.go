package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finbooks/internal/audit"
	"finbooks/internal/auth"
	ledger "finbooks/internal/ledger/domain"
	"finbooks/internal/observability/metrics"
	reconapp "finbooks/internal/reconciliation/application"
	reconciliation "finbooks/internal/reconciliation/domain"
)

const dateLayout = "2006-01-02"

// AccountNamer resolves account display names for exports.
type AccountNamer interface {
	GetAccount(ctx context.Context, ownerID, id int64) (*ledger.Account, error)
}

// StatementHandler handles bank statement and reconciliation APIs.
type StatementHandler struct {
	service     *reconapp.Service
	accounts    AccountNamer
	auditLogger audit.Logger
}

// NewStatementHandler constructs a handler.
func NewStatementHandler(service *reconapp.Service, accounts AccountNamer, auditLogger audit.Logger) (*StatementHandler, error) {
	if service == nil {
		return nil, errors.New("statement handler: nil service")
	}
	return &StatementHandler{service: service, accounts: accounts, auditLogger: auditLogger}, nil
}

// ServeHTTP handles statement routes under /api/v1/statements and the
// candidate-entry listing.
func (h *StatementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/statements" {
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r)
			return
		case http.MethodGet:
			h.handleList(w, r)
			return
		}
	}
	if path == "/api/v1/statements/candidates" && r.Method == http.MethodGet {
		h.handleCandidates(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/statement-items/") {
		h.handleItem(w, r, strings.TrimPrefix(path, "/api/v1/statement-items/"))
		return
	}
	if strings.HasPrefix(path, "/api/v1/statements/") {
		h.handleByID(w, r, strings.TrimPrefix(path, "/api/v1/statements/"))
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

type statementRequest struct {
	AccountID      int64         `json:"account_id"`
	StatementDate  string        `json:"statement_date"`
	OpeningBalance string        `json:"opening_balance"`
	ClosingBalance string        `json:"closing_balance"`
	Items          []itemRequest `json:"items"`
}

type itemRequest struct {
	TransactionDate string `json:"transaction_date"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	Balance         string `json:"balance"`
}

func (req statementRequest) toStatement() (*reconciliation.BankStatement, error) {
	date, err := parseDate(req.StatementDate)
	if err != nil {
		return nil, err
	}
	opening, err := parseAmount(req.OpeningBalance)
	if err != nil {
		return nil, err
	}
	closing, err := parseAmount(req.ClosingBalance)
	if err != nil {
		return nil, err
	}
	items, err := toItems(req.Items)
	if err != nil {
		return nil, err
	}
	return &reconciliation.BankStatement{
		AccountID:      req.AccountID,
		StatementDate:  date,
		OpeningBalance: opening,
		ClosingBalance: closing,
		Items:          items,
	}, nil
}

func toItems(reqs []itemRequest) ([]reconciliation.StatementItem, error) {
	items := make([]reconciliation.StatementItem, 0, len(reqs))
	for _, it := range reqs {
		date, err := parseDate(it.TransactionDate)
		if err != nil {
			return nil, err
		}
		amount, err := parseAmount(it.Amount)
		if err != nil {
			return nil, err
		}
		balance, err := parseAmount(it.Balance)
		if err != nil {
			return nil, err
		}
		items = append(items, reconciliation.StatementItem{
			TransactionDate: date,
			Description:     it.Description,
			Amount:          amount,
			Balance:         balance,
		})
	}
	return items, nil
}

func (h *StatementHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	var req statementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	stmt, err := req.toStatement()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.service.CreateStatement(r.Context(), ownerID, stmt)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, renderStatement(created))
	h.logAudit(r, "statement.create", created.ID, map[string]any{"items": len(created.Items)})
}

func (h *StatementHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	stmts, err := h.service.ListStatements(r.Context(), ownerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]statementResponse, 0, len(stmts))
	for i := range stmts {
		out = append(out, renderStatement(&stmts[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *StatementHandler) handleCandidates(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	entries, err := h.service.UnreconciledEntries(r.Context(), ownerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	out := make([]candidateResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, candidateResponse{
			EntryID:       e.EntryID,
			VoucherNumber: e.VoucherNumber,
			VoucherDate:   e.VoucherDate.UTC().Format(dateLayout),
			AccountID:     e.AccountID,
			AccountName:   e.AccountName,
			Description:   e.Description,
			Amount:        e.Amount.StringFixed(2),
			Direction:     e.Direction,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *StatementHandler) handleItem(w http.ResponseWriter, r *http.Request, rest string) {
	ownerID, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || r.Method != http.MethodPost {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	itemID, err := parseID(parts[0])
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch parts[1] {
	case "link":
		var req struct {
			VoucherEntryID int64 `json:"voucher_entry_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		stmt, err := h.service.Reconcile(r.Context(), ownerID, itemID, req.VoucherEntryID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderStatement(stmt))
		h.logAudit(r, "statement.reconcile", stmt.ID, map[string]any{
			"item_id":          itemID,
			"voucher_entry_id": req.VoucherEntryID,
		})
	case "unlink":
		stmt, err := h.service.Reconcile(r.Context(), ownerID, itemID, 0)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderStatement(stmt))
		h.logAudit(r, "statement.unreconcile", stmt.ID, map[string]any{"item_id": itemID})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *StatementHandler) handleByID(w http.ResponseWriter, r *http.Request, rest string) {
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
	if len(parts) == 2 {
		switch parts[1] {
		case "items":
			if r.Method == http.MethodPost {
				h.handleAddItems(w, r, ownerID, id)
				return
			}
		case "export.pdf":
			if r.Method == http.MethodGet {
				h.handleExport(w, r, ownerID, id, "pdf")
				return
			}
		case "export.xlsx":
			if r.Method == http.MethodGet {
				h.handleExport(w, r, ownerID, id, "xlsx")
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if len(parts) != 1 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		stmt, err := h.service.GetStatement(r.Context(), ownerID, id)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderStatement(stmt))
	case http.MethodPut:
		var req statementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		date, err := parseDate(req.StatementDate)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		opening, err := parseAmount(req.OpeningBalance)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		closing, err := parseAmount(req.ClosingBalance)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		stmt, err := h.service.UpdateStatement(r.Context(), ownerID, id, reconapp.StatementInput{
			AccountID:      req.AccountID,
			StatementDate:  date,
			OpeningBalance: opening,
			ClosingBalance: closing,
		})
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, renderStatement(stmt))
		h.logAudit(r, "statement.update", stmt.ID, nil)
	case http.MethodDelete:
		if err := h.service.DeleteStatement(r.Context(), ownerID, id); err != nil {
			respondServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.logAudit(r, "statement.delete", id, nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *StatementHandler) handleAddItems(w http.ResponseWriter, r *http.Request, ownerID, id int64) {
	var req struct {
		Items []itemRequest `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	items, err := toItems(req.Items)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.service.AddItems(r.Context(), ownerID, id, items); err != nil {
		respondServiceError(w, err)
		return
	}
	stmt, err := h.service.GetStatement(r.Context(), ownerID, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, renderStatement(stmt))
	h.logAudit(r, "statement.add_items", id, map[string]any{"items": len(items)})
}

func (h *StatementHandler) handleExport(w http.ResponseWriter, r *http.Request, ownerID, id int64, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(format, result, time.Since(start))
	}()

	stmt, err := h.service.GetStatement(r.Context(), ownerID, id)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	accountName := ""
	if h.accounts != nil {
		if account, err := h.accounts.GetAccount(r.Context(), ownerID, stmt.AccountID); err == nil {
			accountName = account.Name
		}
	}
	var data []byte
	var contentType string
	switch format {
	case "pdf":
		data, err = BuildStatementPDF(stmt, accountName)
		contentType = "application/pdf"
	case "xlsx":
		data, err = BuildStatementXLSX(stmt, accountName)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, "statement.export", stmt.ID, map[string]any{"format": format})
}

type statementItemResponse struct {
	ID              int64  `json:"id"`
	TransactionDate string `json:"transaction_date"`
	Description     string `json:"description,omitempty"`
	Amount          string `json:"amount"`
	Balance         string `json:"balance"`
	Reconciled      bool   `json:"reconciled"`
	VoucherEntryID  int64  `json:"voucher_entry_id,omitempty"`
}

type statementResponse struct {
	ID             int64                   `json:"id"`
	AccountID      int64                   `json:"account_id"`
	StatementDate  string                  `json:"statement_date"`
	OpeningBalance string                  `json:"opening_balance"`
	ClosingBalance string                  `json:"closing_balance"`
	Status         string                  `json:"status"`
	Items          []statementItemResponse `json:"items"`
}

type candidateResponse struct {
	EntryID       int64  `json:"entry_id"`
	VoucherNumber string `json:"voucher_number"`
	VoucherDate   string `json:"voucher_date"`
	AccountID     int64  `json:"account_id"`
	AccountName   string `json:"account_name,omitempty"`
	Description   string `json:"description,omitempty"`
	Amount        string `json:"amount"`
	Direction     string `json:"direction"`
}

func renderStatement(stmt *reconciliation.BankStatement) statementResponse {
	resp := statementResponse{
		ID:             stmt.ID,
		AccountID:      stmt.AccountID,
		StatementDate:  stmt.StatementDate.UTC().Format(dateLayout),
		OpeningBalance: stmt.OpeningBalance.StringFixed(2),
		ClosingBalance: stmt.ClosingBalance.StringFixed(2),
		Status:         string(stmt.Status),
		Items:          make([]statementItemResponse, 0, len(stmt.Items)),
	}
	for _, item := range stmt.Items {
		resp.Items = append(resp.Items, statementItemResponse{
			ID:              item.ID,
			TransactionDate: item.TransactionDate.UTC().Format(dateLayout),
			Description:     item.Description,
			Amount:          item.Amount.StringFixed(2),
			Balance:         item.Balance.StringFixed(2),
			Reconciled:      item.Reconciled,
			VoucherEntryID:  item.VoucherEntryID,
		})
	}
	return resp
}

func (h *StatementHandler) logAudit(r *http.Request, action string, statementID int64, meta map[string]any) {
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
		ResourceType:  "bank_statement",
		ResourceID:    strconv.FormatInt(statementID, 10),
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
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

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, reconciliation.ErrStatementNotFound),
		errors.Is(err, reconciliation.ErrItemNotFound),
		errors.Is(err, ledger.ErrEntryNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, reconciliation.ErrNoItems):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, raw)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
