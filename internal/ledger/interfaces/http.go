// Package interfaces exposes the ledger over HTTP. Handlers parse and
// render JSON; all behavior lives in the application services.
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"finbooks/internal/audit"
	"finbooks/internal/auth"
	ledgerapp "finbooks/internal/ledger/application"
	ledger "finbooks/internal/ledger/domain"
)

const dateLayout = "2006-01-02"

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	var unbalanced *ledger.UnbalancedError
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrVoucherNotFound),
		errors.Is(err, ledger.ErrEntryNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrAlreadyPosted),
		errors.Is(err, ledger.ErrNotPosted),
		errors.Is(err, ledger.ErrPostedVoucherImmutable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrUnauthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.As(err, &unbalanced),
		errors.Is(err, ledger.ErrNoEntries),
		errors.Is(err, ledger.ErrInvalidEntry),
		errors.Is(err, ledger.ErrInvalidAccountType),
		errors.Is(err, ledger.ErrParentCycle):
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

func logAudit(logger audit.Logger, r *http.Request, action, resourceType, resourceID string, meta map[string]any) {
	if logger == nil {
		return
	}
	ownerID := auth.OwnerIDFromContext(r.Context())
	if ownerID == 0 {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = logger.Log(r.Context(), audit.Entry{
		OwnerID:       ownerID,
		Actor:         auth.SubjectFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Metadata:      payload,
		PayloadDigest: audit.DigestJSON(payload),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})
}

type accountResponse struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	ParentID    int64  `json:"parent_id,omitempty"`
	Description string `json:"description,omitempty"`
	Balance     string `json:"balance"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func renderAccount(a *ledger.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Type:        string(a.Type),
		ParentID:    a.ParentID,
		Description: a.Description,
		Balance:     a.Balance.StringFixed(2),
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func renderAccounts(accounts []ledger.Account) []accountResponse {
	out := make([]accountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, renderAccount(&accounts[i]))
	}
	return out
}

type entryResponse struct {
	ID          int64  `json:"id"`
	AccountID   int64  `json:"account_id"`
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

type voucherResponse struct {
	ID          int64           `json:"id"`
	Number      string          `json:"number"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	Status      string          `json:"status"`
	Posted      bool            `json:"posted"`
	PostedAt    string          `json:"posted_at,omitempty"`
	Entries     []entryResponse `json:"entries"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

func renderVoucher(v *ledger.Voucher) voucherResponse {
	resp := voucherResponse{
		ID:          v.ID,
		Number:      v.Number,
		Date:        v.Date.UTC().Format(dateLayout),
		Description: v.Description,
		Status:      string(v.Status),
		Posted:      v.Posted,
		Entries:     make([]entryResponse, 0, len(v.Entries)),
		CreatedAt:   v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   v.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if !v.PostedAt.IsZero() {
		resp.PostedAt = v.PostedAt.UTC().Format(time.RFC3339)
	}
	for _, e := range v.Entries {
		resp.Entries = append(resp.Entries, entryResponse{
			ID:          e.ID,
			AccountID:   e.AccountID,
			Direction:   string(e.Direction),
			Amount:      e.Amount.StringFixed(2),
			Description: e.Description,
		})
	}
	return resp
}

type entryRequest struct {
	AccountID   int64  `json:"account_id"`
	Direction   string `json:"direction"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type voucherRequest struct {
	Date        string         `json:"date"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Entries     []entryRequest `json:"entries"`
}

func (req voucherRequest) toInput() (ledgerapp.VoucherInput, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return ledgerapp.VoucherInput{}, err
	}
	entries := make([]ledger.VoucherEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		amount, err := parseAmount(e.Amount)
		if err != nil {
			return ledgerapp.VoucherInput{}, err
		}
		entries = append(entries, ledger.VoucherEntry{
			AccountID:   e.AccountID,
			Direction:   ledger.Direction(e.Direction),
			Amount:      amount,
			Description: e.Description,
		})
	}
	return ledgerapp.VoucherInput{
		Date:        date,
		Description: req.Description,
		Status:      ledger.VoucherStatus(req.Status),
		Entries:     entries,
	}, nil
}
