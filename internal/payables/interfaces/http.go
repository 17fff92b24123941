// Package interfaces exposes vendors, bills, purchase orders and tax
// declarations over HTTP.
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
	payables "finbooks/internal/payables/domain"
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
	switch {
	case errors.Is(err, payables.ErrVendorNotFound),
		errors.Is(err, payables.ErrBillNotFound),
		errors.Is(err, payables.ErrOrderNotFound),
		errors.Is(err, payables.ErrDeclarationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
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

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
