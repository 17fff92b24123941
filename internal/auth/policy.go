package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves the required role for the request.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case path == "/api/v1/accounts/seed":
		return RoleAdmin, true
	case strings.HasPrefix(path, "/api/v1/statements/") && strings.Contains(path, "/export."):
		return RoleAccountant, true
	case path == "/api/v1/payments/execute":
		return RoleAccountant, true
	case strings.HasPrefix(path, "/api/v1/vouchers/") &&
		(strings.HasSuffix(path, "/post") || strings.HasSuffix(path, "/unpost")):
		return RoleAccountant, true
	case strings.HasPrefix(path, "/api/v1/tax-declarations/") && strings.HasSuffix(path, "/submit"):
		return RoleAccountant, true
	}

	if strings.HasPrefix(path, "/api/") {
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return RoleViewer, true
		}
		return RoleAccountant, true
	}
	return "", false
}
