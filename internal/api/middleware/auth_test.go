package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/credence-ai/credence/internal/domain"
	"github.com/google/uuid"
)

// stubTenantStore implements domain.TenantStore for testing.
type stubTenantStore struct {
	tenant  *domain.Tenant
	lookups int
}

func (s *stubTenantStore) Create(ctx context.Context, t *domain.Tenant) error { return nil }

func (s *stubTenantStore) GetByAPIKeyHash(ctx context.Context, hash string) (*domain.Tenant, error) {
	s.lookups++
	if s.tenant != nil && s.tenant.APIKeyHash == hash {
		return s.tenant, nil
	}
	return nil, errors.New("not found")
}

func TestAPIKeyAuth(t *testing.T) {
	apiKey := "cr_0123456789abcdef"
	tenant := &domain.Tenant{ID: uuid.New(), Name: "lab", APIKeyHash: HashAPIKey(apiKey)}
	tenantStore := &stubTenantStore{tenant: tenant}

	var seen *domain.Tenant
	handler := APIKeyAuth(tenantStore)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TenantFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
	req.Header.Set("Authorization", "Bearer "+apiKey)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seen == nil || seen.ID != tenant.ID {
		t.Error("tenant not placed in request context")
	}
}

func TestAPIKeyAuthRejections(t *testing.T) {
	tenantStore := &stubTenantStore{}
	handler := APIKeyAuth(tenantStore)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without valid credentials")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic cr_abc"},
		{"wrong key prefix", "Bearer sk_0123456789abcdef"},
		{"unknown key", "Bearer cr_0123456789abcdef"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/runs", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}

	// Malformed keys never reach the store; only the unknown-key case
	// costs a lookup.
	if tenantStore.lookups != 1 {
		t.Errorf("store lookups = %d, want 1", tenantStore.lookups)
	}
}
