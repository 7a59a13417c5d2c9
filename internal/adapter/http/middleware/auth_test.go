package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/auth"
)

type countingAuthRecorder map[string]int

func (c countingAuthRecorder) AuthAttempt(status string) { c[status]++ }

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager("test-secret", time.Minute)
	token, err := manager.Generate(&domain.Account{ID: 5, Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantID     int64
	}{
		{"missing header", "", http.StatusUnauthorized, 0},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, 0},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, 0},
		{"valid token", "Bearer " + token, http.StatusOK, 5},
		{"lowercase scheme", "bearer " + token, http.StatusOK, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := countingAuthRecorder{}
			var gotID int64

			handler := AuthMiddleware(manager, rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = AccountIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			if gotID != tt.wantID {
				t.Fatalf("expected account %d in context, got %d", tt.wantID, gotID)
			}
			if tt.wantStatus == http.StatusOK && rec["ok"] != 1 {
				t.Fatalf("expected ok to be recorded, got %v", rec)
			}
		})
	}
}

func TestAccountIDFromContextWithoutClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := AccountIDFromContext(req.Context()); ok {
		t.Fatal("expected no account id")
	}
}
