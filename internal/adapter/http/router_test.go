package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/adapter/http/handler"
	apimiddleware "github.com/iho/gowallet/internal/adapter/http/middleware"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/usecase"
)

var testTokens = auth.NewJWTManager("router-test-secret", time.Minute)

func bearer(t *testing.T, accountID int64) string {
	t.Helper()
	token, err := testTokens.Generate(&domain.Account{ID: accountID, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return "Bearer " + token
}

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_TransactionsRequireToken(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("Authorization", bearer(t, 5))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"receiver_id": 9, "amount": "10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, 5))
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.checkedKey != "5:key-123" {
		t.Fatalf("expected account-scoped key, got %q", store.checkedKey)
	}
}

func TestNewRouter_MetricsUseRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = m
		cfg.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/42", nil)
	req.Header.Set("Authorization", bearer(t, 5))
	router.ServeHTTP(httptest.NewRecorder(), req)

	counter := m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/transactions/{id}", "200")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected 1 request under the route pattern, got %v", got)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "gowallet_http_requests_total") {
		t.Fatalf("expected metrics exposition, got %d", rec.Code)
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.CORSOrigins = []string{"https://wallet.example"}
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/transactions", nil)
	req.Header.Set("Origin", "https://wallet.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://wallet.example" {
		t.Fatalf("expected allowed origin header, got %q", got)
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/auth/login",
		"GET /api/v1/auth/me",
		"GET /api/v1/transactions/",
		"POST /api/v1/transactions/",
		"GET /api/v1/transactions/{id}",
		"GET /api/v1/transactions/{id}/events",
		"GET /api/v1/ledger/consistency",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	reader := stubReader{}
	up := handler.PingFunc(func(context.Context) error { return nil })

	cfg := RouterConfig{
		AuthHandler:        handler.NewAuthHandler(stubAccountService{}),
		TransactionHandler: handler.NewTransactionHandler(stubTransferService{}, reader, zerolog.Nop()),
		LedgerHandler:      handler.NewLedgerHandler(stubReconciler{}),
		HealthHandler:      handler.NewHealthHandler(up, up),
		Tokens:             testTokens,
		Logger:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubAccountService struct{}

func (stubAccountService) Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*usecase.AuthResult, error) {
	return nil, domain.ErrInvalidCredentials
}

func (stubAccountService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return &domain.Account{ID: id}, nil
}

type stubTransferService struct{}

func (stubTransferService) Transfer(ctx context.Context, input usecase.TransferInput) (*domain.Transaction, error) {
	sender := input.SenderID
	return &domain.Transaction{ID: 1, SenderID: &sender, ReceiverID: input.ReceiverID, Status: domain.TransactionStatusCompleted}, nil
}

type stubReader struct{}

func (stubReader) ListForAccount(ctx context.Context, accountID int64, limit, offset int) (*usecase.AccountStatement, error) {
	return &usecase.AccountStatement{Account: &domain.Account{ID: accountID}}, nil
}

func (stubReader) Get(ctx context.Context, accountID, transactionID int64) (*usecase.TransactionView, error) {
	sender := accountID
	return &usecase.TransactionView{
		Transaction: &domain.Transaction{ID: transactionID, SenderID: &sender, ReceiverID: 9},
		Direction:   usecase.DirectionSent,
	}, nil
}

func (stubReader) EventHistory(ctx context.Context, accountID, transactionID int64) ([]domain.EventRecord, error) {
	return nil, nil
}

func (stubReader) LedgerEntries(ctx context.Context, transactionID int64) (*usecase.TransactionLedger, error) {
	return &usecase.TransactionLedger{}, nil
}

type stubReconciler struct{}

func (stubReconciler) CheckLedgerConsistency(ctx context.Context) error { return nil }

func (stubReconciler) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return &usecase.ReconciliationReport{LedgerConsistent: true}, nil
}

type stubIdempotencyStore struct {
	checkedKey string
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkedKey = key
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
