package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bizcard/enterprise-auth/internal/core/domain"
	"github.com/bizcard/enterprise-auth/internal/core/service"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type auditRecord struct {
	event   domain.SecurityEventType
	userID  string
	details domain.EventDetails
}

type recordingAuditor struct {
	mu      sync.Mutex
	records []auditRecord
}

func (a *recordingAuditor) LogEvent(_ context.Context, event domain.SecurityEventType, userID string, details domain.EventDetails) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, auditRecord{event: event, userID: userID, details: details})
}

func (a *recordingAuditor) all() []auditRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]auditRecord(nil), a.records...)
}

func newTokenService(t *testing.T) *service.TokenService {
	t.Helper()
	tokens, err := service.NewTokenService(service.TokenConfig{Secret: testSecret})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return tokens
}

// newContext builds an echo context whose request optionally carries id.
func newContext(e *echo.Echo, id *domain.Identity) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("User-Agent", "middleware-test")
	if id != nil {
		req = req.WithContext(WithIdentity(req.Context(), *id))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// run executes mw in front of a handler that answers 200 and reports
// whether the handler was reached.
func run(t *testing.T, c echo.Context, mw echo.MiddlewareFunc) bool {
	t.Helper()
	called := false
	h := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return called
}
