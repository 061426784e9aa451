package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/avdeyev/reviewflow/internal/server/http/handlers"
	testhelpers "github.com/avdeyev/reviewflow/internal/test"
)

func TestSetupRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	hash, err := bcrypt.GenerateFromPassword([]byte("op-token"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generate hash: %v", err)
	}
	dispatcher := &testhelpers.DispatcherStub{}
	engine := Setup(testhelpers.MarketFacadeStub{}, dispatcher, string(hash), logger)

	// Webhook is open: Telegram cannot present the operator token.
	body := []byte(`{"update_id":1,"message":{"message_id":1,"chat":{"id":777},"from":{"id":777},"text":"hi"}}`)
	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for webhook, got %d", resp.Code)
	}
	if len(dispatcher.Updates) != 1 {
		t.Fatalf("expected dispatched update, got %d", len(dispatcher.Updates))
	}

	orderBody, _ := json.Marshal(map[string]any{"merchant_id": 5, "customer_user_id": 777, "price": 500})
	req = httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(orderBody))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(orderBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer op-token")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201 for order create, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/reviews/2001", nil)
	req.Header.Set("Authorization", "Bearer op-token")
	resp = httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for review details, got %d", resp.Code)
	}
}

var _ handlers.MarketFacade = (testhelpers.MarketFacadeStub{})
var _ handlers.UpdateDispatcher = (*testhelpers.DispatcherStub)(nil)
