package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/avdeyev/reviewflow/internal/domain/errors"
	"github.com/avdeyev/reviewflow/internal/domain/model"
	"github.com/avdeyev/reviewflow/internal/server/http/dto"
	testhelpers "github.com/avdeyev/reviewflow/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func performRequest(t *testing.T, method, route, path string, handler gin.HandlerFunc, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, handler)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookHandlerDispatchesUpdate(t *testing.T) {
	dispatcher := &testhelpers.DispatcherStub{}
	handler := NewWebhookHandler(dispatcher, testLogger())

	body := []byte(`{"update_id":1,"callback_query":{"id":"cb-1","from":{"id":777},"data":"rv:start:1001"}}`)
	resp := performRequest(t, http.MethodPost, "/telegram/webhook", "/telegram/webhook", handler.Handle, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if len(dispatcher.Updates) != 1 {
		t.Fatalf("expected one dispatched update, got %d", len(dispatcher.Updates))
	}
	if cb := dispatcher.Updates[0].CallbackQuery; cb == nil || cb.Data != "rv:start:1001" {
		t.Fatalf("unexpected dispatched update %+v", dispatcher.Updates[0])
	}
}

func TestWebhookHandlerRejectsMalformedBody(t *testing.T) {
	dispatcher := &testhelpers.DispatcherStub{}
	handler := NewWebhookHandler(dispatcher, testLogger())

	resp := performRequest(t, http.MethodPost, "/telegram/webhook", "/telegram/webhook", handler.Handle, []byte(`{not json`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if len(dispatcher.Updates) != 0 {
		t.Fatal("expected no dispatch for malformed body")
	}
}

func TestMerchantHandlerCreate(t *testing.T) {
	handler := NewMerchantHandler(testhelpers.MarketFacadeStub{})
	body, _ := json.Marshal(dto.CreateMerchantRequest{Name: "小美", ChatID: 333222})

	resp := performRequest(t, http.MethodPost, "/merchants", "/merchants", handler.Create, body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}

	var got dto.MerchantResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Name != "小美" || got.ChatID != 333222 {
		t.Fatalf("unexpected response %+v", got)
	}
}

func TestMerchantHandlerCreateFailures(t *testing.T) {
	tests := []struct {
		name   string
		facade testhelpers.MarketFacadeStub
		body   []byte
		status int
	}{
		{
			name:   "malformed body",
			body:   []byte(`{`),
			status: http.StatusBadRequest,
		},
		{
			name: "invalid argument",
			facade: testhelpers.MarketFacadeStub{CreateMerchantFn: func(context.Context, string, int64) (*model.Merchant, error) {
				return nil, domainErrors.ErrInvalidArgument
			}},
			body:   mustJSON(t, dto.CreateMerchantRequest{Name: "小美", ChatID: 1}),
			status: http.StatusBadRequest,
		},
		{
			name: "storage failure",
			facade: testhelpers.MarketFacadeStub{CreateMerchantFn: func(context.Context, string, int64) (*model.Merchant, error) {
				return nil, context.DeadlineExceeded
			}},
			body:   mustJSON(t, dto.CreateMerchantRequest{Name: "小美", ChatID: 1}),
			status: http.StatusInternalServerError,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := performRequest(t, http.MethodPost, "/merchants", "/merchants", NewMerchantHandler(tc.facade).Create, tc.body)
			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestOrderHandlerCreate(t *testing.T) {
	handler := NewOrderHandler(testhelpers.MarketFacadeStub{})
	body, _ := json.Marshal(dto.CreateOrderRequest{MerchantID: 5, CustomerUserID: 777, Price: 500})

	resp := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Create, body)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}

	var got dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.MerchantID != 5 || got.CustomerUserID != 777 || got.Price != 500 {
		t.Fatalf("unexpected response %+v", got)
	}
}

func TestOrderHandlerCreateUnknownMerchant(t *testing.T) {
	handler := NewOrderHandler(testhelpers.MarketFacadeStub{
		CreateOrderFn: func(context.Context, int64, int64, float64) (*model.Order, error) {
			return nil, domainErrors.ErrNotFound
		},
	})
	body, _ := json.Marshal(dto.CreateOrderRequest{MerchantID: 404, CustomerUserID: 777, Price: 500})

	resp := performRequest(t, http.MethodPost, "/orders", "/orders", handler.Create, body)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}
}

func TestOrderHandlerComplete(t *testing.T) {
	handler := NewOrderHandler(testhelpers.MarketFacadeStub{})

	resp := performRequest(t, http.MethodPost, "/orders/:id/complete", "/orders/1001/complete", handler.Complete, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var got dto.CompleteOrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !got.ReviewTriggered || got.Order.ID != 1001 {
		t.Fatalf("unexpected response %+v", got)
	}
}

func TestOrderHandlerCompleteFailures(t *testing.T) {
	tests := []struct {
		name   string
		facade testhelpers.MarketFacadeStub
		path   string
		status int
	}{
		{
			name:   "non numeric id",
			path:   "/orders/abc/complete",
			status: http.StatusBadRequest,
		},
		{
			name: "unknown order",
			facade: testhelpers.MarketFacadeStub{CompleteOrderFn: func(context.Context, int64) (*model.Order, bool, error) {
				return nil, false, domainErrors.ErrNotFound
			}},
			path:   "/orders/404/complete",
			status: http.StatusNotFound,
		},
		{
			name: "already completed",
			facade: testhelpers.MarketFacadeStub{CompleteOrderFn: func(context.Context, int64) (*model.Order, bool, error) {
				return nil, false, domainErrors.ErrInvalidStatus
			}},
			path:   "/orders/1001/complete",
			status: http.StatusConflict,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := performRequest(t, http.MethodPost, "/orders/:id/complete", tc.path, NewOrderHandler(tc.facade).Complete, nil)
			if resp.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestReviewHandlerDetails(t *testing.T) {
	handler := NewReviewHandler(testhelpers.MarketFacadeStub{})

	resp := performRequest(t, http.MethodGet, "/reviews/:id", "/reviews/2001", handler.Details, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	var got dto.ReviewResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != 2001 || got.MerchantName != "小美" {
		t.Fatalf("unexpected response %+v", got)
	}
	if got.MeanScore != 8.8 {
		t.Fatalf("expected mean score 8.8, got %v", got.MeanScore)
	}
	if got.Scores["service"] != 10 || len(got.Scores) != 5 {
		t.Fatalf("unexpected scores %+v", got.Scores)
	}
}

func TestReviewHandlerDetailsNotFound(t *testing.T) {
	handler := NewReviewHandler(testhelpers.MarketFacadeStub{
		ReviewDetailsFn: func(context.Context, int64) (*model.ReviewDetails, error) {
			return nil, domainErrors.ErrNotFound
		},
	})

	resp := performRequest(t, http.MethodGet, "/reviews/:id", "/reviews/404", handler.Details, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}
