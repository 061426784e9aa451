package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestNewHTTPClientValidatesArguments(t *testing.T) {
	if _, err := NewHTTPClient("://bad-url", "token", testLogger()); err == nil {
		t.Fatal("expected error for invalid url")
	}
	if _, err := NewHTTPClient("/relative", "token", testLogger()); err == nil {
		t.Fatal("expected error for relative url")
	}
	if _, err := NewHTTPClient("https://api.telegram.org", "", testLogger()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotPayload sendPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "123:secret", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	keyboard := InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
		{{Text: "🌟 开始评价", CallbackData: "rv:start:1001"}},
	}}
	err = client.SendMessage(context.Background(), 123456789, "hello", WithKeyboard(keyboard), WithMarkdown())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(gotPath, "/bot123:secret/sendMessage") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotPayload.ChatID != 123456789 || gotPayload.Text != "hello" {
		t.Fatalf("unexpected payload %+v", gotPayload)
	}
	if gotPayload.ParseMode != "Markdown" {
		t.Fatalf("expected markdown parse mode, got %q", gotPayload.ParseMode)
	}
	if gotPayload.ReplyMarkup == nil || len(gotPayload.ReplyMarkup.InlineKeyboard) != 1 {
		t.Fatalf("expected keyboard to be attached, got %+v", gotPayload.ReplyMarkup)
	}
}

func TestEditMessageText(t *testing.T) {
	var gotPath string
	var gotPayload sendPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "123:secret", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if err := client.EditMessageText(context.Background(), 123456789, 42, "updated"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(gotPath, "/editMessageText") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotPayload.MessageID != 42 || gotPayload.Text != "updated" {
		t.Fatalf("unexpected payload %+v", gotPayload)
	}
}

func TestAnswerCallbackQuery(t *testing.T) {
	var gotPayload sendPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "123:secret", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	if err := client.AnswerCallbackQuery(context.Background(), "cb-1", "无权限", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPayload.CallbackQueryID != "cb-1" || !gotPayload.ShowAlert {
		t.Fatalf("unexpected payload %+v", gotPayload)
	}
}

func TestSendMessageRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Too Many Requests","parameters":{"retry_after":7}}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "123:secret", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	err = client.SendMessage(context.Background(), 1, "hi")
	var tooMany TooManyRequestsError
	if !errors.As(err, &tooMany) {
		t.Fatalf("expected TooManyRequestsError, got %v", err)
	}
	if tooMany.RetryAfter != 7*time.Second {
		t.Fatalf("expected retry after 7s, got %v", tooMany.RetryAfter)
	}
}

func TestSendMessageAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	client, err := NewHTTPClient(server.URL, "123:secret", testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	err = client.SendMessage(context.Background(), 1, "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected api error, got %v", err)
	}
}
