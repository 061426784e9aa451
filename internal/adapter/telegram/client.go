package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// TooManyRequestsError represents rate limiting signal from the Bot API.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client exposes the message-sending operations of the Telegram Bot API
// used by the review flow. Sends are fire-and-forget: the caller consumes
// no result beyond the error.
type Client interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts ...SendOption) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts ...SendOption) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error
}

// SendOption customizes an outgoing message.
type SendOption func(*sendPayload)

// WithKeyboard attaches an inline keyboard.
func WithKeyboard(markup InlineKeyboardMarkup) SendOption {
	return func(p *sendPayload) {
		p.ReplyMarkup = &markup
	}
}

// WithMarkdown enables Markdown parsing of the message text.
func WithMarkdown() SendOption {
	return func(p *sendPayload) {
		p.ParseMode = "Markdown"
	}
}

type sendPayload struct {
	ChatID          int64                 `json:"chat_id,omitempty"`
	MessageID       int64                 `json:"message_id,omitempty"`
	Text            string                `json:"text,omitempty"`
	ParseMode       string                `json:"parse_mode,omitempty"`
	ReplyMarkup     *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	CallbackQueryID string                `json:"callback_query_id,omitempty"`
	ShowAlert       bool                  `json:"show_alert,omitempty"`
}

// apiResponse mirrors the Bot API envelope.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after,omitempty"`
	} `json:"parameters,omitempty"`
}

// HTTPClient implements Client via the Bot API.
type HTTPClient struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPClient creates Bot API client with default timeout.
func NewHTTPClient(baseURL, token string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse telegram api url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("telegram api url must be absolute")
	}
	if token == "" {
		return nil, fmt.Errorf("telegram token must not be empty")
	}
	return &HTTPClient{
		baseURL: parsed,
		token:   token,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// SendMessage delivers a message to a chat.
func (c *HTTPClient) SendMessage(ctx context.Context, chatID int64, text string, opts ...SendOption) error {
	payload := sendPayload{ChatID: chatID, Text: text}
	for _, opt := range opts {
		opt(&payload)
	}
	return c.call(ctx, "sendMessage", payload)
}

// EditMessageText rewrites an already sent message in place.
func (c *HTTPClient) EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts ...SendOption) error {
	payload := sendPayload{ChatID: chatID, MessageID: messageID, Text: text}
	for _, opt := range opts {
		opt(&payload)
	}
	return c.call(ctx, "editMessageText", payload)
}

// AnswerCallbackQuery acknowledges a pressed inline button.
func (c *HTTPClient) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error {
	return c.call(ctx, "answerCallbackQuery", sendPayload{CallbackQueryID: callbackQueryID, Text: text, ShowAlert: showAlert})
}

func (c *HTTPClient) call(ctx context.Context, method string, payload sendPayload) error {
	endpoint := *c.baseURL
	endpoint.Path += "/bot" + c.token + "/" + method

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var data apiResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 5 * time.Second
		if data.Parameters != nil && data.Parameters.RetryAfter > 0 {
			retryAfter = time.Duration(data.Parameters.RetryAfter) * time.Second
		}
		return TooManyRequestsError{RetryAfter: retryAfter}
	}

	if !data.OK {
		c.logger.Error("telegram request failed",
			slog.String("method", method),
			slog.Int("status", resp.StatusCode),
			slog.String("description", data.Description),
		)
		return fmt.Errorf("telegram %s: %s", method, data.Description)
	}

	return nil
}
