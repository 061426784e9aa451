package test

import (
	"context"

	"github.com/avdeyev/reviewflow/internal/adapter/telegram"
)

// SentMessage records one SendMessage or EditMessageText invocation.
type SentMessage struct {
	ChatID    int64
	MessageID int64
	Text      string
	Edited    bool
}

// GatewayStub records outgoing Bot API traffic for assertions.
type GatewayStub struct {
	SendFn func(ctx context.Context, chatID int64, text string, opts ...telegram.SendOption) error

	Sent    []SentMessage
	Answers []string
	Err     error
}

// NewGatewayStub constructs an empty recorder.
func NewGatewayStub() *GatewayStub {
	return &GatewayStub{}
}

// SendMessage records the message and returns the configured error.
func (g *GatewayStub) SendMessage(ctx context.Context, chatID int64, text string, opts ...telegram.SendOption) error {
	if g.SendFn != nil {
		return g.SendFn(ctx, chatID, text, opts...)
	}
	if g.Err != nil {
		return g.Err
	}
	g.Sent = append(g.Sent, SentMessage{ChatID: chatID, Text: text})
	return nil
}

// EditMessageText records the edit and returns the configured error.
func (g *GatewayStub) EditMessageText(ctx context.Context, chatID, messageID int64, text string, opts ...telegram.SendOption) error {
	if g.Err != nil {
		return g.Err
	}
	g.Sent = append(g.Sent, SentMessage{ChatID: chatID, MessageID: messageID, Text: text, Edited: true})
	return nil
}

// AnswerCallbackQuery records the acknowledgement.
func (g *GatewayStub) AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string, showAlert bool) error {
	if g.Err != nil {
		return g.Err
	}
	g.Answers = append(g.Answers, callbackQueryID)
	return nil
}

// TextsTo returns texts of messages sent to the given chat.
func (g *GatewayStub) TextsTo(chatID int64) []string {
	var texts []string
	for _, msg := range g.Sent {
		if msg.ChatID == chatID {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}
