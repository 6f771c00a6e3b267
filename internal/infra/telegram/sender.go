// Package telegram implements the delivery channel on top of the Telegram Bot API.
// It wraps outgoing messages with MarkdownV2 formatting and client-side rate limiting.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the subset of *tgbotapi.BotAPI the sender needs.
// Narrowed to an interface so tests can substitute a stub.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sender delivers rendered messages to individual users.
type Sender struct {
	api               BotAPI
	limiter           *RateLimiter
	enableLinkPreview bool
}

// NewSender creates a Sender over an authorized Bot API client.
// enableLinkPreview controls whether Telegram unfurls the article link
// below the message.
func NewSender(api BotAPI, enableLinkPreview bool) *Sender {
	return &Sender{
		api:               api,
		limiter:           NewRateLimiter(25.0, 5),
		enableLinkPreview: enableLinkPreview,
	}
}

// Send delivers one MarkdownV2 message to the user.
// It blocks on the rate limiter first, so a burst of notifications from a
// poll tick drains at a Telegram-acceptable pace.
func (s *Sender) Send(ctx context.Context, userID int64, text string) error {
	if err := s.limiter.Allow(ctx); err != nil {
		return fmt.Errorf("Send: %w", err)
	}

	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = !s.enableLinkPreview

	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("Send: %w", classifyError(err))
	}
	return nil
}
