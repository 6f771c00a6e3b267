package telegram

import (
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sentinel errors for delivery failures the caller may want to distinguish.
var (
	// ErrBlocked indicates the recipient blocked the bot or deleted their chat.
	// Deliveries to that user keep failing until they re-enable the bot.
	ErrBlocked = errors.New("recipient has blocked the bot")

	// ErrRateLimited indicates Telegram rejected the message with 429.
	ErrRateLimited = errors.New("telegram rate limit exceeded")
)

// classifyError maps a Bot API error onto the package sentinels, preserving
// the original error for logging.
func classifyError(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.Code {
	case 403:
		return fmt.Errorf("%w: %s", ErrBlocked, apiErr.Message)
	case 429:
		return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
	default:
		return err
	}
}
