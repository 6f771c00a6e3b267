package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"arxiv-notifier/internal/infra/arxiv"
)

// persistentKeyboard is the reply keyboard with the single MENU button,
// attached to the welcome message and kept on screen.
func persistentKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(menuButtonText)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📚 Browse Categories", Callback{Kind: CallbackBrowseCategories}.Encode()),
			tgbotapi.NewInlineKeyboardButtonData("📋 My Subscriptions", Callback{Kind: CallbackMySubscriptions}.Encode()),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", Callback{Kind: CallbackHelp}.Encode()),
		),
	)
}

func backToMenuRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to Main Menu", Callback{Kind: CallbackMainMenu}.Encode()),
	)
}

func backToMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backToMenuRow())
}

// categoriesKeyboard lists every known category as a toggle button.
// Subscribed categories get a check mark and an unsubscribe action.
// The subscribed set is keyed by normalized (lowercase) topic.
func categoriesKeyboard(categories []arxiv.Category, subscribed map[string]bool) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(categories)+1)
	for _, cat := range categories {
		cb := Callback{Kind: CallbackSubscribeCategory, Topic: cat.Code}
		text := cat.Label + " (" + cat.Code + ")"
		if subscribed[strings.ToLower(cat.Code)] {
			cb.Kind = CallbackUnsubscribeCategory
			text = "✅ " + text
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(text, cb.Encode()),
		))
	}
	rows = append(rows, backToMenuRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// subscriptionsKeyboard gives each current topic an unsubscribe button.
func subscriptionsKeyboard(topics []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(topics)+1)
	for _, topic := range topics {
		cb := Callback{Kind: CallbackUnsubscribeTopic, Topic: topic}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑️ Unsubscribe: "+topic, cb.Encode()),
		))
	}
	rows = append(rows, backToMenuRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
