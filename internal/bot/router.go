// Package bot implements the Telegram command surface: slash commands,
// the persistent MENU keyboard, and inline-keyboard callbacks. Callback
// data is decoded once at the update boundary into a Callback value and
// matched exhaustively; handlers never branch on raw strings.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"arxiv-notifier/internal/domain/entity"
	"arxiv-notifier/internal/infra/arxiv"
	"arxiv-notifier/internal/observability/metrics"
	"arxiv-notifier/internal/render"
	"arxiv-notifier/internal/usecase/subscription"
)

// API is the slice of the Telegram client the router needs.
// *tgbotapi.BotAPI satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Searcher runs the ad-hoc search behind /test. It is the same contract the
// poll engine uses, pointed at the same arXiv client.
type Searcher interface {
	Search(ctx context.Context, topic string, maxResults int, recency time.Duration) ([]*entity.Article, error)
}

// Config holds the command-surface tunables.
type Config struct {
	TestSearchWindow  time.Duration // Recency window for /test searches
	TestMaxResults    int           // Result cap for /test searches
	EnableLinkPreview bool
	RenderOptions     render.Options
}

// Router dispatches Telegram updates to command and callback handlers.
type Router struct {
	api      API
	subs     subscription.Service
	searcher Searcher
	taxonomy *arxiv.Taxonomy
	cfg      Config
	logger   *slog.Logger
}

// NewRouter creates a Router with the provided collaborators.
func NewRouter(
	api API,
	subs subscription.Service,
	searcher Searcher,
	taxonomy *arxiv.Taxonomy,
	cfg Config,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		api:      api,
		subs:     subs,
		searcher: searcher,
		taxonomy: taxonomy,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run consumes updates until the context is cancelled or the channel closes.
func (r *Router) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			r.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate routes one update. Unknown update types are ignored.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		r.handleMessage(ctx, update.Message)
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		if strings.TrimSpace(msg.Text) == menuButtonText {
			r.sendMainMenu(msg.Chat.ID)
		}
		return
	}

	command := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	switch command {
	case "start":
		r.handleStart(msg.Chat.ID)
	case "help":
		r.reply(msg.Chat.ID, helpMessage, backToMenuKeyboard())
		metrics.RecordCommand("help", "success")
	case "menu":
		r.sendMainMenu(msg.Chat.ID)
	case "subscribe":
		r.handleSubscribe(ctx, msg.From.ID, msg.Chat.ID, args)
	case "unsubscribe":
		r.handleUnsubscribe(ctx, msg.From.ID, msg.Chat.ID, args)
	case "mysubscriptions":
		r.handleMySubscriptions(ctx, msg.From.ID, msg.Chat.ID)
	case "categories":
		r.handleCategories(ctx, msg.From.ID, msg.Chat.ID)
	case "test":
		r.handleTest(ctx, msg.Chat.ID, args)
	default:
		r.reply(msg.Chat.ID, unknownCommandMessage, nil)
		metrics.RecordCommand(command, "unknown")
	}
}

func (r *Router) handleStart(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, welcomeMessage)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyMarkup = persistentKeyboard()
	if _, err := r.api.Send(msg); err != nil {
		r.logger.Warn("failed to send welcome message",
			slog.Int64("chat_id", chatID),
			slog.Any("error", err))
		metrics.RecordCommand("start", "error")
		return
	}
	metrics.RecordCommand("start", "success")
}

func (r *Router) sendMainMenu(chatID int64) {
	r.reply(chatID, mainMenuMessage, mainMenuKeyboard())
	metrics.RecordCommand("menu", "success")
}

func (r *Router) handleSubscribe(ctx context.Context, userID, chatID int64, topic string) {
	if topic == "" {
		r.reply(chatID, subscribeUsageMessage, nil)
		metrics.RecordCommand("subscribe", "rejected")
		return
	}

	already, err := r.subs.IsSubscribed(ctx, userID, topic)
	if err != nil {
		r.logger.Error("subscribe failed",
			slog.Int64("user_id", userID),
			slog.String("topic", topic),
			slog.Any("error", err))
		r.reply(chatID, searchErrorMessage, nil)
		metrics.RecordCommand("subscribe", "error")
		return
	}
	if already {
		r.reply(chatID, fmt.Sprintf("You are already subscribed to *%s*\\.", render.EscapeMarkdownV2(topic)), nil)
		metrics.RecordCommand("subscribe", "duplicate")
		return
	}

	normalized, err := r.subs.Subscribe(ctx, userID, topic)
	if err != nil {
		r.logger.Warn("subscribe rejected",
			slog.Int64("user_id", userID),
			slog.String("topic", topic),
			slog.Any("error", err))
		r.reply(chatID, subscribeUsageMessage, nil)
		metrics.RecordCommand("subscribe", "rejected")
		return
	}

	topicType := "keyword"
	if r.taxonomy != nil && r.taxonomy.IsCategory(normalized) {
		topicType = "category"
	}
	r.reply(chatID, fmt.Sprintf(
		"✅ Successfully subscribed to %s: *%s*\n\n"+
			"You'll receive notifications when new papers are published\\!\n"+
			"Use `/test %s` to see what papers you'd get\\.",
		topicType, render.EscapeMarkdownV2(topic), render.EscapeMarkdownV2Code(normalized)), nil)
	metrics.RecordCommand("subscribe", "success")
}

func (r *Router) handleUnsubscribe(ctx context.Context, userID, chatID int64, topic string) {
	if topic == "" {
		r.reply(chatID, unsubscribeUsageMessage, nil)
		metrics.RecordCommand("unsubscribe", "rejected")
		return
	}

	if _, err := r.subs.Unsubscribe(ctx, userID, topic); err != nil {
		r.logger.Warn("unsubscribe failed",
			slog.Int64("user_id", userID),
			slog.String("topic", topic),
			slog.Any("error", err))
		r.reply(chatID, unsubscribeUsageMessage, nil)
		metrics.RecordCommand("unsubscribe", "error")
		return
	}
	r.reply(chatID, fmt.Sprintf("🗑️ Unsubscribed from *%s*\\.", render.EscapeMarkdownV2(topic)), nil)
	metrics.RecordCommand("unsubscribe", "success")
}

func (r *Router) handleMySubscriptions(ctx context.Context, userID, chatID int64) {
	topics, err := r.subs.ListTopics(ctx, userID)
	if err != nil {
		r.logger.Error("list subscriptions failed",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		r.reply(chatID, searchErrorMessage, nil)
		metrics.RecordCommand("mysubscriptions", "error")
		return
	}

	if len(topics) == 0 {
		r.reply(chatID, noSubscriptionsMessage, backToMenuKeyboard())
	} else {
		r.reply(chatID, "📋 *Your Current Subscriptions:*\n", subscriptionsKeyboard(topics))
	}
	metrics.RecordCommand("mysubscriptions", "success")
}

func (r *Router) handleCategories(ctx context.Context, userID, chatID int64) {
	markup, err := r.categoriesMarkup(ctx, userID)
	if err != nil {
		r.logger.Error("list categories failed",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		r.reply(chatID, searchErrorMessage, nil)
		metrics.RecordCommand("categories", "error")
		return
	}
	r.reply(chatID, categoriesPromptMessage, markup)
	metrics.RecordCommand("categories", "success")
}

func (r *Router) categoriesMarkup(ctx context.Context, userID int64) (tgbotapi.InlineKeyboardMarkup, error) {
	topics, err := r.subs.ListTopics(ctx, userID)
	if err != nil {
		return tgbotapi.InlineKeyboardMarkup{}, err
	}
	subscribed := make(map[string]bool, len(topics))
	for _, t := range topics {
		subscribed[t] = true
	}
	return categoriesKeyboard(r.taxonomy.Categories(), subscribed), nil
}

func (r *Router) handleTest(ctx context.Context, chatID int64, topic string) {
	if topic == "" {
		r.reply(chatID, testUsageMessage, nil)
		metrics.RecordCommand("test", "rejected")
		return
	}

	escaped := render.EscapeMarkdownV2(topic)
	r.reply(chatID, fmt.Sprintf("🔍 Searching for recent papers on *%s*\\.\\.\\.", escaped), nil)

	articles, err := r.searcher.Search(ctx, topic, r.cfg.TestMaxResults, r.cfg.TestSearchWindow)
	if err != nil {
		r.logger.Error("test search failed",
			slog.String("topic", topic),
			slog.Any("error", err))
		r.reply(chatID, searchErrorMessage, nil)
		metrics.RecordCommand("test", "error")
		return
	}

	if len(articles) == 0 {
		days := int(r.cfg.TestSearchWindow.Hours() / 24)
		r.reply(chatID, fmt.Sprintf(
			"No recent papers found for *%s* in the last %d days\\.\n"+
				"Try a different topic or check if it's a valid arXiv category\\.",
			escaped, days), nil)
		metrics.RecordCommand("test", "success")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📄 *Recent papers for '%s':*\n\n", escaped)
	for i, article := range articles {
		b.WriteString(render.Article(article, i+1, r.cfg.RenderOptions))
		b.WriteString("\n" + strings.Repeat("─", 50) + "\n\n")
	}

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = !r.cfg.EnableLinkPreview
	if _, err := r.api.Send(msg); err != nil {
		r.logger.Warn("failed to send test results",
			slog.Int64("chat_id", chatID),
			slog.Any("error", err))
		metrics.RecordCommand("test", "error")
		return
	}
	metrics.RecordCommand("test", "success")
}

func (r *Router) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	cb, err := ParseCallback(query.Data)
	if err != nil {
		r.logger.Warn("unparseable callback",
			slog.String("data", query.Data),
			slog.Any("error", err))
		r.answerCallback(query.ID, "")
		return
	}

	// Telegram omits Message for callbacks on messages older than 48 hours
	// and for inline-mode messages. There is nothing left to edit then.
	if query.Message == nil {
		r.answerCallback(query.ID, "")
		return
	}

	userID := query.From.ID
	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID

	switch cb.Kind {
	case CallbackMainMenu:
		r.answerCallback(query.ID, "")
		r.edit(chatID, messageID, mainMenuMessage, mainMenuKeyboard())

	case CallbackHelp:
		r.answerCallback(query.ID, "")
		r.edit(chatID, messageID, helpMessage, backToMenuKeyboard())

	case CallbackBrowseCategories:
		r.answerCallback(query.ID, "")
		r.editCategories(ctx, userID, chatID, messageID)

	case CallbackMySubscriptions:
		r.answerCallback(query.ID, "")
		r.editMySubscriptions(ctx, userID, chatID, messageID)

	case CallbackSubscribeCategory:
		if _, err := r.subs.Subscribe(ctx, userID, cb.Topic); err != nil {
			r.logger.Warn("callback subscribe failed",
				slog.Int64("user_id", userID),
				slog.String("topic", cb.Topic),
				slog.Any("error", err))
		}
		r.answerCallback(query.ID, "✅ Subscribed to "+cb.Topic)
		r.editCategories(ctx, userID, chatID, messageID)

	case CallbackUnsubscribeCategory:
		if _, err := r.subs.Unsubscribe(ctx, userID, cb.Topic); err != nil {
			r.logger.Warn("callback unsubscribe failed",
				slog.Int64("user_id", userID),
				slog.String("topic", cb.Topic),
				slog.Any("error", err))
		}
		r.answerCallback(query.ID, "✅ Unsubscribed from "+cb.Topic)
		r.editCategories(ctx, userID, chatID, messageID)

	case CallbackUnsubscribeTopic:
		if _, err := r.subs.Unsubscribe(ctx, userID, cb.Topic); err != nil {
			r.logger.Warn("callback unsubscribe failed",
				slog.Int64("user_id", userID),
				slog.String("topic", cb.Topic),
				slog.Any("error", err))
		}
		r.answerCallback(query.ID, "✅ Unsubscribed from "+cb.Topic)
		r.editMySubscriptions(ctx, userID, chatID, messageID)
	}
}

func (r *Router) editCategories(ctx context.Context, userID, chatID int64, messageID int) {
	markup, err := r.categoriesMarkup(ctx, userID)
	if err != nil {
		r.logger.Error("list categories failed",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return
	}
	r.edit(chatID, messageID, categoriesPromptMessage, markup)
}

func (r *Router) editMySubscriptions(ctx context.Context, userID, chatID int64, messageID int) {
	topics, err := r.subs.ListTopics(ctx, userID)
	if err != nil {
		r.logger.Error("list subscriptions failed",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		return
	}
	if len(topics) == 0 {
		r.edit(chatID, messageID, noSubscriptionsMessage, backToMenuKeyboard())
		return
	}
	r.edit(chatID, messageID, "📋 *Your Current Subscriptions:*\n", subscriptionsKeyboard(topics))
}

// reply sends a new MarkdownV2 message, optionally with a keyboard.
func (r *Router) reply(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := r.api.Send(msg); err != nil {
		r.logger.Warn("failed to send message",
			slog.Int64("chat_id", chatID),
			slog.Any("error", err))
	}
}

// edit rewrites an existing message in place, used by callback handlers so
// the menu navigates within one message instead of stacking new ones.
func (r *Router) edit(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := r.api.Send(edit); err != nil {
		r.logger.Warn("failed to edit message",
			slog.Int64("chat_id", chatID),
			slog.Int("message_id", messageID),
			slog.Any("error", err))
	}
}

func (r *Router) answerCallback(callbackID, text string) {
	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := r.api.Request(cb); err != nil {
		r.logger.Warn("failed to answer callback",
			slog.String("callback_id", callbackID),
			slog.Any("error", err))
	}
}
