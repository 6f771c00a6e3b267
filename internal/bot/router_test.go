package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arxiv-notifier/internal/domain/entity"
	"arxiv-notifier/internal/infra/arxiv"
	"arxiv-notifier/internal/render"
	"arxiv-notifier/internal/usecase/subscription"
)

// stubAPI records everything the router sends.
type stubAPI struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
}

func (a *stubAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.sent = append(a.sent, c)
	return tgbotapi.Message{}, a.sendErr
}

func (a *stubAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	a.requests = append(a.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (a *stubAPI) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, a.sent)
	msg, ok := a.sent[len(a.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "last sent is %T, want MessageConfig", a.sent[len(a.sent)-1])
	return msg
}

func (a *stubAPI) lastEdit(t *testing.T) tgbotapi.EditMessageTextConfig {
	t.Helper()
	require.NotEmpty(t, a.sent)
	edit, ok := a.sent[len(a.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok, "last sent is %T, want EditMessageTextConfig", a.sent[len(a.sent)-1])
	return edit
}

// memSubs is an in-memory SubscriptionRepository.
type memSubs struct {
	topics map[int64][]string
}

func newMemSubs() *memSubs { return &memSubs{topics: make(map[int64][]string)} }

func (r *memSubs) Add(ctx context.Context, userID int64, topic string) error {
	for _, t := range r.topics[userID] {
		if t == topic {
			return nil
		}
	}
	r.topics[userID] = append(r.topics[userID], topic)
	return nil
}

func (r *memSubs) Remove(ctx context.Context, userID int64, topic string) error {
	kept := r.topics[userID][:0]
	for _, t := range r.topics[userID] {
		if t != topic {
			kept = append(kept, t)
		}
	}
	r.topics[userID] = kept
	return nil
}

func (r *memSubs) ListTopics(ctx context.Context, userID int64) ([]string, error) {
	return append([]string(nil), r.topics[userID]...), nil
}

func (r *memSubs) ListAll(ctx context.Context) ([]*entity.Subscription, error) {
	return nil, nil
}

type stubSearcher struct {
	articles []*entity.Article
	err      error
	topic    string
}

func (s *stubSearcher) Search(ctx context.Context, topic string, maxResults int, recency time.Duration) ([]*entity.Article, error) {
	s.topic = topic
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

func newTestRouter(t *testing.T, api *stubAPI, repo *memSubs, searcher *stubSearcher) *Router {
	t.Helper()
	taxonomy, err := arxiv.LoadTaxonomy()
	require.NoError(t, err)
	cfg := Config{
		TestSearchWindow: 7 * 24 * time.Hour,
		TestMaxResults:   3,
		RenderOptions:    render.DefaultOptions(),
	}
	return NewRouter(api, subscription.NewService(repo), searcher, taxonomy, cfg, nil)
}

func commandMessage(userID, chatID int64, text string) *tgbotapi.Message {
	cmd := strings.Fields(text)[0]
	return &tgbotapi.Message{
		From:     &tgbotapi.User{ID: userID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func plainMessage(userID, chatID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
}

func callbackUpdate(userID, chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-1",
			From: &tgbotapi.User{ID: userID},
			Data: data,
			Message: &tgbotapi.Message{
				MessageID: 7,
				Chat:      &tgbotapi.Chat{ID: chatID},
			},
		},
	}
}

func TestRouter_Start(t *testing.T) {
	api := &stubAPI{}
	router := newTestRouter(t, api, newMemSubs(), &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/start")})

	msg := api.lastMessage(t)
	assert.Equal(t, int64(10), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)
	assert.Contains(t, msg.Text, "Welcome to the arXiv Notifier Bot")
	_, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	assert.True(t, ok, "welcome should carry the persistent keyboard")
}

func TestRouter_MenuText(t *testing.T) {
	api := &stubAPI{}
	router := newTestRouter(t, api, newMemSubs(), &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: plainMessage(1, 10, "MENU")})

	msg := api.lastMessage(t)
	assert.Contains(t, msg.Text, "Main Menu")
	_, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	assert.True(t, ok)
}

func TestRouter_IgnoresOtherText(t *testing.T) {
	api := &stubAPI{}
	router := newTestRouter(t, api, newMemSubs(), &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: plainMessage(1, 10, "hello there")})

	assert.Empty(t, api.sent)
}

func TestRouter_SubscribeKeyword(t *testing.T) {
	api := &stubAPI{}
	repo := newMemSubs()
	router := newTestRouter(t, api, repo, &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/subscribe Machine Learning")})

	assert.Equal(t, []string{"machine learning"}, repo.topics[1])
	msg := api.lastMessage(t)
	assert.Contains(t, msg.Text, "Successfully subscribed to keyword")
	assert.Contains(t, msg.Text, "Machine Learning")
}

func TestRouter_SubscribeCategory(t *testing.T) {
	api := &stubAPI{}
	repo := newMemSubs()
	router := newTestRouter(t, api, repo, &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/subscribe cs.AI")})

	assert.Equal(t, []string{"cs.ai"}, repo.topics[1])
	msg := api.lastMessage(t)
	assert.Contains(t, msg.Text, "Successfully subscribed to category")
	// The code span carries the topic unescaped; backslashes would render
	// literally inside it.
	assert.Contains(t, msg.Text, "`/test cs.ai`")
	assert.NotContains(t, msg.Text, "`/test cs\\.ai`")
}

func TestRouter_SubscribeEmptyTopic(t *testing.T) {
	api := &stubAPI{}
	repo := newMemSubs()
	router := newTestRouter(t, api, repo, &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/subscribe")})

	assert.Empty(t, repo.topics[1])
	assert.Contains(t, api.lastMessage(t).Text, "Please provide a topic to subscribe to")
}

func TestRouter_SubscribeDuplicate(t *testing.T) {
	api := &stubAPI{}
	repo := newMemSubs()
	repo.topics[1] = []string{"cs.ai"}
	router := newTestRouter(t, api, repo, &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/subscribe CS.AI")})

	assert.Equal(t, []string{"cs.ai"}, repo.topics[1])
	assert.Contains(t, api.lastMessage(t).Text, "already subscribed")
}

func TestRouter_Unsubscribe(t *testing.T) {
	api := &stubAPI{}
	repo := newMemSubs()
	repo.topics[1] = []string{"cs.ai", "quantum computing"}
	router := newTestRouter(t, api, repo, &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/unsubscribe cs.AI")})

	assert.Equal(t, []string{"quantum computing"}, repo.topics[1])
	assert.Contains(t, api.lastMessage(t).Text, "Unsubscribed from")
}

func TestRouter_MySubscriptions(t *testing.T) {
	api := &stubAPI{}
	repo := newMemSubs()
	repo.topics[1] = []string{"cs.ai", "machine learning"}
	router := newTestRouter(t, api, repo, &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/mysubscriptions")})

	msg := api.lastMessage(t)
	assert.Contains(t, msg.Text, "Your Current Subscriptions")
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	// One row per topic plus the back row.
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Equal(t, "unsub:cs.ai", *markup.InlineKeyboard[0][0].CallbackData)
	assert.Contains(t, markup.InlineKeyboard[0][0].Text, "cs.ai")
}

func TestRouter_MySubscriptionsEmpty(t *testing.T) {
	api := &stubAPI{}
	router := newTestRouter(t, api, newMemSubs(), &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/mysubscriptions")})

	assert.Contains(t, api.lastMessage(t).Text, "no active subscriptions")
}

func TestRouter_CategoriesKeyboardMarksSubscribed(t *testing.T) {
	api := &stubAPI{}
	repo := newMemSubs()
	repo.topics[1] = []string{"cs.ai"}
	router := newTestRouter(t, api, repo, &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/categories")})

	msg := api.lastMessage(t)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)

	first := markup.InlineKeyboard[0][0]
	assert.Contains(t, first.Text, "✅")
	assert.Equal(t, "unsub_cat:cs.AI", *first.CallbackData)

	second := markup.InlineKeyboard[1][0]
	assert.NotContains(t, second.Text, "✅")
	assert.True(t, strings.HasPrefix(*second.CallbackData, "sub_cat:"))
}

func TestRouter_TestSearch(t *testing.T) {
	api := &stubAPI{}
	searcher := &stubSearcher{articles: []*entity.Article{{
		ID:          "2608.00001v1",
		Title:       "A Paper",
		Authors:     []string{"A. Author"},
		Abstract:    "Some abstract.",
		Link:        "http://arxiv.org/abs/2608.00001v1",
		PublishedAt: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	}}}
	router := newTestRouter(t, api, newMemSubs(), searcher)

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/test machine learning")})

	assert.Equal(t, "machine learning", searcher.topic)
	require.Len(t, api.sent, 2)
	assert.Contains(t, api.sent[0].(tgbotapi.MessageConfig).Text, "Searching for recent papers")
	results := api.lastMessage(t)
	assert.Contains(t, results.Text, "A Paper")
	assert.Contains(t, results.Text, "Recent papers for")
	assert.True(t, results.DisableWebPagePreview)
}

func TestRouter_TestSearchNoResults(t *testing.T) {
	api := &stubAPI{}
	router := newTestRouter(t, api, newMemSubs(), &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/test obscure topic")})

	assert.Contains(t, api.lastMessage(t).Text, "No recent papers found")
	assert.Contains(t, api.lastMessage(t).Text, "7 days")
}

func TestRouter_TestSearchError(t *testing.T) {
	api := &stubAPI{}
	searcher := &stubSearcher{err: errors.New("arxiv down")}
	router := newTestRouter(t, api, newMemSubs(), searcher)

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/test machine learning")})

	assert.Contains(t, api.lastMessage(t).Text, "error searching for papers")
}

func TestRouter_TestSearchEmptyTopic(t *testing.T) {
	api := &stubAPI{}
	router := newTestRouter(t, api, newMemSubs(), &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/test")})

	assert.Contains(t, api.lastMessage(t).Text, "Please provide a topic to test")
}

func TestRouter_UnknownCommand(t *testing.T) {
	api := &stubAPI{}
	router := newTestRouter(t, api, newMemSubs(), &stubSearcher{})

	router.HandleUpdate(context.Background(), tgbotapi.Update{Message: commandMessage(1, 10, "/frobnicate")})

	assert.Contains(t, api.lastMessage(t).Text, "I don't know that command")
}

func TestRouter_CallbackSubscribeCategory(t *testing.T) {
	api := &stubAPI{}
	repo := newMemSubs()
	router := newTestRouter(t, api, repo, &stubSearcher{})

	router.HandleUpdate(context.Background(), callbackUpdate(1, 10, "sub_cat:cs.AI"))

	assert.Equal(t, []string{"cs.ai"}, repo.topics[1])
	require.Len(t, api.requests, 1, "callback must be answered")
	edit := api.lastEdit(t)
	assert.Equal(t, int64(10), edit.ChatID)
	assert.Equal(t, 7, edit.MessageID)
	// The refreshed keyboard shows the category as subscribed.
	first := edit.ReplyMarkup.InlineKeyboard[0][0]
	assert.Contains(t, first.Text, "✅")
}

func TestRouter_CallbackUnsubscribeTopic(t *testing.T) {
	api := &stubAPI{}
	repo := newMemSubs()
	repo.topics[1] = []string{"cs.ai", "machine learning"}
	router := newTestRouter(t, api, repo, &stubSearcher{})

	router.HandleUpdate(context.Background(), callbackUpdate(1, 10, "unsub:cs.ai"))

	assert.Equal(t, []string{"machine learning"}, repo.topics[1])
	edit := api.lastEdit(t)
	assert.Contains(t, edit.Text, "Your Current Subscriptions")
}

func TestRouter_CallbackMainMenu(t *testing.T) {
	api := &stubAPI{}
	router := newTestRouter(t, api, newMemSubs(), &stubSearcher{})

	router.HandleUpdate(context.Background(), callbackUpdate(1, 10, "main_menu"))

	edit := api.lastEdit(t)
	assert.Contains(t, edit.Text, "Main Menu")
}

func TestRouter_CallbackWithoutMessage(t *testing.T) {
	// Telegram sends callbacks with a nil Message for keyboards older than
	// 48 hours. The router must answer them without touching the chat.
	api := &stubAPI{}
	repo := newMemSubs()
	router := newTestRouter(t, api, repo, &stubSearcher{})

	update := tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb-stale",
			From: &tgbotapi.User{ID: 1},
			Data: "main_menu",
		},
	}
	router.HandleUpdate(context.Background(), update)

	assert.Empty(t, api.sent)
	assert.Len(t, api.requests, 1, "stale callback must still be answered")

	// Subscription callbacks without a Message are dropped before any write.
	update.CallbackQuery.Data = "sub_cat:cs.AI"
	router.HandleUpdate(context.Background(), update)
	assert.Empty(t, repo.topics[1])
}

func TestRouter_CallbackUnknownIsAnswered(t *testing.T) {
	api := &stubAPI{}
	router := newTestRouter(t, api, newMemSubs(), &stubSearcher{})

	router.HandleUpdate(context.Background(), callbackUpdate(1, 10, "bogus"))

	assert.Empty(t, api.sent)
	assert.Len(t, api.requests, 1)
}
