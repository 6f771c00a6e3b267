// Package arxiv implements the search provider adapter for the arXiv export API.
// It queries the Atom endpoint with gofeed and applies rate limiting, retry,
// and circuit breaking so a misbehaving API cannot stall the poll loop.
package arxiv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"arxiv-notifier/internal/domain/entity"
	"arxiv-notifier/internal/resilience/circuitbreaker"
	"arxiv-notifier/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the arXiv API query endpoint.
const DefaultBaseURL = "http://export.arxiv.org/api/query"

const userAgent = "arxiv-notifier-bot"

// Client queries the arXiv export API for articles matching a topic.
// The API asks clients for no more than one request every three seconds,
// which the built-in rate limiter enforces across concurrent topic searches.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	taxonomy       *Taxonomy
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewClient creates a Client against the public arXiv API.
func NewClient(httpClient *http.Client, taxonomy *Taxonomy) *Client {
	return NewClientWithBaseURL(httpClient, taxonomy, DefaultBaseURL)
}

// NewClientWithBaseURL creates a Client against a custom endpoint.
// Used by tests to point at a local stub server.
func NewClientWithBaseURL(httpClient *http.Client, taxonomy *Taxonomy, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		taxonomy:       taxonomy,
		limiter:        rate.NewLimiter(rate.Every(3*time.Second), 1),
		circuitBreaker: circuitbreaker.New(circuitbreaker.SearchAPIConfig()),
		retryConfig:    retry.SearchAPIConfig(),
	}
}

// Search returns articles matching the topic that were published within the
// recency window, newest first. The result is capped at maxResults entries.
func (c *Client) Search(ctx context.Context, topic string, maxResults int, recency time.Duration) ([]*entity.Article, error) {
	var articles []*entity.Article

	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doSearch(ctx, topic, maxResults, recency)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("arxiv search circuit breaker open, request rejected",
					slog.String("service", "arxiv-search"),
					slog.String("topic", topic),
					slog.String("state", c.circuitBreaker.State().String()))
				return err
			}
			return err
		}

		articles = cbResult.([]*entity.Article)
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return articles, nil
}

// doSearch performs one API call without retry or circuit breaker.
func (c *Client) doSearch(ctx context.Context, topic string, maxResults int, recency time.Duration) ([]*entity.Article, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("search_query", c.taxonomy.BuildSearchQuery(topic))
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("arxiv API returned status %d", resp.StatusCode),
		}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	cutoff := time.Now().UTC().Add(-recency)

	articles := make([]*entity.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		article := itemToArticle(item)

		// Results arrive newest first, so the first stale entry ends the scan.
		if !article.PublishedAt.IsZero() && article.PublishedAt.Before(cutoff) {
			break
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// itemToArticle maps one Atom entry onto the domain article.
func itemToArticle(item *gofeed.Item) *entity.Article {
	article := &entity.Article{
		ID:         extractID(item.GUID),
		Title:      collapseWhitespace(item.Title),
		Abstract:   strings.TrimSpace(item.Description),
		Link:       item.Link,
		Categories: item.Categories,
	}

	if item.PublishedParsed != nil {
		article.PublishedAt = item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		article.UpdatedAt = item.UpdatedParsed.UTC()
	}

	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			article.Authors = append(article.Authors, author.Name)
		}
	}

	article.PrimaryCategory = primaryCategory(item)
	return article
}

// extractID turns an Atom entry ID like "http://arxiv.org/abs/2401.12345v2"
// into the stable article identifier "2401.12345v2".
func extractID(guid string) string {
	if idx := strings.LastIndex(guid, "/abs/"); idx >= 0 {
		return guid[idx+len("/abs/"):]
	}
	return guid
}

// primaryCategory reads the arxiv:primary_category extension, falling back
// to the first plain category when the extension is absent.
func primaryCategory(item *gofeed.Item) string {
	if ns, ok := item.Extensions["arxiv"]; ok {
		if exts, ok := ns["primary_category"]; ok && len(exts) > 0 {
			if term, ok := exts[0].Attrs["term"]; ok && term != "" {
				return term
			}
		}
	}
	if len(item.Categories) > 0 {
		return item.Categories[0]
	}
	return ""
}

// collapseWhitespace normalizes the multi-line titles the API produces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
