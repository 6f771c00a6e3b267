package telegram

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter implements token bucket rate limiting for outgoing messages.
// Telegram rejects bots that exceed roughly 30 messages per second overall,
// so deliveries block here instead of burning API quota on 429 responses.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a RateLimiter with the specified sustained rate and
// burst capacity.
//
// Example:
//
//	limiter := NewRateLimiter(25.0, 5)  // 25 msg/s with burst of 5
func NewRateLimiter(messagesPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), burst),
	}
}

// Allow blocks until a token is available or the context is canceled.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
