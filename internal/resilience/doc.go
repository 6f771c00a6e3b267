// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes implementations of circuit breakers and retry logic to keep the
// polling loop healthy when the arXiv API or the database misbehaves.
//
// The package supports:
//   - Circuit breakers for external API calls (arXiv export API)
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.SearchAPIConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callExternalService()
//	})
//
//	retryConfig := retry.DefaultConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performOperation()
//	})
package resilience
