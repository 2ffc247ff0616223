package httpcache

import (
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// ResilienceConfig holds the resilience policies applied to origin fetches.
// Both policies are optional; a nil config disables resilience entirely.
// The cache layer itself adds no retry semantics: policies apply only to
// the network call, and a response obtained through a retry flows through
// the same storability assessment as any other.
type ResilienceConfig struct {
	// RetryPolicy configures retry behavior using failsafe-go.
	// If nil, retry is disabled.
	RetryPolicy retrypolicy.RetryPolicy[*http.Response]

	// CircuitBreaker configures circuit breaker behavior using failsafe-go.
	// If nil, the circuit breaker is disabled.
	CircuitBreaker circuitbreaker.CircuitBreaker[*http.Response]
}

// RetryPolicyBuilder returns a retry policy builder preconfigured for HTTP
// origin fetches: retries on network errors and 5xx responses, at most 3
// times, with exponential backoff from 100ms to 10s. Customize further
// before calling Build().
func RetryPolicyBuilder() retrypolicy.Builder[*http.Response] {
	return retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(r *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && r.StatusCode >= 500
		}).
		WithMaxRetries(3).
		WithBackoff(100*time.Millisecond, 10*time.Second)
}

// CircuitBreakerBuilder returns a circuit breaker builder preconfigured for
// HTTP origin fetches: opens after 5 consecutive network errors or 5xx
// responses, half-opens after 60s, closes after 2 successes.
func CircuitBreakerBuilder() circuitbreaker.Builder[*http.Response] {
	return circuitbreaker.NewBuilder[*http.Response]().
		HandleIf(func(r *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && r.StatusCode >= 500
		}).
		WithFailureThreshold(5).
		WithSuccessThreshold(2).
		WithDelay(60 * time.Second)
}

// executeWithResilience runs fn under the configured resilience policies,
// or directly when none are configured.
func (t *Transport) executeWithResilience(fn func() (*http.Response, error)) (*http.Response, error) {
	if t.resilience == nil {
		return fn()
	}

	var policies []failsafe.Policy[*http.Response]
	if t.resilience.RetryPolicy != nil {
		policies = append(policies, t.resilience.RetryPolicy)
	}
	if t.resilience.CircuitBreaker != nil {
		policies = append(policies, t.resilience.CircuitBreaker)
	}
	if len(policies) == 0 {
		return fn()
	}

	return failsafe.With(policies...).Get(fn)
}
