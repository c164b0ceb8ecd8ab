package out

import "context"

// RateLimiter throttles the mutating API endpoints.
type RateLimiter interface {
	// Allow reports whether one more request from key fits the budget.
	// Keys are caller-chosen, e.g. "ip:203.0.113.7".
	Allow(ctx context.Context, key string) bool
}
