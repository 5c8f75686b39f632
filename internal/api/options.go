package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/paydash/internal/core/activity"
)

// Policy holds the recovery engine's tunables.
type Policy struct {
	RefreshPath   string // token refresh endpoint, relative to the base URL
	AuthLoginPath string // credential login endpoint, relative to the base URL
	LoginPath     string // navigation target after a forced logout

	ServerRetries     int           // retries for 500/502/503/504
	ServerBackoffBase time.Duration // delay before the first 5xx retry, doubled each time
	NetworkRetries    int           // retries when no response arrives
	NetworkRetryDelay time.Duration // fixed delay between connectivity retries

	// MaxRateLimitRetries caps 429 re-dispatches per logical request.
	// Negative means unbounded.
	MaxRateLimitRetries int
	DefaultRetryAfter   int // seconds, used when Retry-After is missing or invalid

	RetryBase time.Duration // first SendWithRetry delay, doubled each attempt
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{
		RefreshPath:         "/auth/refresh",
		AuthLoginPath:       "/auth/login",
		LoginPath:           "/login",
		ServerRetries:       3,
		ServerBackoffBase:   time.Second,
		NetworkRetries:      2,
		NetworkRetryDelay:   2 * time.Second,
		MaxRateLimitRetries: 5,
		DefaultRetryAfter:   1,
		RetryBase:           time.Second,
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Option configures a Client.
type Option func(*Client)

// WithActivity sets the in-flight counter driving the loading signal.
func WithActivity(counter *activity.Counter) Option {
	return func(c *Client) {
		if counter != nil {
			c.activity = counter
		}
	}
}

// WithNotifier sets where user-facing failure messages go.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithNavigator sets the navigation capability used on forced logout.
func WithNavigator(n Navigator) Option {
	return func(c *Client) {
		if n != nil {
			c.navigator = n
		}
	}
}

// WithRecorder sets the journal receiving terminal failures.
func WithRecorder(r FailureRecorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithPolicy replaces the recovery policy.
func WithPolicy(p Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithSleep replaces the backoff sleeper.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// RequestOption adjusts a single logical request.
type RequestOption func(*RequestContext)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(rc *RequestContext) {
		rc.Header.Set(key, value)
	}
}

// WithContentType overrides the default application/json content type.
func WithContentType(contentType string) RequestOption {
	return WithHeader("Content-Type", contentType)
}
