// Package api is the request pipeline every backend call goes through. It
// attaches the bearer token, tracks in-flight activity, and recovers from
// failures (token refresh, rate limiting, 5xx and connectivity retries)
// before handing a classified error back to the caller.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vietddude/paydash/internal/core/activity"
	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/infra/session"
	"github.com/vietddude/paydash/internal/infra/transport"
	"github.com/vietddude/paydash/internal/metrics"
)

// Response is a successful backend response.
type Response = transport.Response

// FailureRecorder receives every logical request that ends in a
// classified failure.
type FailureRecorder interface {
	Add(ctx context.Context, fr *domain.FailedRequest) error
}

// Requester is the surface the reactive wrappers depend on.
type Requester interface {
	Send(ctx context.Context, method, url string, body any, opts ...RequestOption) (*Response, error)
}

// RequestContext is the per-logical-request state. Retry counters live here
// and never outlast the request.
type RequestContext struct {
	ID        string
	Method    string
	URL       string
	Header    http.Header
	Body      []byte
	StartTime time.Time
	Attempts  int

	RetryCount          int // 5xx retries
	NetworkRetryCount   int
	RateLimitRetryCount int
	IsTokenRefreshRetry bool

	sentToken string // access token attached to the latest attempt
}

// Client is the resilient API client.
type Client struct {
	baseURL   string
	transport transport.Doer
	tokens    session.Store
	activity  *activity.Counter
	notifier  Notifier
	navigator Navigator
	recorder  FailureRecorder
	policy    Policy
	sleep     SleepFunc
	refreshes singleflight.Group
	log       *slog.Logger
}

var _ Requester = (*Client)(nil)

// New creates a client for baseURL.
func New(baseURL string, tr transport.Doer, tokens session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: tr,
		tokens:    tokens,
		activity:  activity.NewCounter(nil),
		notifier:  NotifierFunc(func(Notification) {}),
		navigator: NavigatorFunc(func(string) {}),
		policy:    DefaultPolicy(),
		sleep:     sleepContext,
		log:       slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Send(ctx, http.MethodGet, url, nil, opts...)
}

// Post sends a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, url string, body any, opts ...RequestOption) (*Response, error) {
	return c.Send(ctx, http.MethodPost, url, body, opts...)
}

// Put sends a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, url string, body any, opts ...RequestOption) (*Response, error) {
	return c.Send(ctx, http.MethodPut, url, body, opts...)
}

// Patch sends a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, url string, body any, opts ...RequestOption) (*Response, error) {
	return c.Send(ctx, http.MethodPatch, url, body, opts...)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Send(ctx, http.MethodDelete, url, nil, opts...)
}

// SetAuthToken stores the access token used for subsequent requests.
func (c *Client) SetAuthToken(token string) {
	c.tokens.SetAccessToken(token)
}

// RemoveAuthToken drops the stored access token.
func (c *Client) RemoveAuthToken() {
	c.tokens.SetAccessToken("")
}

// Login exchanges credentials for a token pair and stores it.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.TokenPair, error) {
	resp, err := c.Post(ctx, c.policy.AuthLoginPath, creds)
	if err != nil {
		return domain.TokenPair{}, err
	}

	var pair domain.TokenPair
	if err := resp.Decode(&pair); err != nil {
		return domain.TokenPair{}, fmt.Errorf("login: %w", err)
	}
	if pair.AccessToken == "" {
		return domain.TokenPair{}, fmt.Errorf("login: response carries no access token")
	}

	c.tokens.SetAccessToken(pair.AccessToken)
	c.tokens.SetRefreshToken(pair.RefreshToken)
	return pair, nil
}

// Logout clears the session.
func (c *Client) Logout() {
	c.tokens.Clear()
}

// Send runs one logical request through the pipeline. On success the
// response is returned unchanged; otherwise the error is an *Error, or
// ctx.Err() when the caller gave up.
func (c *Client) Send(
	ctx context.Context,
	method, url string,
	body any,
	opts ...RequestOption,
) (*Response, error) {
	rc, err := c.newRequestContext(method, url, body, opts)
	if err != nil {
		return nil, c.reject(ctx, rc, &Error{
			Class:   domain.ClassRequestSetupError,
			Message: msgSetup,
			Err:     err,
		})
	}
	return c.execute(ctx, rc)
}

// execute dispatches attempts one after another until the recovery engine
// stops asking for another one.
func (c *Client) execute(ctx context.Context, rc *RequestContext) (*Response, error) {
	for {
		resp, err := c.dispatch(ctx, rc)
		if err == nil {
			return resp, nil
		}

		again, rerr := c.recover(ctx, rc, err)
		if !again {
			return nil, rerr
		}
	}
}

// dispatch performs one physical attempt. The activity counter is released
// before the recovery engine looks at the outcome.
func (c *Client) dispatch(ctx context.Context, rc *RequestContext) (*Response, error) {
	c.activity.Begin()
	metrics.InflightRequests.Inc()
	defer func() {
		metrics.InflightRequests.Dec()
		c.activity.End()
	}()

	rc.Attempts++
	rc.StartTime = time.Now()

	header := rc.Header.Clone()
	rc.sentToken = c.tokens.AccessToken()
	if rc.sentToken != "" {
		header.Set("Authorization", "Bearer "+rc.sentToken)
	}
	header.Set("X-Request-ID", rc.ID)

	resp, err := c.transport.Do(ctx, &transport.Request{
		Method: rc.Method,
		URL:    rc.URL,
		Header: header,
		Body:   rc.Body,
	})

	latency := time.Since(rc.StartTime)
	metrics.HTTPLatency.WithLabelValues(rc.Method).Observe(latency.Seconds())
	metrics.HTTPAttemptsTotal.WithLabelValues(rc.Method, metrics.Outcome(statusOf(resp, err))).Inc()
	c.log.Debug("HTTP attempt",
		"request_id", rc.ID,
		"method", rc.Method,
		"url", rc.URL,
		"attempt", rc.Attempts,
		"status", statusOf(resp, err),
		"latency", latency,
	)

	return resp, err
}

func (c *Client) newRequestContext(
	method, url string,
	body any,
	opts []RequestOption,
) (*RequestContext, error) {
	rc := &RequestContext{
		ID:     uuid.NewString(),
		Method: strings.ToUpper(method),
		URL:    c.resolve(url),
		Header: http.Header{},
	}
	rc.Header.Set("Content-Type", "application/json")
	rc.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(rc)
	}

	data, err := encodeBody(body)
	if err != nil {
		return rc, err
	}
	rc.Body = data
	return rc, nil
}

// resolve joins path onto the base URL unless it is already absolute.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if c.baseURL == "" {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	case string:
		return []byte(b), nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		return data, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return data, nil
	}
}

func statusOf(resp *Response, err error) int {
	if resp != nil {
		return resp.StatusCode
	}
	var f *transport.Failure
	if errors.As(err, &f) {
		return f.StatusCode()
	}
	return 0
}
