package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/infra/transport"
	"github.com/vietddude/paydash/internal/metrics"
)

// recover decides what happens after a failed attempt. It returns true
// when the request must be dispatched again; otherwise the returned error
// is the final outcome.
func (c *Client) recover(ctx context.Context, rc *RequestContext, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	var f *transport.Failure
	if !errors.As(err, &f) {
		return false, c.reject(ctx, rc, &Error{Class: domain.ClassUnknown, Message: msgUnknown, Err: err})
	}

	switch f.Kind {
	case transport.KindSetup:
		return false, c.reject(ctx, rc, &Error{
			Class:   domain.ClassRequestSetupError,
			Message: msgSetup,
			Err:     f,
		})
	case transport.KindNetwork:
		return c.recoverNetwork(ctx, rc, f)
	}

	switch code := f.StatusCode(); code {
	case http.StatusUnauthorized:
		return c.recoverUnauthorized(ctx, rc, f)
	case http.StatusForbidden:
		return false, c.reject(ctx, rc, statusError(domain.ClassForbidden, msgForbidden, f))
	case http.StatusNotFound:
		return false, c.reject(ctx, rc, statusError(domain.ClassNotFound, msgNotFound, f))
	case http.StatusUnprocessableEntity:
		fields := parseValidationErrors(f.Response.Body)
		e := statusError(domain.ClassValidationFailed, flattenValidation(fields), f)
		e.ValidationErrors = fields
		return false, c.reject(ctx, rc, e)
	case http.StatusTooManyRequests:
		return c.recoverRateLimited(ctx, rc, f)
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return c.recoverServer(ctx, rc, f)
	default:
		msg := bodyMessage(f.Response.Body)
		if msg == "" {
			msg = msgUnknown
		}
		return false, c.reject(ctx, rc, statusError(domain.ClassUnknown, msg, f))
	}
}

// recoverUnauthorized refreshes the session once per logical request.
func (c *Client) recoverUnauthorized(ctx context.Context, rc *RequestContext, f *transport.Failure) (bool, error) {
	if !rc.IsTokenRefreshRetry && rc.URL != c.resolve(c.policy.RefreshPath) {
		rc.IsTokenRefreshRetry = true

		// Another request already rotated the token this attempt was sent with.
		if current := c.tokens.AccessToken(); current != "" && current != rc.sentToken {
			metrics.RetriesTotal.WithLabelValues("token_refresh").Inc()
			return true, nil
		}

		if c.tokens.RefreshToken() != "" {
			err := c.refresh(ctx, rc.sentToken)
			if err == nil {
				metrics.RetriesTotal.WithLabelValues("token_refresh").Inc()
				return true, nil
			}
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			c.log.Warn("Token refresh failed", "request_id", rc.ID, "error", err)
		}
	}

	c.forceLogout()
	return false, c.reject(ctx, rc, statusError(domain.ClassUnauthorized, msgUnauthorized, f))
}

func (c *Client) recoverRateLimited(ctx context.Context, rc *RequestContext, f *transport.Failure) (bool, error) {
	if limit := c.policy.MaxRateLimitRetries; limit >= 0 && rc.RateLimitRetryCount >= limit {
		return false, c.reject(ctx, rc, statusError(domain.ClassRateLimited, msgRateLimited, f))
	}

	secs := retryAfterSeconds(f.Response.Header, c.policy.DefaultRetryAfter)
	rc.RateLimitRetryCount++
	c.notify(Notification{
		Level:   LevelWarning,
		Class:   domain.ClassRateLimited,
		Message: fmt.Sprintf("Too many requests. Retrying in %d seconds.", secs),
	})
	return c.wait(ctx, rc, time.Duration(secs)*time.Second, "rate_limited")
}

func (c *Client) recoverServer(ctx context.Context, rc *RequestContext, f *transport.Failure) (bool, error) {
	if rc.RetryCount >= c.policy.ServerRetries {
		return false, c.reject(ctx, rc, statusError(domain.ClassServerError, msgServer, f))
	}

	delay := c.policy.ServerBackoffBase * time.Duration(1<<rc.RetryCount)
	rc.RetryCount++
	return c.wait(ctx, rc, delay, "server_error")
}

func (c *Client) recoverNetwork(ctx context.Context, rc *RequestContext, f *transport.Failure) (bool, error) {
	if rc.NetworkRetryCount >= c.policy.NetworkRetries {
		return false, c.reject(ctx, rc, &Error{
			Class:   domain.ClassNetworkError,
			Message: msgNetwork,
			Err:     f,
		})
	}

	rc.NetworkRetryCount++
	return c.wait(ctx, rc, c.policy.NetworkRetryDelay, "network")
}

// wait sleeps before the next attempt of the same logical request.
func (c *Client) wait(ctx context.Context, rc *RequestContext, delay time.Duration, reason string) (bool, error) {
	c.log.Info("Retrying request",
		"request_id", rc.ID,
		"method", rc.Method,
		"url", rc.URL,
		"reason", reason,
		"delay", delay,
	)
	if err := c.sleep(ctx, delay); err != nil {
		return false, err
	}
	metrics.RetriesTotal.WithLabelValues(reason).Inc()
	return true, nil
}

func (c *Client) forceLogout() {
	c.tokens.Clear()
	metrics.ForcedLogoutsTotal.Inc()
	c.log.Warn("Session cleared, redirecting to login", "path", c.policy.LoginPath)
	c.navigator.NavigateTo(c.policy.LoginPath)
}

// reject finalises a classified failure: metrics, notification, journal.
func (c *Client) reject(ctx context.Context, rc *RequestContext, e *Error) error {
	e.RequestID = rc.ID
	if e.Response != nil {
		e.StatusCode = e.Response.StatusCode
	}

	metrics.FailuresTotal.WithLabelValues(string(e.Class)).Inc()
	c.log.Warn("Request failed",
		"request_id", rc.ID,
		"method", rc.Method,
		"url", rc.URL,
		"class", e.Class,
		"status", e.StatusCode,
		"attempts", rc.Attempts,
		"error", e.Err,
	)
	c.notify(Notification{Level: LevelError, Class: e.Class, Message: e.Message})
	c.record(ctx, rc, e)
	return e
}

func (c *Client) notify(n Notification) {
	c.notifier.Notify(n)
}

func (c *Client) record(ctx context.Context, rc *RequestContext, e *Error) {
	if c.recorder == nil {
		return
	}

	fr := &domain.FailedRequest{
		ID:               uuid.NewString(),
		RequestID:        rc.ID,
		Method:           rc.Method,
		URL:              rc.URL,
		Class:            e.Class,
		StatusCode:       e.StatusCode,
		Message:          e.Message,
		ValidationFields: sortedKeys(e.ValidationErrors),
		Attempts:         rc.Attempts,
		OccurredAt:       time.Now().UTC(),
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := c.recorder.Add(rctx, fr); err != nil {
		c.log.Warn("Failed to record request failure", "request_id", rc.ID, "error", err)
	}
}

func statusError(class domain.StatusClass, msg string, f *transport.Failure) *Error {
	return &Error{
		Class:    class,
		Message:  msg,
		Response: f.Response,
		Err:      f,
	}
}
