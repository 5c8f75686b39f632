// Package transport performs single HTTP attempts and reports their outcome
// as either a Response or a structured Failure.
//
// This package contains:
//   - Doer interface: one physical attempt, no retries
//   - HTTPTransport: net/http implementation with a fixed per-attempt timeout
//   - Monitor: latency and failure tracking across attempts
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Doer performs exactly one HTTP attempt.
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Request describes a single attempt.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a received HTTP response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Latency    time.Duration
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Kind tells what went wrong with an attempt.
type Kind int

const (
	// KindStatus means a response arrived with a non-2xx status.
	KindStatus Kind = iota
	// KindNetwork means no response was received (refused, reset, timeout).
	KindNetwork
	// KindSetup means the request could not be built; nothing was sent.
	KindSetup
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindNetwork:
		return "network"
	case KindSetup:
		return "setup"
	}
	return "unknown"
}

// Failure is the structured failure of one attempt. Response is set only
// for KindStatus.
type Failure struct {
	Kind     Kind
	Response *Response
	Err      error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case KindStatus:
		return fmt.Sprintf("http %d: %s", f.Response.StatusCode, truncate(f.Response.Body, 512))
	case KindNetwork:
		return fmt.Sprintf("no response: %v", f.Err)
	default:
		return fmt.Sprintf("request setup: %v", f.Err)
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// StatusCode returns the response status, or 0 when no response arrived.
func (f *Failure) StatusCode() int {
	if f.Response == nil {
		return 0
	}
	return f.Response.StatusCode
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
