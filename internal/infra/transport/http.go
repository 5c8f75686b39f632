package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single attempt.
const DefaultTimeout = 50 * time.Second

// HTTPTransport implements Doer over net/http.
type HTTPTransport struct {
	httpClient *http.Client
	Monitor    *Monitor
}

// NewHTTPTransport creates a transport whose attempts time out after
// timeout (DefaultTimeout when zero).
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPTransport{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Monitor: NewMonitor(),
	}
}

// NewHTTPTransportWithClient wraps an existing http.Client.
func NewHTTPTransportWithClient(hc *http.Client) *HTTPTransport {
	return &HTTPTransport{httpClient: hc, Monitor: NewMonitor()}
}

// Do performs one attempt. Non-2xx responses and connectivity problems are
// returned as *Failure.
func (t *HTTPTransport) Do(ctx context.Context, r *Request) (*Response, error) {
	start := time.Now()

	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, &Failure{Kind: KindSetup, Err: fmt.Errorf("create request: %w", err)}
	}
	for k, vals := range r.Header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.Monitor.RecordNetworkFailure()
		return nil, &Failure{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Monitor.RecordNetworkFailure()
		return nil, &Failure{Kind: KindNetwork, Err: fmt.Errorf("read response: %w", err)}
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Latency:    time.Since(start),
	}
	t.Monitor.RecordResponse(out.StatusCode, out.Latency)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Failure{Kind: KindStatus, Response: out}
	}
	return out, nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}
