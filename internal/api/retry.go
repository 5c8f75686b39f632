package api

import (
	"context"

	"github.com/sethvargo/go-retry"
)

// Request describes a logical request for SendWithRetry.
type Request struct {
	Method  string
	URL     string
	Body    any
	Options []RequestOption
}

// SendWithRetry wraps the whole pipeline in an outer exponential backoff
// (RetryBase, doubled per attempt). Use it only for idempotent requests:
// a POST that creates a resource may be applied more than once.
// maxRetries <= 0 means 3.
func (c *Client) SendWithRetry(ctx context.Context, req Request, maxRetries int) (*Response, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	b := retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(c.policy.RetryBase))

	var resp *Response
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		r, err := c.Send(ctx, req.Method, req.URL, req.Body, req.Options...)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return retry.RetryableError(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
