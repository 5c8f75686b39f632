package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/infra/transport"
	"github.com/vietddude/paydash/internal/metrics"
)

var (
	errNoAccessToken  = errors.New("refresh response carries no access token")
	errNoRefreshToken = errors.New("no refresh token stored")
)

// refresh exchanges the stored refresh token for a new pair. Callers that
// were rejected with the same access token share one backend call; a caller
// arriving after the pair already rotated returns without calling at all.
func (c *Client) refresh(ctx context.Context, staleAccess string) error {
	ch := c.refreshes.DoChan(staleAccess, func() (any, error) {
		if c.tokens.AccessToken() != staleAccess {
			return nil, nil
		}
		refreshToken := c.tokens.RefreshToken()
		if refreshToken == "" {
			return nil, errNoRefreshToken
		}
		return nil, c.doRefresh(context.WithoutCancel(ctx), refreshToken)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) doRefresh(ctx context.Context, refreshToken string) error {
	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return fmt.Errorf("encode refresh request: %w", err)
	}

	c.activity.Begin()
	defer c.activity.End()

	resp, err := c.transport.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    c.resolve(c.policy.RefreshPath),
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	})
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("refresh token: %w", err)
	}

	var pair domain.TokenPair
	if err := resp.Decode(&pair); err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("refresh token: %w", err)
	}
	if pair.AccessToken == "" {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return errNoAccessToken
	}

	c.tokens.SetAccessToken(pair.AccessToken)
	if pair.RefreshToken != "" {
		c.tokens.SetRefreshToken(pair.RefreshToken)
	}
	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	c.log.Debug("Access token refreshed")
	return nil
}
