package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrExchangeFailed = errors.New("token exchange failed")

// ExchangeError carries the upstream status and body of a failed token exchange.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed (%d): %s", e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error { return ErrExchangeFailed }

type OAuthExchanger struct {
	HTTPClient *http.Client
	APIKey     string
	APISecret  string

	// BaseURL replaces "https://{shop}" when set.
	BaseURL string
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// ExchangeCodeForToken trades a one-time authorization code for an offline access token.
// It is never retried.
func (o OAuthExchanger) ExchangeCodeForToken(ctx context.Context, shopDomain, code string) (string, error) {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	body, _ := json.Marshal(map[string]string{
		"client_id":     o.APIKey,
		"client_secret": o.APISecret,
		"code":          code,
	})

	base := strings.TrimRight(o.BaseURL, "/")
	if base == "" {
		base = "https://" + shopDomain
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/admin/oauth/access_token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ExchangeError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var r accessTokenResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrExchangeFailed, err)
	}
	if r.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access_token", ErrExchangeFailed)
	}
	return r.AccessToken, nil
}
