package apiclient

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

	"github.com/rs/zerolog"
)

// TokenSource yields the bearer token of the current session, "" when signed out.
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// HTTPError is returned for every non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether err is an HTTPError with status 401.
func IsUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusUnauthorized
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     zerolog.Logger
}

func NewClient(baseURL string, tokens TokenSource, logger zerolog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Tokens:     tokens,
		Logger:     logger.With().Str("component", "apiclient").Logger(),
	}
}

// Request sends body as JSON when it is non-nil and attaches the session's
// bearer token when there is one. The caller owns the response body.
func (c *Client) Request(ctx context.Context, method, url string, body interface{}) (*http.Response, error) {
	token := ""
	if c.Tokens != nil {
		token = c.Tokens.AccessToken(ctx)
	}
	return c.do(ctx, method, url, token, body)
}

func (c *Client) do(ctx context.Context, method, url, token string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(url), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error().Err(err).Str("method", method).Str("url", url).Msg("request failed")
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		text, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(text))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.Logger.Debug().Int("status", resp.StatusCode).Str("method", method).Str("url", url).Msg("non-2xx response")
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: msg}
	}
	return resp, nil
}

// GetJSON performs an authenticated GET and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	resp, err := c.Request(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) resolve(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return c.BaseURL + url
}
