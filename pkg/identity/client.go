package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Tokens this close to expiry are refreshed before use.
const expiryMargin = 30 * time.Second

type Config struct {
	URL        string
	AnonKey    string
	HTTPClient *http.Client
	Store      SessionStore
	Logger     *zerolog.Logger
	Now        func() time.Time
}

// Client talks to a GoTrue-compatible auth API. The only state it holds is the
// current session, kept in its SessionStore. Calls are never retried.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	store      SessionStore
	logger     zerolog.Logger
	now        func() time.Time

	refreshMu sync.Mutex

	mu        sync.Mutex
	listeners map[int]func(AuthEvent, *Session)
	nextID    int
}

func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: cfg.HTTPClient,
		store:      cfg.Store,
		logger:     zerolog.Nop(),
		now:        cfg.Now,
		listeners:  make(map[int]func(AuthEvent, *Session)),
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.store == nil {
		c.store = NewMemoryStore()
	}
	if cfg.Logger != nil {
		c.logger = cfg.Logger.With().Str("component", "identity").Logger()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

type credentials struct {
	Email    string                 `json:"email"`
	Password string                 `json:"password"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentials{Email: email, Password: password}, &s)
	if err != nil {
		return nil, err
	}
	if err := c.adopt(&s, EventSignedIn); err != nil {
		return nil, err
	}
	c.logger.Info().Str("user_id", s.User.ID).Msg("signed in")
	return &s, nil
}

// SignUp registers a user. The session is nil when the provider requires
// email confirmation first.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*User, *Session, error) {
	var raw json.RawMessage
	err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", credentials{Email: email, Password: password, Data: metadata}, &raw)
	if err != nil {
		return nil, nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, nil, fmt.Errorf("decode signup response: %w", err)
	}
	if s.AccessToken == "" {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, nil, fmt.Errorf("decode signup response: %w", err)
		}
		return &u, nil, nil
	}
	if err := c.adopt(&s, EventSignedIn); err != nil {
		return nil, nil, err
	}
	return &s.User, &s, nil
}

// SignOut revokes the session remotely and always drops it locally. The remote
// error, if any, is returned.
func (c *Client) SignOut(ctx context.Context) error {
	s, err := c.store.Load()
	if err != nil {
		return err
	}

	var remoteErr error
	if s != nil && s.AccessToken != "" {
		remoteErr = c.do(ctx, http.MethodPost, "/auth/v1/logout", s.AccessToken, nil, nil)
		var ae *AuthError
		if errors.As(remoteErr, &ae) && (ae.Status == http.StatusUnauthorized || ae.Status == http.StatusNotFound) {
			// token already gone on the server side
			remoteErr = nil
		}
	}

	if err := c.store.Clear(); err != nil {
		return err
	}
	c.emit(EventSignedOut, nil)
	if remoteErr != nil {
		c.logger.Warn().Err(remoteErr).Msg("remote sign-out failed")
		return fmt.Errorf("sign out: %w", remoteErr)
	}
	return nil
}

// Session returns the stored session, refreshing it when the access token is
// about to expire. It returns nil without error when nobody is signed in.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	s, err := c.store.Load()
	if err != nil || s == nil {
		return nil, err
	}
	if !s.expiresSoon(c.now(), expiryMargin) {
		return s, nil
	}
	return c.refresh(ctx, s.RefreshToken)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	current, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	if current.RefreshToken != refreshToken && !current.expiresSoon(c.now(), expiryMargin) {
		return current, nil
	}

	var s Session
	err = c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", "",
		map[string]string{"refresh_token": current.RefreshToken}, &s)
	if err != nil {
		var ae *AuthError
		if errors.As(err, &ae) && ae.Status >= 400 && ae.Status < 500 {
			_ = c.store.Clear()
			c.logger.Warn().Err(err).Msg("refresh token rejected, session dropped")
			return nil, fmt.Errorf("refresh session: %w", ErrInvalidRefreshToken)
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if err := c.adopt(&s, EventTokenRefreshed); err != nil {
		return nil, err
	}
	return &s, nil
}

// User fetches the signed-in user from the provider, or nil when nobody is
// signed in.
func (c *Client) User(ctx context.Context) (*User, error) {
	s, err := c.Session(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	var u User
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", s.AccessToken, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AccessToken returns the current access token or "" when there is none.
func (c *Client) AccessToken(ctx context.Context) string {
	s, err := c.Session(ctx)
	if err != nil || s == nil {
		return ""
	}
	return s.AccessToken
}

// Subscription is the handle returned by OnAuthStateChange.
type Subscription struct {
	client *Client
	id     int
	once   sync.Once
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.mu.Lock()
		delete(s.client.listeners, s.id)
		s.client.mu.Unlock()
	})
}

// OnAuthStateChange registers cb for every auth event. Callbacks run
// synchronously on the goroutine that caused the event.
func (c *Client) OnAuthStateChange(cb func(AuthEvent, *Session)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.listeners[c.nextID] = cb
	return &Subscription{client: c, id: c.nextID}
}

func (c *Client) emit(event AuthEvent, s *Session) {
	c.mu.Lock()
	cbs := make([]func(AuthEvent, *Session), 0, len(c.listeners))
	for _, cb := range c.listeners {
		cbs = append(cbs, cb)
	}
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(event, s)
	}
}

func (c *Client) adopt(s *Session, event AuthEvent) error {
	s.fillExpiry(c.now())
	if err := c.store.Save(s); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	c.emit(event, s)
	return nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("identity request failed")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
