package querycache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Config holds the cache policy. Build it explicitly; DefaultConfig returns
// the values the clients ship with.
type Config struct {
	// StaleTime is how long fetched data counts as fresh.
	StaleTime time.Duration
	// GCTime is how long an unobserved entry stays in memory. Negative disables eviction.
	GCTime time.Duration
	// RefetchOnWindowFocus makes WindowFocused refetch stale observed entries.
	RefetchOnWindowFocus bool
	// Retry and MutationRetry are extra attempts after a failure.
	Retry         int
	MutationRetry int
}

func DefaultConfig() Config {
	return Config{
		StaleTime:            30 * time.Second,
		GCTime:               60 * time.Second,
		RefetchOnWindowFocus: true,
		Retry:                0,
		MutationRetry:        0,
	}
}

// QueryFunc loads the data of one key.
type QueryFunc func(ctx context.Context, key string) (interface{}, error)

type entry struct {
	key         string
	data        interface{}
	hasData     bool
	err         error
	updatedAt   time.Time
	invalidated bool
	fn          QueryFunc
	observers   int
	gcTimer     *time.Timer
}

type Client struct {
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	gen     uint64
	// fetchGen is bumped per key on invalidation; loads started under an
	// older value are not stored.
	fetchGen map[string]uint64
	flight   singleflight.Group
}

func New(cfg Config, logger zerolog.Logger) *Client {
	return &Client{
		cfg:      cfg,
		logger:   logger.With().Str("component", "querycache").Logger(),
		now:      time.Now,
		entries:  make(map[string]*entry),
		fetchGen: make(map[string]uint64),
	}
}

func (c *Client) Config() Config {
	return c.cfg
}

// Fetch returns fresh cached data for key or loads it with fn. Concurrent
// loads of the same key share one call.
func (c *Client) Fetch(ctx context.Context, key string, fn QueryFunc) (interface{}, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.fresh(e) {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()
	return c.load(ctx, key, fn)
}

// GetQueryData returns whatever is cached for key, fresh or not.
func (c *Client) GetQueryData(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		return nil, false
	}
	return e.data, true
}

// IsStale reports whether key would be refetched by Fetch.
func (c *Client) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return !ok || !c.fresh(e)
}

func (c *Client) fresh(e *entry) bool {
	return e.hasData && !e.invalidated && c.now().Sub(e.updatedAt) < c.cfg.StaleTime
}

func (c *Client) load(ctx context.Context, key string, fn QueryFunc) (interface{}, error) {
	c.mu.Lock()
	gen, fetchGen := c.gen, c.fetchGen[key]
	c.mu.Unlock()

	// a load started after an invalidation never joins one started before it
	flightKey := strconv.FormatUint(gen, 10) + ":" + strconv.FormatUint(fetchGen, 10) + ":" + key
	v, err, _ := c.flight.Do(flightKey, func() (interface{}, error) {
		v, err := attempt(ctx, c.cfg.Retry, func() (interface{}, error) { return fn(ctx, key) })
		c.store(gen, fetchGen, key, fn, v, err)
		return v, err
	})
	return v, err
}

func (c *Client) store(gen, fetchGen uint64, key string, fn QueryFunc, v interface{}, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || fetchGen != c.fetchGen[key] {
		// cleared or invalidated while loading
		return
	}
	e := c.entry(key)
	e.fn = fn
	if err != nil {
		e.err = err
		c.logger.Debug().Err(err).Str("key", key).Msg("query failed")
	} else {
		e.data, e.hasData, e.err = v, true, nil
		e.updatedAt = c.now()
		e.invalidated = false
	}
	if e.observers == 0 {
		c.scheduleGC(e)
	}
}

func (c *Client) entry(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{key: key}
		c.entries[key] = e
	}
	return e
}

func (c *Client) scheduleGC(e *entry) {
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	if c.cfg.GCTime < 0 {
		return
	}
	e.gcTimer = time.AfterFunc(c.cfg.GCTime, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if cur, ok := c.entries[e.key]; ok && cur == e && e.observers == 0 {
			delete(c.entries, e.key)
		}
	})
}

// Observer keeps an entry alive while it is open.
type Observer struct {
	c     *Client
	key   string
	fn    QueryFunc
	entry *entry
	once  sync.Once
}

// Observe marks key as in use; eviction starts only after the last observer closes.
func (c *Client) Observe(key string, fn QueryFunc) *Observer {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(key)
	e.observers++
	e.fn = fn
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
	return &Observer{c: c, key: key, fn: fn, entry: e}
}

func (o *Observer) Key() string {
	return o.key
}

// Result fetches through the cache.
func (o *Observer) Result(ctx context.Context) (interface{}, error) {
	return o.c.Fetch(ctx, o.key, o.fn)
}

func (o *Observer) Close() {
	o.once.Do(func() {
		o.c.mu.Lock()
		defer o.c.mu.Unlock()
		e := o.entry
		if cur, ok := o.c.entries[o.key]; !ok || cur != e {
			// dropped by Clear; the entry under this key now belongs to others
			return
		}
		e.observers--
		if e.observers == 0 {
			o.c.scheduleGC(e)
		}
	})
}

// WindowFocused refetches every observed stale entry when refetch on focus is on.
func (c *Client) WindowFocused(ctx context.Context) error {
	if !c.cfg.RefetchOnWindowFocus {
		return nil
	}
	var targets []*entry
	c.mu.Lock()
	for _, e := range c.entries {
		if e.observers > 0 && e.fn != nil && !c.fresh(e) {
			targets = append(targets, e)
		}
	}
	c.mu.Unlock()
	return c.refetch(ctx, targets)
}

// Invalidate marks keys stale without refetching.
func (c *Client) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.fetchGen[k]++
		if e, ok := c.entries[k]; ok {
			e.invalidated = true
		}
	}
}

// InvalidateAndRefetch marks keys stale and reloads the ones that are cached.
func (c *Client) InvalidateAndRefetch(ctx context.Context, keys ...string) error {
	var targets []*entry
	c.mu.Lock()
	for _, k := range keys {
		c.fetchGen[k]++
		if e, ok := c.entries[k]; ok {
			e.invalidated = true
			if e.fn != nil {
				targets = append(targets, e)
			}
		}
	}
	c.mu.Unlock()
	return c.refetch(ctx, targets)
}

func (c *Client) refetch(ctx context.Context, targets []*entry) error {
	var errs []error
	for _, e := range targets {
		c.mu.Lock()
		fn := e.fn
		c.mu.Unlock()
		if _, err := c.load(ctx, e.key, fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear drops every entry. Loads in flight finish but are not stored.
func (c *Client) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.gcTimer != nil {
			e.gcTimer.Stop()
		}
	}
	c.entries = make(map[string]*entry)
	c.gen++
}

// Len is the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Mutate runs fn with the mutation retry policy and, on success, invalidates
// and refetches the given keys.
func (c *Client) Mutate(ctx context.Context, fn func(ctx context.Context) (interface{}, error), invalidate ...string) (interface{}, error) {
	v, err := attempt(ctx, c.cfg.MutationRetry, func() (interface{}, error) { return fn(ctx) })
	if err != nil {
		return nil, err
	}
	if len(invalidate) > 0 {
		if err := c.InvalidateAndRefetch(ctx, invalidate...); err != nil {
			c.logger.Warn().Err(err).Strs("keys", invalidate).Msg("refetch after mutation failed")
		}
	}
	return v, nil
}

func attempt(ctx context.Context, retries int, fn func() (interface{}, error)) (interface{}, error) {
	var lastErr error
	for i := 0; i <= retries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
