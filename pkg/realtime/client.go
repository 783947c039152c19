package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("realtime: connection closed")

const ackTimeout = 10 * time.Second

// Handle disposes one subscription.
type Handle interface {
	Unsubscribe()
}

type subscription struct {
	client *Client
	ref    string
	table  string
	filter *Filter
	cb     func(ChangePayload)
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.client.mu.Lock()
		delete(s.client.subs, s.ref)
		s.client.mu.Unlock()
		if err := s.client.write(Message{Type: TypeUnsubscribe, Ref: s.ref}); err != nil && !errors.Is(err, ErrClosed) {
			s.client.logger.Warn().Err(err).Str("table", s.table).Msg("unsubscribe failed")
		}
	})
}

type delivery struct {
	ref     string
	payload ChangePayload
}

// Client is one websocket connection to the change feed. There is no
// reconnect: when the socket drops, Done is closed and subscriptions go quiet.
type Client struct {
	conn   *websocket.Conn
	logger zerolog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	subs    map[string]*subscription
	pending map[string]chan error
	nextRef uint64

	// changes are queued by the read loop and handed to callbacks by dispatchLoop
	queueMu sync.Mutex
	queue   []delivery
	wake    chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the feed endpoint, e.g. ws://host/realtime/v1, with the
// session access token.
func Dial(ctx context.Context, endpoint, token string, logger zerolog.Logger) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}
	c := &Client{
		conn:    conn,
		logger:  logger.With().Str("component", "realtime").Logger(),
		subs:    make(map[string]*subscription),
		pending: make(map[string]chan error),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	go c.dispatchLoop()
	return c, nil
}

// Subscribe opens a change feed on table. filter is "" or "column=eq.value".
// Callbacks of one client run one at a time, in arrival order, on a goroutine
// apart from the socket reader, so a slow cb or one that calls Subscribe does
// not hold up acks.
func (c *Client) Subscribe(table string, cb func(ChangePayload), filter string) (Handle, error) {
	f, err := ParseFilter(filter)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.nextRef++
	ref := strconv.FormatUint(c.nextRef, 10)
	sub := &subscription{client: c, ref: ref, table: table, filter: f, cb: cb}
	ack := make(chan error, 1)
	c.subs[ref] = sub
	c.pending[ref] = ack
	c.mu.Unlock()

	if err := c.write(Message{Type: TypeSubscribe, Ref: ref, Table: table, Filter: filter}); err != nil {
		c.drop(ref)
		return nil, err
	}

	select {
	case err = <-ack:
	case <-c.done:
		err = ErrClosed
	case <-time.After(ackTimeout):
		err = fmt.Errorf("realtime: no ack for %s", table)
	}
	if err != nil {
		c.drop(ref)
		return nil, err
	}
	c.logger.Debug().Str("table", table).Str("filter", filter).Msg("subscribed")
	return sub, nil
}

func (c *Client) drop(ref string) {
	c.mu.Lock()
	delete(c.subs, ref)
	delete(c.pending, ref)
	c.mu.Unlock()
}

func (c *Client) write(m Message) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(m)
}

func (c *Client) readLoop() {
	defer c.shutdown()
	for {
		var m Message
		if err := c.conn.ReadJSON(&m); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("realtime connection lost")
			}
			return
		}

		switch m.Type {
		case TypeAck, TypeError:
			c.mu.Lock()
			ch, ok := c.pending[m.Ref]
			delete(c.pending, m.Ref)
			c.mu.Unlock()
			if !ok {
				continue
			}
			if m.Type == TypeError {
				ch <- fmt.Errorf("realtime: %s", m.Error)
			} else {
				ch <- nil
			}
		case TypeChange:
			if m.Payload == nil {
				continue
			}
			c.enqueue(delivery{ref: m.Ref, payload: *m.Payload})
		}
	}
}

func (c *Client) enqueue(d delivery) {
	c.queueMu.Lock()
	c.queue = append(c.queue, d)
	c.queueMu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) dispatchLoop() {
	for {
		select {
		case <-c.wake:
		case <-c.done:
			return
		}
		c.queueMu.Lock()
		batch := c.queue
		c.queue = nil
		c.queueMu.Unlock()

		for _, d := range batch {
			c.mu.Lock()
			sub, ok := c.subs[d.ref]
			c.mu.Unlock()
			if ok && sub.filter.Matches(&d.payload) {
				sub.cb(d.payload)
			}
		}
	}
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and tears the connection down.
func (c *Client) Close() error {
	c.writeMu.Lock()
	err := c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.shutdown()
	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}
