package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"go-inventory-checklist/pkg/realtime"
)

// Tables that can be subscribed to on the feed.
var Tables = map[string]bool{
	realtime.TableUsers:               true,
	realtime.TableCompanies:           true,
	realtime.TableProducts:            true,
	realtime.TableStockMovements:      true,
	realtime.TableChecklistExecutions: true,
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Observer receives connection and publish counts, normally pkg/metrics.
type Observer interface {
	ClientConnected()
	ClientDisconnected()
	ChangePublished(table, eventType string)
}

type subscription struct {
	table  string
	filter *realtime.Filter
}

// Client is one feed connection. CompanyID is nil for platform users, who
// see every tenant.
type Client struct {
	CompanyID *uuid.UUID

	conn    Conn
	writeMu sync.Mutex
	mu      sync.Mutex
	subs    map[string]subscription
}

func NewClient(conn Conn, companyID *uuid.UUID) *Client {
	return &Client{conn: conn, CompanyID: companyID, subs: make(map[string]subscription)}
}

// Send serializes writes; the hub and the connection's read loop both write.
func (c *Client) Send(msg realtime.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *Client) Subscribe(ref, table string, filter *realtime.Filter) {
	c.mu.Lock()
	c.subs[ref] = subscription{table: table, filter: filter}
	c.mu.Unlock()
}

func (c *Client) Unsubscribe(ref string) {
	c.mu.Lock()
	delete(c.subs, ref)
	c.mu.Unlock()
}

func (c *Client) sees(companyID *uuid.UUID) bool {
	if c.CompanyID == nil {
		return true
	}
	return companyID != nil && *companyID == *c.CompanyID
}

// matching returns the refs whose table and filter accept the change.
func (c *Client) matching(p *realtime.ChangePayload) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var refs []string
	for ref, s := range c.subs {
		if s.table == p.Table && s.filter.Matches(p) {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Change is a committed row change together with the tenant it belongs to.
type Change struct {
	CompanyID *uuid.UUID
	Payload   realtime.ChangePayload
}

type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Change
	mutex      sync.Mutex

	log      zerolog.Logger
	observer Observer
	quit     chan struct{}
	stopOnce sync.Once
}

func NewHub(log zerolog.Logger, observer Observer) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Change, 64),
		log:        log.With().Str("component", "ws").Logger(),
		observer:   observer,
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.Clients[client] = true
			h.mutex.Unlock()
			if h.observer != nil {
				h.observer.ClientConnected()
			}
			h.log.Debug().Msg("realtime client connected")

		case client := <-h.Unregister:
			h.drop(client)

		case change := <-h.Broadcast:
			h.deliver(change)

		case <-h.quit:
			h.mutex.Lock()
			for client := range h.Clients {
				client.conn.Close()
				delete(h.Clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Join and Leave register a client without blocking once the hub stopped.
func (h *Hub) Join(client *Client) {
	select {
	case h.Register <- client:
	case <-h.quit:
		client.conn.Close()
	}
}

func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.quit:
	}
}

// Stop closes every connection and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

func (h *Hub) drop(client *Client) {
	h.mutex.Lock()
	_, ok := h.Clients[client]
	if ok {
		delete(h.Clients, client)
		client.conn.Close()
	}
	h.mutex.Unlock()
	if ok && h.observer != nil {
		h.observer.ClientDisconnected()
	}
}

func (h *Hub) deliver(change Change) {
	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.Clients))
	for client := range h.Clients {
		if client.sees(change.CompanyID) {
			clients = append(clients, client)
		}
	}
	h.mutex.Unlock()

	for _, client := range clients {
		for _, ref := range client.matching(&change.Payload) {
			payload := change.Payload
			if err := client.Send(realtime.Message{Type: realtime.TypeChange, Ref: ref, Payload: &payload}); err != nil {
				h.log.Debug().Err(err).Msg("write failed, dropping client")
				h.drop(client)
				break
			}
		}
	}
}

// Publish queues a change for delivery. Rows are sent as their JSON image.
func (h *Hub) Publish(table string, event realtime.EventType, companyID *uuid.UUID, newRow, oldRow interface{}) {
	change := Change{
		CompanyID: companyID,
		Payload: realtime.ChangePayload{
			Table:           table,
			EventType:       event,
			New:             rowImage(newRow),
			Old:             rowImage(oldRow),
			CommitTimestamp: time.Now().UTC(),
		},
	}
	if h.observer != nil {
		h.observer.ChangePublished(table, string(event))
	}
	select {
	case h.Broadcast <- change:
	case <-h.quit:
	default:
		// Run is behind; hand off without blocking the caller's request
		go func() {
			select {
			case h.Broadcast <- change:
			case <-h.quit:
			}
		}()
	}
}

func rowImage(row interface{}) map[string]interface{} {
	if row == nil {
		return nil
	}
	b, err := json.Marshal(row)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
