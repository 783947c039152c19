package realtime

import (
	"fmt"
	"strings"
	"time"
)

// EventType is the row-level operation that produced a change.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

type MessageType string

const (
	// client -> server
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	// server -> client
	TypeAck    MessageType = "ack"
	TypeChange MessageType = "change"
	TypeError  MessageType = "error"
)

// Message is the single frame shape on the feed. Ref ties acks, errors and
// changes to the subscription that asked for them.
type Message struct {
	Type    MessageType    `json:"type"`
	Ref     string         `json:"ref,omitempty"`
	Table   string         `json:"table,omitempty"`
	Filter  string         `json:"filter,omitempty"`
	Payload *ChangePayload `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// ChangePayload is the raw change delivered to subscribers.
type ChangePayload struct {
	Table           string                 `json:"table"`
	EventType       EventType              `json:"eventType"`
	New             map[string]interface{} `json:"new,omitempty"`
	Old             map[string]interface{} `json:"old,omitempty"`
	CommitTimestamp time.Time              `json:"commit_timestamp"`
}

// Filter is a row filter of the form column=eq.value.
type Filter struct {
	Column string
	Value  string
}

// ParseFilter accepts "" (no filter) or "column=eq.value".
func ParseFilter(s string) (*Filter, error) {
	if s == "" {
		return nil, nil
	}
	col, rest, ok := strings.Cut(s, "=")
	if !ok || col == "" {
		return nil, fmt.Errorf("invalid filter %q", s)
	}
	val, ok := strings.CutPrefix(rest, "eq.")
	if !ok {
		return nil, fmt.Errorf("unsupported filter operator in %q", s)
	}
	return &Filter{Column: col, Value: val}, nil
}

func (f *Filter) String() string {
	return f.Column + "=eq." + f.Value
}

// Matches checks the row image of a change; DELETE changes are matched on Old.
func (f *Filter) Matches(p *ChangePayload) bool {
	if f == nil {
		return true
	}
	row := p.New
	if p.EventType == EventDelete || row == nil {
		row = p.Old
	}
	v, ok := row[f.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}
