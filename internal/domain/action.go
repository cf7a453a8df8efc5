package domain

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

type ActionKind string

const (
	ActionCreate ActionKind = "CREATE"
	ActionUpdate ActionKind = "UPDATE"
	ActionDelete ActionKind = "DELETE"
)

func ParseActionKind(raw string) (ActionKind, bool) {
	switch ActionKind(strings.ToUpper(strings.TrimSpace(raw))) {
	case ActionCreate:
		return ActionCreate, true
	case ActionUpdate:
		return ActionUpdate, true
	case ActionDelete:
		return ActionDelete, true
	default:
		return "", false
	}
}

// PendingAction is a mutation recorded while the backend could not be reached.
// Timestamp is unix milliseconds, the unit used by previously persisted queues.
type PendingAction struct {
	ID        string          `json:"id"`
	Kind      ActionKind      `json:"type"`
	Endpoint  string          `json:"endpoint"`
	Method    string          `json:"method,omitempty"`
	Payload   json.RawMessage `json:"data,omitempty"`
	ActorID   int             `json:"actor_id,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Attempts  int             `json:"attempts,omitempty"`
	LastError string          `json:"last_error,omitempty"`
}

func (a PendingAction) EnqueuedAt() time.Time {
	return time.UnixMilli(a.Timestamp)
}

// ReplayMethod prefers the recorded verb. Entries without one replay as
// DELETE for deletions and POST for everything else.
func (a PendingAction) ReplayMethod() string {
	if a.Method != "" {
		return strings.ToUpper(a.Method)
	}
	if a.Kind == ActionDelete {
		return http.MethodDelete
	}

	return http.MethodPost
}

// ReplayBody is nil for DELETE so no body is sent.
func (a PendingAction) ReplayBody() json.RawMessage {
	if a.ReplayMethod() == http.MethodDelete || len(a.Payload) == 0 || string(a.Payload) == "null" {
		return nil
	}

	return a.Payload
}

// CacheEntry is one stored response. Timestamp is unix milliseconds.
type CacheEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

func (e CacheEntry) StoredAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Fresh reports whether the entry is younger than window at now.
func (e CacheEntry) Fresh(now time.Time, window time.Duration) bool {
	return now.Sub(e.StoredAt()) < window
}

// PlaceholderIDs hands out negative ids for optimistic records. The first id
// is derived from the clock so separate runs do not reuse ids; every later
// call returns a value strictly lower than the previous one.
type PlaceholderIDs struct {
	last atomic.Int64
}

func (p *PlaceholderIDs) Next(now time.Time) int {
	seed := -now.UnixMicro()
	for {
		last := p.last.Load()
		next := last - 1
		if seed < next {
			next = seed
		}
		if p.last.CompareAndSwap(last, next) {
			return int(next)
		}
	}
}
