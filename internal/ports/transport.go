package ports

import (
	"context"
	"encoding/json"
	"time"
)

type Request struct {
	Method  string
	Path    string
	Body    any
	Headers map[string]string
	// Timeout overrides the transport default for this call when positive.
	Timeout time.Duration
	NoRetry bool
}

// Envelope is the uniform response shape of the household API.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (e Envelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

type Transport interface {
	Do(ctx context.Context, req Request) (Envelope, error)
}
