package reachability

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
)

const (
	DefaultHealthPath   = "/health"
	DefaultProbeTimeout = 3 * time.Second
)

// Probe treats any HTTP answer from the health endpoint as proof of
// connectivity. Only failures without a response mean offline.
type Probe struct {
	transport    ports.Transport
	path         string
	timeout      time.Duration
	forceOffline atomic.Bool
}

var _ ports.Reachability = (*Probe)(nil)

func NewProbe(transport ports.Transport, path string, timeout time.Duration) *Probe {
	if path == "" {
		path = DefaultHealthPath
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	return &Probe{transport: transport, path: path, timeout: timeout}
}

// ForceOffline makes every probe report offline without touching the network.
func (p *Probe) ForceOffline(offline bool) {
	p.forceOffline.Store(offline)
}

func (p *Probe) IsOnline(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if p.forceOffline.Load() {
		return false, nil
	}

	_, err := p.transport.Do(ctx, ports.Request{
		Method:  http.MethodGet,
		Path:    p.path,
		Timeout: p.timeout,
		NoRetry: true,
	})
	if err == nil {
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}

	return !domain.IsTransient(err), nil
}
