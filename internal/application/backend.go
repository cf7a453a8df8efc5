package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/logging"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
	"go.uber.org/zap"
)

type BackendOptions struct {
	Transport    ports.Transport
	Reachability ports.Reachability
	Cache        *ResponseCache
	Queue        *OfflineQueue
	Identity     *Identity
	Clock        ports.Clock
	Logger       *zap.Logger
}

// Backend bundles what every service needs to talk to the household API
// with cache and queue fallbacks.
type Backend struct {
	transport    ports.Transport
	reachability ports.Reachability
	cache        *ResponseCache
	queue        *OfflineQueue
	identity     *Identity
	clock        ports.Clock
	logger       *zap.Logger
	placeholders domain.PlaceholderIDs
}

func NewBackend(opts BackendOptions) *Backend {
	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Backend{
		transport:    opts.Transport,
		reachability: opts.Reachability,
		cache:        opts.Cache,
		queue:        opts.Queue,
		identity:     opts.Identity,
		clock:        clock,
		logger:       logging.OrNop(opts.Logger),
	}
}

func (b *Backend) Cache() *ResponseCache { return b.cache }
func (b *Backend) Queue() *OfflineQueue { return b.queue }
func (b *Backend) Identity() *Identity { return b.identity }

// Online reports reachability. A failed query counts as online so the live
// request is attempted and its own failure decides the fallback.
func (b *Backend) Online(ctx context.Context) bool {
	if b.reachability == nil {
		return true
	}

	online, err := b.reachability.IsOnline(ctx)
	if err != nil {
		b.logger.Debug("reachability query failed, assuming online", zap.Error(err))
		return true
	}

	return online
}

func (b *Backend) actor(ctx context.Context, explicit int) int {
	if explicit > 0 {
		return explicit
	}
	if b.identity == nil {
		if id, ok := domain.ActingMember(ctx); ok {
			return id
		}
		return domain.DefaultMemberID
	}

	id, err := b.identity.ResolveMemberID(ctx)
	if err != nil || id <= 0 {
		return domain.DefaultMemberID
	}

	return id
}

func (b *Backend) get(ctx context.Context, path string) (ports.Envelope, error) {
	return b.send(ctx, http.MethodGet, path, nil)
}

// send makes a live call with no cache or queue fallback.
func (b *Backend) send(ctx context.Context, method, path string, body any) (ports.Envelope, error) {
	envelope, err := b.transport.Do(ctx, ports.Request{Method: method, Path: path, Body: body})
	if err != nil {
		return ports.Envelope{}, err
	}
	if err := rejection(method, path, envelope); err != nil {
		return ports.Envelope{}, err
	}

	return envelope, nil
}

// fetchList decodes the envelope data of a GET, defaulting to an empty slice.
func fetchList[T any](ctx context.Context, b *Backend, path string) ([]T, error) {
	envelope, err := b.get(ctx, path)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0)
	if err := decodeData(envelope, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if items == nil {
		items = make([]T, 0)
	}

	return items, nil
}

// fetchOne decodes the envelope data of a GET and requires it to be present.
func fetchOne[T any](ctx context.Context, b *Backend, path string) (T, error) {
	var out T
	envelope, err := b.get(ctx, path)
	if err != nil {
		return out, err
	}
	if !envelope.HasData() {
		return out, fmt.Errorf("GET %s: %w", path, domain.ErrEmptyResponse)
	}
	if err := decodeData(envelope, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", path, err)
	}

	return out, nil
}

// cachedFetch runs fetch, refreshing the cache on success. On failure it
// answers from the cache and otherwise returns the original error.
func cachedFetch[T any](ctx context.Context, b *Backend, key string, fetch func(context.Context) (T, error)) (T, error) {
	value, err := fetch(ctx)
	if err == nil {
		if b.cache != nil {
			b.cache.Put(ctx, key, value)
		}
		return value, nil
	}
	if ctx.Err() != nil {
		return value, err
	}

	if b.cache != nil {
		var cached T
		if b.cache.Lookup(ctx, key, &cached) {
			b.logger.Info("serving cached response", zap.String("key", key), zap.Error(err))
			return cached, nil
		}
	}

	return value, err
}

type mutation struct {
	kind     domain.ActionKind
	method   string
	endpoint string
	body     any
	actorID  int
}

// mutateResult tells a caller whether the mutation went live or was queued.
type mutateResult struct {
	envelope ports.Envelope
	queued   *domain.PendingAction
}

// mutate delivers m. Offline, it is queued right away and reported as queued.
// Online, a failure without an HTTP response queues it and still returns the
// error. Rejections by the server are never queued.
func (b *Backend) mutate(ctx context.Context, m mutation) (mutateResult, error) {
	actor := b.actor(ctx, m.actorID)

	if !b.Online(ctx) {
		action, err := b.enqueue(ctx, m, actor)
		if err != nil {
			return mutateResult{}, err
		}
		return mutateResult{queued: &action}, nil
	}

	envelope, err := b.transport.Do(domain.WithActingMember(ctx, actor), ports.Request{
		Method: m.method,
		Path:   m.endpoint,
		Body:   m.body,
	})
	if err != nil {
		if domain.IsTransient(err) && ctx.Err() == nil {
			if _, queueErr := b.enqueue(ctx, m, actor); queueErr != nil {
				b.logger.Warn("queue failed mutation", zap.String("endpoint", m.endpoint), zap.Error(queueErr))
			}
		}
		return mutateResult{}, err
	}
	if err := rejection(m.method, m.endpoint, envelope); err != nil {
		return mutateResult{}, err
	}

	return mutateResult{envelope: envelope}, nil
}

func (b *Backend) enqueue(ctx context.Context, m mutation, actor int) (domain.PendingAction, error) {
	if b.queue == nil {
		return domain.PendingAction{}, fmt.Errorf("%s %s: %w", m.method, m.endpoint, domain.ErrOffline)
	}

	var payload json.RawMessage
	if m.body != nil {
		raw, err := json.Marshal(m.body)
		if err != nil {
			return domain.PendingAction{}, fmt.Errorf("encode offline payload: %w", err)
		}
		payload = raw
	}

	return b.queue.Enqueue(ctx, domain.PendingAction{
		Kind:     m.kind,
		Endpoint: m.endpoint,
		Method:   m.method,
		Payload:  payload,
		ActorID:  actor,
	}), nil
}

func (b *Backend) placeholderID() int {
	return b.placeholders.Next(b.clock.Now())
}

func (b *Backend) now() string {
	return b.clock.Now().UTC().Format(time.RFC3339)
}

func decodeData(envelope ports.Envelope, out any) error {
	if !envelope.HasData() {
		return nil
	}

	return json.Unmarshal(envelope.Data, out)
}

// rejection turns a 2xx envelope that reports success false into an error,
// whether or not the server said why.
func rejection(method, path string, envelope ports.Envelope) error {
	if envelope.Success {
		return nil
	}

	reason := envelope.Error
	if reason == "" {
		reason = envelope.Message
	}
	if reason == "" {
		reason = "server reported the request as unsuccessful"
	}

	return fmt.Errorf("%s %s: %w: %s", method, path, domain.ErrRejected, reason)
}
