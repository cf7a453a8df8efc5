package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/logging"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
	"go.uber.org/zap"
)

const OfflineQueueKey = "offline_actions"

type DrainPolicy string

const (
	// DrainRetainFailed keeps failed actions for the next pass.
	DrainRetainFailed DrainPolicy = "retain_failed"
	// DrainClearAll empties the queue after every pass, failed actions included.
	DrainClearAll DrainPolicy = "clear_all"
)

var ErrDrainInProgress = errors.New("offline queue drain already in progress")

type QueueOptions struct {
	Policy DrainPolicy
	// MaxAttempts drops a retained action after that many failed replays. Zero keeps it forever.
	MaxAttempts int
	Clock       ports.Clock
	Logger      *zap.Logger
}

// OfflineQueue persists mutations that could not be delivered and replays
// them in enqueue order. All read-modify-write cycles on the persisted
// sequence hold mu. At most one drain runs at a time.
type OfflineQueue struct {
	store       ports.KeyValueStore
	transport   ports.Transport
	policy      DrainPolicy
	maxAttempts int
	clock       ports.Clock
	logger      *zap.Logger

	mu       sync.Mutex
	draining atomic.Bool
}

type DrainResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`
	Remaining int `json:"remaining"`
}

func NewOfflineQueue(store ports.KeyValueStore, transport ports.Transport, opts QueueOptions) *OfflineQueue {
	clock := opts.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	policy := opts.Policy
	if policy == "" {
		policy = DrainRetainFailed
	}

	return &OfflineQueue{
		store:       store,
		transport:   transport,
		policy:      policy,
		maxAttempts: opts.MaxAttempts,
		clock:       clock,
		logger:      logging.OrNop(opts.Logger),
	}
}

// Enqueue appends action and returns it with its id and timestamp filled in.
// Persistence failures are logged, never returned.
func (q *OfflineQueue) Enqueue(ctx context.Context, action domain.PendingAction) domain.PendingAction {
	now := q.clock.Now()
	action.Timestamp = now.UnixMilli()
	action.ID = strconv.FormatInt(action.Timestamp, 10) + "-" + uuid.NewString()
	action.Attempts = 0
	action.LastError = ""

	q.mu.Lock()
	defer q.mu.Unlock()

	actions, err := q.load(ctx)
	if err != nil {
		q.logger.Error("offline action not persisted",
			zap.String("action_id", action.ID),
			zap.String("endpoint", action.Endpoint),
			zap.Error(err),
		)
		return action
	}

	if err := q.save(ctx, append(actions, action)); err != nil {
		q.logger.Error("offline action not persisted",
			zap.String("action_id", action.ID),
			zap.String("endpoint", action.Endpoint),
			zap.Error(err),
		)
		return action
	}

	q.logger.Info("queued offline action",
		zap.String("action_id", action.ID),
		zap.String("type", string(action.Kind)),
		zap.String("endpoint", action.Endpoint),
	)

	return action
}

// Pending lists queued actions in replay order.
func (q *OfflineQueue) Pending(ctx context.Context) ([]domain.PendingAction, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.load(ctx)
}

func (q *OfflineQueue) Count(ctx context.Context) (int, error) {
	actions, err := q.Pending(ctx)
	if err != nil {
		return 0, err
	}

	return len(actions), nil
}

func (q *OfflineQueue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.store.Remove(ctx, OfflineQueueKey); err != nil {
		return fmt.Errorf("%w: clear offline queue: %w", domain.ErrPersistence, err)
	}

	return nil
}

// DrainProgress describes the pass after one more action was replayed.
type DrainProgress struct {
	Total  int
	Done   int
	Failed int
	Action domain.PendingAction
	Err    error
}

// Drain replays a snapshot of the queue in order. A failed action never stops
// the pass. Actions enqueued while the pass runs are left for the next one.
func (q *OfflineQueue) Drain(ctx context.Context) (DrainResult, error) {
	return q.DrainWithProgress(ctx, nil)
}

// DrainWithProgress is Drain with onReplay called after every replayed action.
func (q *OfflineQueue) DrainWithProgress(ctx context.Context, onReplay func(DrainProgress)) (DrainResult, error) {
	if !q.draining.CompareAndSwap(false, true) {
		return DrainResult{}, ErrDrainInProgress
	}
	defer q.draining.Store(false)

	snapshot, err := q.Pending(ctx)
	if err != nil {
		return DrainResult{}, fmt.Errorf("read offline queue: %w", err)
	}
	if len(snapshot) == 0 {
		return DrainResult{}, nil
	}

	q.logger.Info("draining offline queue", zap.Int("actions", len(snapshot)), zap.String("policy", string(q.policy)))

	var result DrainResult
	delivered := map[string]struct{}{}
	failures := map[string]error{}
	for _, action := range snapshot {
		if ctx.Err() != nil {
			break
		}

		result.Attempted++
		err := q.replay(ctx, action)
		if err != nil {
			result.Failed++
			failures[action.ID] = err
			q.logger.Warn("replay offline action failed",
				zap.String("action_id", action.ID),
				zap.String("method", action.ReplayMethod()),
				zap.String("endpoint", action.Endpoint),
				zap.Error(err),
			)
		} else {
			result.Succeeded++
			delivered[action.ID] = struct{}{}
			q.logger.Info("replayed offline action",
				zap.String("action_id", action.ID),
				zap.String("method", action.ReplayMethod()),
				zap.String("endpoint", action.Endpoint),
			)
		}

		if onReplay != nil {
			onReplay(DrainProgress{
				Total:  len(snapshot),
				Done:   result.Attempted,
				Failed: result.Failed,
				Action: action,
				Err:    err,
			})
		}
	}

	attempted := map[string]struct{}{}
	for _, action := range snapshot[:result.Attempted] {
		attempted[action.ID] = struct{}{}
	}

	remaining, dropped, err := q.settle(ctx, attempted, delivered, failures)
	result.Dropped = dropped
	result.Remaining = remaining
	if err != nil {
		return result, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("drain offline queue: %w", ctxErr)
	}

	q.logger.Info("offline queue drained",
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Int("dropped", result.Dropped),
		zap.Int("remaining", result.Remaining),
	)

	return result, nil
}

// HandleConnectivity returns a listener that drains the queue whenever the
// device comes back online.
func (q *OfflineQueue) HandleConnectivity(ctx context.Context) ports.ConnectivityListener {
	return func(online bool) {
		if !online {
			return
		}

		_, err := q.Drain(ctx)
		switch {
		case err == nil, errors.Is(err, ErrDrainInProgress):
		case ctx.Err() != nil:
			q.logger.Debug("offline queue drain interrupted", zap.Error(err))
		default:
			q.logger.Error("offline queue drain failed", zap.Error(err))
		}
	}
}

func (q *OfflineQueue) replay(ctx context.Context, action domain.PendingAction) error {
	if action.ActorID > 0 {
		ctx = domain.WithActingMember(ctx, action.ActorID)
	}

	req := ports.Request{Method: action.ReplayMethod(), Path: action.Endpoint}
	if body := action.ReplayBody(); body != nil {
		req.Body = body
	}

	envelope, err := q.transport.Do(ctx, req)
	if err != nil {
		return err
	}

	return rejection(req.Method, req.Path, envelope)
}

// settle rewrites the persisted queue after a pass. Entries not part of the
// pass are kept in place.
func (q *OfflineQueue) settle(ctx context.Context, attempted, delivered map[string]struct{}, failures map[string]error) (int, int, error) {
	// The pass may have been cut short by ctx; persistence still needs to run.
	ctx = context.WithoutCancel(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()

	current, err := q.load(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reload offline queue: %w", err)
	}

	dropped := 0
	kept := make([]domain.PendingAction, 0, len(current))
	for _, action := range current {
		if _, ok := attempted[action.ID]; !ok {
			kept = append(kept, action)
			continue
		}
		if _, ok := delivered[action.ID]; ok {
			continue
		}

		if q.policy == DrainClearAll {
			dropped++
			continue
		}

		action.Attempts++
		if failure := failures[action.ID]; failure != nil {
			action.LastError = failure.Error()
		}
		if q.maxAttempts > 0 && action.Attempts >= q.maxAttempts {
			dropped++
			q.logger.Warn("dropping offline action after repeated failures",
				zap.String("action_id", action.ID),
				zap.String("endpoint", action.Endpoint),
				zap.Int("attempts", action.Attempts),
			)
			continue
		}
		kept = append(kept, action)
	}

	if err := q.save(ctx, kept); err != nil {
		return len(current), 0, err
	}

	return len(kept), dropped, nil
}

func (q *OfflineQueue) load(ctx context.Context) ([]domain.PendingAction, error) {
	raw, err := q.store.Get(ctx, OfflineQueueKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.PendingAction{}, nil
		}
		return nil, fmt.Errorf("%w: read offline queue: %w", domain.ErrPersistence, err)
	}

	var actions []domain.PendingAction
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		q.logger.Warn("offline queue is corrupt, starting empty", zap.Error(err))
		return []domain.PendingAction{}, nil
	}
	if actions == nil {
		actions = []domain.PendingAction{}
	}

	return actions, nil
}

func (q *OfflineQueue) save(ctx context.Context, actions []domain.PendingAction) error {
	if len(actions) == 0 {
		if err := q.store.Remove(ctx, OfflineQueueKey); err != nil {
			return fmt.Errorf("%w: clear offline queue: %w", domain.ErrPersistence, err)
		}
		return nil
	}

	raw, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("encode offline queue: %w", err)
	}
	if err := q.store.Set(ctx, OfflineQueueKey, string(raw)); err != nil {
		return fmt.Errorf("%w: write offline queue: %w", domain.ErrPersistence, err)
	}

	return nil
}
