package reachability

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/tentimesukulele/BobiPlanCheck/internal/logging"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
	"go.uber.org/zap"
)

const DefaultSchedule = "@every 30s"

var errMonitorStarted = errors.New("monitor already started")

// Monitor polls a Reachability on a cron schedule and tells listeners when
// connectivity flips. The first observation always counts as a flip.
type Monitor struct {
	source   ports.Reachability
	schedule string
	logger   *zap.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	mu        sync.Mutex
	known     bool
	online    bool
	nextID    int
	listeners map[int]ports.ConnectivityListener

	checkMu sync.Mutex
}

func NewMonitor(source ports.Reachability, schedule string, logger *zap.Logger) *Monitor {
	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &Monitor{
		source:    source,
		schedule:  schedule,
		logger:    logging.OrNop(logger),
		listeners: map[int]ports.ConnectivityListener{},
	}
}

// AddListener registers fn and returns a func that unregisters it.
func (m *Monitor) AddListener(fn ports.ConnectivityListener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Online returns the last observed state and whether anything was observed yet.
func (m *Monitor) Online() (online bool, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.online, m.known
}

// Check polls once and notifies listeners synchronously on a transition.
func (m *Monitor) Check(ctx context.Context) (bool, error) {
	m.checkMu.Lock()
	defer m.checkMu.Unlock()

	online, err := m.source.IsOnline(ctx)
	if err != nil {
		return false, fmt.Errorf("check reachability: %w", err)
	}

	m.mu.Lock()
	changed := !m.known || m.online != online
	m.known = true
	m.online = online
	listeners := make([]ports.ConnectivityListener, 0, len(m.listeners))
	if changed {
		for _, listener := range m.listeners {
			listeners = append(listeners, listener)
		}
	}
	m.mu.Unlock()

	if changed {
		m.logger.Info("connectivity changed", zap.Bool("online", online))
		for _, listener := range listeners {
			listener(online)
		}
	}

	return online, nil
}

// Start runs one immediate check and then polls on the schedule until ctx is
// done or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.cron != nil {
		m.mu.Unlock()
		return errMonitorStarted
	}
	c := cron.New()
	m.cron = c
	m.mu.Unlock()

	id, err := c.AddFunc(m.schedule, func() {
		if _, err := m.Check(ctx); err != nil && ctx.Err() == nil {
			m.logger.Warn("scheduled reachability check failed", zap.Error(err))
		}
	})
	if err != nil {
		m.mu.Lock()
		m.cron = nil
		m.mu.Unlock()
		return fmt.Errorf("schedule reachability check %q: %w", m.schedule, err)
	}
	m.mu.Lock()
	m.entryID = id
	m.mu.Unlock()

	m.logger.Debug("starting connectivity monitor", zap.String("schedule", m.schedule))
	if _, err := m.Check(ctx); err != nil {
		m.logger.Warn("initial reachability check failed", zap.Error(err))
	}
	c.Start()

	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	return nil
}

// Stop halts polling and waits for a running check to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	c := m.cron
	entryID := m.entryID
	m.cron = nil
	m.mu.Unlock()

	if c == nil {
		return
	}

	c.Remove(entryID)
	<-c.Stop().Done()
	m.logger.Debug("stopped connectivity monitor")
}
