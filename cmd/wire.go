package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/api"
	chainstore "github.com/tentimesukulele/BobiPlanCheck/internal/adapters/kv/chain"
	filestore "github.com/tentimesukulele/BobiPlanCheck/internal/adapters/kv/file"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/kv/memory"
	sqlitestore "github.com/tentimesukulele/BobiPlanCheck/internal/adapters/kv/sqlite"
	tomlstore "github.com/tentimesukulele/BobiPlanCheck/internal/adapters/kv/toml"
	"github.com/tentimesukulele/BobiPlanCheck/internal/adapters/reachability"
	statusadapter "github.com/tentimesukulele/BobiPlanCheck/internal/adapters/render/status"
	"github.com/tentimesukulele/BobiPlanCheck/internal/application"
	"github.com/tentimesukulele/BobiPlanCheck/internal/config"
	"github.com/tentimesukulele/BobiPlanCheck/internal/logging"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
	"go.uber.org/zap"
)

type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    ports.KeyValueStore
	closers  []io.Closer
	probe    *reachability.Probe
	identity *application.Identity
	queue    *application.OfflineQueue
	cache    *application.ResponseCache
	backend  *application.Backend

	members       *application.MemberService
	tasks         *application.TaskService
	calendar      *application.CalendarService
	schedule      *application.ScheduleService
	grades        *application.GradeService
	notifications *application.NotificationService
	dashboard     *application.Dashboard

	statusRenderer func(application.DashboardSnapshot, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	store, closers, err := wireStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("wire storage: %w", err)
	}

	identity := application.NewIdentity(store, cfg.Identity.DefaultMemberID, logger.Named("identity"))

	client, err := api.NewClient(api.Options{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		RetryAttempts: cfg.API.RetryAttempts,
		Identity:      identity,
		Logger:        logger.Named("api"),
	})
	if err != nil {
		return nil, fmt.Errorf("wire api client: %w", err)
	}

	probe := reachability.NewProbe(client, cfg.API.HealthPath, cfg.Monitor.ProbeTimeout)
	clock := ports.SystemClock{}

	queue := application.NewOfflineQueue(store, client, application.QueueOptions{
		Policy:      application.DrainPolicy(cfg.Queue.DrainPolicy),
		MaxAttempts: cfg.Queue.MaxAttempts,
		Clock:       clock,
		Logger:      logger.Named("queue"),
	})
	cache := application.NewResponseCache(store, probe, clock, cfg.Cache.Freshness, logger.Named("cache"))
	backend := application.NewBackend(application.BackendOptions{
		Transport:    client,
		Reachability: probe,
		Cache:        cache,
		Queue:        queue,
		Identity:     identity,
		Clock:        clock,
		Logger:       logger,
	})

	tasks := application.NewTaskService(backend)
	schedule := application.NewScheduleService(backend, store)

	return &app{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		closers:        closers,
		probe:          probe,
		identity:       identity,
		queue:          queue,
		cache:          cache,
		backend:        backend,
		members:        application.NewMemberService(backend),
		tasks:          tasks,
		calendar:       application.NewCalendarService(backend),
		schedule:       schedule,
		grades:         application.NewGradeService(backend),
		notifications:  application.NewNotificationService(backend),
		dashboard:      application.NewDashboard(backend, tasks, schedule),
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}, nil
}

// wireStore opens the configured backend and, unless disabled, puts an
// in-memory store behind it so a broken disk degrades to session storage.
func wireStore(cfg config.StorageConfig) (ports.KeyValueStore, []io.Closer, error) {
	var (
		primary ports.KeyValueStore
		closers []io.Closer
	)

	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil, nil
	case config.BackendFile:
		primary = filestore.NewStore(cfg.Path)
	case config.BackendSQLite:
		store, err := sqlitestore.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		primary = store
		closers = append(closers, store)
	default:
		store, err := tomlstore.NewStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		primary = store
	}

	if !cfg.FallbackMemory {
		return primary, closers, nil
	}

	chained, err := chainstore.NewStoreChecked(primary, memory.NewStore())
	if err != nil {
		return nil, nil, err
	}

	return chained, closers, nil
}

func (a *app) close() {
	for _, closer := range a.closers {
		if err := closer.Close(); err != nil {
			a.logger.Warn("close storage", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
