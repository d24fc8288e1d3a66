package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dukerupert/lovetoday/internal/backup"
	"github.com/dukerupert/lovetoday/internal/catalog"
	"github.com/dukerupert/lovetoday/internal/config"
	"github.com/dukerupert/lovetoday/internal/database"
	"github.com/dukerupert/lovetoday/internal/handler"
	"github.com/dukerupert/lovetoday/internal/idea"
	"github.com/dukerupert/lovetoday/internal/logging"
	"github.com/dukerupert/lovetoday/internal/prefs"
	"github.com/dukerupert/lovetoday/internal/push"
	"github.com/dukerupert/lovetoday/internal/reminder"
	"github.com/dukerupert/lovetoday/internal/store"
	"github.com/dukerupert/lovetoday/internal/streak"
	ws "github.com/dukerupert/lovetoday/internal/websocket"
)

// app holds every wired component. Commands use the parts they need.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db    *sql.DB
	redis *redis.Client

	kv         store.KV
	prefs      *prefs.Store
	streaks    *streak.Tracker
	selector   *idea.Selector
	notifier   *reminder.StoreNotifier
	devices    *reminder.DeviceStore
	pending    *reminder.PendingActions
	lifecycle  *reminder.Lifecycle
	reminders  *reminder.Scheduler
	directory  *push.Directory
	pushSvc    *push.Service
	dispatcher *push.Dispatcher
	registry   *prometheus.Registry
	hub        *ws.Hub
	backups    *backup.Manager
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.Setup(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	var subs push.Store
	switch cfg.StoreBackend {
	case config.BackendRedis:
		a.redis, err = store.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.kv = store.NewRedisKV(a.redis)
		subs = store.NewRedisPushStore(a.redis)
	default:
		a.db, err = database.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.kv = store.NewSQLiteKV(a.db)
		subs = store.NewPushStore(a.db)
	}
	// Every key-value read and write is retried once.
	a.kv = store.NewRetryKV(a.kv, store.DefaultRetryDelay)

	a.prefs = prefs.NewStore(a.kv)
	a.streaks = streak.NewTracker(a.kv, loc)
	a.selector = idea.NewSelector(catalog.Default())
	a.notifier = reminder.NewStoreNotifier(a.kv)
	a.devices = reminder.NewDeviceStore(a.kv)
	a.pending = reminder.NewPendingActions(a.kv)
	a.lifecycle = reminder.NewLifecycle(a.notifier, logger.With("component", "lifecycle"))
	a.hub = ws.NewHub(logger.With("component", "websocket"))

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a.directory = push.NewDirectory(subs)
	a.pushSvc = push.NewService(push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subject:         cfg.VAPIDSubject,
	})
	a.dispatcher = push.NewDispatcher(a.directory, a.pushSvc, logger.With("component", "dispatch"),
		push.WithConcurrency(cfg.DispatchConcurrency),
		push.WithDedupe(cfg.DispatchDedupe),
		push.WithMetrics(push.NewMetrics(a.registry)),
	)

	var transport reminder.Transport
	switch cfg.ReminderTransport {
	case config.TransportPush:
		var sub reminder.Subscriber = a.directory
		if cfg.PushServerURL != "" {
			sub = reminder.NewRemoteSubscriber(cfg.PushServerURL)
		}
		transport = reminder.NewPushTransport(a.devices, sub, logger.With("component", "push_transport"))
	default:
		transport = reminder.NewLocalTransport(a.notifier, a.streaks, loc)
	}
	a.reminders = reminder.NewScheduler(transport, logger.With("component", "reminders"))

	a.backups = backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		},
		Passphrase: cfg.BackupPassphrase,
	}, a.prefs, a.streaks, logger.With("component", "backup"))

	return a, nil
}

// appDeps hands the wired components to the app API.
func (a *app) appDeps() handler.AppDeps {
	return handler.AppDeps{
		Prefs:         a.prefs,
		Streaks:       a.streaks,
		Selector:      a.selector,
		Scheduler:     a.reminders,
		Lifecycle:     a.lifecycle,
		Pending:       a.pending,
		Devices:       a.devices,
		Registrations: a.notifier,
		Hub:           a.hub,
	}
}

// startReminders registers notification categories, routes responses to the
// pending-action slot, and schedules reminders from the saved preferences.
func (a *app) startReminders(ctx context.Context) {
	if err := a.lifecycle.EnsureInitialized(ctx); err != nil {
		a.logger.Warn("reminder categories not registered", "error", err)
	}
	a.lifecycle.OnResponse(a.pending.Listener())

	p, err := a.prefs.Load(ctx)
	if err != nil {
		a.logger.Error("load prefs for reminders", "error", err)
		return
	}
	a.reminders.Schedule(ctx, p)
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// withApp builds the app for one command run and closes it afterwards.
func withApp(ctx context.Context, fn func(*app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

const shutdownTimeout = 5 * time.Second
