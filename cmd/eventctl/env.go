package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"event-management/client/internal/config"
	"event-management/client/internal/events"
	"event-management/client/internal/gateway"
	"event-management/client/internal/policy/engine"
	"event-management/client/internal/query"
	"event-management/client/internal/security"
	"event-management/client/internal/session"
	"event-management/client/internal/storage"
	"event-management/client/internal/telemetry"
	telemetryotel "event-management/client/internal/telemetry/otel"
	"event-management/client/internal/view"
)

const serviceName = "eventctl"

// env is everything a command needs, built once per invocation.
type env struct {
	cfg   *config.Config
	store *session.Store
	app   *view.App
	con   *console

	closers []func(context.Context) error
}

func newEnv(ctx context.Context, cfg *config.Config, con *console) (*env, error) {
	e := &env{cfg: cfg, con: con}

	var sealer *security.Sealer
	if k := strings.TrimSpace(cfg.StorageEncryptionKey); k != "" {
		key, err := security.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("STORAGE_ENCRYPTION_KEY: %w", err)
		}
		if sealer, err = security.NewSealer(key); err != nil {
			return nil, fmt.Errorf("STORAGE_ENCRYPTION_KEY: %w", err)
		}
	}
	repo, closeRepo, err := storage.Open(cfg.StorageDriver, cfg.StorageDSN, sealer)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, func(context.Context) error { return closeRepo() })

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	providers.SetGlobal()
	exporting := strings.TrimSpace(cfg.OTLPEndpoint) != ""
	e.closers = append(e.closers, func(ctx context.Context) error {
		if exporting {
			time.Sleep(telemetry.ShutdownDrainDuration)
		}
		return providers.Shutdown(ctx)
	})

	gw := gateway.New(cfg.BaseURL(), repo,
		gateway.WithTimeout(cfg.Timeout()),
		gateway.WithMeterProvider(providers.MeterProvider),
		gateway.WithTracerProvider(providers.TracerProvider),
		gateway.WithProactiveRefresh(cfg.Skew()),
	)
	e.store = session.NewStore(gw, repo, session.WithEmitter(telemetryotel.NewEventEmitter(providers.LoggerProvider)))
	gw.AddListener(e.store)
	gw.AddListener(expiryNotice{con: con})

	policy, err := engine.NewOPAEvaluator(ctx, nil)
	if err != nil {
		e.close()
		return nil, err
	}
	e.app = view.New(view.Config{
		Session:   e.store,
		Events:    events.NewClient(gw),
		Cache:     query.NewCache(query.WithRetry(query.RetryPolicy{Retries: cfg.QueryRetryCount, Delay: cfg.RetryDelay()})),
		Policy:    policy,
		Notifier:  con,
		Navigator: con,
		StaleTime: cfg.StaleTime(),
		Debounce:  cfg.Debounce(),
	})
	stop := e.app.ClearOnSessionChange(e.store)
	e.closers = append(e.closers, func(context.Context) error {
		stop()
		return nil
	})

	if err := e.store.Restore(ctx); err != nil {
		log.Printf("eventctl: restore session: %v", err)
	}
	return e, nil
}

// close releases resources in reverse order of acquisition.
func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			log.Printf("eventctl: shutdown: %v", err)
		}
	}
}

// console prints notifications to stderr and records whether an error was shown.
type console struct {
	out, err io.Writer
	reported bool
}

func (c *console) Success(msg string) { fmt.Fprintln(c.err, msg) }

func (c *console) Error(msg string) {
	c.reported = true
	fmt.Fprintln(c.err, "error:", msg)
}

func (c *console) Navigate(route string) {
	if route == view.RouteLogin {
		fmt.Fprintln(c.err, "run `eventctl login` to sign in")
	}
}

// expiryNotice tells the user when the gateway gave up on the session.
type expiryNotice struct {
	con *console
}

func (expiryNotice) TokenRefreshed(string, string) {}

func (n expiryNotice) SessionExpired() {
	fmt.Fprintln(n.con.err, "session expired; run `eventctl login`")
}

var _ gateway.Listener = expiryNotice{}
