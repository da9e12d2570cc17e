package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c360studio/semstreams/natsclient"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/briefwork/config"
	"github.com/c360studio/briefwork/events"
	"github.com/c360studio/briefwork/llm"
	"github.com/c360studio/briefwork/llm/providers"
	"github.com/c360studio/briefwork/storage"
	"github.com/c360studio/briefwork/synthesis"
	"github.com/c360studio/briefwork/workshop"
)

// activeSessionFile sits next to the user config and holds the id of the
// session commands operate on when --session is not given.
const activeSessionFile = "active-session"

// closeTimeout bounds the final flush and store shutdown.
const closeTimeout = 5 * time.Second

// App is the main application that wires together all components.
type App struct {
	cfg    *config.Config
	loader *config.Loader
	logger *slog.Logger

	// Storage
	natsClient *natsclient.Client
	store      storage.Store
	gateway    *storage.Gateway

	// Session
	ctrl  *workshop.Controller
	saver *storage.AutoSaver
}

// openApp loads configuration and opens the session store. It does not load a
// session; see openSession.
func openApp(ctx context.Context, c *cli) (*App, error) {
	var opts []config.LoaderOption
	if c.configPath != "" {
		opts = append(opts, config.WithUserConfigPath(c.configPath))
	}
	loader := config.NewLoader(c.logger, opts...)

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	providers.MockLatency = cfg.LLM.MockLatency

	a := &App{cfg: cfg, loader: loader, logger: c.logger}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	gwOpts := []storage.GatewayOption{storage.WithGatewayLogger(c.logger)}
	if a.natsClient != nil {
		gwOpts = append(gwOpts, storage.WithOnSave(events.OnSave(a.natsClient, c.logger)))
	}
	a.gateway = storage.NewGateway(a.store, gwOpts...)
	return a, nil
}

// openStore creates the configured session store.
func (a *App) openStore(ctx context.Context) error {
	sc := a.cfg.Storage
	a.logger.Debug("Opening session store", "backend", sc.Backend)

	switch sc.Backend {
	case storage.BackendFile:
		store, err := storage.NewFileStore(sc.Dir)
		if err != nil {
			return err
		}
		a.store = store

	case storage.BackendMemory:
		a.logger.Warn("Memory backend keeps sessions only until the process exits")
		a.store = storage.NewMemoryStore(0)

	case storage.BackendNATS:
		client, err := connectToNATS(ctx, sc.NATSURL, a.logger)
		if err != nil {
			return err
		}
		js, err := client.JetStream()
		if err != nil {
			client.Close(ctx)
			return fmt.Errorf("get jetstream: %w", err)
		}
		store, err := storage.NewNATSStore(ctx, js, sc.Bucket)
		if err != nil {
			client.Close(ctx)
			return err
		}
		a.natsClient = client
		a.store = store

	case storage.BackendRedis:
		store, err := storage.NewRedisStoreFromURL(sc.RedisURL)
		if err != nil {
			return err
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return fmt.Errorf("redis at %s: %w", sc.RedisURL, err)
		}
		a.store = store

	case storage.BackendPostgres:
		db, err := storage.OpenPostgres(sc.DatabaseURL)
		if err != nil {
			return err
		}
		store, err := storage.NewPostgresStore(ctx, db)
		if err != nil {
			return err
		}
		a.store = store

	default:
		return fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalidConfig, sc.Backend)
	}
	return nil
}

// connectToNATS connects with reconnects enabled and waits for the link.
func connectToNATS(ctx context.Context, url string, logger *slog.Logger) (*natsclient.Client, error) {
	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithCircuitBreakerThreshold(20),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker run -d -p 4222:4222 nats -js

Or unset NATS_URL to keep sessions in local files.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

// activeSessionPath returns where the active session id is kept.
func (a *App) activeSessionPath() string {
	return filepath.Join(filepath.Dir(a.loader.UserConfigPath()), activeSessionFile)
}

func (a *App) readActiveSession() string {
	data, err := os.ReadFile(a.activeSessionPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (a *App) writeActiveSession(id string) error {
	path := a.activeSessionPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(id+"\n"), 0600)
}

// openSession loads the session named by --session or the active-session
// file. A stale active id or no id at all starts a fresh session; an explicit
// --session that doesn't exist is an error.
func (a *App) openSession(ctx context.Context, explicitID string) error {
	id := explicitID
	if id == "" {
		id = a.readActiveSession()
	}

	var state *workshop.SessionState
	if id != "" {
		loaded, err := a.gateway.LoadState(ctx, id)
		switch {
		case err == nil:
			state = loaded
		case errors.Is(err, storage.ErrNotFound) && explicitID == "":
			a.logger.Warn("Active session no longer exists; starting a new one", "session_id", id)
		default:
			return err
		}
	}

	a.attach(state)
	if state == nil {
		snap := a.ctrl.Snapshot()
		if err := a.gateway.SaveState(ctx, &snap); err != nil {
			return err
		}
	}
	return nil
}

// newSession replaces any open session with a fresh one and saves it.
func (a *App) newSession(ctx context.Context) error {
	if a.saver != nil {
		if err := a.saver.Close(); err != nil {
			return err
		}
	}
	a.attach(nil)
	snap := a.ctrl.Snapshot()
	return a.gateway.SaveState(ctx, &snap)
}

// attach builds the controller and its auto-saver. A nil state starts fresh.
func (a *App) attach(state *workshop.SessionState) {
	opts := []workshop.Option{
		workshop.WithSkipOptionalPhases(a.cfg.Workshop.SkipOptional()),
		workshop.WithLogger(a.logger),
	}
	if state != nil {
		opts = append(opts, workshop.WithState(state))
	}
	a.ctrl = workshop.NewController(opts...)
	a.saver = storage.NewAutoSaver(a.gateway, a.ctrl,
		storage.WithDebounce(a.cfg.Storage.Debounce),
		storage.WithAutoSaveLogger(a.logger),
	)
}

// llmConfig picks the session's own provider settings once it has a key,
// and the configured defaults otherwise.
func (a *App) llmConfig() llm.Config {
	fromConfig := a.cfg.LLM.ClientConfig()
	if a.ctrl == nil {
		return fromConfig
	}
	session := a.ctrl.Snapshot().LLMConfig
	if session.APIKey == "" {
		return fromConfig
	}
	if session.Provider == fromConfig.Provider && session.BaseURL == "" {
		session.BaseURL = fromConfig.BaseURL
	}
	return session
}

// llmClient builds a client for the effective provider settings. reg may be
// nil; metrics are then not recorded.
func (a *App) llmClient(reg prometheus.Registerer) (*llm.Client, error) {
	opts := []llm.ClientOption{
		llm.WithHTTPClient(&http.Client{Timeout: a.cfg.LLM.Timeout}),
		llm.WithRetryConfig(a.cfg.LLM.RetryConfig()),
		llm.WithLogger(a.logger),
	}
	if reg != nil {
		m, err := llm.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("register llm metrics: %w", err)
		}
		opts = append(opts, llm.WithMetrics(m))
	}
	return llm.NewClient(a.llmConfig(), opts...)
}

// synthesis returns a service bound to the open session.
func (a *App) synthesis() (*synthesis.Service, error) {
	client, err := a.llmClient(nil)
	if err != nil {
		return nil, err
	}
	return synthesis.NewService(a.ctrl, client, synthesis.WithLogger(a.logger)), nil
}

// Close flushes pending saves, records the active session and releases the
// store. It runs on a fresh context so an interrupted command still saves.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var errs []error
	if a.saver != nil {
		errs = append(errs, a.saver.Close())
	}
	if a.ctrl != nil {
		errs = append(errs, a.writeActiveSession(a.ctrl.SessionID()))
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.natsClient != nil {
		a.natsClient.Close(ctx)
	}
	return errors.Join(errs...)
}

// withApp opens the app, runs fn and closes the app.
func (c *cli) withApp(ctx context.Context, fn func(ctx context.Context, a *App) error) (err error) {
	a, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	return fn(ctx, a)
}

// withSession is withApp plus the active session.
func (c *cli) withSession(ctx context.Context, fn func(ctx context.Context, a *App) error) error {
	return c.withApp(ctx, func(ctx context.Context, a *App) error {
		if err := a.openSession(ctx, c.sessionID); err != nil {
			return err
		}
		return fn(ctx, a)
	})
}
