package main

import (
	"io"
	"log/slog"

	"github.com/alfredjeanlab/ims/internal/api"
	"github.com/alfredjeanlab/ims/internal/audit"
	"github.com/alfredjeanlab/ims/internal/config"
	"github.com/alfredjeanlab/ims/internal/events"
	"github.com/alfredjeanlab/ims/internal/gateway"
	"github.com/alfredjeanlab/ims/internal/guard"
	"github.com/alfredjeanlab/ims/internal/nav"
	"github.com/alfredjeanlab/ims/internal/session"
)

// App holds the wiring shared by all commands.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	session   *session.Store
	gateway   *gateway.Gateway
	api       *api.Client
	guard     *guard.Guard
	publisher events.Publisher
	recorder  audit.Recorder

	unsubscribe func()
}

// newApp opens the session and connects the optional event bus and audit
// log. Optional services that fail to connect are logged and skipped.
func newApp(cfg *config.Config, baseURL string, logOut io.Writer) (*App, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	store, err := session.Open(session.NewFileStorage(cfg.SessionPath()), logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:       cfg,
		logger:    logger,
		session:   store,
		guard:     guard.New(store, nav.Login),
		publisher: &events.NoopPublisher{},
		recorder:  audit.NoopRecorder{},
	}

	natsURL := cfg.NATSURL
	if natsURL == "" {
		natsURL = activeRemote(cfg).NATSURL
	}
	if natsURL != "" {
		pub, err := events.NewNATSPublisher(natsURL)
		if err != nil {
			logger.Warn("events disabled", "error", err)
		} else {
			a.publisher = pub
		}
	}

	if cfg.AuditDatabaseURL != "" {
		rec, err := audit.NewPostgresRecorder(cfg.AuditDatabaseURL)
		if err != nil {
			logger.Warn("audit log disabled", "error", err)
		} else {
			a.recorder = rec
		}
	}

	a.unsubscribe = events.PublishSessionChanges(store, a.publisher, logger)
	a.gateway = gateway.New(baseURL, store,
		gateway.WithTimeout(cfg.HTTPTimeout),
		gateway.WithLogger(logger),
		gateway.WithObserver(audit.Observer(a.recorder, logger)),
	)
	a.api = api.New(a.gateway, store, api.WithPublisher(a.publisher), api.WithLogger(logger))
	return a, nil
}

// Close flushes events and closes the audit database.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("closing event publisher", "error", err)
	}
	if err := a.recorder.Close(); err != nil {
		a.logger.Warn("closing audit log", "error", err)
	}
}
