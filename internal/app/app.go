// Package app wires configuration, the credential store, the verifier and
// the HTTP surfaces into runnable services.
package app

import (
	"context"
	"net/http"
	"net/url"

	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
	"paysign/internal/config"
	"paysign/internal/credentials"
	"paysign/internal/gateway"
	"paysign/internal/metrics"
	"paysign/internal/middleware"
	"paysign/internal/server"
	"paysign/internal/verifier"
)

// App holds the long-lived components of the gateway.
type App struct {
	Config   *config.Config
	Store    credentials.Store
	Verifier *verifier.Verifier
	// Metrics is nil when METRICS_ENABLED is false.
	Metrics *metrics.Service
	Logger  logging.Logger
}

// New opens the configured credential store and builds the verifier.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	store, err := credentials.Open(ctx, cfg)
	if err != nil {
		return nil, errors.ConfigError("failed to open credential store").
			WithContext("store", cfg.CredentialStore).
			WithContext("cause", err.Error())
	}

	logger.Info("Credential store ready", logging.String("store", cfg.CredentialStore))

	a := &App{
		Config: cfg,
		Store:  store,
		Verifier: verifier.New(store,
			verifier.WithTolerance(cfg.Tolerance()),
			verifier.WithLogger(logger),
		),
		Logger: logger,
	}
	if cfg.Metrics() {
		a.Metrics = metrics.NewService()
	}
	return a, nil
}

// Handler builds the gateway handler for UPSTREAM_URL.
func (a *App) Handler() (http.Handler, error) {
	upstream, err := url.Parse(a.Config.UpstreamURL)
	if err != nil {
		return nil, errors.ConfigError("invalid UPSTREAM_URL")
	}

	opts := gateway.Options{
		Upstream: upstream,
		Verifier: a.Verifier,
		Auth:     middleware.AuthConfig{MaxBodyBytes: a.Config.BodyLimit(), Logger: a.Logger},
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	}
	if checker, ok := a.Store.(credentials.HealthChecker); ok {
		opts.Health = checker
	}
	return gateway.New(opts)
}

// Serve runs the gateway on PORT until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}

	a.Logger.Info("Starting gateway",
		logging.String("port", a.Config.Port),
		logging.String("upstream", a.Config.UpstreamURL),
		logging.Duration("tolerance", a.Verifier.Tolerance()),
	)
	return server.New(handler, a.Config.Port, a.Logger).Run(ctx)
}

// Cleanup releases the credential store.
func (a *App) Cleanup() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("Error closing credential store", logging.Err(err))
	}
}
