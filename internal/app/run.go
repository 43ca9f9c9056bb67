package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"paysign/internal/common/logging"
	"paysign/internal/config"
)

// InitLogging configures the global logger from cfg.
func InitLogging(cfg *config.Config) error {
	return logging.InitGlobalLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Run loads and validates configuration, then serves the gateway until
// interrupted.
func Run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateGateway(); err != nil {
		return err
	}
	if err := InitLogging(cfg); err != nil {
		return err
	}
	defer logging.MustSync()

	ctx, stop := SignalContext(ctx)
	defer stop()

	a, err := New(ctx, cfg, logging.GetGlobalLogger())
	if err != nil {
		logging.Error("Failed to initialize application", err)
		return err
	}
	defer a.Cleanup()

	if err := a.Serve(ctx); err != nil {
		logging.Error("Gateway stopped with error", err)
		return err
	}
	logging.Info("Gateway exited")
	return nil
}
