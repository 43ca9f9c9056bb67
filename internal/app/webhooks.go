package app

import (
	"context"

	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
	"paysign/internal/config"
	"paysign/internal/credentials"
	"paysign/internal/middleware"
	"paysign/internal/server"
	"paysign/internal/signing"
	"paysign/internal/verifier"
	"paysign/internal/webhooks"
)

// LoggingHandler acknowledges every event and logs its summary.
type LoggingHandler struct {
	Logger logging.Logger
}

func (h LoggingHandler) HandlePayout(ctx context.Context, event webhooks.Event, data webhooks.PayoutData) error {
	h.Logger.WithContext(ctx).Info("Payout event",
		logging.String("event", string(event.Event)),
		logging.String("payout_id", data.PayoutID),
		logging.String("status", data.Status),
		logging.String("currency", data.Currency),
	)
	return nil
}

func (h LoggingHandler) HandleDeposit(ctx context.Context, event webhooks.Event, data webhooks.DepositData) error {
	h.Logger.WithContext(ctx).Info("Deposit event",
		logging.String("event", string(event.Event)),
		logging.String("deposit_id", data.DepositID),
		logging.String("status", data.Status),
		logging.String("currency", data.Currency),
	)
	return nil
}

// CallerCredentials returns PAYSIGN_API_KEY and PAYSIGN_SECRET_KEY.
func CallerCredentials(cfg *config.Config) (signing.Credentials, error) {
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return signing.Credentials{}, errors.ConfigError("PAYSIGN_API_KEY and PAYSIGN_SECRET_KEY are required")
	}
	return signing.Credentials{APIKey: cfg.APIKey, SecretKey: cfg.SecretKey}, nil
}

// ListenWebhooks serves the webhook endpoints on PORT, verified against the
// caller credentials, and dispatches events to h.
func ListenWebhooks(ctx context.Context, cfg *config.Config, h webhooks.Handler, logger logging.Logger) error {
	creds, err := CallerCredentials(cfg)
	if err != nil {
		return err
	}

	v := verifier.New(credentials.NewMemoryStore(creds),
		verifier.WithTolerance(cfg.Tolerance()),
		verifier.WithLogger(logger),
	)
	receiver := webhooks.NewReceiver(v, h, middleware.AuthConfig{MaxBodyBytes: cfg.BodyLimit(), Logger: logger})
	handler := middleware.RequestID(middleware.Logging(logger)(receiver.Router()))

	logger.Info("Listening for webhooks", logging.String("port", cfg.Port))
	return server.New(handler, cfg.Port, logger).Run(ctx)
}
