package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"paysign/internal/client"
	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
	"paysign/internal/common/utils"
	"paysign/internal/signing"
)

// Delivery reports the outcome of Send.
type Delivery struct {
	Event      EventType
	URL        string
	Attempts   int
	StatusCode int
	Signature  signing.Signature
}

// DeliveryRecorder counts finished deliveries. Outcome is "delivered",
// "rejected" or "failed".
type DeliveryRecorder interface {
	RecordDelivery(event, outcome string, attempts int)
}

// Sender signs events and POSTs them to a consumer's webhook endpoints.
type Sender struct {
	baseURL    *url.URL
	creds      signing.Credentials
	httpClient *http.Client
	retry      utils.RetryConfig
	now        func() time.Time
	logger     logging.Logger
	metrics    DeliveryRecorder
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithSenderHTTPClient replaces the default client with a 10 second timeout.
func WithSenderHTTPClient(hc *http.Client) SenderOption {
	return func(s *Sender) {
		s.httpClient = hc
	}
}

// WithRetry replaces utils.DefaultRetryConfig.
func WithRetry(config utils.RetryConfig) SenderOption {
	return func(s *Sender) {
		s.retry = config
	}
}

// WithSenderClock replaces time.Now for X-Timestamp.
func WithSenderClock(now func() time.Time) SenderOption {
	return func(s *Sender) {
		s.now = now
	}
}

// WithSenderLogger sets the delivery logger.
func WithSenderLogger(logger logging.Logger) SenderOption {
	return func(s *Sender) {
		s.logger = logger
	}
}

// WithSenderMetrics records every finished delivery.
func WithSenderMetrics(recorder DeliveryRecorder) SenderOption {
	return func(s *Sender) {
		s.metrics = recorder
	}
}

// NewSender creates a Sender delivering to baseURL + Channel.Path().
func NewSender(baseURL string, creds signing.Credentials, opts ...SenderOption) (*Sender, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigError("webhook base URL must be absolute").WithContext("base_url", baseURL)
	}
	if creds.APIKey == "" || creds.SecretKey == "" {
		return nil, errors.ConfigError("api key and secret key are required")
	}

	s := &Sender{
		baseURL:    u,
		creds:      creds,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry:      utils.DefaultRetryConfig(),
		now:        time.Now,
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Endpoint returns the URL events of channel are sent to.
func (s *Sender) Endpoint(channel Channel) string {
	target := *s.baseURL
	target.Path = strings.TrimSuffix(s.baseURL.Path, "/") + channel.Path()
	return target.String()
}

// Send marshals event once and delivers those exact bytes. Each attempt is
// signed with a fresh timestamp so retries stay inside the receiver's
// window. Transport errors, 429 and 5xx are retried; other 4xx are final.
func (s *Sender) Send(ctx context.Context, event Event) (Delivery, error) {
	delivery := Delivery{Event: event.Event}

	channel, ok := event.Event.Channel()
	if !ok {
		return delivery, errors.ValidationError("unknown webhook event").
			WithContext("event", string(event.Event)).
			WithCode(CodeUnknownEvent)
	}
	delivery.URL = s.Endpoint(channel)

	body, err := json.Marshal(event)
	if err != nil {
		return delivery, errors.InternalError("failed to encode webhook event", err)
	}

	log := s.logger.WithContext(ctx).WithFields(
		logging.String("event", string(event.Event)),
		logging.String("url", delivery.URL),
	)

	retry := s.retry
	retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warn("Webhook delivery failed, retrying",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Err(err),
		)
	}

	err = utils.RetryWithBackoff(ctx, retry, func(ctx context.Context) error {
		delivery.Attempts++
		status, sig, err := s.deliver(ctx, delivery.URL, body)
		delivery.StatusCode = status
		delivery.Signature = sig
		return err
	})
	if err != nil {
		log.Error("Webhook delivery failed", err,
			logging.Int("attempts", delivery.Attempts),
			logging.Int("status", delivery.StatusCode),
		)
		outcome := "failed"
		if errors.IsType(err, errors.ErrTypeValidation) {
			outcome = "rejected"
		}
		s.record(event.Event, outcome, delivery.Attempts)
		return delivery, err
	}

	s.record(event.Event, "delivered", delivery.Attempts)
	log.Info("Webhook delivered",
		logging.Int("attempts", delivery.Attempts),
		logging.Int("status", delivery.StatusCode),
	)
	return delivery, nil
}

func (s *Sender) record(event EventType, outcome string, attempts int) {
	if s.metrics != nil {
		s.metrics.RecordDelivery(string(event), outcome, attempts)
	}
}

func (s *Sender) deliver(ctx context.Context, target string, body []byte) (int, signing.Signature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, "", errors.InternalError("failed to create webhook request", err)
	}

	sig, err := client.SignRequest(req, body, s.creds, s.now())
	if err != nil {
		return 0, "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, sig, errors.ConnectionError("webhook request failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.StatusCode, sig, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return resp.StatusCode, sig, errors.ConnectionError("webhook receiver unavailable", nil).
			WithContext("status", resp.StatusCode)
	default:
		return resp.StatusCode, sig, errors.ValidationError("webhook rejected by receiver").
			WithContext("status", resp.StatusCode).
			WithCode("WEBHOOK_REJECTED")
	}
}
