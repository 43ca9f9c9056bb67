package webhooks

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"paysign/internal/common/errors"
	"paysign/internal/common/logging"
	"paysign/internal/middleware"
	"paysign/internal/verifier"
)

// Handler processes verified, decoded events.
type Handler interface {
	HandlePayout(ctx context.Context, event Event, data PayoutData) error
	HandleDeposit(ctx context.Context, event Event, data DepositData) error
}

// HandlerFuncs adapts plain functions to Handler. A nil func accepts the
// event without doing anything.
type HandlerFuncs struct {
	Payout  func(ctx context.Context, event Event, data PayoutData) error
	Deposit func(ctx context.Context, event Event, data DepositData) error
}

func (h HandlerFuncs) HandlePayout(ctx context.Context, event Event, data PayoutData) error {
	if h.Payout == nil {
		return nil
	}
	return h.Payout(ctx, event, data)
}

func (h HandlerFuncs) HandleDeposit(ctx context.Context, event Event, data DepositData) error {
	if h.Deposit == nil {
		return nil
	}
	return h.Deposit(ctx, event, data)
}

// Receiver serves /webhooks/payout and /webhooks/deposit.
type Receiver struct {
	verifier *verifier.Verifier
	handler  Handler
	auth     middleware.AuthConfig
	logger   logging.Logger
}

// NewReceiver creates a Receiver that verifies with v and dispatches to h.
func NewReceiver(v *verifier.Verifier, h Handler, auth middleware.AuthConfig) *Receiver {
	logger := auth.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Receiver{verifier: v, handler: h, auth: auth, logger: logger}
}

// Register mounts the webhook endpoints on r behind signature verification.
func (rc *Receiver) Register(r *mux.Router) {
	sub := r.PathPrefix("/webhooks").Subrouter()
	sub.Use(mux.MiddlewareFunc(middleware.Authenticate(rc.verifier, rc.auth)))
	sub.HandleFunc("/payout", rc.handle(ChannelPayout)).Methods(http.MethodPost)
	sub.HandleFunc("/deposit", rc.handle(ChannelDeposit)).Methods(http.MethodPost)
}

// Router returns a new router with only the webhook endpoints.
func (rc *Receiver) Router() *mux.Router {
	r := mux.NewRouter()
	rc.Register(r)
	return r
}

// AckResponse is written for accepted events.
type AckResponse struct {
	Status string    `json:"status"`
	Event  EventType `json:"event"`
}

func (rc *Receiver) handle(channel Channel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := rc.logger.WithContext(ctx)

		var event Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			middleware.WriteError(w, errors.ValidationError("webhook body is not a valid event"))
			return
		}

		if err := rc.dispatch(ctx, channel, event); err != nil {
			status := middleware.StatusCode(err)
			if errors.IsType(err, errors.ErrTypeValidation) && middleware.ErrorCode(err) == CodeUnknownEvent {
				status = http.StatusUnprocessableEntity
			}
			log.Warn("Webhook rejected",
				logging.String("event", string(event.Event)),
				logging.String("channel", string(channel)),
				logging.Int("status", status),
				logging.Err(err),
			)
			middleware.WriteErrorStatus(w, status, err)
			return
		}

		log.Info("Webhook received",
			logging.String("event", string(event.Event)),
			logging.String("channel", string(channel)),
		)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(AckResponse{Status: "received", Event: event.Event})
	}
}

func (rc *Receiver) dispatch(ctx context.Context, channel Channel, event Event) error {
	switch channel {
	case ChannelPayout:
		data, err := event.Payout()
		if err != nil {
			return err
		}
		return rc.handler.HandlePayout(ctx, event, data)
	case ChannelDeposit:
		data, err := event.Deposit()
		if err != nil {
			return err
		}
		return rc.handler.HandleDeposit(ctx, event, data)
	default:
		return errors.NotFoundError("webhook channel")
	}
}
