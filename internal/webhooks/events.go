// Package webhooks delivers and receives signed deposit and payout
// notifications. Callbacks carry the same X-API-Key, X-Timestamp and
// X-Signature headers as API requests and are verified the same way.
package webhooks

import (
	"encoding/json"
	"strings"
	"time"

	"paysign/internal/common/errors"
)

// EventType names a webhook event.
type EventType string

const (
	EventPayoutCompleted  EventType = "payout.completed"
	EventPayoutFailed     EventType = "payout.failed"
	EventDepositCompleted EventType = "deposit.completed"
	EventDepositPending   EventType = "deposit.pending"
	EventDepositFailed    EventType = "deposit.failed"
)

// EventTypes lists every known event.
var EventTypes = []EventType{
	EventPayoutCompleted,
	EventPayoutFailed,
	EventDepositCompleted,
	EventDepositPending,
	EventDepositFailed,
}

// Channel is the consumer endpoint an event is delivered to.
type Channel string

const (
	ChannelPayout  Channel = "payout"
	ChannelDeposit Channel = "deposit"
)

// CodeUnknownEvent marks an event name that the endpoint does not accept.
const CodeUnknownEvent = "UNKNOWN_EVENT"

// Path returns the endpoint path, /webhooks/<channel>.
func (c Channel) Path() string {
	return "/webhooks/" + string(c)
}

// Known reports whether t is one of EventTypes.
func (t EventType) Known() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Channel returns the endpoint for t, derived from its prefix.
func (t EventType) Channel() (Channel, bool) {
	if !t.Known() {
		return "", false
	}
	prefix, _, _ := strings.Cut(string(t), ".")
	return Channel(prefix), true
}

// Event is the envelope POSTed to consumer endpoints.
type Event struct {
	Event     EventType       `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventError describes why a payout or deposit failed.
type EventError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PayoutData is the data of payout.* events.
type PayoutData struct {
	PayoutID      string      `json:"payout_id"`
	UserID        string      `json:"user_id"`
	Amount        float64     `json:"amount"`
	Currency      string      `json:"currency"`
	PaymentMethod string      `json:"payment_method"`
	Status        string      `json:"status"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	Reference     string      `json:"reference,omitempty"`
	Error         *EventError `json:"error,omitempty"`
}

// DepositData is the data of deposit.* events.
type DepositData struct {
	DepositID     string      `json:"deposit_id"`
	UserID        string      `json:"user_id"`
	Amount        float64     `json:"amount"`
	Currency      string      `json:"currency"`
	PaymentMethod string      `json:"payment_method"`
	Status        string      `json:"status"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	Reference     string      `json:"reference,omitempty"`
	Message       string      `json:"message,omitempty"`
	Error         *EventError `json:"error,omitempty"`
}

// NewPayoutEvent wraps data in an envelope. eventType must be a payout event.
func NewPayoutEvent(eventType EventType, at time.Time, data PayoutData) (Event, error) {
	return newEvent(eventType, ChannelPayout, at, data)
}

// NewDepositEvent wraps data in an envelope. eventType must be a deposit event.
func NewDepositEvent(eventType EventType, at time.Time, data DepositData) (Event, error) {
	return newEvent(eventType, ChannelDeposit, at, data)
}

func newEvent(eventType EventType, want Channel, at time.Time, data interface{}) (Event, error) {
	if channel, ok := eventType.Channel(); !ok || channel != want {
		return Event{}, errors.ValidationError("event does not belong to channel").
			WithContext("event", string(eventType)).
			WithContext("channel", string(want))
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, errors.InternalError("failed to encode event data", err)
	}
	return Event{Event: eventType, Timestamp: at.UTC(), Data: raw}, nil
}

// Payout decodes the data of a payout event.
func (e Event) Payout() (PayoutData, error) {
	var data PayoutData
	if err := e.decode(ChannelPayout, &data); err != nil {
		return PayoutData{}, err
	}
	return data, nil
}

// Deposit decodes the data of a deposit event.
func (e Event) Deposit() (DepositData, error) {
	var data DepositData
	if err := e.decode(ChannelDeposit, &data); err != nil {
		return DepositData{}, err
	}
	return data, nil
}

func (e Event) decode(want Channel, out interface{}) error {
	if channel, ok := e.Event.Channel(); !ok || channel != want {
		return errors.ValidationError("unexpected event for channel").
			WithContext("event", string(e.Event)).
			WithContext("channel", string(want)).
			WithCode(CodeUnknownEvent)
	}
	if len(e.Data) == 0 {
		return errors.ValidationError("event data is missing").WithContext("event", string(e.Event))
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return errors.ValidationError("event data is malformed").WithContext("event", string(e.Event))
	}
	return nil
}
