package mq

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/medscan/apiserver/config"
	"github.com/rs/zerolog"
)

// Domain event channels.
const (
	ChannelDoctorApproved    = "doctor.approved"
	ChannelDoctorRejected    = "doctor.rejected"
	ChannelReportCreated     = "report.created"
	ChannelAppointmentBooked = "appointment.booked"
)

// Event is the JSON payload published on domain channels.
type Event struct {
	AccountID  int       `json:"account_id,omitempty"`
	ProfileID  int       `json:"profile_id,omitempty"`
	ReportID   int       `json:"report_id,omitempty"`
	BookingID  int       `json:"booking_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Events publishes domain events best-effort: publishing failures are
// logged and never fail the request that raised them.
type Events struct {
	mq     *MQ
	logger zerolog.Logger
}

// NewEvents wraps an MQ for best-effort domain event publishing. A nil mq
// disables publishing entirely.
func NewEvents(mq *MQ, logger zerolog.Logger) *Events {
	return &Events{mq: mq, logger: logger}
}

// Publish emits the event on the named channel.
func (e *Events) Publish(ctx context.Context, channel string, event Event) {
	if e == nil || e.mq == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		e.logger.Error().Err(err).Str("channel", channel).Msg("marshal event")
		return
	}
	if _, err := e.mq.Publish(ctx, channel, data, nil); err != nil {
		e.logger.Error().Err(err).Str("channel", channel).Msg("publish event")
	}
}

// NewBackend constructs the broker backend selected in config, or nil when
// no backend is configured.
func NewBackend(ctx context.Context, cfg config.BrokerConfig) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "rabbitmq":
		return NewRabbitMQClient(cfg.RabbitMQ)
	case "pubsub":
		return NewPubSubClient(ctx, cfg.PubSub)
	default:
		return nil, errUnknownBackend(cfg.Backend)
	}
}

type errUnknownBackend string

func (e errUnknownBackend) Error() string {
	return "unknown broker backend: " + string(e)
}
