// Package events fans ledger notifications out to subscribers.
package events

import (
	"context"
	"sync"
	"time"

	"crowdfunding-ledger-backend/internal/common/logger"
	"crowdfunding-ledger-backend/internal/features/events/models"

	"github.com/google/uuid"
)

// Publisher receives committed ledger events. Publishing never fails the
// operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event models.Event)
}

// Sink is one delivery target of the Dispatcher.
type Sink interface {
	Name() string
	Send(ctx context.Context, event models.Event) error
}

const defaultSendTimeout = 5 * time.Second

// Dispatcher stamps events and hands them to every sink in order.
type Dispatcher struct {
	sinks       []Sink
	now         func() time.Time
	sendTimeout time.Duration
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks, now: time.Now, sendTimeout: defaultSendTimeout}
}

// Publish delivers an event of an already committed change. Cancelling ctx
// does not stop delivery, only the dispatcher's own timeout does.
func (d *Dispatcher) Publish(ctx context.Context, event models.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.sendTimeout)
	defer cancel()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = d.now().UTC()
	}

	for _, sink := range d.sinks {
		if err := sink.Send(ctx, event); err != nil {
			logger.Error().
				Err(err).
				Str("sink", sink.Name()).
				Str("event_id", event.ID).
				Str("type", string(event.Type)).
				Msg("Failed to deliver event")
		}
	}
}

// LogSink writes every event to the service log.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Send(ctx context.Context, event models.Event) error {
	e := logger.Info().
		Str("event_id", event.ID).
		Str("type", string(event.Type)).
		Str("actor", event.Actor)
	if event.CampaignID != nil {
		e = e.Uint64("campaign_id", *event.CampaignID)
	}
	if event.Amount != nil {
		e = e.Str("amount", event.Amount.String())
	}
	e.Msg("Ledger event")
	return nil
}

// Recorder keeps published events in memory. Tests use it to assert on
// emitted notifications.
type Recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *Recorder) Publish(ctx context.Context, event models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType filters recorded events by type.
func (r *Recorder) OfType(t models.EventType) []models.Event {
	var out []models.Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
