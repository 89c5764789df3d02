package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gamerit/domain/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	log "github.com/sirupsen/logrus"
)

const (
	publishTimeout  = 5 * time.Second
	publishAttempts = 3
	publishBackoff  = 100 * time.Millisecond
)

// EventHandler reacts in-process to a committed event
type EventHandler func(context.Context, events.Event) error

// EventEnvelope is the wire form of a domain event on NATS and the WebSocket
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// IdentifiedPublisher accepts an event together with the id it was raised
// under. Publishing the same id twice is deduplicated by JetStream.
type IdentifiedPublisher interface {
	PublishWithID(eventID string, event events.Event) error
}

// messageSink is the JetStream side of NATSClient
type messageSink interface {
	Publish(ctx context.Context, subject, msgID string, data []byte) error
}

// NewEventEnvelope wraps event under a fresh id
func NewEventEnvelope(event events.Event) (*EventEnvelope, error) {
	return newEventEnvelope(uuid.NewString(), event)
}

func newEventEnvelope(eventID string, event events.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.Type(), err)
	}
	return &EventEnvelope{
		EventID:       eventID,
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "gamerit",
		Payload:       payload,
	}, nil
}

// NATSEventPublisher fans a committed event out to in-process handlers and
// then to JetStream. With a nil client only the handlers run.
type NATSEventPublisher struct {
	natsClient    *NATSClient
	sink          messageSink
	subjectMapper *EventSubjectMapper
	byType        map[events.EventType][]EventHandler
	global        []EventHandler
}

// NewNATSEventPublisher creates a publisher. Handlers must be registered
// before the first Publish.
func NewNATSEventPublisher(natsClient *NATSClient, subjectMapper *EventSubjectMapper) *NATSEventPublisher {
	p := &NATSEventPublisher{
		natsClient:    natsClient,
		subjectMapper: subjectMapper,
		byType:        make(map[events.EventType][]EventHandler),
	}
	if natsClient != nil {
		p.sink = natsClient
	}
	return p
}

// RegisterLocalHandler subscribes handler to one event type
func (p *NATSEventPublisher) RegisterLocalHandler(eventType events.EventType, handler EventHandler) {
	p.byType[eventType] = append(p.byType[eventType], handler)
}

// RegisterGlobalHandler subscribes handler to every event type
func (p *NATSEventPublisher) RegisterGlobalHandler(handler EventHandler) {
	p.global = append(p.global, handler)
}

// EnsureDomainEventStream creates the event stream. No-op without NATS.
func (p *NATSEventPublisher) EnsureDomainEventStream(ctx context.Context) error {
	if p.natsClient == nil {
		return nil
	}
	return p.natsClient.EnsureStream(ctx, StreamName, p.subjectMapper.StreamSubjects())
}

// Publish delivers event under a fresh id
func (p *NATSEventPublisher) Publish(event events.Event) error {
	return p.PublishWithID(uuid.NewString(), event)
}

// PublishWithID delivers event with eventID as its envelope id and
// Nats-Msg-Id. Handler failures are logged and never stop delivery.
func (p *NATSEventPublisher) PublishWithID(eventID string, event events.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	p.dispatch(ctx, event, p.global)
	p.dispatch(ctx, event, p.byType[event.Type()])

	if p.sink == nil {
		return nil
	}

	envelope, err := newEventEnvelope(eventID, event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	if err := p.publishWithRetry(ctx, subject, envelope.EventID, data); err != nil {
		if errors.Is(err, jetstream.ErrNoStreamResponse) {
			log.WithField("subject", subject).Warn("No stream bound to subject, event dropped")
			return nil
		}
		return fmt.Errorf("failed to publish %s: %w", event.Type(), err)
	}
	return nil
}

// publishWithRetry resends under the same msgID, so an attempt whose ack was
// lost is dropped by the stream's duplicate window
func (p *NATSEventPublisher) publishWithRetry(ctx context.Context, subject, msgID string, data []byte) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = p.sink.Publish(ctx, subject, msgID, data)
		if err == nil || errors.Is(err, jetstream.ErrNoStreamResponse) || attempt == publishAttempts {
			return err
		}

		log.WithFields(log.Fields{
			"subject": subject,
			"msgID":   msgID,
			"attempt": attempt,
			"error":   err,
		}).Warn("Retrying event publish")

		select {
		case <-ctx.Done():
			return err
		case <-time.After(time.Duration(attempt) * publishBackoff):
		}
	}
}

func (p *NATSEventPublisher) dispatch(ctx context.Context, event events.Event, handlers []EventHandler) {
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Event handler failed")
		}
	}
}
