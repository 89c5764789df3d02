package infrastructure

import (
	"context"

	"gamerit/domain/events"
	"gamerit/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// NATSTransactionalPublisher buffers the events raised inside one unit of
// work. They reach the downstream publisher only on Flush, after commit.
type NATSTransactionalPublisher struct {
	downstream interfaces.EventPublisher
	buffered   []raisedEvent
}

// raisedEvent keeps the id assigned when the event was raised
type raisedEvent struct {
	id    string
	event events.Event
}

// NewNATSTransactionalPublisher creates a buffer in front of downstream
func NewNATSTransactionalPublisher(downstream interfaces.EventPublisher) *NATSTransactionalPublisher {
	return &NATSTransactionalPublisher{downstream: downstream}
}

// Publish buffers event under a new event id
func (p *NATSTransactionalPublisher) Publish(event events.Event) error {
	p.buffered = append(p.buffered, raisedEvent{id: uuid.NewString(), event: event})
	return nil
}

// Flush hands every buffered event downstream in order. The transaction has
// already committed, so a failed event is logged and the rest still go out.
func (p *NATSTransactionalPublisher) Flush(_ context.Context) error {
	batch := p.buffered
	p.buffered = nil

	identified, _ := p.downstream.(IdentifiedPublisher)

	failed := 0
	for _, raised := range batch {
		var err error
		if identified != nil {
			err = identified.PublishWithID(raised.id, raised.event)
		} else {
			err = p.downstream.Publish(raised.event)
		}
		if err != nil {
			failed++
			log.WithFields(log.Fields{
				"eventType": raised.event.Type(),
				"eventID":   raised.id,
				"error":     err,
			}).Error("Failed to publish committed event")
		}
	}

	if len(batch) > 0 {
		log.WithFields(log.Fields{
			"published": len(batch) - failed,
			"failed":    failed,
		}).Debug("Flushed committed events")
	}
	return nil
}

// Discard drops the buffer after a rollback
func (p *NATSTransactionalPublisher) Discard() {
	p.buffered = nil
}
