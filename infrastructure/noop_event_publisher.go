package infrastructure

import "gamerit/domain/events"

// NoopEventPublisher swallows events. Integration tests use it when no
// handler is under test.
type NoopEventPublisher struct{}

func NewNoopEventPublisher() *NoopEventPublisher { return &NoopEventPublisher{} }

func (NoopEventPublisher) Publish(events.Event) error { return nil }
