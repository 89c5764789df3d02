package infrastructure

import (
	"fmt"

	"gamerit/domain/events"
)

// StreamName is the JetStream stream every domain event is published to
const StreamName = "gamerit_events"

var eventSubjects = map[events.EventType]string{
	events.EventTypePlayerCreated:     "players.created",
	events.EventTypeBalanceChange:     "players.balance_changed",
	events.EventTypeRoundCreated:      "rounds.created",
	events.EventTypeRoundStateChange:  "rounds.state_changed",
	events.EventTypeWagerPlaced:       "wagers.placed",
	events.EventTypeHotPotatoCreated:  "rounds.hot_potato_created",
	events.EventTypeHotPotatoResolved: "rounds.hot_potato_resolved",
	events.EventTypeTradeExecuted:     "market.trade_executed",
	events.EventTypeStockPriceUpdated: "market.price_updated",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := eventSubjects[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range eventSubjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// StreamSubjects returns the wildcard subjects the stream captures
func (m *EventSubjectMapper) StreamSubjects() []string {
	return []string{"players.*", "rounds.*", "wagers.*", "market.*"}
}
