package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"gamerit/domain/events"
	"gamerit/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	PublishedEvents []events.Event
	PublishError    error
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, event)
	return nil
}

var _ interfaces.TransactionalEventPublisher = (*NATSTransactionalPublisher)(nil)

func TestNATSTransactionalPublisher_HoldsEventsUntilFlush(t *testing.T) {
	mockPublisher := &MockEventPublisher{}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	first := events.RoundCreatedEvent{RoundID: 1, PostAID: "a", PostBID: "b"}
	second := events.WagerPlacedEvent{WagerID: 7, RoundID: 1, PlayerID: 3, Amount: 100}

	require.NoError(t, transPublisher.Publish(first))
	require.NoError(t, transPublisher.Publish(second))
	assert.Empty(t, mockPublisher.PublishedEvents)

	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.Equal(t, []events.Event{first, second}, mockPublisher.PublishedEvents)

	// A second flush has nothing left to send
	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.Len(t, mockPublisher.PublishedEvents, 2)
}

func TestNATSTransactionalPublisher_DiscardDropsEvents(t *testing.T) {
	mockPublisher := &MockEventPublisher{}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	require.NoError(t, transPublisher.Publish(events.BalanceChangeEvent{PlayerID: 1, OldBalance: 1000, NewBalance: 900}))
	transPublisher.Discard()

	require.NoError(t, transPublisher.Flush(context.Background()))
	assert.Empty(t, mockPublisher.PublishedEvents)
}

func TestNATSTransactionalPublisher_FlushSurvivesPublishErrors(t *testing.T) {
	mockPublisher := &MockEventPublisher{PublishError: errors.New("nats down")}
	transPublisher := NewNATSTransactionalPublisher(mockPublisher)

	require.NoError(t, transPublisher.Publish(events.RoundCreatedEvent{RoundID: 1}))
	assert.NoError(t, transPublisher.Flush(context.Background()))
}

func TestNATSEventPublisher_RunsHandlersWithoutNATS(t *testing.T) {
	publisher := NewNATSEventPublisher(nil, NewEventSubjectMapper())

	var global, local, other []events.EventType
	publisher.RegisterGlobalHandler(func(ctx context.Context, event events.Event) error {
		global = append(global, event.Type())
		return nil
	})
	publisher.RegisterLocalHandler(events.EventTypeRoundCreated, func(ctx context.Context, event events.Event) error {
		local = append(local, event.Type())
		return errors.New("handler failures are logged, not returned")
	})
	publisher.RegisterLocalHandler(events.EventTypeTradeExecuted, func(ctx context.Context, event events.Event) error {
		other = append(other, event.Type())
		return nil
	})

	require.NoError(t, publisher.Publish(events.RoundCreatedEvent{RoundID: 1}))
	require.NoError(t, publisher.Publish(events.WagerPlacedEvent{WagerID: 2}))

	assert.Equal(t, []events.EventType{events.EventTypeRoundCreated, events.EventTypeWagerPlaced}, global)
	assert.Equal(t, []events.EventType{events.EventTypeRoundCreated}, local)
	assert.Empty(t, other)
	assert.NoError(t, publisher.EnsureDomainEventStream(context.Background()))
}

// recordingSink stands in for JetStream. The first failures calls fail.
type recordingSink struct {
	mu       sync.Mutex
	failures int
	msgIDs   []string
	bodies   [][]byte
}

func (s *recordingSink) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgIDs = append(s.msgIDs, msgID)
	s.bodies = append(s.bodies, data)
	if s.failures > 0 {
		s.failures--
		return errors.New("ack timed out")
	}
	return nil
}

// identifiedRecorder captures the ids the transactional buffer hands over
type identifiedRecorder struct {
	MockEventPublisher
	ids []string
}

func (r *identifiedRecorder) PublishWithID(eventID string, event events.Event) error {
	r.ids = append(r.ids, eventID)
	return r.Publish(event)
}

func TestNATSTransactionalPublisher_AssignsIDsWhenRaised(t *testing.T) {
	downstream := &identifiedRecorder{}
	transPublisher := NewNATSTransactionalPublisher(downstream)

	require.NoError(t, transPublisher.Publish(events.WagerPlacedEvent{WagerID: 1, Amount: 100}))
	require.NoError(t, transPublisher.Publish(events.WagerPlacedEvent{WagerID: 1, Amount: 100}))
	raised := []string{transPublisher.buffered[0].id, transPublisher.buffered[1].id}

	require.NoError(t, transPublisher.Flush(context.Background()))

	assert.Equal(t, raised, downstream.ids)
	assert.NotEmpty(t, raised[0])
	assert.NotEqual(t, raised[0], raised[1], "identical payloads raised twice are distinct events")
}

func TestNATSEventPublisher_RetriesUnderSameMessageID(t *testing.T) {
	sink := &recordingSink{failures: 1}
	publisher := NewNATSEventPublisher(nil, NewEventSubjectMapper())
	publisher.sink = sink

	transPublisher := NewNATSTransactionalPublisher(publisher)
	require.NoError(t, transPublisher.Publish(events.RoundCreatedEvent{RoundID: 9, PostAID: "a", PostBID: "b"}))
	raisedID := transPublisher.buffered[0].id
	require.NoError(t, transPublisher.Flush(context.Background()))

	require.Len(t, sink.msgIDs, 2)
	assert.Equal(t, []string{raisedID, raisedID}, sink.msgIDs)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(sink.bodies[1], &envelope))
	assert.Equal(t, raisedID, envelope.EventID)
	assert.Equal(t, string(events.EventTypeRoundCreated), envelope.EventType)
}

func TestNATSEventPublisher_GivesUpAfterRetries(t *testing.T) {
	sink := &recordingSink{failures: publishAttempts + 1}
	publisher := NewNATSEventPublisher(nil, NewEventSubjectMapper())
	publisher.sink = sink

	err := publisher.PublishWithID("evt-1", events.TradeExecutedEvent{PlayerID: 1, Symbol: "$DOGE", Shares: 2, Price: 50})

	require.Error(t, err)
	assert.Len(t, sink.msgIDs, publishAttempts)
	for _, id := range sink.msgIDs {
		assert.Equal(t, "evt-1", id)
	}
}
