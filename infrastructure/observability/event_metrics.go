package observability

import (
	"context"

	"gamerit/domain/events"
)

// HandleEvent turns committed domain events into metric samples. It is
// registered as a local handler for every event type.
func (mp *MetricsProvider) HandleEvent(ctx context.Context, event events.Event) error {
	mp.RecordEventPublished(string(event.Type()))

	switch e := event.(type) {
	case events.BalanceChangeEvent:
		mp.RecordBalanceTransaction(e.TransactionType.String(), e.ChangeAmount)
	case events.RoundStateChangeEvent:
		mp.RecordRoundTransition(string(e.NewState))
	case events.HotPotatoResolvedEvent:
		mp.RecordHotPotatoResolved(string(e.Status))
	case events.TradeExecutedEvent:
		mp.RecordTrade(string(e.Side))
	}
	return nil
}
