package observability

// MetricPrefix namespaces every instrument
const MetricPrefix = "gamerit"

// Metric names
const (
	EventsPublishedTotal     = MetricPrefix + ".events.published_total"
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"
	BalanceChipsMoved        = MetricPrefix + ".balance.chips_moved_total"
	RoundTransitionsTotal    = MetricPrefix + ".rounds.transitions_total"
	HotPotatoResolvedTotal   = MetricPrefix + ".hot_potato.resolved_total"
	TradesTotal              = MetricPrefix + ".market.trades_total"
	SchedulerJobDuration     = MetricPrefix + ".scheduler.job_duration"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelStatus    = "status"
	LabelSide      = "side"
	LabelJob       = "job"
	LabelOutcome   = "outcome"
)
