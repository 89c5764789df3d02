package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gamerit/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	eventsPublishedCounter     metric.Int64Counter
	balanceTransactionsCounter metric.Int64Counter
	chipsMovedCounter          metric.Int64Counter
	roundTransitionsCounter    metric.Int64Counter
	hotPotatoResolvedCounter   metric.Int64Counter
	tradesCounter              metric.Int64Counter
	jobDurationHist            metric.Float64Histogram
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{config: cfg}
}

// Initialize sets up the OpenTelemetry meter provider and instruments
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}
	mp.initialized = true

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case "otlp":
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
			),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("gamerit")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	if mp.eventsPublishedCounter, err = mp.meter.Int64Counter(EventsPublishedTotal,
		metric.WithDescription("Domain events published after commit")); err != nil {
		return fmt.Errorf("failed to create events counter: %w", err)
	}
	if mp.balanceTransactionsCounter, err = mp.meter.Int64Counter(BalanceTransactionsTotal,
		metric.WithDescription("Balance changes by transaction type")); err != nil {
		return fmt.Errorf("failed to create balance transactions counter: %w", err)
	}
	if mp.chipsMovedCounter, err = mp.meter.Int64Counter(BalanceChipsMoved,
		metric.WithDescription("Absolute chips moved by transaction type")); err != nil {
		return fmt.Errorf("failed to create chips moved counter: %w", err)
	}
	if mp.roundTransitionsCounter, err = mp.meter.Int64Counter(RoundTransitionsTotal,
		metric.WithDescription("Classic round status transitions")); err != nil {
		return fmt.Errorf("failed to create round transitions counter: %w", err)
	}
	if mp.hotPotatoResolvedCounter, err = mp.meter.Int64Counter(HotPotatoResolvedTotal,
		metric.WithDescription("Hot potato rounds resolved by terminal status")); err != nil {
		return fmt.Errorf("failed to create hot potato counter: %w", err)
	}
	if mp.tradesCounter, err = mp.meter.Int64Counter(TradesTotal,
		metric.WithDescription("Meme stock trades by side")); err != nil {
		return fmt.Errorf("failed to create trades counter: %w", err)
	}
	if mp.jobDurationHist, err = mp.meter.Float64Histogram(SchedulerJobDuration,
		metric.WithDescription("Duration of scheduler passes in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60)); err != nil {
		return fmt.Errorf("failed to create job duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordEventPublished counts an event handed to the bus
func (mp *MetricsProvider) RecordEventPublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.eventsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)))
}

// RecordBalanceTransaction counts a balance change and the chips it moved
func (mp *MetricsProvider) RecordBalanceTransaction(transactionType string, change int64) {
	if !mp.isEnabled() {
		return
	}
	attrs := metric.WithAttributes(attribute.String(LabelType, transactionType))
	mp.balanceTransactionsCounter.Add(context.Background(), 1, attrs)
	if change < 0 {
		change = -change
	}
	mp.chipsMovedCounter.Add(context.Background(), change, attrs)
}

// RecordRoundTransition counts a classic round entering status
func (mp *MetricsProvider) RecordRoundTransition(status string) {
	if !mp.isEnabled() {
		return
	}
	mp.roundTransitionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelStatus, status)))
}

// RecordHotPotatoResolved counts a hot potato round reaching status
func (mp *MetricsProvider) RecordHotPotatoResolved(status string) {
	if !mp.isEnabled() {
		return
	}
	mp.hotPotatoResolvedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelStatus, status)))
}

// RecordTrade counts a meme stock trade
func (mp *MetricsProvider) RecordTrade(side string) {
	if !mp.isEnabled() {
		return
	}
	mp.tradesCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelSide, side)))
}

// MeasureJob returns a function that records the duration of a scheduler pass
//
//	defer metrics.MeasureJob("settle_due_rounds")(&err)
func (mp *MetricsProvider) MeasureJob(job string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		if !mp.isEnabled() {
			return
		}
		outcome := "ok"
		if errp != nil && *errp != nil {
			outcome = "error"
		}
		mp.jobDurationHist.Record(context.Background(), time.Since(start).Seconds(),
			metric.WithAttributes(
				attribute.String(LabelJob, job),
				attribute.String(LabelOutcome, outcome),
			))
	}
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.enabled
}

var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider. The nil provider records nothing.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
