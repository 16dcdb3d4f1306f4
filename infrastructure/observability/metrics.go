package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quizbot/config"

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

// MetricsProvider manages OpenTelemetry metrics for the economy engine.
// A nil or disabled provider accepts every call and records nothing.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	ledgerTransactionsCounter metric.Int64Counter
	ledgerDriftGauge          metric.Int64Gauge
	goldenEventsCounter       metric.Int64Counter
	robberiesCounter          metric.Int64Counter
	grantsRemovedCounter      metric.Int64Counter
	sweepDurationHist         metric.Float64Histogram
	transactionRetriesCounter metric.Int64Counter
	natsPublishedCounter      metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	var (
		exporter sdkmetric.Exporter
		err      error
	)
	switch mp.config.MetricsExporter {
	case "stdout":
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		log.Info("Using stdout metric exporter")

	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTLPEndpoint).Info("Using OTLP metric exporter")

	case "none", "":
		log.Info("Metrics export disabled")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown metrics exporter: %s", mp.config.MetricsExporter)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("quizbot"),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(mp.config.MetricsInterval)),
		),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("quizbot")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.ledgerTransactionsCounter, err = mp.meter.Int64Counter(
		LedgerTransactionsTotal,
		metric.WithDescription("Total number of ledger entries recorded"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger transactions counter: %w", err)
	}

	mp.ledgerDriftGauge, err = mp.meter.Int64Gauge(
		LedgerDriftAccounts,
		metric.WithDescription("Accounts whose balances disagree with the ledger at the last audit"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger drift gauge: %w", err)
	}

	mp.goldenEventsCounter, err = mp.meter.Int64Counter(
		GoldenEventsTotal,
		metric.WithDescription("Golden event transitions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create golden events counter: %w", err)
	}

	mp.robberiesCounter, err = mp.meter.Int64Counter(
		RobberiesTotal,
		metric.WithDescription("Resolved robbery attempts"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create robberies counter: %w", err)
	}

	mp.grantsRemovedCounter, err = mp.meter.Int64Counter(
		GrantsRemovedTotal,
		metric.WithDescription("Temporary grants removed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create grants removed counter: %w", err)
	}

	mp.sweepDurationHist, err = mp.meter.Float64Histogram(
		SweepDuration,
		metric.WithDescription("Duration of background sweeps in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create sweep duration histogram: %w", err)
	}

	mp.transactionRetriesCounter, err = mp.meter.Int64Counter(
		TransactionRetriesTotal,
		metric.WithDescription("Transactions retried after a serialization failure, deadlock or lock timeout"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction retries counter: %w", err)
	}

	mp.natsPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS published counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp == nil {
		return nil
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordLedgerTransaction counts an applied ledger entry
func (mp *MetricsProvider) RecordLedgerTransaction(txType string) {
	if !mp.isEnabled() {
		return
	}
	mp.ledgerTransactionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelType, txType)))
}

// RecordLedgerDrift reports how many accounts of a guild failed reconciliation
func (mp *MetricsProvider) RecordLedgerDrift(guildID int64, accounts int64) {
	if !mp.isEnabled() {
		return
	}
	mp.ledgerDriftGauge.Record(context.Background(), accounts,
		metric.WithAttributes(attribute.Int64("guild_id", guildID)))
}

// RecordGoldenEvent counts a golden event transition
func (mp *MetricsProvider) RecordGoldenEvent(outcome string) {
	if !mp.isEnabled() {
		return
	}
	mp.goldenEventsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)))
}

// RecordRobbery counts a resolved robbery
func (mp *MetricsProvider) RecordRobbery(success bool) {
	if !mp.isEnabled() {
		return
	}
	outcome := RobberyOutcomeFailure
	if success {
		outcome = RobberyOutcomeSuccess
	}
	mp.robberiesCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)))
}

// RecordGrantRemoved counts a removed grant
func (mp *MetricsProvider) RecordGrantRemoved(roleType, reason string) {
	if !mp.isEnabled() {
		return
	}
	mp.grantsRemovedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelType, roleType),
			attribute.String(LabelReason, reason),
		))
}

// RecordTransactionRetry counts a retried transaction
func (mp *MetricsProvider) RecordTransactionRetry(operation string) {
	if !mp.isEnabled() {
		return
	}
	mp.transactionRetriesCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelOperation, operation)))
}

// RecordNATSMessagePublished counts a NATS publish
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}
	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)))
}

// MeasureSweep returns a function that records the duration of a sweep
// Usage:
//
//	defer mp.MeasureSweep("golden")()
func (mp *MetricsProvider) MeasureSweep(worker string) func() {
	start := time.Now()
	return func() {
		if !mp.isEnabled() {
			return
		}
		mp.sweepDurationHist.Record(context.Background(), time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String(LabelWorker, worker)))
	}
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}

// Global metrics provider instance
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

// GetMetrics returns the global metrics provider. It is nil until initialized, which
// every recording method tolerates.
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	return globalMetrics.Shutdown(ctx)
}
