package telemetry

import (
	"context"
	"fmt"

	"github.com/erp/stockledger/internal/domain/inventory"
	"github.com/erp/stockledger/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by the ledger instruments
var (
	AttrMovementType = attribute.Key("movement_type")
	AttrWarehouseID  = attribute.Key("warehouse_id")
	AttrErrorCode    = attribute.Key("error_code")
	AttrEventType    = attribute.Key("event_type")
	AttrOutcome      = attribute.Key("outcome")
)

// QuantityBuckets are bucket boundaries for movement magnitudes
var QuantityBuckets = []float64{1, 5, 10, 50, 100, 500, 1000, 5000}

// LedgerMetrics records stock ledger activity as OpenTelemetry instruments
type LedgerMetrics struct {
	meter      metric.Meter
	movements  metric.Int64Counter
	quantity   metric.Float64Histogram
	violations metric.Int64Counter
	retries    metric.Int64Counter
	deliveries metric.Int64Counter
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	movements, err := meter.Int64Counter("ledger.movements",
		metric.WithDescription("Stock movements appended to the ledger"),
		metric.WithUnit("{movement}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter ledger.movements: %w", err)
	}
	quantity, err := meter.Float64Histogram("ledger.movement.quantity",
		metric.WithDescription("Magnitude of stock movements"),
		metric.WithUnit("{unit}"),
		metric.WithExplicitBucketBoundaries(QuantityBuckets...))
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram ledger.movement.quantity: %w", err)
	}
	violations, err := meter.Int64Counter("ledger.invariant_violations",
		metric.WithDescription("Stock records that failed a consistency check"),
		metric.WithUnit("{record}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter ledger.invariant_violations: %w", err)
	}
	retries, err := meter.Int64Counter("ledger.transaction_retries",
		metric.WithDescription("Units of work retried after contention"),
		metric.WithUnit("{retry}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter ledger.transaction_retries: %w", err)
	}
	deliveries, err := meter.Int64Counter("outbox.deliveries",
		metric.WithDescription("Outbox entries handed to the saga handlers"),
		metric.WithUnit("{entry}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter outbox.deliveries: %w", err)
	}
	return &LedgerMetrics{
		meter:      meter,
		movements:  movements,
		quantity:   quantity,
		violations: violations,
		retries:    retries,
		deliveries: deliveries,
	}, nil
}

// MovementApplied counts the movement and records its magnitude
func (m *LedgerMetrics) MovementApplied(ctx context.Context, mv *inventory.StockMovement) {
	attrs := metric.WithAttributes(
		AttrMovementType.String(string(mv.Type)),
		AttrWarehouseID.String(mv.WarehouseID.String()),
	)
	m.movements.Add(ctx, 1, attrs)
	m.quantity.Record(ctx, mv.Quantity.InexactFloat64(), attrs)
}

// InvariantViolated counts a record that failed verification
func (m *LedgerMetrics) InvariantViolated(ctx context.Context, rec *inventory.StockRecord) {
	m.violations.Add(ctx, 1, metric.WithAttributes(AttrWarehouseID.String(rec.WarehouseID.String())))
}

// Retried counts a unit of work that is about to run again
func (m *LedgerMetrics) Retried(ctx context.Context, err error) {
	m.retries.Add(ctx, 1, metric.WithAttributes(AttrErrorCode.String(shared.ErrorCode(err))))
}

// OutboxDelivered counts one outbox delivery attempt by outcome. Its
// signature matches the outbox processor observer.
func (m *LedgerMetrics) OutboxDelivered(eventType, outcome string) {
	m.deliveries.Add(context.Background(), 1, metric.WithAttributes(
		AttrEventType.String(eventType),
		AttrOutcome.String(outcome),
	))
}

// ObserveSagaSteps exports saga step outcomes as the saga.steps counter.
// snapshot is read at every collection and maps outcome to its running total.
func (m *LedgerMetrics) ObserveSagaSteps(snapshot func() map[string]int64) error {
	_, err := m.meter.Int64ObservableCounter("saga.steps",
		metric.WithDescription("Saga steps run through the idempotent handlers"),
		metric.WithUnit("{step}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			for outcome, n := range snapshot() {
				o.Observe(n, metric.WithAttributes(AttrOutcome.String(outcome)))
			}
			return nil
		}))
	if err != nil {
		return fmt.Errorf("failed to create counter saga.steps: %w", err)
	}
	return nil
}
