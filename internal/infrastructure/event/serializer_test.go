package event

import (
	"testing"
	"time"

	"github.com/erp/stockledger/internal/domain/fulfillment"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serializerTestEvent is a test event for serializer tests
type serializerTestEvent struct {
	shared.BaseDomainEvent
	Data    string `json:"data"`
	Counter int    `json:"counter"`
}

func newSerializerTestEvent() *serializerTestEvent {
	return &serializerTestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("SerializerTestEvent", "TestAggregate", uuid.New()),
		Data:            "test data",
		Counter:         42,
	}
}

func TestEventSerializer_Register(t *testing.T) {
	serializer := NewEventSerializer()

	serializer.Register("SerializerTestEvent", &serializerTestEvent{})

	assert.True(t, serializer.IsRegistered("SerializerTestEvent"))
	assert.False(t, serializer.IsRegistered("UnknownEvent"))
}

func TestEventSerializer_RegisteredTypes(t *testing.T) {
	serializer := NewEventSerializer()

	serializer.Register("Event2", &serializerTestEvent{})
	serializer.Register("Event1", &serializerTestEvent{})

	assert.Equal(t, []string{"Event1", "Event2"}, serializer.RegisteredTypes())
}

func TestEventSerializer_Register_ConflictingType(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("SerializerTestEvent", &serializerTestEvent{})

	assert.NotPanics(t, func() { serializer.Register("SerializerTestEvent", &serializerTestEvent{}) })
	assert.Panics(t, func() { serializer.Register("SerializerTestEvent", &testEvent{}) })
}

func TestEventSerializer_Serialize(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("SerializerTestEvent", &serializerTestEvent{})
	event := newSerializerTestEvent()

	data, err := serializer.Serialize(event)

	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, string(data), `"data":"test data"`)
	assert.Contains(t, string(data), `"counter":42`)
}

func TestEventSerializer_Deserialize(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("SerializerTestEvent", &serializerTestEvent{})

	original := newSerializerTestEvent()
	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	deserialized, err := serializer.Deserialize("SerializerTestEvent", data)
	require.NoError(t, err)

	event, ok := deserialized.(*serializerTestEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventType(), event.EventType())
	assert.Equal(t, original.Data, event.Data)
	assert.Equal(t, original.Counter, event.Counter)
}

func TestEventSerializer_Deserialize_UnknownType(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Deserialize("UnknownEvent", []byte(`{}`))

	assert.ErrorIs(t, err, ErrUnregisteredEvent)
	assert.Contains(t, err.Error(), "UnknownEvent")
}

func TestEventSerializer_Serialize_RejectsUnregistered(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Serialize(newSerializerTestEvent())
	assert.ErrorIs(t, err, ErrUnregisteredEvent)

	serializer.Register("SerializerTestEvent", &testEvent{})
	_, err = serializer.Serialize(newSerializerTestEvent())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnregisteredEvent)
	assert.Contains(t, err.Error(), "registered as")
}

func TestEventSerializer_Deserialize_InvalidJSON(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("SerializerTestEvent", &serializerTestEvent{})

	_, err := serializer.Deserialize("SerializerTestEvent", []byte(`invalid json`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestEventSerializer_RoundTrip_PreservesAllFields(t *testing.T) {
	serializer := NewEventSerializer()
	serializer.Register("SerializerTestEvent", &serializerTestEvent{})

	aggregateID := uuid.New()
	original := &serializerTestEvent{
		BaseDomainEvent: shared.BaseDomainEvent{
			ID:        uuid.New(),
			Type:      "SerializerTestEvent",
			Timestamp: time.Now().Truncate(time.Second),
			AggID:     aggregateID,
			AggType:   "TestAggregate",
			Version:   2,
		},
		Data:    "important data",
		Counter: 99,
	}

	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	deserialized, err := serializer.Deserialize("SerializerTestEvent", data)
	require.NoError(t, err)

	event := deserialized.(*serializerTestEvent)
	assert.Equal(t, original.EventID(), event.EventID())
	assert.Equal(t, original.EventType(), event.EventType())
	assert.Equal(t, original.AggregateID(), event.AggregateID())
	assert.Equal(t, original.AggregateType(), event.AggregateType())
	assert.Equal(t, 2, event.SchemaVersion())
	assert.Equal(t, original.Data, event.Data)
	assert.Equal(t, original.Counter, event.Counter)
}

func TestRegisterAllEvents_KeepsEventTypeThroughRoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	for _, eventType := range []string{
		fulfillment.EventTypeDeliveryOrderDelivered,
		fulfillment.EventTypeDeliveryOrderCancelled,
		fulfillment.EventTypePickingListCompleted,
		"SalesReturnApproved",
		"StockMovementRecorded",
		"InvoiceOverdue",
		"WarehouseTransferReceived",
	} {
		assert.True(t, serializer.IsRegistered(eventType), eventType)
	}

	sourceID := uuid.New()
	original := &fulfillment.DeliveryOrderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(fulfillment.EventTypeDeliveryOrderDelivered, fulfillment.AggregateTypeDeliveryOrder, uuid.New()),
		DeliveryOrderID: uuid.New(),
		SourceType:      fulfillment.SourceSalesOrder,
		SourceID:        sourceID,
		Status:          fulfillment.DeliveryStatusDelivered,
	}
	data, err := serializer.Serialize(original)
	require.NoError(t, err)

	decoded, err := serializer.Deserialize(original.EventType(), data)
	require.NoError(t, err)
	event, ok := decoded.(*fulfillment.DeliveryOrderEvent)
	require.True(t, ok)
	assert.Equal(t, fulfillment.EventTypeDeliveryOrderDelivered, event.EventType())
	assert.Equal(t, sourceID, event.SourceID)
	assert.Equal(t, fulfillment.SourceSalesOrder, event.SourceType)
}
