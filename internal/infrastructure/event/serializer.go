package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sync"

	"github.com/erp/stockledger/internal/domain/shared"
)

// ErrUnregisteredEvent is returned for an event type the serializer has no
// Go type for
var ErrUnregisteredEvent = errors.New("event type not registered")

// EventSerializer encodes outbox payloads as JSON and decodes them back into
// the Go type registered for their event type. Events of an unregistered
// type are refused on the way in, so every stored payload stays readable.
type EventSerializer struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewEventSerializer creates an empty serializer; see RegisterAllEvents
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{types: make(map[string]reflect.Type)}
}

// Register binds eventType to the concrete type of prototype. Binding a
// registered event type to another Go type panics.
func (s *EventSerializer) Register(eventType string, prototype shared.DomainEvent) {
	t := eventStruct(prototype)

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.types[eventType]; ok && prev != t {
		panic(fmt.Sprintf("event type %s already registered as %s", eventType, prev))
	}
	s.types[eventType] = t
}

// Serialize encodes event. It fails when the event type is unregistered or
// registered for a different Go type.
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	t, err := s.lookup(event.EventType())
	if err != nil {
		return nil, err
	}
	if got := eventStruct(event); got != t {
		return nil, fmt.Errorf("event type %s is registered as %s, got %s", event.EventType(), t, got)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}
	return payload, nil
}

// Deserialize decodes payload into a new value of the type registered for
// eventType
func (s *EventSerializer) Deserialize(eventType string, payload []byte) (shared.DomainEvent, error) {
	t, err := s.lookup(eventType)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(payload, ptr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
	}
	event, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("%s does not implement DomainEvent", t)
	}
	return event, nil
}

// IsRegistered reports whether eventType can be serialized
func (s *EventSerializer) IsRegistered(eventType string) bool {
	_, err := s.lookup(eventType)
	return err == nil
}

// RegisteredTypes returns the registered event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.types))
}

func (s *EventSerializer) lookup(eventType string) (reflect.Type, error) {
	s.mu.RLock()
	t, ok := s.types[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredEvent, eventType)
	}
	return t, nil
}

func eventStruct(event shared.DomainEvent) reflect.Type {
	t := reflect.TypeOf(event)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
