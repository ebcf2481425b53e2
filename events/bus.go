package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"volur/types"
)

const DefaultHistorySize = 1000

type Handler func(event types.VolurEvent)

// Sink receives every published event, e.g. a Kafka or RabbitMQ producer.
type Sink interface {
	SendMessage(event types.VolurEvent)
}

// Bus is an in-process publish/subscribe hub that keeps a bounded history.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[types.EventType][]Handler
	wildcard    []Handler
	history     []types.VolurEvent
	maxHistory  int
	now         func() time.Time
}

func NewBus(maxHistory int) *Bus {
	if maxHistory <= 0 {
		maxHistory = DefaultHistorySize
	}
	return &Bus{
		subscribers: make(map[types.EventType][]Handler),
		maxHistory:  maxHistory,
		now:         time.Now,
	}
}

func (b *Bus) Subscribe(eventType types.EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
	zap.L().Debug("Subscribed to event", zap.String("type", string(eventType)))
}

// SubscribeAll registers handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, handler)
}

// AttachSink forwards every event to sink.
func (b *Bus) AttachSink(sink Sink) {
	b.SubscribeAll(sink.SendMessage)
}

// Publish records the event and hands it to the subscribers, in subscription order.
// A panicking handler is logged and does not stop the others.
func (b *Bus) Publish(eventType types.EventType, ticker, source string, data map[string]interface{}) types.VolurEvent {
	event := types.VolurEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Ticker:    ticker,
		Source:    source,
		Data:      data,
		Timestamp: b.now().UTC(),
	}

	b.mu.Lock()
	b.history = append(b.history, event)
	if len(b.history) > b.maxHistory {
		b.history = append([]types.VolurEvent(nil), b.history[len(b.history)-b.maxHistory:]...)
	}
	handlers := make([]Handler, 0, len(b.subscribers[eventType])+len(b.wildcard))
	handlers = append(handlers, b.subscribers[eventType]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.Unlock()

	zap.L().Info("Publishing event", zap.String("type", string(eventType)), zap.String("ticker", ticker))
	for _, handler := range handlers {
		b.dispatch(handler, event)
	}
	return event
}

func (b *Bus) dispatch(handler Handler, event types.VolurEvent) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("Error in event handler", zap.String("type", string(event.Type)), zap.Any("panic", r))
		}
	}()
	handler(event)
}

// History returns the recorded events, oldest first. An empty eventType returns
// every event.
func (b *Bus) History(eventType types.EventType) []types.VolurEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make([]types.VolurEvent, 0, len(b.history))
	for _, e := range b.history {
		if eventType == "" || e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}
