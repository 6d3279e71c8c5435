package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediakeep/mediakeep/internal/logger"
)

// eventBus implements the EventBus interface
type eventBus struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	eventChannel  chan Event
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

type subscription struct {
	id      string
	types   map[EventType]bool // empty means all types
	handler EventHandler
}

const defaultBufferSize = 256

// NewEventBus creates a new event bus instance
func NewEventBus() EventBus {
	return &eventBus{
		subscriptions: make(map[string]*subscription),
		eventChannel:  make(chan Event, defaultBufferSize),
		stopCh:        make(chan struct{}),
	}
}

// Start starts the event dispatch loop
func (eb *eventBus) Start() error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.running {
		return fmt.Errorf("event bus is already running")
	}

	eb.running = true
	eb.stopCh = make(chan struct{})

	eb.wg.Add(1)
	go eb.processEvents()

	logger.Debug("Event bus started")
	return nil
}

// Stop stops the event bus; queued events are dropped
func (eb *eventBus) Stop() error {
	eb.mu.Lock()
	if !eb.running {
		eb.mu.Unlock()
		return nil
	}
	eb.running = false
	eb.mu.Unlock()

	close(eb.stopCh)
	eb.wg.Wait()

	logger.Debug("Event bus stopped")
	return nil
}

// PublishAsync enqueues an event without blocking the caller. If the
// buffer is full the event is dropped with a warning; notifications are
// best-effort and never gate scan or deletion progress.
func (eb *eventBus) PublishAsync(event Event) {
	eb.mu.RLock()
	running := eb.running
	eb.mu.RUnlock()
	if !running {
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case eb.eventChannel <- event:
	default:
		logger.Warn("Event bus buffer full, dropping event %s", event.Type)
	}
}

// Subscribe registers a handler for the given event types (all types
// when none are given) and returns an unsubscribe function.
func (eb *eventBus) Subscribe(handler EventHandler, types ...EventType) func() {
	sub := &subscription{
		id:      uuid.New().String(),
		types:   make(map[EventType]bool, len(types)),
		handler: handler,
	}
	for _, t := range types {
		sub.types[t] = true
	}

	eb.mu.Lock()
	eb.subscriptions[sub.id] = sub
	eb.mu.Unlock()

	return func() {
		eb.mu.Lock()
		delete(eb.subscriptions, sub.id)
		eb.mu.Unlock()
	}
}

func (eb *eventBus) processEvents() {
	defer eb.wg.Done()

	for {
		select {
		case <-eb.stopCh:
			return
		case event := <-eb.eventChannel:
			eb.dispatch(event)
		}
	}
}

func (eb *eventBus) dispatch(event Event) {
	eb.mu.RLock()
	subs := make([]*subscription, 0, len(eb.subscriptions))
	for _, sub := range eb.subscriptions {
		if len(sub.types) == 0 || sub.types[event.Type] {
			subs = append(subs, sub)
		}
	}
	eb.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(event)
	}
}

var (
	globalBus   EventBus
	globalBusMu sync.RWMutex
)

// SetGlobalEventBus installs the process-wide event bus
func SetGlobalEventBus(bus EventBus) {
	globalBusMu.Lock()
	globalBus = bus
	globalBusMu.Unlock()
}

// GetGlobalEventBus returns the process-wide event bus, creating a
// started default instance on first use.
func GetGlobalEventBus() EventBus {
	globalBusMu.RLock()
	bus := globalBus
	globalBusMu.RUnlock()
	if bus != nil {
		return bus
	}

	globalBusMu.Lock()
	defer globalBusMu.Unlock()
	if globalBus == nil {
		globalBus = NewEventBus()
		if err := globalBus.Start(); err != nil {
			logger.Error("Failed to start default event bus: %v", err)
		}
	}
	return globalBus
}
