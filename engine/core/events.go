package core

import "sync"

type EventContext struct {
	Type SystemEventCode
	// Payload, see the event code for its type.
	Data interface{}
}

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Stops the frame loop after the current frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// A frame graph was handed to the executor.
	/* Context usage:
	 * FrameEvent frame = data.Data.(FrameEvent)
	 */
	EVENT_CODE_FRAME_SUBMITTED SystemEventCode = 0x02

	// A frame failed while executing on the job system.
	/* Context usage:
	 * FrameEvent frame = data.Data.(FrameEvent), frame.Err is set
	 */
	EVENT_CODE_FRAME_FAILED SystemEventCode = 0x03

	// The configuration file changed on disk and was reloaded.
	/* Context usage:
	 * *Config config = data.Data.(*Config)
	 */
	EVENT_CODE_CONFIG_RELOADED SystemEventCode = 0x04

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type FrameEvent struct {
	Number uint64
	Jobs   int
	Err    error
}

// Should return true if handled.
type FnOnEvent func(context EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

/**
 * @brief Synchronous publish/subscribe between the engine parts. Listeners
 * run on the goroutine firing the event, in registration order.
 */
type EventSystem struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. A
 * listener can only be registered once per code.
 * @param code The event code to listen for.
 * @param listener Identifies the registration for Unregister. Must be comparable.
 * @param onEvent The callback to be invoked when the event code is fired.
 * @returns true if the event is successfully registered; otherwise false.
 */
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister removes the registration of listener for code. Returns false when there is none.
func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func (es *EventSystem) Fire(code SystemEventCode, data interface{}) bool {
	es.mu.RLock()
	events := es.registered[code]
	es.mu.RUnlock()

	context := EventContext{Type: code, Data: data}
	for _, e := range events {
		if e.callback(context) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (es *EventSystem) Shutdown() {
	es.mu.Lock()
	defer es.mu.Unlock()
	clear(es.registered)
}
