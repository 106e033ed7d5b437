// Package bridge implements the message bridge between the privileged host
// process and the sandboxed UI surface.
//
// The bridge is the only path from the UI into the host. It exposes a fixed
// whitelist of request/response commands and a fixed set of fire-and-forget
// events. Commands are validated for shape at the boundary; an unrecognized
// command or malformed arguments produce an error response, never a host
// fault. Events are delivered to the currently attached Subscriber; with no
// subscriber attached they are deliberately dropped, never queued.
package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/scottieai/collab-hub/host/internal/logger"
)

// Handler processes a single command's raw arguments and returns its result.
type Handler func(args json.RawMessage) (interface{}, error)

// Subscriber receives bridge events. At most one subscriber is attached at
// a time: the active UI surface.
type Subscriber interface {
	Deliver(evt Event)
}

// Bridge routes whitelisted commands to registered handlers and events to
// the attached subscriber.
type Bridge struct {
	mu         sync.RWMutex
	handlers   map[string]Handler
	subscriber Subscriber
	dropped    atomic.Uint64
	logger     *logger.Logger
}

// New creates an empty bridge. Handlers are registered by the supervisor
// during startup; the command set is fixed afterwards.
func New() *Bridge {
	return &Bridge{
		handlers: make(map[string]Handler),
		logger:   logger.NewComponentLogger("Bridge"),
	}
}

// Register binds a handler to a command name. Re-registering a name
// replaces the previous handler.
func (b *Bridge) Register(command string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[command] = h
}

// Commands returns the registered command names.
func (b *Bridge) Commands() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch executes a request and always produces a response. Handler
// panics and errors convert to rejected responses; the host never
// terminates due to a UI-originated error.
func (b *Bridge) Dispatch(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Handler panic for command %q: %v", req.Command, r)
			resp = Response{ID: req.ID, OK: false, Error: fmt.Sprintf("internal error handling %q", req.Command)}
		}
	}()

	b.mu.RLock()
	h, ok := b.handlers[req.Command]
	b.mu.RUnlock()

	if !ok {
		b.logger.Warn("Rejected unrecognized command %q", req.Command)
		return Response{ID: req.ID, OK: false, Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}

	result, err := h(req.Args)
	if err != nil {
		return Response{ID: req.ID, OK: false, Error: err.Error()}
	}

	return Response{ID: req.ID, OK: true, Result: result}
}

// DecodeArgs strictly unmarshals raw command arguments into v. Unknown
// fields are rejected so argument shapes are validated at the boundary.
func DecodeArgs(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// SetSubscriber attaches the active UI subscriber.
func (b *Bridge) SetSubscriber(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriber = s
}

// ClearSubscriber detaches the current subscriber. Subsequent events are
// dropped until a new subscriber attaches.
func (b *Bridge) ClearSubscriber() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriber = nil
}

// HasSubscriber reports whether a subscriber is currently attached.
func (b *Bridge) HasSubscriber() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.subscriber != nil
}

// Publish sends an event to the attached subscriber. With no subscriber
// the event is dropped, never queued.
func (b *Bridge) Publish(event string, payload interface{}) {
	b.mu.RLock()
	sub := b.subscriber
	b.mu.RUnlock()

	if sub == nil {
		b.dropped.Add(1)
		return
	}

	sub.Deliver(Event{
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// DroppedEvents returns the number of events dropped for lack of a
// subscriber.
func (b *Bridge) DroppedEvents() uint64 {
	return b.dropped.Load()
}
