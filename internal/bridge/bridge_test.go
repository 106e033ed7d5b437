package bridge

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSubscriber) Deliver(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingSubscriber) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestDispatchKnownCommand(t *testing.T) {
	b := New()
	b.Register("echo", func(args json.RawMessage) (interface{}, error) {
		var in struct {
			Value string `json:"value"`
		}
		if err := DecodeArgs(args, &in); err != nil {
			return nil, err
		}
		return in.Value, nil
	})

	resp := b.Dispatch(Request{ID: "1", Command: "echo", Args: json.RawMessage(`{"value":"hello"}`)})
	if !resp.OK {
		t.Fatalf("expected OK response, got error %q", resp.Error)
	}
	if resp.ID != "1" {
		t.Errorf("expected response ID '1', got %q", resp.ID)
	}
	if resp.Result != "hello" {
		t.Errorf("expected result 'hello', got %v", resp.Result)
	}
}

func TestDispatchUnknownCommandRejected(t *testing.T) {
	b := New()
	b.Register("known", func(args json.RawMessage) (interface{}, error) {
		return nil, nil
	})

	resp := b.Dispatch(Request{ID: "2", Command: "readArbitraryFile"})
	if resp.OK {
		t.Fatal("expected unknown command to be rejected")
	}
	if resp.Error == "" {
		t.Error("expected error message for unknown command")
	}
	if resp.ID != "2" {
		t.Errorf("expected response ID '2', got %q", resp.ID)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	b := New()
	b.Register("fail", func(args json.RawMessage) (interface{}, error) {
		return nil, fmt.Errorf("dialog unavailable")
	})

	resp := b.Dispatch(Request{ID: "3", Command: "fail"})
	if resp.OK {
		t.Fatal("expected error response")
	}
	if resp.Error != "dialog unavailable" {
		t.Errorf("expected handler error to propagate, got %q", resp.Error)
	}
}

func TestDispatchHandlerPanicBecomesError(t *testing.T) {
	b := New()
	b.Register("boom", func(args json.RawMessage) (interface{}, error) {
		panic("unexpected state")
	})

	resp := b.Dispatch(Request{ID: "4", Command: "boom"})
	if resp.OK {
		t.Fatal("expected panic to convert to error response")
	}
	if resp.Error == "" {
		t.Error("expected error message after handler panic")
	}
}

func TestDecodeArgsRejectsUnknownFields(t *testing.T) {
	var opts struct {
		Title string `json:"title"`
	}
	err := DecodeArgs(json.RawMessage(`{"title":"Open","shell":"rm -rf /"}`), &opts)
	if err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestDecodeArgsEmptyArgs(t *testing.T) {
	var opts struct {
		Title string `json:"title"`
	}
	if err := DecodeArgs(nil, &opts); err != nil {
		t.Fatalf("expected empty args to decode, got %v", err)
	}
	if opts.Title != "" {
		t.Errorf("expected zero value title, got %q", opts.Title)
	}
}

func TestPublishWithoutSubscriberDrops(t *testing.T) {
	b := New()

	b.Publish(EventResourceUsage, map[string]int{"x": 1})
	b.Publish(EventUpdateStatus, nil)

	if got := b.DroppedEvents(); got != 2 {
		t.Errorf("expected 2 dropped events, got %d", got)
	}
}

func TestPublishWithSubscriberDelivers(t *testing.T) {
	b := New()
	sub := &recordingSubscriber{}
	b.SetSubscriber(sub)

	b.Publish(EventResourceUsage, map[string]int{"x": 1})

	if sub.count() != 1 {
		t.Fatalf("expected 1 delivered event, got %d", sub.count())
	}
	sub.mu.Lock()
	evt := sub.events[0]
	sub.mu.Unlock()
	if evt.Event != EventResourceUsage {
		t.Errorf("expected event %q, got %q", EventResourceUsage, evt.Event)
	}
	if evt.Timestamp == "" {
		t.Error("expected event timestamp to be set")
	}
	if b.DroppedEvents() != 0 {
		t.Errorf("expected no dropped events, got %d", b.DroppedEvents())
	}
}

func TestClearSubscriberResumesDropping(t *testing.T) {
	b := New()
	sub := &recordingSubscriber{}

	b.SetSubscriber(sub)
	b.Publish(EventUpdateStatus, nil)
	b.ClearSubscriber()
	b.Publish(EventUpdateStatus, nil)

	if sub.count() != 1 {
		t.Errorf("expected 1 delivered event, got %d", sub.count())
	}
	if b.DroppedEvents() != 1 {
		t.Errorf("expected 1 dropped event, got %d", b.DroppedEvents())
	}
	if b.HasSubscriber() {
		t.Error("expected no subscriber after clear")
	}
}

func TestCommandsListsRegistrations(t *testing.T) {
	b := New()
	b.Register("a", func(json.RawMessage) (interface{}, error) { return nil, nil })
	b.Register("b", func(json.RawMessage) (interface{}, error) { return nil, nil })

	names := b.Commands()
	if len(names) != 2 {
		t.Errorf("expected 2 registered commands, got %d", len(names))
	}
}
