package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) handler(name string, err error) Handler {
	return func(ctx context.Context, e Event) error {
		r.mu.Lock()
		r.calls = append(r.calls, name)
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(nil)
	rec := &recorder{}
	bus.Subscribe(UserCreated, "first", rec.handler("first", nil))
	bus.Subscribe(UserCreated, "second", rec.handler("second", nil))
	bus.Subscribe(UserCreated, "third", rec.handler("third", nil))
	bus.Subscribe(UserDeleted, "other", rec.handler("other", nil))

	bus.Publish(t.Context(), NewEvent(UserCreated, UserCreatedEvent{UserID: "u1"}))
	bus.Wait()

	got := rec.snapshot()
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v, want %v", got, want)
		}
	}
}

func TestFailingHandlersAreContained(t *testing.T) {
	bus := NewBus(nil)
	rec := &recorder{}
	bus.Subscribe(UserCreated, "fails", rec.handler("fails", errors.New("smtp down")))
	bus.Subscribe(UserCreated, "panics", func(ctx context.Context, e Event) error {
		rec.handler("panics", nil)(ctx, e)
		panic("boom")
	})
	bus.Subscribe(UserCreated, "ok", rec.handler("ok", nil))

	bus.Publish(t.Context(), NewEvent(UserCreated, nil))
	bus.Wait()

	got := rec.snapshot()
	if len(got) != 3 || got[2] != "ok" {
		t.Fatalf("expected all three handlers to run, got %v", got)
	}
}

func TestPublishDoesNotWaitForSubscribers(t *testing.T) {
	bus := NewBus(nil)
	release := make(chan struct{})
	done := make(chan struct{})
	bus.Subscribe(UserCreated, "slow", func(ctx context.Context, e Event) error {
		<-release
		close(done)
		return nil
	})

	returned := make(chan struct{})
	go func() {
		bus.Publish(t.Context(), NewEvent(UserCreated, nil))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a subscriber")
	}

	close(release)
	<-done
	bus.Wait()
}

func TestPublishSurvivesCallerCancellation(t *testing.T) {
	bus := NewBus(nil)
	got := make(chan error, 1)
	bus.Subscribe(UserCreated, "ctx", func(ctx context.Context, e Event) error {
		got <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	bus.Publish(ctx, NewEvent(UserCreated, nil))
	bus.Wait()

	if err := <-got; err != nil {
		t.Fatalf("subscriber saw cancelled context: %v", err)
	}
}

func TestEventWithoutSubscribersIsDropped(t *testing.T) {
	bus := NewBus(nil)
	bus.Publish(t.Context(), NewEvent(ProductCreated, nil))
	bus.Wait()

	// Subscribing later must not replay the dropped event.
	rec := &recorder{}
	bus.Subscribe(ProductCreated, "late", rec.handler("late", nil))
	bus.Wait()
	if calls := rec.snapshot(); len(calls) != 0 {
		t.Fatalf("late subscriber saw %v", calls)
	}
	if n := bus.Subscribers(ProductCreated); n != 1 {
		t.Fatalf("subscribers = %d", n)
	}
}

func TestPublishStampsTimestamp(t *testing.T) {
	bus := NewBus(nil)
	got := make(chan Event, 1)
	bus.Subscribe(UserCreated, "ts", func(ctx context.Context, e Event) error {
		got <- e
		return nil
	})

	bus.Publish(t.Context(), Event{Type: UserCreated})
	bus.Wait()

	if e := <-got; e.Timestamp.IsZero() {
		t.Fatal("timestamp was not stamped")
	}
}

func TestEventDecode(t *testing.T) {
	body, err := encodeEvent(UserCreated, UserCreatedEvent{UserID: "u1", Email: "a@example.com", FirstName: "Ada"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	event, err := decodeEvent(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Type != UserCreated {
		t.Fatalf("type = %q", event.Type)
	}

	var data UserCreatedEvent
	if err := event.Decode(&data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.UserID != "u1" || data.Email != "a@example.com" || data.FirstName != "Ada" {
		t.Fatalf("data = %+v", data)
	}
}

func TestCloseWaitsThenDropsLaterEvents(t *testing.T) {
	bus := NewBus(nil)
	release := make(chan struct{})
	rec := &recorder{}
	bus.Subscribe(UserCreated, "slow", func(ctx context.Context, e Event) error {
		<-release
		return rec.handler("slow", nil)(ctx, e)
	})

	bus.Publish(t.Context(), NewEvent(UserCreated, UserCreatedEvent{UserID: "u1"}))

	closed := make(chan struct{})
	go func() {
		bus.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned before the in-flight delivery finished")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-closed

	bus.Publish(t.Context(), NewEvent(UserCreated, UserCreatedEvent{UserID: "u2"}))
	bus.Wait()
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("calls = %v, want exactly the event published before Close", got)
	}
}

func TestCloseWithConcurrentPublishers(t *testing.T) {
	bus := NewBus(nil)
	bus.Subscribe(UserCreated, "noop", func(context.Context, Event) error { return nil })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(context.Background(), NewEvent(UserCreated, nil))
			}
		}()
	}
	bus.Close()
	wg.Wait()
	bus.Wait()
}
