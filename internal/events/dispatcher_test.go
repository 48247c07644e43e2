package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
)

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(zaptest.NewLogger(t))

	var calls []string
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.SubscribeAll(func(context.Context, Event) error {
		calls = append(calls, "all")
		return nil
	})
	d.Subscribe(EventTicketsPurged, func(context.Context, Event) error {
		calls = append(calls, "purged")
		return nil
	})

	if err := d.Publish(context.Background(), Event{ID: "1", Type: EventTicketCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := []string{"first", "second", "all"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

type fakePublisher struct {
	channel string
	message any
	err     error
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.message = message
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func TestRedisRelayPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	relay := NewRedisRelay(pub, "ticket-events")

	event := Event{ID: "e1", Type: EventTicketUpdated, TicketID: "t1", Protocol: "10001"}
	if err := relay.Handle(context.Background(), event); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if pub.channel != "ticket-events" {
		t.Fatalf("unexpected channel %q", pub.channel)
	}
	body, ok := pub.message.([]byte)
	if !ok {
		t.Fatalf("expected []byte message, got %T", pub.message)
	}
	var decoded Event
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Protocol != "10001" || decoded.Type != EventTicketUpdated {
		t.Fatalf("unexpected decoded event %+v", decoded)
	}
}

func TestRedisRelayReportsPublishError(t *testing.T) {
	relay := NewRedisRelay(&fakePublisher{err: errors.New("down")}, "c")
	if err := relay.Handle(context.Background(), Event{ID: "e"}); err == nil {
		t.Fatal("expected error")
	}
}
