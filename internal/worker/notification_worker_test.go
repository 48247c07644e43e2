package worker

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/kozzy/chamados/internal/events"
)

func TestStartChangeNotifierRelaysEveryEvent(t *testing.T) {
	logger := zaptest.NewLogger(t)
	dispatcher := events.NewInMemoryDispatcher(logger)

	var relayed []events.EventType
	relay := func(_ context.Context, e events.Event) error {
		relayed = append(relayed, e.Type)
		return nil
	}
	if StartChangeNotifier(dispatcher, logger, relay) == nil {
		t.Fatal("expected a notifier")
	}

	ctx := context.Background()
	dispatcher.Publish(ctx, events.Event{Type: events.EventTicketCreated, TicketID: "t1"})
	dispatcher.Publish(ctx, events.Event{Type: events.EventAreasAssigned})

	if len(relayed) != 2 || relayed[0] != events.EventTicketCreated || relayed[1] != events.EventAreasAssigned {
		t.Fatalf("unexpected relayed events %v", relayed)
	}
}

func TestStartChangeNotifierWithoutDispatcher(t *testing.T) {
	if StartChangeNotifier(nil, zaptest.NewLogger(t), nil) != nil {
		t.Fatal("expected nil without a dispatcher")
	}
}
