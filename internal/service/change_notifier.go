package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kozzy/chamados/internal/events"
)

// ChangeNotifier fans ticket changes out to listeners so open screens can
// refresh instead of polling.
type ChangeNotifier struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	relay      events.EventHandler
}

// NewChangeNotifier creates the notifier. relay may be nil when no
// cross-process transport is configured.
func NewChangeNotifier(dispatcher events.Dispatcher, logger *zap.Logger, relay events.EventHandler) *ChangeNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeNotifier{
		dispatcher: dispatcher,
		logger:     logger,
		relay:      relay,
	}
}

// RegisterHandlers subscribes to events.
func (n *ChangeNotifier) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketsPurged, n.handleTicketsPurged)
	if n.relay != nil {
		n.dispatcher.SubscribeAll(n.relay)
	}
}

func (n *ChangeNotifier) handleTicketCreated(_ context.Context, event events.Event) error {
	n.logger.Info("TicketCreated",
		zap.String("ticket_id", event.TicketID),
		zap.String("protocol", event.Protocol),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *ChangeNotifier) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged",
		zap.String("ticket_id", event.TicketID),
		zap.String("protocol", event.Protocol),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *ChangeNotifier) handleTicketsPurged(_ context.Context, event events.Event) error {
	n.logger.Warn("TicketsPurged", zap.String("actor_id", event.Actor.ID), zap.Any("payload", event.Payload))
	return nil
}
