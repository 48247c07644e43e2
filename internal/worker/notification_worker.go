package worker

import (
	"go.uber.org/zap"

	"github.com/kozzy/chamados/internal/events"
	"github.com/kozzy/chamados/internal/service"
)

// StartChangeNotifier registers the ticket change listeners on dispatcher.
// relay may be nil when events stay in process.
func StartChangeNotifier(dispatcher events.Dispatcher, logger *zap.Logger, relay events.EventHandler) *service.ChangeNotifier {
	if dispatcher == nil {
		return nil
	}
	notifier := service.NewChangeNotifier(dispatcher, logger, relay)
	notifier.RegisterHandlers()
	if relay != nil {
		logger.Info("change events relayed to redis")
	}
	return notifier
}
