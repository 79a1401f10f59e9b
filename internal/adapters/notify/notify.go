package notify

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/auriga-audio/auriga/internal/ports"
)

// Log is a notifier that writes to the structured log only.
type Log struct {
	Logger *zap.Logger
}

// Notify logs the message at the matching level.
func (n Log) Notify(level string, message string) {
	log := n.Logger
	if log == nil {
		return
	}
	switch level {
	case ports.LevelError:
		log.Error(message)
	case ports.LevelWarn:
		log.Warn(message)
	default:
		log.Info(message)
	}
}

// Desktop surfaces messages as desktop notifications with a log
// fallback. Delivery failures are logged and dropped.
type Desktop struct {
	Title  string
	Logger *zap.Logger
}

// Notify shows a desktop notification.
func (n Desktop) Notify(level string, message string) {
	title := n.Title
	if title == "" {
		title = "Auriga"
	}
	if err := beeep.Notify(title, message, ""); err != nil && n.Logger != nil {
		n.Logger.Debug("desktop notification failed", zap.Error(err))
	}
	Log{Logger: n.Logger}.Notify(level, message)
}

// Multi fans a notification out to several notifiers.
type Multi []ports.Notifier

// Notify delivers to every notifier in order.
func (n Multi) Notify(level string, message string) {
	for _, notifier := range n {
		notifier.Notify(level, message)
	}
}
