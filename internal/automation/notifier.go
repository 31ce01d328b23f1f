package automation

import (
	"context"
	"log/slog"

	"github.com/meridian-crm/meridian/internal/model"
)

// Notifier delivers Email/Push style automation actions. The production
// implementation only simulates delivery; a real channel integration would
// sit behind this interface.
type Notifier interface {
	Notify(ctx context.Context, kind model.ActionKind, userID, message string)
}

// LogNotifier records simulated deliveries in the log and performs no
// external side effect.
type LogNotifier struct{}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, kind model.ActionKind, userID, message string) {
	slog.Info("Simulated notification",
		"channel", string(kind),
		"user_id", userID,
		"message", message)
}
