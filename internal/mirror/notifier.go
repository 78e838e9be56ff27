package mirror

import (
	"context"
	"time"

	"limito/pkg/logger"

	"github.com/google/uuid"
)

// Notifier publishes mirror events off the request path. Failures are
// logged and dropped; the mirror catches up from the store eventually.
type Notifier struct {
	feed Feed
	log  *logger.Logger
}

func NewNotifier(feed Feed, log *logger.Logger) *Notifier {
	return &Notifier{feed: feed, log: log}
}

func (n *Notifier) ReservationChanged(eventType, productID, color, sessionID string, quantity int) {
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		ProductID:  productID,
		Color:      color,
		SessionID:  sessionID,
		Quantity:   quantity,
	}

	go func() {
		// Detached from the request context: the response must not wait on
		// the mirror, and a cancelled request still happened.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := n.feed.Publish(ctx, event); err != nil {
			n.log.Warn("Failed to publish mirror event",
				"event_id", event.ID,
				"event_type", event.Type,
				"error", err,
			)
		}
	}()
}

func (n *Notifier) Close() {
	if err := n.feed.Close(); err != nil {
		n.log.Warn("Failed to close mirror feed", "error", err)
	}
}
