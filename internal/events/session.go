package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/ims/internal/session"
)

// SessionTopic maps a session transition to its topic.
func SessionTopic(t session.Transition) string {
	switch {
	case t.To == session.Authenticated:
		return TopicSessionAuthenticated
	case t.Invalidated:
		return TopicSessionInvalidated
	default:
		return TopicSessionLoggedOut
	}
}

// PublishSessionChanges subscribes to store and publishes every transition.
// Failures are logged, never surfaced to the session.
func PublishSessionChanges(store *session.Store, pub Publisher, logger *slog.Logger) (unsubscribe func()) {
	return store.Subscribe(func(t session.Transition) {
		topic := SessionTopic(t)
		ev := SessionChanged{
			From:   t.From.String(),
			To:     t.To.String(),
			Reason: t.Reason,
			At:     time.Now().UTC(),
		}
		if err := pub.Publish(context.Background(), topic, ev); err != nil {
			logger.Warn("publishing session event", "topic", topic, "error", err)
		}
	})
}
