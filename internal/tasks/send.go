// send.go: drains the outbox through every configured messenger and
// records the responses. Safe to re-run arbitrarily; delivery is
// at-least-once and the collector must tolerate duplicates.
package tasks

import (
	"context"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/messenger"
	"github.com/fieldrec/fieldrec-go/internal/observability"
	"github.com/fieldrec/fieldrec-go/internal/outbox"
)

// MessageSendTask delivers unsent outbox messages.
type MessageSendTask struct {
	outbox     outbox.Interface
	messengers []messenger.Messenger
	metrics    *observability.Metrics
}

// NewMessageSendTask binds the send task to its dependencies.
func NewMessageSendTask(ob outbox.Interface, messengers []messenger.Messenger, metrics *observability.Metrics) *MessageSendTask {
	return &MessageSendTask{
		outbox:     ob,
		messengers: messengers,
		metrics:    metrics,
	}
}

// Run sends every unsent message through every messenger and persists
// each response. Failed persists leave the message unsent, so it will
// be retried on the next invocation.
func (t *MessageSendTask) Run(ctx context.Context) error {
	messages, err := t.outbox.GetUnsentMessages()
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	taskLogger.Info("Draining outbox", "pending", len(messages))
	for i := range messages {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		for _, m := range t.messengers {
			start := time.Now()
			resp := m.Send(ctx, &messages[i])
			if t.metrics != nil {
				t.metrics.SendDuration.Observe(time.Since(start).Seconds())
				t.metrics.MessagesSent.WithLabelValues(m.Name(), string(resp.Status)).Inc()
			}
			if err := t.outbox.StoreResponse(resp); err != nil {
				// The response is lost; the message stays unsent and
				// will be re-delivered.
				taskLogger.Error("Failed to persist response",
					"message_id", messages[i].ID, "transport", m.Name(), "error", err)
				return err
			}
		}
	}
	return nil
}
