// heartbeat.go: periodic liveness message for fleet dashboards. Sent
// directly through the messengers, not via the outbox; a missed
// heartbeat is information in itself.
package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/messenger"
	"github.com/fieldrec/fieldrec-go/internal/outbox"
)

// heartbeatPayload is the liveness message body.
type heartbeatPayload struct {
	Type    string    `json:"type"`
	Name    string    `json:"name"`
	Time    time.Time `json:"time"`
	Pending int64     `json:"pending_messages"`
}

// HeartbeatTask builds and sends a liveness message.
type HeartbeatTask struct {
	name       string
	outbox     outbox.Interface
	messengers []messenger.Messenger
}

// NewHeartbeatTask binds the heartbeat task to its dependencies.
func NewHeartbeatTask(name string, ob outbox.Interface, messengers []messenger.Messenger) *HeartbeatTask {
	return &HeartbeatTask{
		name:       name,
		outbox:     ob,
		messengers: messengers,
	}
}

// Run sends one heartbeat through every messenger. Delivery failures
// are logged, not retried; the next beat supersedes this one.
func (t *HeartbeatTask) Run(ctx context.Context) error {
	pending, err := t.outbox.PendingCount()
	if err != nil {
		taskLogger.Warn("Heartbeat could not read outbox size", "error", err)
		pending = -1
	}

	payload, err := json.Marshal(heartbeatPayload{
		Type:    "heartbeat",
		Name:    t.name,
		Time:    time.Now(),
		Pending: pending,
	})
	if err != nil {
		return err
	}

	message := outbox.NewMessage(string(payload))
	for _, m := range t.messengers {
		resp := m.Send(ctx, &message)
		if resp.Status != outbox.StatusSuccess {
			taskLogger.Warn("Heartbeat delivery failed",
				"transport", m.Name(), "status", resp.Status, "content", resp.Content)
		}
	}
	return nil
}
