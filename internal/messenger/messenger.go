// Package messenger delivers outbox messages to the remote collector.
// One Messenger per configured transport; every send attempt produces a
// response, never an unbounded wait.
package messenger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/logging"
	"github.com/fieldrec/fieldrec-go/internal/outbox"
)

// DefaultSendTimeout bounds a delivery attempt when the configuration
// does not specify one.
const DefaultSendTimeout = 5 * time.Second

// Messenger delivers a message and reports the outcome. Send must
// return within its configured timeout; a slow or hung remote surfaces
// as a failed, error or timeout response.
type Messenger interface {
	// Name identifies the transport in logs and responses.
	Name() string

	// Send attempts delivery of the message and returns the response
	// to persist. The returned response is never nil.
	Send(ctx context.Context, message *outbox.Message) *outbox.Response

	// Check verifies connectivity to the remote endpoint.
	Check(ctx context.Context) error

	// Close releases transport resources.
	Close()
}

// Package-level logger for messenger events
var msgLogger *slog.Logger

func init() {
	var err error
	msgLogger, _, err = logging.NewFileLogger("logs/messenger.log", "messenger", slog.LevelInfo)
	if err != nil {
		msgLogger = slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", "messenger")
	}
}

// response builds a Response for the given message and outcome.
func response(message *outbox.Message, status outbox.ResponseStatus, content string) *outbox.Response {
	return &outbox.Response{
		MessageID:  message.ID,
		Status:     status,
		Content:    content,
		ReceivedOn: time.Now(),
	}
}
