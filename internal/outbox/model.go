// Package outbox implements the store-and-forward message log that gives
// the pipeline its at-least-once delivery guarantee. Outgoing messages
// are persisted before any send attempt; a message counts as synced only
// once it owns a success response.
package outbox

import (
	"time"

	"github.com/google/uuid"
)

// ResponseStatus is the outcome of one delivery attempt.
type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "success"
	StatusFailed  ResponseStatus = "failed"
	StatusError   ResponseStatus = "error"
	StatusTimeout ResponseStatus = "timeout"
)

// Message is an opaque outgoing payload, typically serialized JSON.
type Message struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedOn time.Time `gorm:"index:idx_messages_created_on" json:"created_on"`
}

// Response records the result of delivering a message to one messenger.
type Response struct {
	ID         uint           `gorm:"primaryKey" json:"-"`
	MessageID  string         `gorm:"index:idx_responses_message;not null" json:"message_id"`
	Status     ResponseStatus `gorm:"index:idx_responses_status;type:varchar(10)" json:"status"`
	Content    string         `gorm:"type:text" json:"content"`
	ReceivedOn time.Time      `json:"received_on"`
}

// NewMessage builds a message with a fresh id, created now.
func NewMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedOn: time.Now(),
	}
}
