package outbox

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Interface defines the operations of the message outbox.
type Interface interface {
	Open() error
	Close() error
	StoreMessage(message *Message) error
	GetUnsentMessages() ([]Message, error)
	StoreResponse(response *Response) error
	PendingCount() (int64, error)
}

// Store implements Interface over a local SQLite file, separate from
// the metadata database.
type Store struct {
	DB   *gorm.DB
	Path string
}

// NewSQLite creates an outbox backed by the SQLite database at path.
func NewSQLite(path string) *Store {
	return &Store{Path: path}
}

// Open sets up the database connection and migrates the schema.
func (s *Store) Open() error {
	if s.Path == "" {
		return fmt.Errorf("outbox database path is not set")
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create outbox directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(s.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open outbox database: %w", err)
	}
	s.DB = db

	if err := db.AutoMigrate(&Message{}, &Response{}); err != nil {
		return outboxError(err, "auto-migration", errors.PriorityCritical)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StoreMessage appends a message to the outbox. Re-storing the same id
// is a no-op.
func (s *Store) StoreMessage(message *Message) error {
	if message.ID == "" {
		*message = NewMessage(message.Content)
	}
	if message.CreatedOn.IsZero() {
		message.CreatedOn = time.Now()
	}
	err := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(message).Error
	if err != nil {
		return outboxError(err, "store-message", errors.PriorityHigh, "message_id", message.ID)
	}
	return nil
}

// GetUnsentMessages returns every message with zero success responses,
// oldest first. Messages with only failed, error or timeout responses
// remain eligible for retry.
func (s *Store) GetUnsentMessages() ([]Message, error) {
	var messages []Message
	err := s.DB.
		Where("id NOT IN (?)",
			s.DB.Model(&Response{}).Select("message_id").Where("status = ?", StatusSuccess)).
		Order("created_on ASC").
		Find(&messages).Error
	if err != nil {
		return nil, outboxError(err, "get-unsent-messages", errors.PriorityHigh)
	}
	return messages, nil
}

// StoreResponse appends a delivery response. If the referenced message
// row does not exist yet (the send raced the enqueue) a placeholder row
// is created so the response is not lost.
func (s *Store) StoreResponse(response *Response) error {
	if response.MessageID == "" {
		return errors.Newf("response has no message id").
			Component("outbox").
			Category(errors.CategoryValidation).
			Build()
	}
	if response.ReceivedOn.IsZero() {
		response.ReceivedOn = time.Now()
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		placeholder := Message{ID: response.MessageID, CreatedOn: time.Now()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
			return outboxError(err, "ensure-message-row", errors.PriorityHigh, "message_id", response.MessageID)
		}
		if err := tx.Create(response).Error; err != nil {
			return outboxError(err, "store-response", errors.PriorityHigh, "message_id", response.MessageID)
		}
		return nil
	})
}

// PendingCount returns the number of messages still awaiting a success
// response. Used by the heartbeat payload.
func (s *Store) PendingCount() (int64, error) {
	var count int64
	err := s.DB.Model(&Message{}).
		Where("id NOT IN (?)",
			s.DB.Model(&Response{}).Select("message_id").Where("status = ?", StatusSuccess)).
		Count(&count).Error
	if err != nil {
		return 0, outboxError(err, "pending-count", errors.PriorityLow)
	}
	return count, nil
}

// outboxError creates a categorized database error with context.
func outboxError(err error, operation, priority string, context ...any) error {
	builder := errors.New(err).
		Component("outbox").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Priority(priority)

	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}
	return builder.Build()
}
