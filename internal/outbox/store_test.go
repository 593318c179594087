package outbox

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOutbox(t *testing.T) *Store {
	t.Helper()
	store := NewSQLite(filepath.Join(t.TempDir(), "outbox.db"))
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestStoreMessageIsIdempotent(t *testing.T) {
	store := newTestOutbox(t)

	message := NewMessage(`{"type":"detection"}`)
	require.NoError(t, store.StoreMessage(&message))
	require.NoError(t, store.StoreMessage(&message))

	var count int64
	require.NoError(t, store.DB.Model(&Message{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGetUnsentMessagesOnlySuccessCountsAsSent(t *testing.T) {
	store := newTestOutbox(t)

	message := NewMessage(`{"n":1}`)
	message.CreatedOn = time.Now().Add(-time.Minute)
	require.NoError(t, store.StoreMessage(&message))

	unsent, err := store.GetUnsentMessages()
	require.NoError(t, err)
	require.Len(t, unsent, 1)

	// Failed, error and timeout responses leave the message eligible.
	for _, status := range []ResponseStatus{StatusFailed, StatusError, StatusTimeout} {
		require.NoError(t, store.StoreResponse(&Response{
			MessageID: message.ID,
			Status:    status,
			Content:   "delivery attempt did not succeed",
		}))
	}

	unsent, err = store.GetUnsentMessages()
	require.NoError(t, err)
	require.Len(t, unsent, 1)
	assert.Equal(t, message.ID, unsent[0].ID)

	// One success settles it, regardless of earlier failures.
	require.NoError(t, store.StoreResponse(&Response{
		MessageID: message.ID,
		Status:    StatusSuccess,
		Content:   "202 Accepted",
	}))

	unsent, err = store.GetUnsentMessages()
	require.NoError(t, err)
	assert.Empty(t, unsent)
}

func TestGetUnsentMessagesOldestFirst(t *testing.T) {
	store := newTestOutbox(t)

	newer := NewMessage(`{"n":2}`)
	newer.CreatedOn = time.Now()
	older := NewMessage(`{"n":1}`)
	older.CreatedOn = time.Now().Add(-time.Hour)
	require.NoError(t, store.StoreMessage(&newer))
	require.NoError(t, store.StoreMessage(&older))

	unsent, err := store.GetUnsentMessages()
	require.NoError(t, err)
	require.Len(t, unsent, 2)
	assert.Equal(t, older.ID, unsent[0].ID)
	assert.Equal(t, newer.ID, unsent[1].ID)
}

func TestStoreResponseCreatesPlaceholderMessage(t *testing.T) {
	store := newTestOutbox(t)

	response := &Response{
		MessageID: NewMessage("").ID,
		Status:    StatusSuccess,
		Content:   "ok",
	}
	require.NoError(t, store.StoreResponse(response))
	assert.False(t, response.ReceivedOn.IsZero())

	var count int64
	require.NoError(t, store.DB.Model(&Message{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestStoreResponseRequiresMessageID(t *testing.T) {
	store := newTestOutbox(t)

	err := store.StoreResponse(&Response{Status: StatusSuccess})
	require.Error(t, err)
}

func TestPendingCount(t *testing.T) {
	store := newTestOutbox(t)

	count, err := store.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	first := NewMessage(`{"n":1}`)
	second := NewMessage(`{"n":2}`)
	require.NoError(t, store.StoreMessage(&first))
	require.NoError(t, store.StoreMessage(&second))

	count, err = store.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, store.StoreResponse(&Response{
		MessageID: first.ID,
		Status:    StatusSuccess,
	}))

	count, err = store.PendingCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
