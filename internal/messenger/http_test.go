package messenger

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldrec/fieldrec-go/internal/outbox"
)

func newMockedHTTP(t *testing.T, config HTTPConfig) *HTTPMessenger {
	t.Helper()
	h := NewHTTPWithConfig(config)
	httpmock.ActivateNonDefault(h.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return h
}

func TestHTTPSendSuccess(t *testing.T) {
	h := newMockedHTTP(t, HTTPConfig{
		URL:     "https://collector.example.com/api/messages",
		Headers: map[string]string{"Authorization": "Bearer token123"},
		Params:  map[string]string{"device": "node-1"},
	})

	var gotRequest *http.Request
	httpmock.RegisterResponder(http.MethodPost, "https://collector.example.com/api/messages",
		func(req *http.Request) (*http.Response, error) {
			gotRequest = req
			return httpmock.NewStringResponse(http.StatusAccepted, "accepted"), nil
		})

	message := outbox.NewMessage(`{"type":"detection"}`)
	resp := h.Send(context.Background(), &message)

	require.NotNil(t, resp)
	assert.Equal(t, outbox.StatusSuccess, resp.Status)
	assert.Equal(t, "accepted", resp.Content)
	assert.Equal(t, message.ID, resp.MessageID)
	assert.False(t, resp.ReceivedOn.IsZero())

	require.NotNil(t, gotRequest)
	assert.Equal(t, "application/json", gotRequest.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer token123", gotRequest.Header.Get("Authorization"))
	assert.Equal(t, "node-1", gotRequest.URL.Query().Get("device"))
}

func TestHTTPSendNon2xxIsError(t *testing.T) {
	h := newMockedHTTP(t, HTTPConfig{URL: "https://collector.example.com/api/messages"})

	httpmock.RegisterResponder(http.MethodPost, "https://collector.example.com/api/messages",
		httpmock.NewStringResponder(http.StatusInternalServerError, "database unavailable"))

	message := outbox.NewMessage(`{"type":"detection"}`)
	resp := h.Send(context.Background(), &message)

	require.NotNil(t, resp)
	assert.Equal(t, outbox.StatusError, resp.Status)
	assert.Equal(t, "status 500: database unavailable", resp.Content)
}

func TestHTTPSendConnectionFailure(t *testing.T) {
	h := newMockedHTTP(t, HTTPConfig{URL: "https://collector.example.com/api/messages"})

	httpmock.RegisterResponder(http.MethodPost, "https://collector.example.com/api/messages",
		httpmock.NewErrorResponder(assert.AnError))

	message := outbox.NewMessage(`{"type":"detection"}`)
	resp := h.Send(context.Background(), &message)

	require.NotNil(t, resp)
	assert.Equal(t, outbox.StatusFailed, resp.Status)
	assert.NotEmpty(t, resp.Content)
}

func TestHTTPSendTimeout(t *testing.T) {
	h := newMockedHTTP(t, HTTPConfig{URL: "https://collector.example.com/api/messages"})

	httpmock.RegisterResponder(http.MethodPost, "https://collector.example.com/api/messages",
		httpmock.NewErrorResponder(context.DeadlineExceeded))

	message := outbox.NewMessage(`{"type":"detection"}`)
	resp := h.Send(context.Background(), &message)

	require.NotNil(t, resp)
	assert.Equal(t, outbox.StatusTimeout, resp.Status)
}

func TestHTTPSendInvalidURLIsError(t *testing.T) {
	h := NewHTTPWithConfig(HTTPConfig{URL: "://not-a-url"})

	message := outbox.NewMessage(`{}`)
	resp := h.Send(context.Background(), &message)

	require.NotNil(t, resp)
	assert.Equal(t, outbox.StatusError, resp.Status)
}

func TestHTTPCheck(t *testing.T) {
	h := newMockedHTTP(t, HTTPConfig{URL: "https://collector.example.com/api/messages"})

	httpmock.RegisterResponder(http.MethodHead, "https://collector.example.com/api/messages",
		httpmock.NewStringResponder(http.StatusOK, ""))

	require.NoError(t, h.Check(context.Background()))
}

func TestHTTPDefaultTimeout(t *testing.T) {
	h := NewHTTPWithConfig(HTTPConfig{URL: "https://collector.example.com"})
	assert.Equal(t, DefaultSendTimeout, h.config.Timeout)

	h = NewHTTPWithConfig(HTTPConfig{URL: "https://collector.example.com", Timeout: 12 * time.Second})
	assert.Equal(t, 12*time.Second, h.config.Timeout)
}
