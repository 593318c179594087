// http.go: HTTP messenger, POSTs message content to a collector endpoint.
package messenger

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fieldrec/fieldrec-go/internal/conf"
	"github.com/fieldrec/fieldrec-go/internal/errors"
	"github.com/fieldrec/fieldrec-go/internal/outbox"
)

// Connection pool settings for the collector endpoint.
const (
	maxIdleConns          = 10
	idleConnTimeout       = 90 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 10 * time.Second
	userAgent             = "fieldrec"

	// Response bodies beyond this are truncated before persisting.
	maxResponseBody = 64 * 1024
)

// HTTPConfig holds the configuration for the HTTP messenger.
type HTTPConfig struct {
	URL     string
	Headers map[string]string
	Params  map[string]string
	Timeout time.Duration
}

// HTTPMessenger POSTs message content to a configured base URL with
// configurable headers and query parameters.
type HTTPMessenger struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTP creates an HTTP messenger from settings.
func NewHTTP(settings *conf.Settings) *HTTPMessenger {
	config := HTTPConfig{
		URL:     settings.Messaging.HTTP.URL,
		Headers: settings.Messaging.HTTP.Headers,
		Params:  settings.Messaging.HTTP.Params,
		Timeout: DefaultSendTimeout,
	}
	if settings.Messaging.HTTP.Timeout > 0 {
		config.Timeout = time.Duration(settings.Messaging.HTTP.Timeout) * time.Second
	}
	return NewHTTPWithConfig(config)
}

// NewHTTPWithConfig creates an HTTP messenger from an explicit config.
func NewHTTPWithConfig(config HTTPConfig) *HTTPMessenger {
	if config.Timeout <= 0 {
		config.Timeout = DefaultSendTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
	}
	return &HTTPMessenger{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
	}
}

// Name identifies the transport.
func (h *HTTPMessenger) Name() string {
	return "http"
}

// requestURL appends the configured query parameters to the base URL.
func (h *HTTPMessenger) requestURL() (string, error) {
	u, err := url.Parse(h.config.URL)
	if err != nil {
		return "", err
	}
	if len(h.config.Params) > 0 {
		q := u.Query()
		for key, value := range h.config.Params {
			q.Set(key, value)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Send POSTs the message content to the collector. A non-2xx status
// maps to an error response with the body captured; timeouts map to a
// timeout response.
func (h *HTTPMessenger) Send(ctx context.Context, message *outbox.Message) *outbox.Response {
	target, err := h.requestURL()
	if err != nil {
		return response(message, outbox.StatusError, fmt.Sprintf("invalid url: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(message.Content))
	if err != nil {
		return response(message, outbox.StatusError, fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for key, value := range h.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			msgLogger.Warn("HTTP send timeout", "url", h.config.URL, "message_id", message.ID)
			return response(message, outbox.StatusTimeout, err.Error())
		}
		msgLogger.Warn("HTTP send failed", "url", h.config.URL, "message_id", message.ID, "error", err)
		return response(message, outbox.StatusFailed, err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msgLogger.Warn("HTTP send rejected", "url", h.config.URL,
			"message_id", message.ID, "status_code", resp.StatusCode)
		return response(message, outbox.StatusError,
			fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	return response(message, outbox.StatusSuccess, string(body))
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// Check issues a HEAD request against the collector endpoint.
func (h *HTTPMessenger) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.config.URL, http.NoBody)
	if err != nil {
		return errors.New(err).
			Component("messenger").
			Category(errors.CategoryHTTP).
			NetworkContext(h.config.URL, h.config.Timeout).
			Build()
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return errors.New(err).
			Component("messenger").
			Category(errors.CategoryHTTP).
			NetworkContext(h.config.URL, h.config.Timeout).
			Build()
	}
	resp.Body.Close()
	return nil
}

// Close releases idle connections.
func (h *HTTPMessenger) Close() {
	h.client.CloseIdleConnections()
}
