// Package evolution talks to the Evolution API WhatsApp gateway.
package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
)

const (
	defaultTimeout        = 10 * time.Second
	responseBodyReadLimit = 1024
)

var (
	errBaseURLRequired = errors.New("evolution api base url is required")
	errAPIKeyRequired  = errors.New("evolution api key is required")
)

// Client sends WhatsApp text messages through an Evolution API instance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every send.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the Evolution client.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, errBaseURLRequired
	}
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    trimmedURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// SendResult carries the gateway message id when the send succeeded.
type SendResult struct {
	MessageID string
}

// SendText delivers body to phone through the named instance. Every failure
// is a CodeDependency error so callers can record it and move on.
func (c *Client) SendText(ctx context.Context, instance, phone, body string) (*SendResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "evolution client not configured")
	}
	instance = strings.TrimSpace(instance)
	if instance == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "whatsapp instance is required")
	}
	number := NormalizePhone(phone)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number is required")
	}

	payload, err := json.Marshal(map[string]string{
		"number": number,
		"text":   body,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal send text request")
	}

	endpoint := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, url.PathEscape(instance))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build send text request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute send text request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		// The read limit can split a rune.
		body := strings.ToValidUTF8(string(msg), "")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(body)), "send text request failed")
	}

	var apiResp struct {
		Key struct {
			ID string `json:"id"`
		} `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil && !errors.Is(err, io.EOF) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode send text response")
	}

	return &SendResult{MessageID: apiResp.Key.ID}, nil
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
