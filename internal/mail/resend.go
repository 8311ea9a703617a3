// Package mail delivers transactional email for the storefront.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// DefaultResendURL is the Resend API base URL.
const DefaultResendURL = "https://api.resend.com"

// Message is a single outgoing email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender delivers a message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, m Message) (string, error)
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend: status %d: %s", e.StatusCode, e.Body)
}

var _ Sender = (*ResendClient)(nil)

// ResendClient sends email through the Resend HTTP API.
type ResendClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewResendClient returns a client for baseURL (DefaultResendURL when empty).
// Every request is bounded by timeout.
func NewResendClient(apiKey, baseURL string, timeout time.Duration) *ResendClient {
	if baseURL == "" {
		baseURL = DefaultResendURL
	}
	return &ResendClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Send posts m to the /emails endpoint.
func (c *ResendClient) Send(ctx context.Context, m Message) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(encodeMessage(m)))
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "send email")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	id, err := decodeMessageID(body)
	if err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	if id == "" {
		return "", errors.New("resend: response has no message id")
	}
	return id, nil
}

func encodeMessage(m Message) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("from")
	e.Str(m.From)
	e.FieldStart("to")
	e.ArrStart()
	for _, to := range m.To {
		e.Str(to)
	}
	e.ArrEnd()
	if m.ReplyTo != "" {
		e.FieldStart("reply_to")
		e.Str(m.ReplyTo)
	}
	e.FieldStart("subject")
	e.Str(m.Subject)
	e.FieldStart("html")
	e.Str(m.HTML)
	e.ObjEnd()
	return e.Bytes()
}

func decodeMessageID(body []byte) (string, error) {
	var id string
	err := jx.DecodeBytes(body).ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "id" {
			return d.Skip()
		}
		v, err := d.Str()
		id = v
		return err
	})
	return id, err
}
