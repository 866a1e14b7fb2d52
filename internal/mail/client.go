// Package mail delivers rendered messages through the external mail
// dispatch endpoint.
package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ErrDisabled is returned when no endpoint is configured.
var ErrDisabled = errors.New("mail: endpoint not configured")

// Message is one outbound mail.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// StatusError reports a non-2xx answer from the endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mail endpoint returned %d: %s", e.Code, e.Body)
}

// Retryable reports whether a later attempt may succeed.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == fiber.StatusTooManyRequests
}

// RejectedError reports a 2xx answer with success=false.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return "mail endpoint rejected message: " + e.Reason
}

type sendRequest struct {
	Emails  []string `json:"emails"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Client posts messages to the mail endpoint using fiber's HTTP agent.
type Client struct {
	endpoint string
	timeout  time.Duration
}

// NewClient builds a client for endpoint, typically ".../mail/sendMail".
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{endpoint: endpoint, timeout: timeout}
}

// Send performs a single delivery attempt.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.endpoint == "" {
		return ErrDisabled
	}
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout || timeout <= 0 {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.endpoint)
	agent.JSON(sendRequest{Emails: msg.To, Subject: msg.Subject, Body: msg.HTML})
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("mail: build request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("mail: post: %w", errors.Join(errs...))
	}
	if code < 200 || code > 299 {
		return &StatusError{Code: code, Body: string(body)}
	}

	var resp sendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("mail: decode response: %w", err)
	}
	if !resp.Success {
		return &RejectedError{Reason: resp.Error}
	}
	return nil
}
