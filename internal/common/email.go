package common

import (
	"context"
	"sync"
)

// Attachment is a file sent along with an email.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Email is a single outbound message.
type Email struct {
	To          string
	Subject     string
	HTML        string
	ReplyTo     string
	Attachments []Attachment
}

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	Send(ctx context.Context, msg Email) error
}

// InMemoryEmail records messages instead of delivering them. Used in tests
// and local development.
type InMemoryEmail struct {
	mu     sync.Mutex
	Outbox []Email
}

// Send records the email in memory.
func (m *InMemoryEmail) Send(_ context.Context, msg Email) error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outbox = append(m.Outbox, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *InMemoryEmail) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.Outbox...)
}

// NopEmailSender implements EmailSender without performing any action.
type NopEmailSender struct{}

// Send implements EmailSender.
func (NopEmailSender) Send(context.Context, Email) error { return nil }
