package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"quotedesk/pkg/queue"
)

// Mailer delivers sign-in links.
type Mailer interface {
	SendSignInLink(ctx context.Context, email, url string) error
}

// LogMailer logs the sign-in link instead of sending mail. Development only.
type LogMailer struct{}

// SendSignInLink writes the link to the log.
func (LogMailer) SendSignInLink(_ context.Context, email, url string) error {
	slog.Info("sign-in link", "email", email, "url", url)
	return nil
}

// QueueMailer hands delivery off to the mail dispatch stream; the mailer
// worker picks jobs up from there.
type QueueMailer struct {
	queue *queue.RedisMailQueue
}

// NewQueueMailer wraps a mail queue.
func NewQueueMailer(q *queue.RedisMailQueue) *QueueMailer {
	return &QueueMailer{queue: q}
}

// SendSignInLink enqueues a mail job.
func (m *QueueMailer) SendSignInLink(ctx context.Context, email, url string) error {
	if _, err := m.queue.Enqueue(ctx, email, url); err != nil {
		return fmt.Errorf("enqueue sign-in mail: %w", err)
	}
	return nil
}

// SMTPMailer sends sign-in links over plain SMTP. Used by the mailer worker.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer builds a mailer for the given SMTP server address.
func NewSMTPMailer(addr, from string) (*SMTPMailer, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("smtp addr required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, fmt.Errorf("smtp from address required")
	}
	return &SMTPMailer{addr: addr, from: from}, nil
}

// SendSignInLink sends the sign-in email.
func (m *SMTPMailer) SendSignInLink(_ context.Context, email, url string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + email,
		"Subject: Sign in to QuoteDesk",
		"",
		"Click the link below to sign in. The link can be used once and expires in 24 hours.",
		"",
		url,
		"",
	}, "\r\n")
	if err := smtp.SendMail(m.addr, nil, m.from, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("send sign-in mail: %w", err)
	}
	return nil
}
