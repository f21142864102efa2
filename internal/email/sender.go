// Package email renders and delivers outbound service email.
package email

import (
	"context"

	"github.com/ignite/newsletter/internal/pkg/logger"
)

// Sender delivers a single email to one recipient with an HTML and a
// plain-text rendering of the body. Implementations report transport
// failures as errors; they never partially deliver.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}

// LogSender logs instead of delivering. Used when no transport credentials
// are configured, so local development works without an SES account.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, _, _ string) error {
	logger.Info("email suppressed (no transport configured)",
		"recipient", to,
		"subject", subject,
	)
	return nil
}
