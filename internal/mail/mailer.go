// Package mail sends the notification emails produced by the queue
// consumers.
package mail

import (
	"context"
	"log"
)

// Mailer delivers one message with a plain text and an HTML body.
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// LogMailer only logs what it would send.  It is used when no SMTP server
// is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to, subject, _, _ string) error {
	log.Printf("mail: (log only) to=%s subject=%q", to, subject)
	return nil
}
