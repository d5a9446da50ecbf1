package models

import "context"

type Mailer interface {
	// Send delivers a plain-text email to a single recipient.
	Send(ctx context.Context, to string, subject string, body string) error
}
