package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// AlertEmailData holds data for a poll alert email.
type AlertEmailData struct {
	Kind    PollKind
	Title   string
	Lines   []string
	Content string
}

// AlertMailer mails a copy of poll alerts to the ops address.
type AlertMailer interface {
	SendAlert(ctx context.Context, data *AlertEmailData) error
}
