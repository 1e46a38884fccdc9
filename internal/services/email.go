package services

import (
	"context"
	"fmt"
	"log/slog"

	"evecorpbot/internal/domain"
)

type alertMailer struct {
	mailer     domain.Mailer
	renderer   domain.EmailTemplateRenderer
	recipients []string
	logger     *slog.Logger
}

// NewAlertMailer returns an AlertMailer that renders "<kind>_alert"
// templates and sends them to every recipient.
func NewAlertMailer(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, recipients []string, logger *slog.Logger) domain.AlertMailer {
	return &alertMailer{mailer: mailer, renderer: renderer, recipients: recipients, logger: logger}
}

func (s *alertMailer) SendAlert(ctx context.Context, data *domain.AlertEmailData) error {
	if data == nil {
		return fmt.Errorf("alert email data is nil")
	}
	if len(s.recipients) == 0 {
		return nil
	}
	template := string(data.Kind) + "_alert"
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	for _, to := range s.recipients {
		if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
			return fmt.Errorf("failed to send alert email: %w", err)
		}
	}
	s.logger.Info("alert email sent", "kind", string(data.Kind), "recipients", len(s.recipients))
	return nil
}
