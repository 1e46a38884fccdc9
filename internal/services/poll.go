package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"evecorpbot/internal/clock"
	"evecorpbot/internal/domain"
)

// recentWindow is how many channel messages are inspected to decide whether
// a tracked alert is still the latest message.
const recentWindow = 5

// PollDeps are the collaborators of the poll service.
type PollDeps struct {
	State       domain.StateStore
	OAuth       domain.OAuthProvider
	Structures  domain.StructureFetcher
	Sovereignty domain.SovereigntyFetcher
	Messenger   domain.Messenger
	// Mailer is optional; when set every alert is also e-mailed.
	Mailer domain.AlertMailer
	Clock  clock.Clock
	Logger *slog.Logger

	FuelThreshold time.Duration
	ADMFloor      float64
	Timeout       time.Duration
}

type pollService struct {
	PollDeps
}

// NewPollService returns a PollService running fuel and sovereignty cycles.
func NewPollService(deps PollDeps) domain.PollService {
	return &pollService{PollDeps: deps}
}

// RunPollCycle runs one cycle of the given kind. A failed remote fetch
// leaves the stored snapshot untouched; a failed alert delivery does not.
func (s *pollService) RunPollCycle(ctx context.Context, kind domain.PollKind) (*domain.PollReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	logger := s.Logger.With("kind", string(kind), "cycle_id", uuid.NewString())
	var (
		report *domain.PollReport
		err    error
	)
	switch kind {
	case domain.PollFuel:
		report, err = s.runFuel(ctx, logger)
	case domain.PollSovereignty:
		report, err = s.runSovereignty(ctx, logger)
	default:
		return nil, fmt.Errorf("unknown poll kind %q: %w", kind, domain.ErrInvalidInput)
	}
	if err != nil {
		logger.Error("poll cycle failed", "err", err)
		return nil, err
	}
	logger.Info("poll cycle finished", "checked", report.Checked, "alerting", len(report.Alerting), "message_id", report.MessageID)
	return report, nil
}

// deliverAlert posts content to channelID and returns the ID of the message
// now carrying it. A tracked alert that is still the newest message in the
// channel is edited in place; an older one is replaced.
func (s *pollService) deliverAlert(ctx context.Context, logger *slog.Logger, channelID, trackedID, content string) (string, error) {
	if trackedID != "" {
		if s.isLatest(ctx, channelID, trackedID) {
			err := s.Messenger.EditMessage(ctx, channelID, trackedID, &domain.MessageEdit{Content: &content})
			if err == nil {
				return trackedID, nil
			}
			logger.Warn("could not edit tracked alert, sending a new one", "message_id", trackedID, "err", err)
		} else if err := s.Messenger.DeleteMessage(ctx, channelID, trackedID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("could not delete superseded alert", "message_id", trackedID, "err", err)
		}
	}

	id, err := s.Messenger.SendMessage(ctx, channelID, &domain.Message{Content: content})
	if err != nil {
		return "", fmt.Errorf("send alert: %w: %w", domain.ErrDeliveryFailed, err)
	}
	return id, nil
}

func (s *pollService) isLatest(ctx context.Context, channelID, messageID string) bool {
	recent, err := s.Messenger.RecentMessages(ctx, channelID, recentWindow)
	if err != nil {
		// Position unknown: edit in place.
		return true
	}
	return len(recent) > 0 && recent[0].ID == messageID
}

func (s *pollService) mailAlert(ctx context.Context, logger *slog.Logger, data *domain.AlertEmailData) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.SendAlert(ctx, data); err != nil {
		logger.Warn("could not mail alert", "err", err)
	}
}
