package services

import (
	"context"
	"fmt"
	"log/slog"

	"evecorpbot/internal/domain"
	"evecorpbot/internal/render"
)

type eventNotifier struct {
	store     domain.EventStore
	messenger domain.Messenger
	logger    *slog.Logger
}

// NewEventNotifier returns an EventNotifier that posts to the event's channel.
func NewEventNotifier(store domain.EventStore, messenger domain.Messenger, logger *slog.Logger) domain.EventNotifier {
	return &eventNotifier{store: store, messenger: messenger, logger: logger}
}

// FireEvent re-reads the event and announces it to its attendees. Events
// nobody joined are skipped silently. A failed announcement is not retried.
func (n *eventNotifier) FireEvent(ctx context.Context, eventID string) error {
	ev, err := n.store.Find(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event %s: %w", eventID, err)
	}
	if len(ev.Attendees) == 0 {
		n.logger.Info("event start suppressed, no attendees", "event_id", eventID)
		return nil
	}

	if _, err := n.messenger.SendMessage(ctx, ev.ChannelID, render.EventStarting(ev)); err != nil {
		return fmt.Errorf("announce event %s: %w: %w", eventID, domain.ErrDeliveryFailed, err)
	}
	if err := n.messenger.EditMessage(ctx, ev.ChannelID, ev.ID, render.StripControls()); err != nil {
		n.logger.Warn("could not disable rsvp buttons", "event_id", eventID, "err", err)
	}
	n.logger.Info("event started", "event_id", eventID, "attendees", len(ev.Attendees))
	return nil
}
