package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"evecorpbot/internal/clock"
	"evecorpbot/internal/domain"
	"evecorpbot/internal/render"
)

type eventService struct {
	events         domain.EventStore
	state          domain.StateStore
	messenger      domain.Messenger
	scheduler      domain.EventScheduler
	clock          clock.Clock
	logger         *slog.Logger
	contextTimeout time.Duration

	// refreshMu orders surface refreshes so the last edit shows the latest state.
	refreshMu sync.Mutex
}

// NewEventService wires the create-event command and RSVP handling.
func NewEventService(events domain.EventStore,
	state domain.StateStore,
	messenger domain.Messenger,
	scheduler domain.EventScheduler,
	clk clock.Clock,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		events:         events,
		state:          state,
		messenger:      messenger,
		scheduler:      scheduler,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, in domain.CreateEventInput) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return "", fmt.Errorf("event title is required: %w", domain.ErrInvalidInput)
	}
	if in.ScheduledAt.IsZero() {
		return "", fmt.Errorf("event time is required: %w", domain.ErrInvalidInput)
	}
	if !in.ScheduledAt.After(s.clock.Now()) {
		return "", fmt.Errorf("event time %s is in the past: %w", in.ScheduledAt.UTC().Format(time.RFC3339), domain.ErrInvalidInput)
	}

	st, err := s.state.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load bot state: %w", err)
	}
	if st.EventChannelID == "" || len(st.EventCreatorRoleIDs) == 0 {
		return "", fmt.Errorf("event channel or creator roles unset: %w", domain.ErrNotConfigured)
	}
	if !hasAnyRole(in.CreatorRoles, st.EventCreatorRoleIDs) {
		return "", domain.ErrForbidden
	}

	ev := &domain.Event{
		ChannelID:   st.EventChannelID,
		ScheduledAt: in.ScheduledAt.UTC(),
		Title:       in.Title,
		Description: in.Description,
		CreatorID:   in.CreatorID,
		PingRoleID:  in.PingRoleID,
		Attendees:   []string{},
		Declined:    []string{},
	}
	id, err := s.messenger.SendMessage(ctx, ev.ChannelID, render.EventCreated(ev))
	if err != nil {
		return "", fmt.Errorf("post event surface: %w: %w", domain.ErrDeliveryFailed, err)
	}
	ev.ID = id

	if err := s.events.Append(ctx, ev); err != nil {
		return "", fmt.Errorf("store event: %w", err)
	}
	armed := s.scheduler.Arm(ev)
	s.logger.Info("event created", "event_id", id, "creator_id", in.CreatorID, "scheduled_at", ev.ScheduledAt, "armed", armed)
	return id, nil
}

func (s *eventService) HandleRSVP(ctx context.Context, eventID, userID string, action domain.RSVPAction) (domain.RSVPOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var (
		outcome domain.RSVPOutcome
		started bool
	)
	now := s.clock.Now()
	ev, err := s.events.Update(ctx, eventID, func(ev *domain.Event) bool {
		if !ev.ScheduledAt.After(now) {
			started = true
			return false
		}
		outcome = ev.Apply(userID, action)
		return outcome.Changed()
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("update rsvp: %w", err)
	}
	if started {
		return 0, fmt.Errorf("rsvp to event %s: %w", eventID, domain.ErrEventStarted)
	}
	s.logger.Info("rsvp handled", "event_id", eventID, "user_id", userID, "action", action.String(), "outcome", outcome.String())

	// Events restored without attendees have no timer yet.
	if outcome == domain.OutcomeJoined {
		s.scheduler.Arm(ev)
	}
	if outcome.Changed() {
		s.refresh(ctx, eventID)
	}
	return outcome, nil
}

// refresh re-renders the event surface from the stored record.
func (s *eventService) refresh(ctx context.Context, eventID string) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	ev, err := s.events.Find(ctx, eventID)
	if err != nil {
		s.logger.Warn("could not reload event for refresh", "event_id", eventID, "err", err)
		return
	}
	if err := s.messenger.EditMessage(ctx, ev.ChannelID, ev.ID, render.EventRSVP(ev)); err != nil {
		s.logger.Warn("could not refresh event surface", "event_id", eventID, "err", err)
	}
}

func hasAnyRole(have, allowed []string) bool {
	for _, r := range have {
		if slices.Contains(allowed, r) {
			return true
		}
	}
	return false
}
