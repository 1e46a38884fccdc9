package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evecorpbot/internal/clock"
	"evecorpbot/internal/domain"
)

func configuredState() *domain.BotState {
	return &domain.BotState{
		EventChannelID:      "events",
		TicketChannelID:     "tickets",
		EventCreatorRoleIDs: []string{"officer"},
	}
}

func newEventFixture(t *testing.T) (domain.EventService, domain.EventStore, *fakeMessenger, *recordingScheduler) {
	t.Helper()
	svc, events, msgr, sched, _ := newEventFixtureWithClock(t)
	return svc, events, msgr, sched
}

func newEventFixtureWithClock(t *testing.T) (domain.EventService, domain.EventStore, *fakeMessenger, *recordingScheduler, *clock.FakeClock) {
	t.Helper()
	_, events, state := newStores(t, configuredState())
	msgr := newFakeMessenger()
	sched := &recordingScheduler{}
	clk := clock.Fake(epoch)
	svc := NewEventService(events, state, msgr, sched, clk, discardLogger(), 5*time.Second)
	return svc, events, msgr, sched, clk
}

func createInput() domain.CreateEventInput {
	return domain.CreateEventInput{
		Title:        "Ops Meeting",
		Description:  "Fleet up",
		ScheduledAt:  time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC),
		CreatorID:    "creator",
		CreatorRoles: []string{"member", "officer"},
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	svc, events, msgr, sched := newEventFixture(t)

	id, err := svc.CreateEvent(ctx, createInput())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.Equal(t, 1, msgr.sentCount())
	sent := msgr.lastSent()
	assert.Equal(t, "events", sent.ChannelID)
	assert.Len(t, sent.Message.Components, 2)

	ev, err := events.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "events", ev.ChannelID)
	assert.Equal(t, "creator", ev.CreatorID)
	assert.Empty(t, ev.Attendees)
	assert.Empty(t, ev.Declined)
	assert.Equal(t, []string{id}, sched.armed)
}

func TestEventService_CreateEventRejected(t *testing.T) {
	tests := []struct {
		name    string
		state   *domain.BotState
		mutate  func(*domain.CreateEventInput)
		wantErr error
	}{
		{
			name:    "missing title",
			state:   configuredState(),
			mutate:  func(in *domain.CreateEventInput) { in.Title = "  " },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing time",
			state:   configuredState(),
			mutate:  func(in *domain.CreateEventInput) { in.ScheduledAt = time.Time{} },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "time already passed",
			state:   configuredState(),
			mutate:  func(in *domain.CreateEventInput) { in.ScheduledAt = epoch.Add(-time.Minute) },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "time is now",
			state:   configuredState(),
			mutate:  func(in *domain.CreateEventInput) { in.ScheduledAt = epoch },
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "not configured",
			state:   &domain.BotState{},
			mutate:  func(in *domain.CreateEventInput) {},
			wantErr: domain.ErrNotConfigured,
		},
		{
			name:    "creator lacks role",
			state:   configuredState(),
			mutate:  func(in *domain.CreateEventInput) { in.CreatorRoles = []string{"member"} },
			wantErr: domain.ErrForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, events, state := newStores(t, tt.state)
			msgr := newFakeMessenger()
			svc := NewEventService(events, state, msgr, &recordingScheduler{}, clock.Fake(epoch), discardLogger(), time.Second)

			in := createInput()
			tt.mutate(&in)
			_, err := svc.CreateEvent(context.Background(), in)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, msgr.sentCount())

			all, err := events.All(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestEventService_CreateEventDeliveryFailure(t *testing.T) {
	svc, events, msgr, sched := newEventFixture(t)
	msgr.sendErr = errors.New("discord down")

	_, err := svc.CreateEvent(context.Background(), createInput())
	require.ErrorIs(t, err, domain.ErrDeliveryFailed)
	all, err := events.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, sched.armed)
}

func TestEventService_HandleRSVPTransitions(t *testing.T) {
	ctx := context.Background()
	svc, events, msgr, _ := newEventFixture(t)
	id, err := svc.CreateEvent(ctx, createInput())
	require.NoError(t, err)

	steps := []struct {
		user    string
		action  domain.RSVPAction
		outcome domain.RSVPOutcome
	}{
		{"u1", domain.RSVPJoin, domain.OutcomeJoined},
		{"u1", domain.RSVPJoin, domain.OutcomeAlreadyAttending},
		{"u2", domain.RSVPDecline, domain.OutcomeDeclined},
		{"u1", domain.RSVPDecline, domain.OutcomeDeclined},
		{"u1", domain.RSVPDecline, domain.OutcomeAlreadyDeclined},
		{"u2", domain.RSVPJoin, domain.OutcomeJoined},
	}
	for i, step := range steps {
		got, err := svc.HandleRSVP(ctx, id, step.user, step.action)
		require.NoError(t, err, "step %d", i)
		require.Equal(t, step.outcome, got, "step %d", i)

		ev, err := events.Find(ctx, id)
		require.NoError(t, err)
		for _, a := range ev.Attendees {
			require.NotContains(t, ev.Declined, a, "step %d", i)
		}
	}

	ev, err := events.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, ev.Attendees)
	assert.Equal(t, []string{"u1"}, ev.Declined)

	// One refresh per changing transition, none for the "already" outcomes.
	assert.Equal(t, 4, msgr.editCount())
	last := msgr.edits[len(msgr.edits)-1]
	assert.Equal(t, id, last.MessageID)
	fields := (*last.Edit.Embeds)[0].Fields
	assert.Equal(t, "<@u2>", fields[2].Value)
	assert.Equal(t, "<@u1>", fields[3].Value)
}

func TestEventService_DuplicateJoinIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, events, _, _ := newEventFixture(t)
	id, err := svc.CreateEvent(ctx, createInput())
	require.NoError(t, err)

	_, err = svc.HandleRSVP(ctx, id, "u1", domain.RSVPJoin)
	require.NoError(t, err)
	once, err := events.Find(ctx, id)
	require.NoError(t, err)

	outcome, err := svc.HandleRSVP(ctx, id, "u1", domain.RSVPJoin)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAlreadyAttending, outcome)
	assert.False(t, outcome.Changed())

	twice, err := events.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, once.Attendees, twice.Attendees)
}

func TestEventService_HandleRSVPUnknownEvent(t *testing.T) {
	svc, _, msgr, _ := newEventFixture(t)

	_, err := svc.HandleRSVP(context.Background(), "missing", "u1", domain.RSVPJoin)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, msgr.editCount())
}

func TestEventService_RefreshFailureStillPersists(t *testing.T) {
	ctx := context.Background()
	svc, events, msgr, _ := newEventFixture(t)
	id, err := svc.CreateEvent(ctx, createInput())
	require.NoError(t, err)
	msgr.editErr = errors.New("rate limited")

	outcome, err := svc.HandleRSVP(ctx, id, "u1", domain.RSVPJoin)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeJoined, outcome)

	ev, err := events.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ev.Attendees)
}

func TestEventService_ConcurrentRSVPsKeepEveryUpdate(t *testing.T) {
	ctx := context.Background()
	svc, events, _, _ := newEventFixture(t)
	id, err := svc.CreateEvent(ctx, createInput())
	require.NoError(t, err)

	const users = 25
	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(user string, action domain.RSVPAction) {
			defer wg.Done()
			_, err := svc.HandleRSVP(ctx, id, user, action)
			assert.NoError(t, err)
		}(fmt.Sprintf("u%d", i), domain.RSVPAction(i%2+1))
	}
	wg.Wait()

	ev, err := events.Find(ctx, id)
	require.NoError(t, err)
	assert.Len(t, ev.Attendees, 13)
	assert.Len(t, ev.Declined, 12)
}

func TestEventService_HandleRSVPRearmsOnJoin(t *testing.T) {
	ctx := context.Background()
	svc, _, _, sched := newEventFixture(t)
	id, err := svc.CreateEvent(ctx, createInput())
	require.NoError(t, err)
	require.Equal(t, []string{id}, sched.armed)

	_, err = svc.HandleRSVP(ctx, id, "u1", domain.RSVPJoin)
	require.NoError(t, err)
	_, err = svc.HandleRSVP(ctx, id, "u1", domain.RSVPJoin)
	require.NoError(t, err)
	_, err = svc.HandleRSVP(ctx, id, "u2", domain.RSVPDecline)
	require.NoError(t, err)

	// Only the creation and the first join arm.
	assert.Equal(t, []string{id, id}, sched.armed)
}

func TestEventService_HandleRSVPAfterStartIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, events, msgr, _, clk := newEventFixtureWithClock(t)
	in := createInput()
	in.ScheduledAt = epoch.Add(time.Hour)
	id, err := svc.CreateEvent(ctx, in)
	require.NoError(t, err)
	_, err = svc.HandleRSVP(ctx, id, "u1", domain.RSVPJoin)
	require.NoError(t, err)
	before, err := events.Find(ctx, id)
	require.NoError(t, err)
	edits := msgr.editCount()

	clk.Advance(time.Hour)

	for _, action := range []domain.RSVPAction{domain.RSVPJoin, domain.RSVPDecline} {
		_, err := svc.HandleRSVP(ctx, id, "u2", action)
		require.ErrorIs(t, err, domain.ErrEventStarted)
	}
	_, err = svc.HandleRSVP(ctx, id, "u1", domain.RSVPDecline)
	require.ErrorIs(t, err, domain.ErrEventStarted)

	after, err := events.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, edits, msgr.editCount())
}
