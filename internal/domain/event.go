package domain

import (
	"context"
	"slices"
	"time"
)

// Event is a scheduled corp event with RSVP tracking. ID is the ID of the
// chat message that displays it.
type Event struct {
	ID          string
	ChannelID   string
	ScheduledAt time.Time
	Title       string
	Description string
	CreatorID   string
	PingRoleID  string
	Attendees   []string
	Declined    []string
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	c := *e
	c.Attendees = slices.Clone(e.Attendees)
	c.Declined = slices.Clone(e.Declined)
	return &c
}

// RSVPAction is a user's response to an event.
type RSVPAction int

const (
	RSVPJoin RSVPAction = iota + 1
	RSVPDecline
)

func (a RSVPAction) String() string {
	switch a {
	case RSVPJoin:
		return "join"
	case RSVPDecline:
		return "decline"
	default:
		return "unknown"
	}
}

// RSVPOutcome reports what an RSVP action did.
type RSVPOutcome int

const (
	OutcomeJoined RSVPOutcome = iota + 1
	OutcomeDeclined
	OutcomeAlreadyAttending
	OutcomeAlreadyDeclined
)

// Changed reports whether the outcome mutated the event.
func (o RSVPOutcome) Changed() bool {
	return o == OutcomeJoined || o == OutcomeDeclined
}

func (o RSVPOutcome) String() string {
	switch o {
	case OutcomeJoined:
		return "joined"
	case OutcomeDeclined:
		return "declined"
	case OutcomeAlreadyAttending:
		return "already_attending"
	case OutcomeAlreadyDeclined:
		return "already_declined"
	default:
		return "unknown"
	}
}

// Apply runs one RSVP transition for userID. A user is never in both
// Attendees and Declined after Apply returns.
func (e *Event) Apply(userID string, action RSVPAction) RSVPOutcome {
	switch action {
	case RSVPJoin:
		if slices.Contains(e.Attendees, userID) {
			return OutcomeAlreadyAttending
		}
		e.Declined = slices.DeleteFunc(e.Declined, func(id string) bool { return id == userID })
		e.Attendees = append(e.Attendees, userID)
		return OutcomeJoined
	default:
		if slices.Contains(e.Declined, userID) {
			return OutcomeAlreadyDeclined
		}
		e.Attendees = slices.DeleteFunc(e.Attendees, func(id string) bool { return id == userID })
		e.Declined = append(e.Declined, userID)
		return OutcomeDeclined
	}
}

// CreateEventInput carries the fields of a create-event command.
type CreateEventInput struct {
	Title        string
	Description  string
	ScheduledAt  time.Time
	CreatorID    string
	CreatorRoles []string
	PingRoleID   string
}

// EventStore persists event records as one flat collection. Every call is a
// full load-mutate-save cycle; an unreadable medium yields ErrStoreUnavailable.
type EventStore interface {
	// Init writes an empty collection when none exists yet.
	Init(ctx context.Context) error
	Append(ctx context.Context, ev *Event) error
	Find(ctx context.Context, id string) (*Event, error)
	// Update applies mutate to the record with the given id and saves the
	// collection if mutate reports a change. It returns the record as stored.
	Update(ctx context.Context, id string, mutate func(*Event) bool) (*Event, error)
	All(ctx context.Context) ([]*Event, error)
}

// EventService is the entry point for event commands and RSVP actions.
type EventService interface {
	CreateEvent(ctx context.Context, in CreateEventInput) (string, error)
	HandleRSVP(ctx context.Context, eventID, userID string, action RSVPAction) (RSVPOutcome, error)
}

// EventNotifier delivers the "starting now" notification for an event.
type EventNotifier interface {
	FireEvent(ctx context.Context, eventID string) error
}

// EventScheduler arms deferred event notifications.
type EventScheduler interface {
	Arm(ev *Event) bool
	RestoreAll(ctx context.Context) (int, error)
}
