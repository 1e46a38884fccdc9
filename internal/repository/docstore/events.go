// Package docstore implements the event and state stores on top of a
// whole-document medium.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"evecorpbot/internal/domain"
)

// EventsKey is the document key of the event collection.
const EventsKey = "events"

// eventRecord is the persisted shape of an event.
type eventRecord struct {
	MessageID   string   `json:"messageId"`
	ChannelID   string   `json:"channelId"`
	EventTime   int64    `json:"eventTime"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Attendees   []string `json:"attendees"`
	Declined    []string `json:"declined"`
	CreatorID   string   `json:"creatorId"`
	PingRoleID  string   `json:"pingRoleId,omitempty"`
}

func toRecord(ev *domain.Event) eventRecord {
	rec := eventRecord{
		MessageID:   ev.ID,
		ChannelID:   ev.ChannelID,
		EventTime:   ev.ScheduledAt.UnixMilli(),
		Title:       ev.Title,
		Description: ev.Description,
		Attendees:   ev.Attendees,
		Declined:    ev.Declined,
		CreatorID:   ev.CreatorID,
		PingRoleID:  ev.PingRoleID,
	}
	if rec.Attendees == nil {
		rec.Attendees = []string{}
	}
	if rec.Declined == nil {
		rec.Declined = []string{}
	}
	return rec
}

func (r eventRecord) toDomain() *domain.Event {
	return &domain.Event{
		ID:          r.MessageID,
		ChannelID:   r.ChannelID,
		ScheduledAt: time.UnixMilli(r.EventTime).UTC(),
		Title:       r.Title,
		Description: r.Description,
		CreatorID:   r.CreatorID,
		PingRoleID:  r.PingRoleID,
		Attendees:   r.Attendees,
		Declined:    r.Declined,
	}
}

type eventStore struct {
	docs domain.DocumentStore
	mu   sync.Mutex
}

// NewEventStore returns an EventStore persisting the whole collection as one
// document. A mutex spans each load-mutate-save cycle.
func NewEventStore(docs domain.DocumentStore) domain.EventStore {
	return &eventStore{docs: docs}
}

func (s *eventStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.docs.Load(ctx, EventsKey)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("load events: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return s.save(ctx, nil)
}

// load reads the collection. A missing document is an error here: only Init
// may substitute an empty collection.
func (s *eventStore) load(ctx context.Context) ([]eventRecord, error) {
	data, err := s.docs.Load(ctx, EventsKey)
	if err != nil {
		return nil, fmt.Errorf("load events: %w: %w", domain.ErrStoreUnavailable, err)
	}
	var records []eventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode events: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return records, nil
}

func (s *eventStore) save(ctx context.Context, records []eventRecord) error {
	if records == nil {
		records = []eventRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	if err := s.docs.Save(ctx, EventsKey, data); err != nil {
		return fmt.Errorf("save events: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *eventStore) Append(ctx context.Context, ev *domain.Event) error {
	if ev == nil || ev.ID == "" {
		return fmt.Errorf("event id is required: %w", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		if r.MessageID == ev.ID {
			return fmt.Errorf("event %s already exists: %w", ev.ID, domain.ErrInvalidInput)
		}
	}
	return s.save(ctx, append(records, toRecord(ev.Clone())))
}

func (s *eventStore) Find(ctx context.Context, id string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.MessageID == id {
			return r.toDomain(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *eventStore) Update(ctx context.Context, id string, mutate func(*domain.Event) bool) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i, r := range records {
		if r.MessageID != id {
			continue
		}
		ev := r.toDomain()
		if !mutate(ev) {
			return ev, nil
		}
		// ID and schedule are immutable after creation.
		ev.ID, ev.ChannelID, ev.ScheduledAt, ev.CreatorID = r.MessageID, r.ChannelID, time.UnixMilli(r.EventTime).UTC(), r.CreatorID
		records[i] = toRecord(ev)
		if err := s.save(ctx, records); err != nil {
			return nil, err
		}
		return records[i].toDomain(), nil
	}
	return nil, domain.ErrNotFound
}

func (s *eventStore) All(ctx context.Context) ([]*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	events := make([]*domain.Event, 0, len(records))
	for _, r := range records {
		events = append(events, r.toDomain())
	}
	return events, nil
}
