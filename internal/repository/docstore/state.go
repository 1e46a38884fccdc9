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

// StateKey is the document key of the bot state.
const StateKey = "config"

type tokenRecord struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	CharacterID   string    `json:"character_id,omitempty"`
	CharacterName string    `json:"character_name,omitempty"`
	LinkedAt      time.Time `json:"linked_at,omitzero"`
}

type stationRecord struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	FuelExpires     *time.Time `json:"fuel_expires"`
	FuelRemainingMS *int64     `json:"fuel_remaining_ms"`
	LastChecked     time.Time  `json:"last_checked,omitzero"`
}

type systemRecord struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	ADMLevel        *float64  `json:"adm_level"`
	StructuresCount int       `json:"structures_count"`
	LastChecked     time.Time `json:"last_checked,omitzero"`
}

// stateDocument is the persisted shape of domain.BotState.
type stateDocument struct {
	TicketChannelID      string                 `json:"ticketChannelId"`
	EventChannelID       string                 `json:"eventChannelId"`
	FuelChannelID        string                 `json:"fuelChannelId"`
	WelcomeChannelID     string                 `json:"welcomeChannelId,omitempty"`
	EventCreatorRoleIDs  []string               `json:"eventCreatorRoleIds"`
	Tokens               map[string]tokenRecord `json:"tokens"`
	Stations             []stationRecord        `json:"stations"`
	Systems              []systemRecord         `json:"systems"`
	SovereigntyMessageID string                 `json:"sovereigntyMessageId,omitempty"`
	FuelAlertMessageID   string                 `json:"fuelAlertMessageId,omitempty"`
}

type stateStore struct {
	docs   domain.DocumentStore
	sealer domain.TokenSealer
	mu     sync.Mutex
}

// NewStateStore returns a StateStore. Token strings pass through sealer on
// their way to and from the medium.
func NewStateStore(docs domain.DocumentStore, sealer domain.TokenSealer) domain.StateStore {
	return &stateStore{docs: docs, sealer: sealer}
}

func (s *stateStore) Init(ctx context.Context, defaults *domain.BotState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.docs.Load(ctx, StateKey)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("load state: %w: %w", domain.ErrStoreUnavailable, err)
	}
	if defaults == nil {
		defaults = &domain.BotState{}
	}
	return s.save(ctx, defaults)
}

func (s *stateStore) Load(ctx context.Context) (*domain.BotState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *stateStore) Update(ctx context.Context, mutate func(*domain.BotState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := mutate(st); err != nil {
		return err
	}
	return s.save(ctx, st)
}

func (s *stateStore) load(ctx context.Context) (*domain.BotState, error) {
	data, err := s.docs.Load(ctx, StateKey)
	if err != nil {
		return nil, fmt.Errorf("load state: %w: %w", domain.ErrStoreUnavailable, err)
	}
	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode state: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return s.fromDocument(&doc)
}

func (s *stateStore) save(ctx context.Context, st *domain.BotState) error {
	doc, err := s.toDocument(st)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.docs.Save(ctx, StateKey, data); err != nil {
		return fmt.Errorf("save state: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *stateStore) fromDocument(doc *stateDocument) (*domain.BotState, error) {
	st := &domain.BotState{
		TicketChannelID:      doc.TicketChannelID,
		EventChannelID:       doc.EventChannelID,
		FuelChannelID:        doc.FuelChannelID,
		WelcomeChannelID:     doc.WelcomeChannelID,
		EventCreatorRoleIDs:  doc.EventCreatorRoleIDs,
		Tokens:               make(map[string]domain.TokenPair, len(doc.Tokens)),
		SovereigntyMessageID: doc.SovereigntyMessageID,
		FuelAlertMessageID:   doc.FuelAlertMessageID,
	}
	for userID, t := range doc.Tokens {
		access, err := s.sealer.Open(t.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("open access token for %s: %w: %w", userID, domain.ErrStoreUnavailable, err)
		}
		refresh, err := s.sealer.Open(t.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("open refresh token for %s: %w: %w", userID, domain.ErrStoreUnavailable, err)
		}
		st.Tokens[userID] = domain.TokenPair{
			AccessToken:   access,
			RefreshToken:  refresh,
			CharacterID:   t.CharacterID,
			CharacterName: t.CharacterName,
			LinkedAt:      t.LinkedAt,
		}
	}
	for _, r := range doc.Stations {
		station := domain.StationStatus{
			ID:          r.ID,
			Name:        r.Name,
			FuelExpires: r.FuelExpires,
			LastChecked: r.LastChecked,
		}
		if r.FuelRemainingMS != nil {
			d := time.Duration(*r.FuelRemainingMS) * time.Millisecond
			station.FuelRemaining = &d
		}
		st.Stations = append(st.Stations, station)
	}
	for _, r := range doc.Systems {
		st.Systems = append(st.Systems, domain.SystemStatus(r))
	}
	return st, nil
}

func (s *stateStore) toDocument(st *domain.BotState) (*stateDocument, error) {
	doc := &stateDocument{
		TicketChannelID:      st.TicketChannelID,
		EventChannelID:       st.EventChannelID,
		FuelChannelID:        st.FuelChannelID,
		WelcomeChannelID:     st.WelcomeChannelID,
		EventCreatorRoleIDs:  st.EventCreatorRoleIDs,
		Tokens:               make(map[string]tokenRecord, len(st.Tokens)),
		Stations:             []stationRecord{},
		Systems:              []systemRecord{},
		SovereigntyMessageID: st.SovereigntyMessageID,
		FuelAlertMessageID:   st.FuelAlertMessageID,
	}
	if doc.EventCreatorRoleIDs == nil {
		doc.EventCreatorRoleIDs = []string{}
	}
	for userID, t := range st.Tokens {
		access, err := s.sealer.Seal(t.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("seal access token for %s: %w", userID, err)
		}
		refresh, err := s.sealer.Seal(t.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("seal refresh token for %s: %w", userID, err)
		}
		doc.Tokens[userID] = tokenRecord{
			AccessToken:   access,
			RefreshToken:  refresh,
			CharacterID:   t.CharacterID,
			CharacterName: t.CharacterName,
			LinkedAt:      t.LinkedAt,
		}
	}
	for _, station := range st.Stations {
		r := stationRecord{
			ID:          station.ID,
			Name:        station.Name,
			FuelExpires: station.FuelExpires,
			LastChecked: station.LastChecked,
		}
		if station.FuelRemaining != nil {
			ms := station.FuelRemaining.Milliseconds()
			r.FuelRemainingMS = &ms
		}
		doc.Stations = append(doc.Stations, r)
	}
	for _, system := range st.Systems {
		doc.Systems = append(doc.Systems, systemRecord(system))
	}
	return doc, nil
}
