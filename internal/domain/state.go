package domain

import (
	"context"
	"time"
)

// BotState is the bot's persisted configuration and status document.
type BotState struct {
	TicketChannelID     string
	EventChannelID      string
	FuelChannelID       string
	WelcomeChannelID    string
	EventCreatorRoleIDs []string

	// Tokens maps a Discord user ID to the EVE SSO tokens that user linked.
	Tokens map[string]TokenPair

	Stations []StationStatus
	Systems  []SystemStatus

	SovereigntyMessageID string
	FuelAlertMessageID   string
}

// FirstLinkedUser returns the Discord user whose tokens are used for
// corporation-scoped API calls. Users are ordered by ID so the choice is stable.
func (s *BotState) FirstLinkedUser() (string, TokenPair, bool) {
	var (
		userID string
		pair   TokenPair
		found  bool
	)
	for id, p := range s.Tokens {
		if !found || id < userID {
			userID, pair, found = id, p, true
		}
	}
	return userID, pair, found
}

// TokenPair is an OAuth access/refresh token pair for a linked character.
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	CharacterID   string
	CharacterName string
	LinkedAt      time.Time
}

// StationStatus is the last observed fuel status of a corporation structure.
type StationStatus struct {
	ID          int64
	Name        string
	FuelExpires *time.Time
	// FuelRemaining is nil when the structure reports no fuel expiry.
	FuelRemaining *time.Duration
	LastChecked   time.Time
}

// SystemStatus is the last observed sovereignty ADM of a solar system.
type SystemStatus struct {
	ID              int64
	Name            string
	ADMLevel        *float64
	StructuresCount int
	LastChecked     time.Time
}

// StateStore persists the BotState document.
type StateStore interface {
	// Init writes defaults when no document exists yet.
	Init(ctx context.Context, defaults *BotState) error
	Load(ctx context.Context) (*BotState, error)
	// Update loads the document, applies mutate and saves it. If mutate
	// returns an error nothing is written.
	Update(ctx context.Context, mutate func(*BotState) error) error
}

// DocumentStore is a durable medium holding whole documents by key.
// Load returns ErrNotFound for a key that was never saved.
type DocumentStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// TokenSealer encrypts secrets before they are written to disk.
type TokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// SetupInput carries the values submitted through the setup form.
type SetupInput struct {
	EventChannelID      string
	TicketChannelID     string
	FuelChannelID       string
	EventCreatorRoleIDs []string
}

// SetupService reads and applies the bot's channel and role settings.
type SetupService interface {
	Current(ctx context.Context) (*BotState, error)
	Apply(ctx context.Context, in SetupInput) error
}
