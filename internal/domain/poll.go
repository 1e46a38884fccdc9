package domain

import (
	"context"
	"time"
)

// PollKind names a remote polling job.
type PollKind string

const (
	PollFuel        PollKind = "fuel"
	PollSovereignty PollKind = "sovereignty"
)

// CorporationStructure is a structure returned by the corporation structures endpoint.
type CorporationStructure struct {
	StructureID int64      `json:"structure_id"`
	Name        string     `json:"name"`
	FuelExpires *time.Time `json:"fuel_expires,omitempty"`
}

// SovereigntyStructure is an entry of the public sovereignty structures feed.
type SovereigntyStructure struct {
	AllianceID                  int64    `json:"alliance_id"`
	SolarSystemID               int64    `json:"solar_system_id"`
	StructureID                 int64    `json:"structure_id"`
	StructureTypeID             int64    `json:"structure_type_id"`
	VulnerabilityOccupancyLevel *float64 `json:"vulnerability_occupancy_level,omitempty"`
}

// StructureFetcher fetches corporation structures with a character's access token.
type StructureFetcher interface {
	FetchStructures(ctx context.Context, accessToken string) ([]CorporationStructure, error)
}

// SovereigntyFetcher fetches the public sovereignty structures feed.
type SovereigntyFetcher interface {
	FetchSovereignty(ctx context.Context) ([]SovereigntyStructure, error)
}

// OAuthProvider is the game's SSO token service.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
}

// PollReport summarizes one poll cycle.
type PollReport struct {
	Kind      PollKind
	Checked   int
	Alerting  []string
	MessageID string
}

// PollService runs remote poll cycles on demand.
type PollService interface {
	RunPollCycle(ctx context.Context, kind PollKind) (*PollReport, error)
}

// LoginStateIssuer signs and verifies the OAuth state parameter that carries
// the Discord user ID through the SSO round trip.
type LoginStateIssuer interface {
	Issue(discordUserID string) (string, error)
	Verify(state string) (string, error)
}

// AccountLinkService links Discord users to game characters.
type AccountLinkService interface {
	// LoginURL is the auth server link handed to the user in chat.
	LoginURL(discordUserID string) (string, error)
	// AuthorizeURL is the SSO redirect carrying a signed state for the user.
	AuthorizeURL(discordUserID string) (string, error)
	CompleteLogin(ctx context.Context, code, state string) (*TokenPair, error)
	WaitForLink(ctx context.Context, discordUserID string, timeout time.Duration) (bool, error)
}
