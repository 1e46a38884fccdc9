package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"evecorpbot/internal/clock"
	"evecorpbot/internal/domain"
)

// LinkPollInterval is how often WaitForLink checks for stored tokens.
const LinkPollInterval = 3 * time.Second

type accountLinkService struct {
	state      domain.StateStore
	oauth      domain.OAuthProvider
	issuer     domain.LoginStateIssuer
	structures domain.StructureFetcher
	clock      clock.Clock
	logger     *slog.Logger
	publicURL  string
}

// NewAccountLinkService returns the SSO account linking flow. publicURL is
// the externally reachable base URL of the auth server.
func NewAccountLinkService(state domain.StateStore,
	oauth domain.OAuthProvider,
	issuer domain.LoginStateIssuer,
	structures domain.StructureFetcher,
	clk clock.Clock,
	logger *slog.Logger,
	publicURL string,
) domain.AccountLinkService {
	return &accountLinkService{
		state:      state,
		oauth:      oauth,
		issuer:     issuer,
		structures: structures,
		clock:      clk,
		logger:     logger,
		publicURL:  strings.TrimRight(publicURL, "/"),
	}
}

func (s *accountLinkService) LoginURL(discordUserID string) (string, error) {
	if discordUserID == "" {
		return "", fmt.Errorf("discord user id is required: %w", domain.ErrInvalidInput)
	}
	return s.publicURL + "/login?" + url.Values{"discord_id": {discordUserID}}.Encode(), nil
}

func (s *accountLinkService) AuthorizeURL(discordUserID string) (string, error) {
	if discordUserID == "" {
		return "", fmt.Errorf("discord user id is required: %w", domain.ErrInvalidInput)
	}
	state, err := s.issuer.Issue(discordUserID)
	if err != nil {
		return "", fmt.Errorf("issue login state: %w", err)
	}
	return s.oauth.AuthCodeURL(state), nil
}

// CompleteLogin stores the tokens obtained for code under the Discord user
// named by state and refreshes the station snapshot with them.
func (s *accountLinkService) CompleteLogin(ctx context.Context, code, state string) (*domain.TokenPair, error) {
	if code == "" || state == "" {
		return nil, fmt.Errorf("code and state are required: %w", domain.ErrInvalidInput)
	}
	discordID, err := s.issuer.Verify(state)
	if err != nil {
		return nil, fmt.Errorf("verify login state: %w: %w", domain.ErrInvalidInput, err)
	}

	pair, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w: %w", domain.ErrRemoteFetchFailed, err)
	}
	now := s.clock.Now()
	pair.LinkedAt = now

	var stations []domain.StationStatus
	structures, err := s.structures.FetchStructures(ctx, pair.AccessToken)
	fetched := err == nil
	if fetched {
		stations = StationSnapshot(structures, now)
	} else {
		s.logger.Warn("linked without station snapshot", "user_id", discordID, "err", err)
	}

	err = s.state.Update(ctx, func(st *domain.BotState) error {
		if st.Tokens == nil {
			st.Tokens = map[string]domain.TokenPair{}
		}
		st.Tokens[discordID] = pair
		if fetched {
			st.Stations = stations
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save tokens: %w", err)
	}
	s.logger.Info("character linked", "user_id", discordID, "character_id", pair.CharacterID, "stations", len(stations))
	return &pair, nil
}

// WaitForLink polls the stored tokens until the user is linked or timeout elapses.
func (s *accountLinkService) WaitForLink(ctx context.Context, discordUserID string, timeout time.Duration) (bool, error) {
	deadline := s.clock.Now().Add(timeout)
	ticker := s.clock.NewTicker(LinkPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case now := <-ticker.C():
			st, err := s.state.Load(ctx)
			if err != nil {
				s.logger.Warn("could not check link status", "user_id", discordUserID, "err", err)
			} else if _, ok := st.Tokens[discordUserID]; ok {
				return true, nil
			}
			if !now.Before(deadline) {
				return false, nil
			}
		}
	}
}
