package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"evecorpbot/internal/domain"
)

var snowflake = regexp.MustCompile(`^[0-9]{1,20}$`)

type setupService struct {
	state  domain.StateStore
	logger *slog.Logger
}

// NewSetupService returns the settings editor behind the setup command.
func NewSetupService(state domain.StateStore, logger *slog.Logger) domain.SetupService {
	return &setupService{state: state, logger: logger}
}

func (s *setupService) Current(ctx context.Context) (*domain.BotState, error) {
	st, err := s.state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bot state: %w", err)
	}
	return st, nil
}

func (s *setupService) Apply(ctx context.Context, in domain.SetupInput) error {
	for field, id := range map[string]string{
		"event channel":  in.EventChannelID,
		"ticket channel": in.TicketChannelID,
		"fuel channel":   in.FuelChannelID,
	} {
		if !snowflake.MatchString(id) {
			return fmt.Errorf("%s %q is not an id: %w", field, id, domain.ErrInvalidInput)
		}
	}
	if len(in.EventCreatorRoleIDs) == 0 {
		return fmt.Errorf("at least one creator role is required: %w", domain.ErrInvalidInput)
	}
	for _, id := range in.EventCreatorRoleIDs {
		if !snowflake.MatchString(id) {
			return fmt.Errorf("creator role %q is not an id: %w", id, domain.ErrInvalidInput)
		}
	}

	err := s.state.Update(ctx, func(st *domain.BotState) error {
		st.EventChannelID = in.EventChannelID
		st.TicketChannelID = in.TicketChannelID
		st.FuelChannelID = in.FuelChannelID
		st.EventCreatorRoleIDs = in.EventCreatorRoleIDs
		return nil
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.logger.Info("settings updated", "event_channel_id", in.EventChannelID, "ticket_channel_id", in.TicketChannelID, "fuel_channel_id", in.FuelChannelID, "creator_roles", len(in.EventCreatorRoleIDs))
	return nil
}

// SplitIDs splits a comma separated list, dropping blanks.
func SplitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
