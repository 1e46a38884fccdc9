package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"evecorpbot/internal/clock"
	"evecorpbot/internal/domain"
	"evecorpbot/internal/render"
)

const (
	// CloseDelay is how long a closed channel stays visible before deletion.
	CloseDelay = 5 * time.Second

	surfaceScanLimit = 10
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]`)

type ticketService struct {
	state     domain.StateStore
	messenger domain.Messenger
	guild     domain.GuildManager
	clock     clock.Clock
	logger    *slog.Logger

	guildID      string
	staffRoleIDs []string
	timeout      time.Duration
}

// NewTicketService returns the ticket and recruitment flow for one guild.
func NewTicketService(state domain.StateStore,
	messenger domain.Messenger,
	guild domain.GuildManager,
	clk clock.Clock,
	logger *slog.Logger,
	guildID string,
	staffRoleIDs []string,
	timeout time.Duration,
) domain.TicketService {
	return &ticketService{
		state:        state,
		messenger:    messenger,
		guild:        guild,
		clock:        clk,
		logger:       logger,
		guildID:      guildID,
		staffRoleIDs: staffRoleIDs,
		timeout:      timeout,
	}
}

func (s *ticketService) IsStaff(roles []string) bool {
	return hasAnyRole(roles, s.staffRoleIDs)
}

func (s *ticketService) EnsureSurface(ctx context.Context, botUserID string) error {
	st, err := s.state.Load(ctx)
	if err != nil {
		return fmt.Errorf("load bot state: %w", err)
	}
	if st.TicketChannelID == "" {
		return fmt.Errorf("ticket channel unset: %w", domain.ErrNotConfigured)
	}

	recent, err := s.messenger.RecentMessages(ctx, st.TicketChannelID, surfaceScanLimit)
	if err != nil {
		return fmt.Errorf("list ticket channel: %w", err)
	}
	create := domain.Action{Kind: domain.ActionTicketCreate}.CustomID()
	for _, msg := range recent {
		if msg.AuthorID != botUserID {
			continue
		}
		if slices.ContainsFunc(msg.Components, func(b domain.Button) bool { return b.CustomID == create }) {
			s.logger.Info("ticket surface already present", "channel_id", st.TicketChannelID, "message_id", msg.ID)
			return nil
		}
	}

	id, err := s.messenger.SendMessage(ctx, st.TicketChannelID, render.TicketSurface())
	if err != nil {
		return fmt.Errorf("post ticket surface: %w: %w", domain.ErrDeliveryFailed, err)
	}
	s.logger.Info("ticket surface posted", "channel_id", st.TicketChannelID, "message_id", id)
	return nil
}

func (s *ticketService) OpenTicket(ctx context.Context, req domain.TicketRequest) (string, error) {
	channels, err := s.guild.Channels(ctx, s.guildID)
	if err != nil {
		return "", fmt.Errorf("list channels: %w", err)
	}

	slug := Slug(req.Username)
	taken := make(map[string]bool, len(channels))
	var parentID string
	for _, c := range channels {
		taken[c.Name] = true
		if c.ID == req.SourceChannelID {
			parentID = c.ParentID
		}
	}
	name := ""
	for n := 1; ; n++ {
		name = "ticket-" + slug + "-" + strconv.Itoa(n)
		if !taken[name] {
			break
		}
	}

	channelID, err := s.guild.CreatePrivateChannel(ctx, domain.PrivateChannelSpec{
		GuildID:      s.guildID,
		Name:         name,
		ParentID:     parentID,
		MemberID:     req.UserID,
		StaffRoleIDs: s.staffRoleIDs,
	})
	if err != nil {
		return "", fmt.Errorf("create ticket channel: %w", err)
	}
	if _, err := s.messenger.SendMessage(ctx, channelID, render.TicketOpened(req.UserID)); err != nil {
		return "", fmt.Errorf("post ticket header: %w: %w", domain.ErrDeliveryFailed, err)
	}
	if _, err := s.messenger.SendMessage(ctx, channelID, &domain.Message{Content: render.TicketInstructions}); err != nil {
		return "", fmt.Errorf("post ticket instructions: %w: %w", domain.ErrDeliveryFailed, err)
	}
	s.logger.Info("ticket opened", "user_id", req.UserID, "channel_id", channelID, "name", name)
	return channelID, nil
}

func (s *ticketService) Welcome(ctx context.Context, userID string) error {
	st, err := s.state.Load(ctx)
	if err != nil {
		return fmt.Errorf("load bot state: %w", err)
	}
	if st.WelcomeChannelID == "" {
		return fmt.Errorf("welcome channel unset: %w", domain.ErrNotConfigured)
	}
	if _, err := s.messenger.SendMessage(ctx, st.WelcomeChannelID, render.Welcome(userID)); err != nil {
		return fmt.Errorf("post welcome: %w: %w", domain.ErrDeliveryFailed, err)
	}
	return nil
}

func (s *ticketService) SubmitApplication(ctx context.Context, formOwnerID string, app domain.RecruitApplication) (string, error) {
	if formOwnerID != app.UserID {
		return "", fmt.Errorf("application form belongs to another member: %w", domain.ErrForbidden)
	}

	name := "recruit-" + Slug(app.Username)
	channels, err := s.guild.Channels(ctx, s.guildID)
	if err != nil {
		return "", fmt.Errorf("list channels: %w", err)
	}
	var channelID string
	for _, c := range channels {
		if c.Name == name {
			channelID = c.ID
			break
		}
	}
	if channelID == "" {
		channelID, err = s.guild.CreatePrivateChannel(ctx, domain.PrivateChannelSpec{
			GuildID:      s.guildID,
			Name:         name,
			MemberID:     app.UserID,
			StaffRoleIDs: s.staffRoleIDs,
		})
		if err != nil {
			return "", fmt.Errorf("create recruit channel: %w", err)
		}
	}

	if _, err := s.messenger.SendMessage(ctx, channelID, render.Application(app, channelID)); err != nil {
		return "", fmt.Errorf("post application: %w: %w", domain.ErrDeliveryFailed, err)
	}
	s.logger.Info("application submitted", "user_id", app.UserID, "channel_id", channelID)
	return channelID, nil
}

func (s *ticketService) Close(ctx context.Context, req domain.CloseRequest) (*domain.MessageEdit, error) {
	if !s.IsStaff(req.UserRoles) {
		return nil, domain.ErrForbidden
	}

	var (
		embeds  []domain.Embed
		buttons []domain.Button
	)
	if req.Message != nil {
		if len(req.Message.Embeds) > 0 {
			embeds = []domain.Embed{render.Closed(req.Message.Embeds[0], req.UserID)}
		}
		buttons = render.DisableAll(req.Message.Components)
	}

	channelID := req.ChannelID
	s.clock.AfterFunc(CloseDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.messenger.DeleteChannel(ctx, channelID); err != nil {
			s.logger.Error("could not delete closed channel", "channel_id", channelID, "err", err)
			return
		}
		s.logger.Info("channel deleted", "channel_id", channelID)
	})
	s.logger.Info("channel closed", "channel_id", channelID, "user_id", req.UserID)
	return &domain.MessageEdit{Embeds: &embeds, Components: &buttons}, nil
}

// Slug lowercases name and drops everything but ASCII letters and digits.
func Slug(name string) string {
	return slugStrip.ReplaceAllString(strings.ToLower(name), "")
}
