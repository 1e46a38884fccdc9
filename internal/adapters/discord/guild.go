package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"evecorpbot/internal/domain"
)

const privateAllow = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

type guildManager struct {
	session Session
}

// NewGuildManager returns a GuildManager backed by session.
func NewGuildManager(session Session) domain.GuildManager {
	return &guildManager{session: session}
}

func (g *guildManager) Channels(ctx context.Context, guildID string) ([]domain.Channel, error) {
	channels, err := g.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list guild channels: %w", mapErr(err))
	}
	out := make([]domain.Channel, 0, len(channels))
	for _, c := range channels {
		out = append(out, domain.Channel{ID: c.ID, Name: c.Name, ParentID: c.ParentID})
	}
	return out, nil
}

// CreatePrivateChannel hides the channel from @everyone, whose role ID is
// the guild ID, and opens it to the member and the staff roles.
func (g *guildManager) CreatePrivateChannel(ctx context.Context, spec domain.PrivateChannelSpec) (string, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: spec.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: spec.MemberID, Type: discordgo.PermissionOverwriteTypeMember, Allow: privateAllow},
	}
	for _, roleID := range spec.StaffRoleIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: privateAllow,
		})
	}

	ch, err := g.session.GuildChannelCreateComplex(spec.GuildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             spec.ParentID,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create channel %s: %w", spec.Name, mapErr(err))
	}
	return ch.ID, nil
}
