// Package discord adapts a discordgo session to the bot's messaging ports.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	"evecorpbot/internal/domain"
)

// Session is the subset of *discordgo.Session the adapters call.
type Session interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

type messenger struct {
	session Session
}

// NewMessenger returns a Messenger backed by session.
func NewMessenger(session Session) domain.Messenger {
	return &messenger{session: session}
}

func (m *messenger) SendMessage(ctx context.Context, channelID string, msg *domain.Message) (string, error) {
	sent, err := m.session.ChannelMessageSendComplex(channelID, MessageSend(msg), discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send message to %s: %w", channelID, mapErr(err))
	}
	return sent.ID, nil
}

func (m *messenger) EditMessage(ctx context.Context, channelID, messageID string, edit *domain.MessageEdit) error {
	req := &discordgo.MessageEdit{ID: messageID, Channel: channelID, Content: edit.Content}
	if edit.Embeds != nil {
		embeds := Embeds(*edit.Embeds)
		req.Embeds = &embeds
	}
	if edit.Components != nil {
		components := Components(*edit.Components)
		req.Components = &components
	}
	if _, err := m.session.ChannelMessageEditComplex(req, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit message %s: %w", messageID, mapErr(err))
	}
	return nil
}

func (m *messenger) FetchMessage(ctx context.Context, channelID, messageID string) (*domain.Message, error) {
	msg, err := m.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch message %s: %w", messageID, mapErr(err))
	}
	return Message(msg), nil
}

func (m *messenger) RecentMessages(ctx context.Context, channelID string, limit int) ([]*domain.Message, error) {
	msgs, err := m.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list messages of %s: %w", channelID, mapErr(err))
	}
	out := make([]*domain.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, Message(msg))
	}
	return out, nil
}

func (m *messenger) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := m.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete message %s: %w", messageID, mapErr(err))
	}
	return nil
}

func (m *messenger) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := m.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, mapErr(err))
	}
	return nil
}

// mapErr tags missing messages and channels with domain.ErrNotFound.
func mapErr(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}
