package discord

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evecorpbot/internal/domain"
)

type fakeSession struct {
	sent      []*discordgo.MessageSend
	edits     []*discordgo.MessageEdit
	created   []discordgo.GuildChannelCreateData
	deleted   []string
	history   []*discordgo.Message
	channels  []*discordgo.Channel
	lastLimit int
	err       error
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, data)
	return &discordgo.Message{ID: "m1", ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.edits = append(f.edits, m)
	return &discordgo.Message{ID: m.ID}, nil
}

func (f *fakeSession) ChannelMessage(_, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.history {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, notFound(discordgo.ErrCodeUnknownMessage)
}

func (f *fakeSession) ChannelMessages(_ string, limit int, _, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.lastLimit = limit
	return f.history, f.err
}

func (f *fakeSession) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeSession) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, channelID)
	return &discordgo.Channel{ID: channelID}, nil
}

func (f *fakeSession) GuildChannels(string, ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	return f.channels, f.err
}

func (f *fakeSession) GuildChannelCreateComplex(_ string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, data)
	return &discordgo.Channel{ID: "c1", Name: data.Name}, nil
}

func notFound(code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "Unknown"},
	}
}

func TestSendMessage_ConvertsPayload(t *testing.T) {
	session := &fakeSession{}
	m := NewMessenger(session)

	buttons := make([]domain.Button, 7)
	for i := range buttons {
		buttons[i] = domain.Button{CustomID: "b", Label: "B", Style: domain.ButtonSuccess}
	}
	id, err := m.SendMessage(context.Background(), "chan", &domain.Message{
		Content: "hello",
		Embeds: []domain.Embed{{
			Title:  "T",
			Color:  0x00ff00,
			Fields: []domain.EmbedField{{Name: "n", Value: "v", Inline: true}},
			Footer: "foot",
		}},
		Components: buttons,
	})

	require.NoError(t, err)
	assert.Equal(t, "m1", id)
	require.Len(t, session.sent, 1)
	sent := session.sent[0]
	assert.Equal(t, "hello", sent.Content)
	require.Len(t, sent.Embeds, 1)
	assert.Equal(t, "foot", sent.Embeds[0].Footer.Text)
	assert.True(t, sent.Embeds[0].Fields[0].Inline)
	require.Len(t, sent.Components, 2)
	assert.Len(t, sent.Components[0].(discordgo.ActionsRow).Components, 5)
	assert.Len(t, sent.Components[1].(discordgo.ActionsRow).Components, 2)
	assert.Equal(t, discordgo.SuccessButton, sent.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.Button).Style)
}

func TestEditMessage_OnlySetsGivenParts(t *testing.T) {
	session := &fakeSession{}
	m := NewMessenger(session)

	content := "updated"
	require.NoError(t, m.EditMessage(context.Background(), "chan", "msg", &domain.MessageEdit{Content: &content}))

	require.Len(t, session.edits, 1)
	edit := session.edits[0]
	assert.Equal(t, "msg", edit.ID)
	assert.Equal(t, "chan", edit.Channel)
	assert.Equal(t, "updated", *edit.Content)
	assert.Nil(t, edit.Embeds)
	assert.Nil(t, edit.Components)

	none := []domain.Button{}
	require.NoError(t, m.EditMessage(context.Background(), "chan", "msg", &domain.MessageEdit{Components: &none}))
	require.NotNil(t, session.edits[1].Components)
	assert.Empty(t, *session.edits[1].Components)
}

func TestFetchMessage_ReadsDecodedComponents(t *testing.T) {
	session := &fakeSession{history: []*discordgo.Message{{
		ID:        "msg",
		ChannelID: "chan",
		Author:    &discordgo.User{ID: "bot"},
		Embeds:    []*discordgo.MessageEmbed{{Title: "T", Footer: &discordgo.MessageEmbedFooter{Text: "f"}}},
		Components: []discordgo.MessageComponent{&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.Button{CustomID: "event_join", Label: "Join", Style: discordgo.PrimaryButton},
			&discordgo.Button{CustomID: "event_leave", Label: "Decline", Style: discordgo.DangerButton, Disabled: true},
		}}},
	}}}
	m := NewMessenger(session)

	msg, err := m.FetchMessage(context.Background(), "chan", "msg")

	require.NoError(t, err)
	assert.Equal(t, "bot", msg.AuthorID)
	assert.Equal(t, "f", msg.Embeds[0].Footer)
	assert.Equal(t, []domain.Button{
		{CustomID: "event_join", Label: "Join", Style: domain.ButtonPrimary},
		{CustomID: "event_leave", Label: "Decline", Style: domain.ButtonDanger, Disabled: true},
	}, msg.Components)
}

func TestFetchMessage_UnknownMessageIsNotFound(t *testing.T) {
	m := NewMessenger(&fakeSession{})

	_, err := m.FetchMessage(context.Background(), "chan", "gone")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMapErr(t *testing.T) {
	forbidden := &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden, Status: "403 Forbidden"},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingAccess},
	}
	plain := errors.New("boom")

	assert.ErrorIs(t, mapErr(notFound(discordgo.ErrCodeUnknownChannel)), domain.ErrNotFound)
	assert.ErrorIs(t, mapErr(&discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}), domain.ErrNotFound)
	assert.NotErrorIs(t, mapErr(forbidden), domain.ErrNotFound)
	assert.Equal(t, plain, mapErr(plain))
}

func TestRecentMessages_PassesLimit(t *testing.T) {
	session := &fakeSession{history: []*discordgo.Message{{ID: "2"}, {ID: "1"}}}
	m := NewMessenger(session)

	msgs, err := m.RecentMessages(context.Background(), "chan", 5)

	require.NoError(t, err)
	assert.Equal(t, 5, session.lastLimit)
	require.Len(t, msgs, 2)
	assert.Equal(t, "2", msgs[0].ID)
}

func TestDeleteChannel(t *testing.T) {
	session := &fakeSession{}
	m := NewMessenger(session)

	require.NoError(t, m.DeleteChannel(context.Background(), "chan"))
	assert.Equal(t, []string{"chan"}, session.deleted)

	session.err = notFound(discordgo.ErrCodeUnknownChannel)
	assert.ErrorIs(t, m.DeleteChannel(context.Background(), "chan"), domain.ErrNotFound)
}
