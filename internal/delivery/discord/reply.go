package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	chat "evecorpbot/internal/adapters/discord"
	"evecorpbot/internal/domain"
)

func (b *Bot) respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) {
	if err := b.session.InteractionRespond(i, resp); err != nil {
		b.logger.Error("could not answer interaction", "interaction_id", i.ID, "err", err)
	}
}

func (b *Bot) ephemeral(i *discordgo.Interaction, content string) {
	b.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// deferred acknowledges i at once, runs work and replaces the pending
// reply with the text work returns.
func (b *Bot) deferred(i *discordgo.Interaction, work func(ctx context.Context) string) {
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Error("could not defer interaction", "interaction_id", i.ID, "err", err)
		return
	}

	ctx, cancel := b.opContext()
	defer cancel()
	content := work(ctx)
	if _, err := b.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}); err != nil {
		b.logger.Error("could not edit interaction reply", "interaction_id", i.ID, "err", err)
	}
}

func (b *Bot) followup(i *discordgo.Interaction, content string) {
	_, err := b.session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.logger.Error("could not send follow-up", "interaction_id", i.ID, "err", err)
	}
}

// updateMessage answers a component interaction by editing the message
// that carries the component.
func (b *Bot) updateMessage(i *discordgo.Interaction, edit *domain.MessageEdit) {
	data := &discordgo.InteractionResponseData{}
	if edit.Content != nil {
		data.Content = *edit.Content
	}
	if edit.Embeds != nil {
		data.Embeds = chat.Embeds(*edit.Embeds)
	}
	if edit.Components != nil {
		data.Components = chat.Components(*edit.Components)
	}
	b.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
}

type textField struct {
	id          string
	label       string
	style       discordgo.TextInputStyle
	value       string
	placeholder string
	maxLength   int
}

func (b *Bot) modal(i *discordgo.Interaction, customID, title string, fields []textField) {
	rows := make([]discordgo.MessageComponent, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    f.id,
				Label:       f.label,
				Style:       f.style,
				Value:       f.value,
				Placeholder: f.placeholder,
				Required:    true,
				MaxLength:   f.maxLength,
			},
		}})
	}
	b.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
}

// modalValues indexes submitted text inputs by custom ID.
func modalValues(components []discordgo.MessageComponent) map[string]string {
	values := map[string]string{}
	var walk func([]discordgo.MessageComponent)
	walk = func(cs []discordgo.MessageComponent) {
		for _, c := range cs {
			switch v := c.(type) {
			case *discordgo.ActionsRow:
				walk(v.Components)
			case discordgo.ActionsRow:
				walk(v.Components)
			case *discordgo.TextInput:
				values[v.CustomID] = v.Value
			case discordgo.TextInput:
				values[v.CustomID] = v.Value
			}
		}
	}
	walk(components)
	return values
}
