package discord

import (
	"github.com/bwmarrin/discordgo"

	"evecorpbot/internal/domain"
)

// buttonsPerRow is the platform limit for one action row.
const buttonsPerRow = 5

var buttonStyles = map[domain.ButtonStyle]discordgo.ButtonStyle{
	domain.ButtonPrimary:   discordgo.PrimaryButton,
	domain.ButtonSecondary: discordgo.SecondaryButton,
	domain.ButtonSuccess:   discordgo.SuccessButton,
	domain.ButtonDanger:    discordgo.DangerButton,
}

// Components lays buttons out in action rows.
func Components(buttons []domain.Button) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return []discordgo.MessageComponent{}
	}
	rows := make([]discordgo.MessageComponent, 0, (len(buttons)+buttonsPerRow-1)/buttonsPerRow)
	for start := 0; start < len(buttons); start += buttonsPerRow {
		end := min(start+buttonsPerRow, len(buttons))
		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			style, ok := buttonStyles[b.Style]
			if !ok {
				style = discordgo.SecondaryButton
			}
			row.Components = append(row.Components, discordgo.Button{
				CustomID: b.CustomID,
				Label:    b.Label,
				Style:    style,
				Disabled: b.Disabled,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// Embeds converts domain embeds to their wire form.
func Embeds(embeds []domain.Embed) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, 0, len(embeds))
	for _, e := range embeds {
		me := &discordgo.MessageEmbed{
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Color,
		}
		for _, f := range e.Fields {
			me.Fields = append(me.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		if e.Footer != "" {
			me.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
		}
		out = append(out, me)
	}
	return out
}

// MessageSend converts an outgoing message.
func MessageSend(msg *domain.Message) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     Embeds(msg.Embeds),
		Components: Components(msg.Components),
	}
}

// Message converts a platform message into the domain payload.
func Message(m *discordgo.Message) *domain.Message {
	if m == nil {
		return nil
	}
	out := &domain.Message{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		Content:    m.Content,
		Components: buttonsOf(m.Components),
	}
	if m.Author != nil {
		out.AuthorID = m.Author.ID
	}
	for _, e := range m.Embeds {
		if e == nil {
			continue
		}
		de := domain.Embed{Title: e.Title, Description: e.Description, Color: e.Color}
		for _, f := range e.Fields {
			if f != nil {
				de.Fields = append(de.Fields, domain.EmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
			}
		}
		if e.Footer != nil {
			de.Footer = e.Footer.Text
		}
		out.Embeds = append(out.Embeds, de)
	}
	return out
}

// buttonsOf flattens action rows. Decoded components are pointers; locally
// built ones are values.
func buttonsOf(components []discordgo.MessageComponent) []domain.Button {
	var out []domain.Button
	for _, c := range components {
		switch v := c.(type) {
		case discordgo.ActionsRow:
			out = append(out, buttonsOf(v.Components)...)
		case *discordgo.ActionsRow:
			out = append(out, buttonsOf(v.Components)...)
		case discordgo.Button:
			out = append(out, button(v))
		case *discordgo.Button:
			out = append(out, button(*v))
		}
	}
	return out
}

func button(b discordgo.Button) domain.Button {
	style := domain.ButtonSecondary
	for ds, ws := range buttonStyles {
		if ws == b.Style {
			style = ds
			break
		}
	}
	return domain.Button{CustomID: b.CustomID, Label: b.Label, Style: style, Disabled: b.Disabled}
}
