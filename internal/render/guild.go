package render

import "evecorpbot/internal/domain"

// TicketInstructions is posted in every new ticket channel.
const TicketInstructions = "Your reprocessing request will be taken care of by one of the reprocessors in the corp.\n" +
	"Please provide a <https://janice.e-351.com/> link with your ore's and you will be messaged here on who to contract it to shortly!\n\n" +
	"**ALL ORES MUST BE CONTRACTED IN THE PYY3-5 REFINERY!**"

// TicketSurface renders the message that lets members open tickets.
func TicketSurface() *domain.Message {
	return &domain.Message{
		Embeds: []domain.Embed{{
			Title:       "📨 Ticket System",
			Description: "Click the button below to create a private ticket for reprocessing.",
			Color:       colorInfo,
		}},
		Components: []domain.Button{{
			CustomID: domain.Action{Kind: domain.ActionTicketCreate}.CustomID(),
			Label:    "📝 Create Ticket",
			Style:    domain.ButtonPrimary,
		}},
	}
}

// TicketOpened renders the header of a new ticket channel.
func TicketOpened(userID string) *domain.Message {
	return &domain.Message{
		Embeds: []domain.Embed{{
			Title:       "🎫 Reprocessing Ticket",
			Description: Mention(userID),
			Color:       colorInfo,
		}},
		Components: []domain.Button{{
			CustomID: domain.Action{Kind: domain.ActionTicketClose, UserID: userID}.CustomID(),
			Label:    "🗑️ Close Ticket",
			Style:    domain.ButtonSecondary,
		}},
	}
}

// Welcome renders the greeting posted when a member joins.
func Welcome(userID string) *domain.Message {
	return &domain.Message{
		Content: Mention(userID),
		Embeds: []domain.Embed{{
			Title:       "👋 Welcome!",
			Description: "Hey " + Mention(userID) + ", welcome to the server!\nIf you're interested in joining our EVE corp, click the button below to apply.",
			Color:       colorInfo,
		}},
		Components: []domain.Button{{
			CustomID: domain.Action{Kind: domain.ActionRecruitOpen, UserID: userID}.CustomID(),
			Label:    "📝 Apply to Corp",
			Style:    domain.ButtonPrimary,
		}},
	}
}

// Application renders a submitted application inside its recruit channel.
func Application(app domain.RecruitApplication, channelID string) *domain.Message {
	return &domain.Message{
		Content: Mention(app.UserID),
		Embeds: []domain.Embed{{
			Title:       "📝 Corp Application",
			Description: "New applicant: " + Mention(app.UserID),
			Color:       colorInfo,
			Fields: []domain.EmbedField{
				{Name: "Character Name", Value: app.CharacterName, Inline: true},
				{Name: "Time in EVE", Value: app.TimeInEVE, Inline: true},
				{Name: "Preferred Activities", Value: app.Activities},
				{Name: "How did you find us?", Value: app.HowFound},
			},
		}},
		Components: []domain.Button{{
			CustomID: domain.Action{Kind: domain.ActionRecruitClose, ChannelID: channelID}.CustomID(),
			Label:    "🗑️ Close",
			Style:    domain.ButtonDanger,
		}},
	}
}

// Closed marks an embed as closed by userID.
func Closed(embed domain.Embed, userID string) domain.Embed {
	embed.Color = colorMuted
	embed.Fields = append(append([]domain.EmbedField(nil), embed.Fields...), domain.EmbedField{
		Name:   "✅ Closed by",
		Value:  Mention(userID),
		Inline: true,
	})
	return embed
}

// DisableAll returns a copy of buttons with every button disabled.
func DisableAll(buttons []domain.Button) []domain.Button {
	out := make([]domain.Button, len(buttons))
	for i, b := range buttons {
		b.Disabled = true
		out[i] = b
	}
	return out
}
