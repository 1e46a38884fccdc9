package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	chat "evecorpbot/internal/adapters/discord"
	"evecorpbot/internal/domain"
	"evecorpbot/internal/services"
)

// Text input IDs of the setup and recruitment modals.
const (
	fieldEventChannel  = "event_channel"
	fieldTicketChannel = "ticket_channel"
	fieldFuelChannel   = "fuel_channel"
	fieldCreatorRoles  = "creator_roles"

	fieldCharacter  = "character_name"
	fieldTimeInEVE  = "time_in_eve"
	fieldActivities = "activities"
	fieldHowFound   = "how_found"
)

// RSVPReply is the confirmation shown after an RSVP button press.
func RSVPReply(outcome domain.RSVPOutcome) string {
	switch outcome {
	case domain.OutcomeJoined:
		return "✅ You're attending this event."
	case domain.OutcomeDeclined:
		return "❌ You've declined this event."
	case domain.OutcomeAlreadyAttending:
		return "You're already attending this event."
	case domain.OutcomeAlreadyDeclined:
		return "You've already declined this event."
	default:
		return "Response recorded."
	}
}

func (b *Bot) handleComponent(i *discordgo.Interaction, customID string) {
	action, err := domain.ParseAction(customID)
	if err != nil {
		b.logger.Warn("unknown component", "custom_id", customID, "err", err)
		b.ephemeral(i, "This button is no longer supported.")
		return
	}
	userID, username, roles := caller(i)

	switch action.Kind {
	case domain.ActionEventJoin, domain.ActionEventDecline:
		b.rsvp(i, action, userID)
	case domain.ActionTicketCreate:
		ctx, cancel := b.opContext()
		defer cancel()
		channelID, err := b.services.Tickets.OpenTicket(ctx, domain.TicketRequest{
			UserID:          userID,
			Username:        username,
			SourceChannelID: i.ChannelID,
		})
		if err != nil {
			b.logger.Error("could not open ticket", "user_id", userID, "err", err)
			b.ephemeral(i, ErrorReply(err))
			return
		}
		b.ephemeral(i, fmt.Sprintf("🎫 Ticket created: <#%s>", channelID))
	case domain.ActionTicketClose, domain.ActionRecruitClose:
		ctx, cancel := b.opContext()
		defer cancel()
		edit, err := b.services.Tickets.Close(ctx, domain.CloseRequest{
			ChannelID: i.ChannelID,
			UserID:    userID,
			UserRoles: roles,
			Message:   chat.Message(i.Message),
		})
		if errors.Is(err, domain.ErrForbidden) {
			b.ephemeral(i, "⛔ Only staff can close this channel.")
			return
		}
		if err != nil {
			b.logger.Error("could not close channel", "channel_id", i.ChannelID, "err", err)
			b.ephemeral(i, ErrorReply(err))
			return
		}
		b.updateMessage(i, edit)
	case domain.ActionRecruitOpen:
		if action.UserID != userID {
			b.ephemeral(i, "⛔ This application form isn't for you.")
			return
		}
		b.modal(i, domain.Action{Kind: domain.ActionRecruitSubmit, UserID: userID}.CustomID(), "Corp Application", []textField{
			{id: fieldCharacter, label: "Character name", style: discordgo.TextInputShort, maxLength: 100},
			{id: fieldTimeInEVE, label: "How long have you played EVE?", style: discordgo.TextInputShort, maxLength: 100},
			{id: fieldActivities, label: "Preferred activities", style: discordgo.TextInputParagraph, placeholder: "Mining, PvP, industry...", maxLength: 1000},
			{id: fieldHowFound, label: "How did you find us?", style: discordgo.TextInputParagraph, maxLength: 1000},
		})
	default:
		b.ephemeral(i, "This button is no longer supported.")
	}
}

func (b *Bot) rsvp(i *discordgo.Interaction, action domain.Action, userID string) {
	rsvp, _ := action.RSVP()
	if i.Message == nil {
		b.ephemeral(i, ErrorReply(domain.ErrNotFound))
		return
	}
	ctx, cancel := b.opContext()
	defer cancel()
	outcome, err := b.services.Events.HandleRSVP(ctx, i.Message.ID, userID, rsvp)
	if errors.Is(err, domain.ErrNotFound) {
		b.ephemeral(i, "❓ This event no longer exists.")
		return
	}
	if errors.Is(err, domain.ErrEventStarted) {
		b.ephemeral(i, "⏰ This event has already started.")
		return
	}
	if err != nil {
		b.logger.Error("could not record rsvp", "event_id", i.Message.ID, "user_id", userID, "err", err)
		b.ephemeral(i, ErrorReply(err))
		return
	}
	b.ephemeral(i, RSVPReply(outcome))
}

func (b *Bot) handleModal(i *discordgo.Interaction, data discordgo.ModalSubmitInteractionData) {
	action, err := domain.ParseAction(data.CustomID)
	if err != nil {
		b.logger.Warn("unknown modal", "custom_id", data.CustomID, "err", err)
		b.ephemeral(i, "This form is no longer supported.")
		return
	}
	values := modalValues(data.Components)
	userID, username, _ := caller(i)

	ctx, cancel := b.opContext()
	defer cancel()

	switch action.Kind {
	case domain.ActionSetupSubmit:
		if !b.isAdmin(i.Member) {
			b.ephemeral(i, "⛔ Only admins can change the bot setup.")
			return
		}
		err := b.services.Setup.Apply(ctx, domain.SetupInput{
			EventChannelID:      strings.TrimSpace(values[fieldEventChannel]),
			TicketChannelID:     strings.TrimSpace(values[fieldTicketChannel]),
			FuelChannelID:       strings.TrimSpace(values[fieldFuelChannel]),
			EventCreatorRoleIDs: services.SplitIDs(values[fieldCreatorRoles]),
		})
		if errors.Is(err, domain.ErrInvalidInput) {
			b.ephemeral(i, "⚠️ Channel and role fields must be numeric IDs, with at least one creator role.")
			return
		}
		if err != nil {
			b.logger.Error("could not save settings", "user_id", userID, "err", err)
			b.ephemeral(i, ErrorReply(err))
			return
		}
		b.ephemeral(i, "✅ Settings saved.")
	case domain.ActionRecruitSubmit:
		channelID, err := b.services.Tickets.SubmitApplication(ctx, action.UserID, domain.RecruitApplication{
			UserID:        userID,
			Username:      username,
			CharacterName: strings.TrimSpace(values[fieldCharacter]),
			TimeInEVE:     strings.TrimSpace(values[fieldTimeInEVE]),
			Activities:    strings.TrimSpace(values[fieldActivities]),
			HowFound:      strings.TrimSpace(values[fieldHowFound]),
		})
		if err != nil {
			b.logger.Error("could not submit application", "user_id", userID, "err", err)
			b.ephemeral(i, ErrorReply(err))
			return
		}
		b.ephemeral(i, fmt.Sprintf("📨 Application submitted! Follow up in <#%s>.", channelID))
	default:
		b.ephemeral(i, "This form is no longer supported.")
	}
}
