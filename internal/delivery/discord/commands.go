package discord

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"evecorpbot/internal/domain"
	"evecorpbot/internal/render"
)

// EventTimeLayout is the format of the create-event datetime option, in UTC.
const EventTimeLayout = "2006-01-02 15:04"

const (
	cmdCreateEvent = "create-event"
	cmdSetup       = "setup"
	cmdStations    = "stations"
	cmdFuelCheck   = "fuelcheck"
	cmdSovCheck    = "sovcheck"
	cmdLogin       = "login"

	// maxContent is the platform limit for message content.
	maxContent = 2000
)

// Commands returns the slash command definitions registered on start.
func Commands() []*discordgo.ApplicationCommand {
	admin := int64(discordgo.PermissionAdministrator)
	return []*discordgo.ApplicationCommand{
		{
			Name:        cmdCreateEvent,
			Description: "Schedule a corp event with RSVP buttons",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionString, Name: "title", Description: "Event title", Required: true, MaxLength: 200},
				{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "What the event is about", Required: true, MaxLength: 4000},
				{Type: discordgo.ApplicationCommandOptionString, Name: "datetime", Description: "Start in EVE time, YYYY-MM-DD HH:mm", Required: true},
				{Type: discordgo.ApplicationCommandOptionRole, Name: "ping_role", Description: "Role to ping when the event is posted"},
			},
		},
		{Name: cmdSetup, Description: "Configure bot channels and roles", DefaultMemberPermissions: &admin},
		{Name: cmdStations, Description: "List corp structures and their fuel"},
		{Name: cmdFuelCheck, Description: "Run the structure fuel check now", DefaultMemberPermissions: &admin},
		{Name: cmdSovCheck, Description: "Run the sovereignty ADM check now", DefaultMemberPermissions: &admin},
		{Name: cmdLogin, Description: "Link your EVE character"},
	}
}

// ParseEventTime reads a create-event datetime as UTC.
func ParseEventTime(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(EventTimeLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("datetime %q: %w", raw, domain.ErrInvalidInput)
	}
	return t, nil
}

func (b *Bot) handleCommand(i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case cmdCreateEvent:
		b.createEvent(i, data)
	case cmdSetup:
		b.setup(i)
	case cmdStations:
		b.stations(i)
	case cmdFuelCheck:
		b.pollNow(i, domain.PollFuel)
	case cmdSovCheck:
		b.pollNow(i, domain.PollSovereignty)
	case cmdLogin:
		b.login(i)
	default:
		b.ephemeral(i, "Unknown command.")
	}
}

func options(data discordgo.ApplicationCommandInteractionData) map[string]string {
	out := make(map[string]string, len(data.Options))
	for _, opt := range data.Options {
		if v, ok := opt.Value.(string); ok {
			out[opt.Name] = v
		}
	}
	return out
}

func (b *Bot) createEvent(i *discordgo.Interaction, data discordgo.ApplicationCommandInteractionData) {
	opts := options(data)
	at, err := ParseEventTime(opts["datetime"])
	if err != nil {
		b.ephemeral(i, "⚠️ Invalid date format. Use YYYY-MM-DD HH:mm in EVE time (UTC).")
		return
	}
	userID, _, roles := caller(i)

	b.deferred(i, func(ctx context.Context) string {
		id, err := b.services.Events.CreateEvent(ctx, domain.CreateEventInput{
			Title:        opts["title"],
			Description:  opts["description"],
			ScheduledAt:  at,
			CreatorID:    userID,
			CreatorRoles: roles,
			PingRoleID:   opts["ping_role"],
		})
		if err != nil {
			b.logger.Warn("create event refused", "user_id", userID, "err", err)
			switch {
			case errors.Is(err, domain.ErrForbidden):
				return "⛔ You don't have permission to create events."
			case errors.Is(err, domain.ErrInvalidInput):
				return "⚠️ Events need a title and a time in the future (EVE/UTC)."
			}
			return ErrorReply(err)
		}
		return fmt.Sprintf("✅ Event created for %s. (%s)", render.UTCTime(at), id)
	})
}

func (b *Bot) setup(i *discordgo.Interaction) {
	if !b.isAdmin(i.Member) {
		b.ephemeral(i, "⛔ Only admins can change the bot setup.")
		return
	}
	ctx, cancel := b.opContext()
	defer cancel()
	st, err := b.services.Setup.Current(ctx)
	if err != nil {
		b.logger.Error("could not load settings", "err", err)
		b.ephemeral(i, ErrorReply(err))
		return
	}

	b.modal(i, domain.Action{Kind: domain.ActionSetupSubmit}.CustomID(), "Bot Setup", []textField{
		{id: fieldEventChannel, label: "Event channel ID", style: discordgo.TextInputShort, value: st.EventChannelID, maxLength: 20},
		{id: fieldTicketChannel, label: "Ticket channel ID", style: discordgo.TextInputShort, value: st.TicketChannelID, maxLength: 20},
		{id: fieldFuelChannel, label: "Fuel/sovereignty channel ID", style: discordgo.TextInputShort, value: st.FuelChannelID, maxLength: 20},
		{id: fieldCreatorRoles, label: "Event creator role IDs (comma separated)", style: discordgo.TextInputParagraph, value: strings.Join(st.EventCreatorRoleIDs, ",")},
	})
}

func (b *Bot) stations(i *discordgo.Interaction) {
	_, _, roles := caller(i)
	ctx, cancel := b.opContext()
	defer cancel()
	st, err := b.services.Setup.Current(ctx)
	if err != nil {
		b.logger.Error("could not load stations", "err", err)
		b.ephemeral(i, ErrorReply(err))
		return
	}
	if !b.isAdmin(i.Member) && !hasRole(roles, st.EventCreatorRoleIDs) {
		b.ephemeral(i, "⛔ You don't have permission to view stations.")
		return
	}
	if len(st.Stations) == 0 {
		b.ephemeral(i, "No stations recorded yet. Link a character with /login first.")
		return
	}
	b.ephemeral(i, Truncate(render.StationList(st.Stations), maxContent))
}

func (b *Bot) pollNow(i *discordgo.Interaction, kind domain.PollKind) {
	if !b.isAdmin(i.Member) {
		b.ephemeral(i, "⛔ Only admins can run checks.")
		return
	}
	b.deferred(i, func(ctx context.Context) string {
		report, err := b.services.Polls.RunPollCycle(ctx, kind)
		if err != nil {
			b.logger.Warn("manual poll failed", "kind", kind, "err", err)
			return ErrorReply(err)
		}
		return PollSummary(report)
	})
}

// PollSummary describes a finished poll cycle.
func PollSummary(r *domain.PollReport) string {
	noun := "structures"
	if r.Kind == domain.PollSovereignty {
		noun = "systems"
	}
	if len(r.Alerting) == 0 {
		return fmt.Sprintf("✅ %s check done: %d %s checked, all fine.", pollTitle(r.Kind), r.Checked, noun)
	}
	return fmt.Sprintf("⚠️ %s check done: %d %s checked, alert posted for %s.",
		pollTitle(r.Kind), r.Checked, noun, strings.Join(r.Alerting, ", "))
}

func pollTitle(kind domain.PollKind) string {
	if kind == domain.PollSovereignty {
		return "Sovereignty"
	}
	return "Fuel"
}

func (b *Bot) login(i *discordgo.Interaction) {
	userID, _, _ := caller(i)
	if !b.mayLogin(userID) {
		b.ephemeral(i, "⛔ You are not allowed to link a character.")
		return
	}
	link, err := b.services.Links.LoginURL(userID)
	if err != nil {
		b.logger.Error("could not build login link", "user_id", userID, "err", err)
		b.ephemeral(i, ErrorReply(err))
		return
	}
	b.ephemeral(i, fmt.Sprintf("🔐 [Click here to log in with EVE Online](%s)\nThis link is waiting for you for %d seconds.", link, int(LinkWaitTimeout.Seconds())))

	go b.awaitLink(i, userID)
}

func (b *Bot) awaitLink(i *discordgo.Interaction, userID string) {
	linked, err := b.services.Links.WaitForLink(b.ctx, userID, LinkWaitTimeout)
	switch {
	case err != nil:
		b.logger.Warn("stopped waiting for login", "user_id", userID, "err", err)
	case linked:
		b.followup(i, "✅ Character linked. Fuel checks will use it from now on.")
	default:
		b.followup(i, "⌛ Login timed out. Run /login again.")
	}
}

// Truncate cuts s to at most n bytes on a rune boundary.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - len("…")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func hasRole(have, allowed []string) bool {
	return slices.ContainsFunc(have, func(r string) bool { return slices.Contains(allowed, r) })
}
