// Package discord wires gateway events, slash commands, buttons and modals
// to the bot's services.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"

	"evecorpbot/internal/domain"
)

// Presence is the activity shown under the bot's name.
const Presence = "helping Dario"

// LinkWaitTimeout bounds how long /login waits for the SSO callback.
const LinkWaitTimeout = 60 * time.Second

// Session is the part of *discordgo.Session the handlers reply through.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UpdateGameStatus(idle int, name string) error
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// Gateway is a Session that also owns the websocket connection.
type Gateway interface {
	Session
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
}

// Config holds the guild-level settings of the bot.
type Config struct {
	AppID            string
	GuildID          string
	AdminRoleID      string
	LoginAllowedIDs  []string
	RegisterCommands bool
	Timeout          time.Duration
}

// Services are the use cases behind the handlers.
type Services struct {
	Events  domain.EventService
	Timers  domain.EventScheduler
	Polls   domain.PollService
	Links   domain.AccountLinkService
	Tickets domain.TicketService
	Setup   domain.SetupService
}

// Bot dispatches gateway events to services.
type Bot struct {
	session  Session
	cfg      Config
	services Services
	logger   *slog.Logger

	// ctx outlives single interactions; /login follow-ups run on it.
	ctx context.Context
}

// New returns a bot replying through session.
func New(session Session, cfg Config, services Services, logger *slog.Logger) *Bot {
	return &Bot{
		session:  session,
		cfg:      cfg,
		services: services,
		logger:   logger,
		ctx:      context.Background(),
	}
}

// Run registers the handlers, opens the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context, gw Gateway) error {
	b.ctx = ctx
	gw.AddHandler(b.OnReady)
	gw.AddHandler(b.OnInteractionCreate)
	gw.AddHandler(b.OnGuildMemberAdd)

	if err := gw.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	b.logger.Info("bot is running")
	<-ctx.Done()
	b.logger.Info("closing gateway")
	if err := gw.Close(); err != nil {
		return fmt.Errorf("close gateway: %w", err)
	}
	return nil
}

// OnReady restores timers and the ticket surface after every (re)connect.
func (b *Bot) OnReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.ready(r.User.ID)
}

func (b *Bot) ready(botUserID string) {
	logger := b.logger.With("bot_user_id", botUserID)
	logger.Info("gateway ready")

	if err := b.session.UpdateGameStatus(0, Presence); err != nil {
		logger.Warn("could not set presence", "err", err)
	}

	if b.cfg.RegisterCommands {
		registered, err := b.session.ApplicationCommandBulkOverwrite(b.cfg.AppID, b.cfg.GuildID, Commands())
		if err != nil {
			logger.Error("could not register commands", "err", err)
		} else {
			logger.Info("commands registered", "count", len(registered))
		}
	}

	ctx, cancel := context.WithTimeout(b.ctx, b.cfg.Timeout)
	defer cancel()
	if err := b.services.Tickets.EnsureSurface(ctx, botUserID); err != nil {
		logger.Error("could not ensure ticket surface", "err", err)
	}
	restored, err := b.services.Timers.RestoreAll(ctx)
	if err != nil {
		logger.Error("could not restore event timers", "err", err)
		return
	}
	logger.Info("event timers restored", "count", restored)
}

// OnGuildMemberAdd greets new members with the recruitment button.
func (b *Bot) OnGuildMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil || m.User.Bot {
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, b.cfg.Timeout)
	defer cancel()
	if err := b.services.Tickets.Welcome(ctx, m.User.ID); err != nil {
		b.logger.Error("could not welcome member", "user_id", m.User.ID, "err", err)
	}
}

// OnInteractionCreate routes commands, buttons and modal submissions.
func (b *Bot) OnInteractionCreate(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	b.handle(ic.Interaction)
}

func (b *Bot) handle(i *discordgo.Interaction) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(i, i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		b.handleModal(i, i.ModalSubmitData())
	}
}

func (b *Bot) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.ctx, b.cfg.Timeout)
}

func (b *Bot) isAdmin(m *discordgo.Member) bool {
	if m == nil {
		return false
	}
	if m.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	return b.cfg.AdminRoleID != "" && slices.Contains(m.Roles, b.cfg.AdminRoleID)
}

func (b *Bot) mayLogin(userID string) bool {
	return len(b.cfg.LoginAllowedIDs) == 0 || slices.Contains(b.cfg.LoginAllowedIDs, userID)
}

// caller returns the invoking user's ID, name and guild roles.
func caller(i *discordgo.Interaction) (string, string, []string) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID, i.Member.User.Username, i.Member.Roles
	}
	if i.User != nil {
		return i.User.ID, i.User.Username, nil
	}
	return "", "", nil
}

// ErrorReply turns a service error into the text shown to the member.
func ErrorReply(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "⛔ You don't have permission to do that."
	case errors.Is(err, domain.ErrNotConfigured):
		return "⚙️ This isn't configured yet. An admin needs to run /setup."
	case errors.Is(err, domain.ErrNotLinked):
		return "🔗 No EVE character is linked. Run /login first."
	case errors.Is(err, domain.ErrNotFound):
		return "❓ That no longer exists."
	case errors.Is(err, domain.ErrEventStarted):
		return "⏰ That event has already started."
	case errors.Is(err, domain.ErrInvalidInput):
		return "⚠️ That input is not valid."
	case errors.Is(err, domain.ErrRemoteFetchFailed):
		return "🛰️ EVE's API did not answer. Try again later."
	case errors.Is(err, domain.ErrDeliveryFailed):
		return "📭 Could not post to the channel."
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "💾 Storage is unavailable. Try again later."
	default:
		return "Something went wrong."
	}
}
