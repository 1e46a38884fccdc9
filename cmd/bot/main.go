package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"evecorpbot/config"
	"evecorpbot/internal/adapters/auth"
	"evecorpbot/internal/adapters/crypto"
	chat "evecorpbot/internal/adapters/discord"
	"evecorpbot/internal/adapters/email"
	"evecorpbot/internal/adapters/esi"
	"evecorpbot/internal/adapters/eveauth"
	"evecorpbot/internal/clock"
	gateway "evecorpbot/internal/delivery/discord"
	httpDelivery "evecorpbot/internal/delivery/http"
	"evecorpbot/internal/delivery/http/middleware"
	"evecorpbot/internal/domain"
	"evecorpbot/internal/repository/docstore"
	"evecorpbot/internal/repository/filestore"
	"evecorpbot/internal/repository/postgres"
	"evecorpbot/internal/scheduler"
	"evecorpbot/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("bot stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("shut down cleanly")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	clk := clock.Real()
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	docs, closeDocs, err := openDocuments(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeDocs()

	sealer, err := crypto.NewSealer(cfg.Store.EncryptionKey)
	if err != nil {
		return err
	}
	if cfg.Store.EncryptionKey == "" {
		logger.Warn("TOKEN_ENCRYPTION_KEY is not set, tokens are stored in plain text")
	}

	events := docstore.NewEventStore(docs)
	state := docstore.NewStateStore(docs, sealer)
	if err := events.Init(ctx); err != nil {
		return fmt.Errorf("init event store: %w", err)
	}
	if err := state.Init(ctx, defaultState(cfg.Bootstrap)); err != nil {
		return fmt.Errorf("init state store: %w", err)
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	dg.ShouldRetryOnRateLimit = true
	dg.MaxRestRetries = 3
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers

	messenger := chat.NewMessenger(dg)
	guild := chat.NewGuildManager(dg)

	esiClient := esi.NewClient(httpClient, cfg.EVE.ESIURL, cfg.EVE.CorporationID)
	sso := eveauth.NewProvider(eveauth.Config{
		ClientID:     cfg.EVE.ClientID,
		ClientSecret: cfg.EVE.Secret,
		CallbackURL:  cfg.EVE.CallbackURL,
		Scopes:       cfg.EVE.Scopes,
		BaseURL:      cfg.EVE.SSOURL,
	}, httpClient)

	stateSecret := cfg.Server.StateSecret
	if stateSecret == "" {
		stateSecret, err = randomSecret()
		if err != nil {
			return err
		}
		logger.Warn("LOGIN_STATE_SECRET is not set, login links will not survive a restart")
	}
	issuer, err := auth.NewLoginStateIssuer(stateSecret, cfg.Server.StateTTL)
	if err != nil {
		return err
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Mail.Provider,
		FromAddress: cfg.Mail.FromAddress,
		FromName:    cfg.Mail.FromName,
		SES: email.SESConfig{
			Region:             cfg.Mail.AWSRegion,
			AccessKeyID:        cfg.Mail.AWSAccessKeyID,
			SecretAccessKey:    cfg.Mail.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Mail.InsecureSkipVerify,
			Endpoint:           cfg.Mail.SESEndpoint,
		},
	})
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	alertMailer := services.NewAlertMailer(mailer, email.NewTemplateRenderer(), cfg.Mail.AlertTo, logger)

	notifier := services.NewEventNotifier(events, messenger, logger)
	timers := services.NewTimerManager(events, notifier, clk, logger, cfg.RequestTimeout)
	defer timers.Stop()

	polls := services.NewPollService(services.PollDeps{
		State:         state,
		OAuth:         sso,
		Structures:    esiClient,
		Sovereignty:   esiClient,
		Messenger:     messenger,
		Mailer:        alertMailer,
		Clock:         clk,
		Logger:        logger,
		FuelThreshold: cfg.Poll.FuelThreshold,
		ADMFloor:      cfg.Poll.ADMFloor,
		Timeout:       cfg.RequestTimeout,
	})
	links := services.NewAccountLinkService(state, sso, issuer, esiClient, clk, logger, cfg.Server.PublicURL)

	bot := gateway.New(dg, gateway.Config{
		AppID:            cfg.Discord.AppID,
		GuildID:          cfg.Discord.GuildID,
		AdminRoleID:      cfg.Discord.AdminRoleID,
		LoginAllowedIDs:  cfg.Discord.LoginAllowedIDs,
		RegisterCommands: cfg.Discord.RegisterCommands,
		Timeout:          cfg.RequestTimeout,
	}, gateway.Services{
		Events:  services.NewEventService(events, state, messenger, timers, clk, logger, cfg.RequestTimeout),
		Timers:  timers,
		Polls:   polls,
		Links:   links,
		Tickets: services.NewTicketService(state, messenger, guild, clk, logger, cfg.Discord.GuildID, cfg.Discord.StaffRoles(), cfg.RequestTimeout),
		Setup:   services.NewSetupService(state, logger),
	}, logger)

	jobs := scheduler.New(clk, logger)
	jobs.Every(string(domain.PollFuel), cfg.Poll.FuelInterval, pollJob(polls, domain.PollFuel))
	jobs.Every(string(domain.PollSovereignty), cfg.Poll.SovereigntyInterval, pollJob(polls, domain.PollSovereignty))

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           middleware.LoggingMiddleware(logger, httpDelivery.NewRouter(httpDelivery.NewAuthController(links, logger))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx, dg)
	})
	g.Go(func() error {
		return jobs.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("auth server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("auth server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openDocuments(ctx context.Context, cfg config.StoreConfig) (domain.DocumentStore, func(), error) {
	switch cfg.Driver {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewDocumentRepository(db), func() { _ = db.Close() }, nil
	default:
		docs, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return docs, func() {}, nil
	}
}

func defaultState(b config.BootstrapConfig) *domain.BotState {
	st := &domain.BotState{
		TicketChannelID:     b.TicketChannelID,
		EventChannelID:      b.EventChannelID,
		FuelChannelID:       b.FuelChannelID,
		WelcomeChannelID:    b.WelcomeChannelID,
		EventCreatorRoleIDs: b.EventCreatorRoleIDs,
		Tokens:              map[string]domain.TokenPair{},
	}
	for _, s := range b.Systems() {
		st.Systems = append(st.Systems, domain.SystemStatus{ID: s.ID, Name: s.Name})
	}
	return st
}

func pollJob(polls domain.PollService, kind domain.PollKind) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := polls.RunPollCycle(ctx, kind)
		return err
	}
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate login state secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
