package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	Environment    string        `env:"GO_ENV" envDefault:"development"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	Discord   DiscordConfig
	EVE       EVEConfig
	Store     StoreConfig
	Server    ServerConfig
	Poll      PollConfig
	Mail      MailConfig
	Bootstrap BootstrapConfig
}

// DiscordConfig is the bot account and guild.
type DiscordConfig struct {
	Token            string   `env:"DISCORD_TOKEN,notEmpty"`
	AppID            string   `env:"DISCORD_APP_ID"`
	GuildID          string   `env:"DISCORD_GUILD_ID,notEmpty"`
	RegisterCommands bool     `env:"REGISTER_COMMANDS" envDefault:"false"`
	AdminRoleID      string   `env:"ADMIN_ROLE_ID"`
	StaffRoleIDs     []string `env:"STAFF_ROLE_IDS" envSeparator:","`
	LoginAllowedIDs  []string `env:"LOGIN_ALLOWED_USER_IDS" envSeparator:","`
}

// StaffRoles returns the staff roles plus the admin role.
func (d DiscordConfig) StaffRoles() []string {
	roles := make([]string, 0, len(d.StaffRoleIDs)+1)
	for _, r := range d.StaffRoleIDs {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	if d.AdminRoleID != "" && !slices.Contains(roles, d.AdminRoleID) {
		roles = append(roles, d.AdminRoleID)
	}
	return roles
}

// EVEConfig is the SSO application and ESI access.
type EVEConfig struct {
	ClientID      string   `env:"EVE_CLIENT_ID"`
	Secret        string   `env:"EVE_SECRET"`
	CallbackURL   string   `env:"EVE_CALLBACK"`
	Scopes        []string `env:"EVE_SCOPES" envSeparator:" " envDefault:"esi-corporations.read_structures.v1"`
	CorporationID int64    `env:"EVE_CORPORATION_ID"`
	SSOURL        string   `env:"EVE_SSO_URL" envDefault:"https://login.eveonline.com"`
	ESIURL        string   `env:"ESI_BASE_URL" envDefault:"https://esi.evetech.net/latest"`
}

// StoreConfig selects where documents are kept.
type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER" envDefault:"file"`
	DataDir     string `env:"DATA_DIR" envDefault:"data"`
	DatabaseURL string `env:"DATABASE_URL"`
	// EncryptionKey is a base64 32-byte key; empty stores tokens in plain text.
	EncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`
}

// ServerConfig is the SSO callback server.
type ServerConfig struct {
	Port          string        `env:"PORT" envDefault:"3000"`
	PublicURL     string        `env:"AUTH_PUBLIC_URL" envDefault:"http://localhost:3000"`
	StateSecret   string        `env:"LOGIN_STATE_SECRET"`
	StateTTL      time.Duration `env:"LOGIN_STATE_TTL" envDefault:"10m"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`
}

// PollConfig is the cadence and thresholds of the remote checks.
type PollConfig struct {
	FuelInterval        time.Duration `env:"FUEL_CHECK_INTERVAL" envDefault:"24h"`
	SovereigntyInterval time.Duration `env:"SOVEREIGNTY_CHECK_INTERVAL" envDefault:"30m"`
	FuelThreshold       time.Duration `env:"FUEL_WARNING_THRESHOLD" envDefault:"168h"`
	ADMFloor            float64       `env:"ADM_WARNING_THRESHOLD" envDefault:"4"`
}

// MailConfig configures the optional alert e-mail copies.
type MailConfig struct {
	Provider           string   `env:"MAILER_PROVIDER" envDefault:"noop"`
	FromAddress        string   `env:"MAILER_FROM_ADDRESS"`
	FromName           string   `env:"MAILER_FROM_NAME" envDefault:"EVE Corp Bot"`
	AlertTo            []string `env:"ALERT_EMAIL_TO" envSeparator:","`
	AWSRegion          string   `env:"AWS_REGION"`
	AWSAccessKeyID     string   `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string   `env:"AWS_SECRET_ACCESS_KEY"`
	SESEndpoint        string   `env:"SES_ENDPOINT"`
	InsecureSkipVerify bool     `env:"SES_INSECURE_SKIP_VERIFY" envDefault:"false"`
}

// BootstrapConfig seeds the state document the first time it is created.
type BootstrapConfig struct {
	TicketChannelID     string   `env:"TICKET_CHANNEL_ID"`
	EventChannelID      string   `env:"EVENT_CHANNEL_ID"`
	FuelChannelID       string   `env:"FUEL_CHANNEL_ID"`
	WelcomeChannelID    string   `env:"WELCOME_CHANNEL_ID"`
	EventCreatorRoleIDs []string `env:"EVENT_CREATOR_ROLE_IDS" envSeparator:","`
	// SystemsRaw is "id:name" pairs separated by commas.
	SystemsRaw string `env:"SOVEREIGNTY_SYSTEMS"`
	systems    []System
}

// Systems returns the parsed SOVEREIGNTY_SYSTEMS list.
func (b BootstrapConfig) Systems() []System {
	return b.systems
}

// System is a solar system whose sovereignty is watched.
type System struct {
	ID   int64
	Name string
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	// Load .env file if not in production
	// We don't return error here because in production .env might not exist
	// and we rely on system environment variables
	if os.Getenv("GO_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found or couldn't be loaded: %v", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	systems, err := ParseSystems(cfg.Bootstrap.SystemsRaw)
	if err != nil {
		return nil, err
	}
	cfg.Bootstrap.systems = systems

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.Store.Driver {
	case StoreFile:
		if c.Store.DataDir == "" {
			errs = append(errs, errors.New("DATA_DIR is required for the file store"))
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreFile, StorePostgres, c.Store.Driver))
	}
	if c.Discord.RegisterCommands && c.Discord.AppID == "" {
		errs = append(errs, errors.New("DISCORD_APP_ID is required to register commands"))
	}
	if c.Poll.FuelInterval <= 0 || c.Poll.SovereigntyInterval <= 0 {
		errs = append(errs, errors.New("poll intervals must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// ParseSystems parses "id:name" pairs separated by commas. A missing name
// leaves Name empty.
func ParseSystems(raw string) ([]System, error) {
	var systems []System
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idText, name, _ := strings.Cut(part, ":")
		id, err := strconv.ParseInt(strings.TrimSpace(idText), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("SOVEREIGNTY_SYSTEMS entry %q: system id must be a positive integer", part)
		}
		systems = append(systems, System{ID: id, Name: strings.TrimSpace(name)})
	}
	return systems, nil
}
