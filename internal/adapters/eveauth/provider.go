// Package eveauth talks to the EVE Online single sign-on service.
package eveauth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"evecorpbot/internal/domain"
)

// DefaultBaseURL is the EVE SSO host.
const DefaultBaseURL = "https://login.eveonline.com"

// Config holds the registered application's SSO settings.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string
	BaseURL      string
}

type provider struct {
	oauth  *oauth2.Config
	client *http.Client
}

// NewProvider returns an OAuthProvider for EVE SSO v2. client may be nil.
func NewProvider(cfg Config, client *http.Client) domain.OAuthProvider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.CallbackURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/v2/oauth/authorize",
				TokenURL:  base + "/v2/oauth/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		client: client,
	}
}

func (p *provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *provider) Exchange(ctx context.Context, code string) (domain.TokenPair, error) {
	tok, err := p.oauth.Exchange(p.withClient(ctx), code)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return toPair(tok), nil
}

func (p *provider) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	if refreshToken == "" {
		return domain.TokenPair{}, fmt.Errorf("refresh token is empty: %w", domain.ErrNotLinked)
	}
	tok, err := p.oauth.TokenSource(p.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("refresh access token: %w", err)
	}
	return toPair(tok), nil
}

func (p *provider) withClient(ctx context.Context) context.Context {
	if p.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

// characterClaims are the claims EVE SSO puts in its access tokens.
type characterClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

// toPair copies tokens and reads the character identity from the access
// token without checking its signature.
func toPair(tok *oauth2.Token) domain.TokenPair {
	pair := domain.TokenPair{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	var claims characterClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, &claims); err != nil {
		return pair
	}
	pair.CharacterID = strings.TrimPrefix(claims.Subject, "CHARACTER:EVE:")
	pair.CharacterName = claims.Name
	return pair
}
