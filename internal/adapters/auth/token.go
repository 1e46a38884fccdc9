package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"evecorpbot/internal/domain"
)

const stateAudience = "eve-sso-login"

type stateClaims struct {
	jwt.RegisteredClaims
}

type jwtStateIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLoginStateIssuer returns a LoginStateIssuer that signs the OAuth state
// as an HS256 JWT carrying the Discord user ID, valid for ttl.
func NewLoginStateIssuer(secret string, ttl time.Duration) (domain.LoginStateIssuer, error) {
	if secret == "" {
		return nil, errors.New("login state secret is empty")
	}
	return &jwtStateIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (i *jwtStateIssuer) Issue(discordUserID string) (string, error) {
	now := i.now()
	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   discordUserID,
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return tokenString, nil
}

func (i *jwtStateIssuer) Verify(state string) (string, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid login state: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("invalid login state: no subject")
	}
	return claims.Subject, nil
}
