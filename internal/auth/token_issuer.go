package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultTokenTTL = time.Hour

	tokenIssuerName   = "discstash-auth"
	tokenAudienceName = "discstash-api"
)

var (
	errMissingSigningSecret = errors.New("signing secret must be provided")
	errMissingSubjectClaim  = errors.New("subject claim must be provided")

	// ErrTokenRevoked indicates the token was signed out before its expiry.
	ErrTokenRevoked = errors.New("auth: token revoked")
)

// SessionClaims is the JWT payload carried by discstash session tokens.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuerConfig configures the session token issuer.
type TokenIssuerConfig struct {
	SigningSecret []byte
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
	Revoker       TokenRevoker
	Clock         func() time.Time
}

// TokenIssuer issues and validates HS256 session tokens for identities.
type TokenIssuer struct {
	signingSecret []byte
	issuer        string
	audience      string
	tokenTTL      time.Duration
	revoker       TokenRevoker
	clock         func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with sane defaults.
func NewTokenIssuer(cfg TokenIssuerConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = tokenIssuerName
	}
	audience := cfg.Audience
	if audience == "" {
		audience = tokenAudienceName
	}
	revoker := cfg.Revoker
	if revoker == nil {
		revoker = NewMemoryRevoker(clock)
	}
	return &TokenIssuer{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        issuer,
		audience:      audience,
		tokenTTL:      ttl,
		revoker:       revoker,
		clock:         clock,
	}
}

// IssueSessionToken produces a signed JWT and its expiry (seconds) for the identity.
func (i *TokenIssuer) IssueSessionToken(_ context.Context, identityID, email string) (string, int64, error) {
	if len(i.signingSecret) == 0 {
		return "", 0, errMissingSigningSecret
	}
	if identityID == "" {
		return "", 0, errMissingSubjectClaim
	}

	now := i.clock().UTC()
	expiresAt := now.Add(i.tokenTTL).UTC()

	claims := SessionClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identityID,
			Issuer:    i.issuer,
			Audience:  []string{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(expiresAt.Sub(now).Seconds()), nil
}

// ValidateToken ensures the session token is well formed, unexpired, and not revoked.
func (i *TokenIssuer) ValidateToken(ctx context.Context, tokenString string) (SessionClaims, error) {
	claims, err := i.parseToken(tokenString)
	if err != nil {
		return SessionClaims{}, err
	}

	revoked, err := i.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("auth: revocation lookup: %w", err)
	}
	if revoked {
		return SessionClaims{}, ErrTokenRevoked
	}
	return claims, nil
}

// RevokeToken marks the token's identifier revoked for the remainder of its lifetime.
func (i *TokenIssuer) RevokeToken(ctx context.Context, tokenString string) error {
	claims, err := i.parseToken(tokenString)
	if err != nil {
		return err
	}
	remaining := claims.ExpiresAt.Sub(i.clock().UTC())
	if remaining <= 0 {
		return nil
	}
	return i.revoker.Revoke(ctx, claims.ID, remaining)
}

func (i *TokenIssuer) parseToken(tokenString string) (SessionClaims, error) {
	if len(i.signingSecret) == 0 {
		return SessionClaims{}, errMissingSigningSecret
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return i.signingSecret, nil
		},
		jwt.WithAudience(i.audience),
		jwt.WithIssuer(i.issuer),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil {
		return SessionClaims{}, err
	}
	if claims.Subject == "" {
		return SessionClaims{}, errMissingSubjectClaim
	}
	return *claims, nil
}
