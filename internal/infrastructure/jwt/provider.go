package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nulljobs-api/internal/config"
	"github.com/nulljobs-api/internal/domain"
	"github.com/nulljobs-api/internal/pkg/id"
)

// AccessClaims holds the durable identity claims embedded in access tokens.
type AccessClaims struct {
	UserID               string `json:"user_id"`
	Username             string `json:"username"`
	Name                 string `json:"name"`
	UserType             string `json:"user_type"`
	IsModerator          bool   `json:"is_moderator"`
	LastVerifiedIdentity string `json:"last_verified_identity,omitempty"` // RFC3339, empty until first verification
	jwt.RegisteredClaims
}

// RefreshClaims holds the refresh token payload. ID (jti) is the denylist key.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs with a process-wide secret key.
// Guest tokens are stateless carriers: the server keeps no side-table of
// in-flight challenges, validity is entirely signature + exp.
type Provider struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSigningKey == "" {
		return nil, errors.New("JWT_SIGNING_KEY is not set")
	}
	return &Provider{
		key:        []byte(cfg.JWTSigningKey),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

// SignAccess issues an access token carrying the user's identity claims.
func (p *Provider) SignAccess(u *domain.User) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:      u.UserID,
		Username:    u.Username,
		Name:        u.Name,
		UserType:    u.UserType,
		IsModerator: u.IsModerator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(p.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if u.LastVerifiedIdentity != nil {
		claims.LastVerifiedIdentity = u.LastVerifiedIdentity.UTC().Format(time.RFC3339)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
}

// SignRefresh issues a long-lived refresh token with a fresh jti.
func (p *Provider) SignRefresh(userID string) (token, jti string, expiresAt time.Time, err error) {
	now := time.Now()
	jti = id.New()
	expiresAt = now.Add(p.refreshTTL)
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	return token, jti, expiresAt, err
}

// IssuePair issues a full session credential for a verified user.
func (p *Provider) IssuePair(u *domain.User) (*domain.TokenPair, error) {
	access, err := p.SignAccess(u)
	if err != nil {
		return nil, err
	}
	refresh, _, _, err := p.SignRefresh(u.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{Access: access, Refresh: refresh}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (p *Provider) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := p.parseInto(tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh validates a refresh token and returns its claims.
// Denylist membership is the caller's concern, not the parser's.
func (p *Provider) ParseRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := p.parseInto(tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// SignGuest issues a short-lived single-purpose token embedding the given
// payload plus an absolute exp. The payload keys must not include "exp".
func (p *Provider) SignGuest(payload map[string]interface{}, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{"exp": time.Now().Add(ttl).Unix()}
	for k, v := range payload {
		claims[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
}

// ParseGuest validates a guest token and returns its full payload.
// An expired token fails with domain.ErrTokenExpired; any signature or
// structure problem fails with domain.ErrInvalidToken. The two are distinct
// because they map to different HTTP statuses downstream.
func (p *Provider) ParseGuest(tokenStr string) (map[string]interface{}, error) {
	claims := jwt.MapClaims{}
	if err := p.parseInto(tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Augment decodes token, merges extra into its claim set (last write wins on
// key collision, exp included) and re-signs it. Used to chain a reset
// capability onto an already-issued challenge token.
func (p *Provider) Augment(tokenStr string, extra map[string]interface{}) (string, error) {
	claims, err := p.ParseGuest(tokenStr)
	if err != nil {
		return "", err
	}
	merged := jwt.MapClaims{}
	for k, v := range claims {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, merged).SignedString(p.key)
}

func (p *Provider) parseInto(tokenStr string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case err != nil:
		return fmt.Errorf("parse token: %w", domain.ErrInvalidToken)
	case !token.Valid:
		return fmt.Errorf("token claims rejected: %w", domain.ErrInvalidToken)
	}
	return nil
}
