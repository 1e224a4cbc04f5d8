package session

import (
	"context"
	"fmt"
	"time"

	"github.com/nulljobs-api/internal/application/verification"
	"github.com/nulljobs-api/internal/domain"
	googleinfra "github.com/nulljobs-api/internal/infrastructure/google"
	jwtinfra "github.com/nulljobs-api/internal/infrastructure/jwt"
	"github.com/nulljobs-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the 3-way login outcome. Verified users get a token pair;
// unverified users with the right password are silently re-challenged (a new
// OTP email goes out and GuestToken identifies the challenge). Bad
// credentials never reach a LoginResult — they fail with ErrUnauthorized,
// and "wrong password" is indistinguishable from "no such user".
type LoginResult struct {
	Verified   bool
	Tokens     *domain.TokenPair
	GuestToken string
	User       *domain.User
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	IssueSession(u *domain.User) (*domain.TokenPair, error)
	GoogleLogin(ctx context.Context, idToken string) (*domain.TokenPair, *domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type tokenProvider interface {
	IssuePair(u *domain.User) (*domain.TokenPair, error)
	ParseRefresh(token string) (*jwtinfra.RefreshClaims, error)
}

type denylist interface {
	Deny(ctx context.Context, d *domain.DeniedToken) error
	IsDenied(ctx context.Context, jti string) (bool, error)
}

type challenger interface {
	StartChallenge(ctx context.Context, u *domain.User, purpose verification.Purpose) (string, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*googleinfra.Payload, error)
}

type service struct {
	users    userStore
	tokens   tokenProvider
	denied   denylist
	verifier challenger
	google   googleVerifier
}

type ServiceDeps struct {
	UserRepo     userStore
	Tokens       tokenProvider
	Denylist     denylist
	Verification challenger
	Google       googleVerifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:    deps.UserRepo,
		tokens:   deps.Tokens,
		denied:   deps.Denylist,
		verifier: deps.Verification,
		google:   deps.Google,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("email or password is not valid: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("email or password is not valid: %w", domain.ErrUnauthorized)
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrForbidden)
	}

	if !u.IsVerified {
		guest, err := s.verifier.StartChallenge(ctx, u, verification.PurposeVerify)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Verified: false, GuestToken: guest, User: u}, nil
	}

	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Verified: true, Tokens: pair, User: u}, nil
}

// Logout denylists the presented refresh token until its own expiry. Access
// tokens are never revoked server-side; they die on expiry alone. Any
// decode or denylist error surfaces as a 400-style failure, nothing worse.
func (s *service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return fmt.Errorf("cannot revoke token: %w", domain.ErrBadRequest)
	}
	d := &domain.DeniedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}
	if err := s.denied.Deny(ctx, d); err != nil {
		return fmt.Errorf("cannot revoke token: %w", domain.ErrBadRequest)
	}
	return nil
}

// Refresh rotates the refresh token: the presented jti is denylisted and a
// fresh pair is issued, so a rotated-out token can never mint again.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	denied, err := s.denied.IsDenied(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if denied {
		return nil, fmt.Errorf("refresh token revoked: %w", domain.ErrUnauthorized)
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.denied.Deny(ctx, &domain.DeniedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}); err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(u)
}

func (s *service) IssueSession(u *domain.User) (*domain.TokenPair, error) {
	return s.tokens.IssuePair(u)
}

// GoogleLogin verifies a Google ID token and logs the user in, creating the
// account on first sight. Google users are verified by construction.
func (s *service) GoogleLogin(ctx context.Context, idToken string) (*domain.TokenPair, *domain.User, error) {
	payload, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, nil, err
	}
	if payload.Email == "" || payload.Name == "" {
		return nil, nil, fmt.Errorf("google token missing email or name: %w", domain.ErrBadRequest)
	}

	now := time.Now().UTC()
	u, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		u = &domain.User{
			UserID:               id.New(),
			Username:             payload.Email,
			Name:                 payload.Name,
			Email:                payload.Email,
			UserType:             domain.UserTypeJobSeeker,
			AuthProvider:         domain.ProviderGoogle,
			IsVerified:           true,
			LastVerifiedIdentity: &now,
			Enable:               true,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := s.users.Put(ctx, u); err != nil {
			return nil, nil, err
		}
	} else {
		if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
			"last_verified_identity": now.Format(time.RFC3339),
		}); err != nil {
			return nil, nil, err
		}
		u.LastVerifiedIdentity = &now
	}

	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, nil, err
	}
	return pair, u, nil
}
