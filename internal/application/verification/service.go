package verification

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/nulljobs-api/internal/config"
	"github.com/nulljobs-api/internal/domain"
	"github.com/nulljobs-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// Purpose selects the challenge flow. Both purposes share the single
// otp_secret on the user record, exactly as the flows are defined: starting
// a reset challenge re-derives from (and refreshes) the same secret an
// in-flight verify challenge uses.
type Purpose string

const (
	PurposeVerify        Purpose = "verify"
	PurposeResetPassword Purpose = "reset-password"
)

// Claim keys carried by guest/challenge tokens.
const (
	claimEmail    = "email"
	claimUserID   = "user_id"
	claimUserType = "user_type"
	claimUID      = "uid"
	claimReset    = "reset"
)

type Service interface {
	// StartChallenge derives the current OTP for the user (minting and
	// persisting a secret on first use), emails it, and returns the guest
	// token that identifies this challenge. Every call re-sends mail with a
	// freshly re-derived code.
	StartChallenge(ctx context.Context, u *domain.User, purpose Purpose) (string, error)
	// StartChallengeByEmail resolves the user first; the password-reset
	// entry point only knows the address the OTP should go to.
	StartChallengeByEmail(ctx context.Context, email string, purpose Purpose) (string, error)
	// CompleteVerify finishes a register-verify challenge: on a correct OTP
	// the user becomes verified and is returned for session issuance.
	CompleteVerify(ctx context.Context, guestToken, code string) (*domain.User, error)
	// CompleteReset finishes a reset-password challenge: on a correct OTP it
	// mints the second-stage reset capability (uid + capability token). This
	// is a credential for SetPassword, not a session.
	CompleteReset(ctx context.Context, guestToken, code string) (uid, capability string, err error)
	// SetPassword consumes a reset capability and installs the new password.
	SetPassword(ctx context.Context, uid, capability, newPassword string) error
	// RequestPasswordChange starts the authenticated change-password flow:
	// same OTP mechanics, no guest token (the session identifies the user).
	RequestPasswordChange(ctx context.Context, userID string) error
	// ConfirmPasswordChange checks the OTP and installs the new password.
	ConfirmPasswordChange(ctx context.Context, userID, code, newPassword string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SetOTPSecretIfAbsent(ctx context.Context, userID, secret string) (string, error)
}

type mailer interface {
	SendEmail(to, subject, body string) error
}

type guestTokens interface {
	SignGuest(payload map[string]interface{}, ttl time.Duration) (string, error)
	ParseGuest(token string) (map[string]interface{}, error)
	Augment(token string, extra map[string]interface{}) (string, error)
}

type service struct {
	users  userStore
	mailer mailer
	tokens guestTokens
	dryRun bool
}

type ServiceDeps struct {
	UserRepo userStore
	Mailer   mailer
	Tokens   guestTokens
	DryRun   bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:  deps.UserRepo,
		mailer: deps.Mailer,
		tokens: deps.Tokens,
		dryRun: deps.DryRun,
	}
}

func (s *service) StartChallenge(ctx context.Context, u *domain.User, purpose Purpose) (string, error) {
	code, err := s.deriveCode(ctx, u)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.SignGuest(map[string]interface{}{
		claimEmail:    u.Email,
		claimUserID:   u.UserID,
		claimUserType: u.UserType,
	}, config.GuestTokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign guest token: %w", err)
	}

	var subject, body string
	switch purpose {
	case PurposeVerify:
		subject = "Verify your account"
		body = fmt.Sprintf("OTP to verify your account %s\nThis otp is valid only for 5 minutes", code)
	case PurposeResetPassword:
		subject = "OTP to confirm your account"
		body = fmt.Sprintf("OTP is %s\nThis otp is valid only for 5 minutes.", code)
	default:
		return "", fmt.Errorf("unknown challenge purpose %q: %w", purpose, domain.ErrBadRequest)
	}

	if err := s.send(u.Email, subject, body); err != nil {
		return "", err
	}
	return token, nil
}

func (s *service) StartChallengeByEmail(ctx context.Context, email string, purpose Purpose) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.StartChallenge(ctx, u, purpose)
}

func (s *service) CompleteVerify(ctx context.Context, guestToken, code string) (*domain.User, error) {
	u, err := s.resolveChallenge(ctx, guestToken, code)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"is_verified":            true,
		"last_verified_identity": now.Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	u.IsVerified = true
	u.LastVerifiedIdentity = &now
	return u, nil
}

func (s *service) CompleteReset(ctx context.Context, guestToken, code string) (string, string, error) {
	u, err := s.resolveChallenge(ctx, guestToken, code)
	if err != nil {
		return "", "", err
	}
	uid := base64.RawURLEncoding.EncodeToString([]byte(u.UserID))
	capability, err := s.tokens.Augment(guestToken, map[string]interface{}{
		claimUID:   uid,
		claimReset: true,
	})
	if err != nil {
		return "", "", err
	}
	return uid, capability, nil
}

func (s *service) SetPassword(ctx context.Context, uid, capability, newPassword string) error {
	payload, err := s.tokens.ParseGuest(capability)
	if err != nil {
		return err
	}
	isReset, _ := payload[claimReset].(bool)
	tokenUID, _ := payload[claimUID].(string)
	if !isReset || tokenUID == "" || tokenUID != uid {
		return fmt.Errorf("token is not a reset capability: %w", domain.ErrInvalidToken)
	}
	rawID, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return fmt.Errorf("malformed uid: %w", domain.ErrBadRequest)
	}
	u, err := s.users.Get(ctx, string(rawID))
	if err != nil {
		return err
	}
	if err := s.setPasswordHash(ctx, u.UserID, newPassword); err != nil {
		return err
	}
	body := "Your password is successfully changed.\nLogin to your account to access your account."
	return s.send(u.Email, "Reset Your Password", body)
}

func (s *service) RequestPasswordChange(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	code, err := s.deriveCode(ctx, u)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("OTP is %s\nThis otp is valid only for 5 minutes.", code)
	return s.send(u.Email, "OTP to confirm your account", body)
}

func (s *service) ConfirmPasswordChange(ctx context.Context, userID, code, newPassword string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !otp.Verify(u.OTPSecret, code, time.Now()) {
		return fmt.Errorf("otp verification failed: %w", domain.ErrOTPMismatch)
	}
	return s.setPasswordHash(ctx, u.UserID, newPassword)
}

// deriveCode returns the currently valid OTP for the user, minting and
// persisting a secret if none exists yet. The set-if-absent write means two
// racing first challenges converge on one secret; the loser adopts the
// winner's and re-derives, so the code it mails still verifies.
func (s *service) deriveCode(ctx context.Context, u *domain.User) (string, error) {
	now := time.Now()
	if u.OTPSecret != "" {
		return otp.GenerateCode(u.OTPSecret, now)
	}
	code, secret, err := otp.GenerateSecretWithCode(now)
	if err != nil {
		return "", err
	}
	stored, err := s.users.SetOTPSecretIfAbsent(ctx, u.UserID, secret)
	if err != nil {
		return "", err
	}
	u.OTPSecret = stored
	if stored != secret {
		return otp.GenerateCode(stored, now)
	}
	return code, nil
}

// resolveChallenge is the shared tail of both complete operations: parse the
// guest token (Expired and InvalidSignature propagate distinctly), resolve
// the user it was issued for, and check the submitted OTP.
func (s *service) resolveChallenge(ctx context.Context, guestToken, code string) (*domain.User, error) {
	payload, err := s.tokens.ParseGuest(guestToken)
	if err != nil {
		return nil, err
	}
	email, _ := payload[claimEmail].(string)
	if email == "" {
		return nil, fmt.Errorf("guest token has no email claim: %w", domain.ErrInvalidToken)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !otp.Verify(u.OTPSecret, code, time.Now()) {
		return nil, fmt.Errorf("otp verification failed: %w", domain.ErrOTPMismatch)
	}
	return u, nil
}

func (s *service) setPasswordHash(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)})
}

// send dispatches mail unless dry-run is on. A mailer failure is a hard
// failure of the enclosing operation — "OTP sent" is only ever reported
// after dispatch (or its dry-run bypass) completed.
func (s *service) send(to, subject, body string) error {
	if s.dryRun {
		slog.Info("dry run: skipping email", "to", to, "subject", subject)
		return nil
	}
	if err := s.mailer.SendEmail(to, subject, body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
