package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nulljobs-api/internal/application/verification"
	"github.com/nulljobs-api/internal/domain"
	googleinfra "github.com/nulljobs-api/internal/infrastructure/google"
	jwtinfra "github.com/nulljobs-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type mockTokenProvider struct{ mock.Mock }

func (m *mockTokenProvider) IssuePair(u *domain.User) (*domain.TokenPair, error) {
	args := m.Called(u)
	if p, _ := args.Get(0).(*domain.TokenPair); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTokenProvider) ParseRefresh(token string) (*jwtinfra.RefreshClaims, error) {
	args := m.Called(token)
	if c, _ := args.Get(0).(*jwtinfra.RefreshClaims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockDenylist struct{ mock.Mock }

func (m *mockDenylist) Deny(ctx context.Context, d *domain.DeniedToken) error {
	return m.Called(ctx, d).Error(0)
}
func (m *mockDenylist) IsDenied(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

type mockChallenger struct{ mock.Mock }

func (m *mockChallenger) StartChallenge(ctx context.Context, u *domain.User, purpose verification.Purpose) (string, error) {
	args := m.Called(ctx, u, purpose)
	return args.String(0), args.Error(1)
}

type mockGoogleVerifier struct{ mock.Mock }

func (m *mockGoogleVerifier) Verify(ctx context.Context, token string) (*googleinfra.Payload, error) {
	args := m.Called(ctx, token)
	if p, _ := args.Get(0).(*googleinfra.Payload); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

type fixture struct {
	users  *mockUserStore
	tokens *mockTokenProvider
	denied *mockDenylist
	chal   *mockChallenger
	google *mockGoogleVerifier
	svc    Service
}

func newFixture() *fixture {
	f := &fixture{
		users:  &mockUserStore{},
		tokens: &mockTokenProvider{},
		denied: &mockDenylist{},
		chal:   &mockChallenger{},
		google: &mockGoogleVerifier{},
	}
	f.svc = NewService(ServiceDeps{
		UserRepo:     f.users,
		Tokens:       f.tokens,
		Denylist:     f.denied,
		Verification: f.chal,
		Google:       f.google,
	})
	return f
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func sessionUser(t *testing.T, verified bool) *domain.User {
	return &domain.User{
		UserID:       "01HSESS",
		Username:     "dave",
		Email:        "dave@example.com",
		PasswordHash: hashOf(t, "correct-horse"),
		UserType:     domain.UserTypeEmployer,
		IsVerified:   verified,
		Enable:       true,
	}
}

func refreshClaims(userID, jti string) *jwtinfra.RefreshClaims {
	return &jwtinfra.RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
}

// --- Login ---

func TestLogin_VerifiedUserGetsPair(t *testing.T) {
	f := newFixture()
	u := sessionUser(t, true)
	pair := &domain.TokenPair{Access: "a", Refresh: "r"}

	f.users.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	f.tokens.On("IssuePair", u).Return(pair, nil)

	res, err := f.svc.Login(context.Background(), LoginRequest{Email: u.Email, Password: "correct-horse"})
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, pair, res.Tokens)
	assert.Empty(t, res.GuestToken)
	f.chal.AssertNotCalled(t, "StartChallenge", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_UnverifiedUserIsRechallenged(t *testing.T) {
	f := newFixture()
	u := sessionUser(t, false)

	f.users.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	f.chal.On("StartChallenge", mock.Anything, u, verification.PurposeVerify).Return("guest-token", nil)

	res, err := f.svc.Login(context.Background(), LoginRequest{Email: u.Email, Password: "correct-horse"})
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Nil(t, res.Tokens)
	assert.Equal(t, "guest-token", res.GuestToken)
	f.tokens.AssertNotCalled(t, "IssuePair", mock.Anything)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture()
	u := sessionUser(t, true)
	f.users.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: u.Email, Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UnknownEmailIsIndistinguishable(t *testing.T) {
	f := newFixture()
	u := sessionUser(t, true)
	f.users.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	f.users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)

	_, wrongPass := f.svc.Login(context.Background(), LoginRequest{Email: u.Email, Password: "wrong"})
	_, noUser := f.svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "wrong"})

	require.Error(t, wrongPass)
	require.Error(t, noUser)
	// Same message either way, so callers cannot probe which emails exist.
	assert.Equal(t, wrongPass.Error(), noUser.Error())
	assert.ErrorIs(t, noUser, domain.ErrUnauthorized)
}

func TestLogin_DisabledAccount(t *testing.T) {
	f := newFixture()
	u := sessionUser(t, true)
	u.Enable = false
	f.users.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)

	_, err := f.svc.Login(context.Background(), LoginRequest{Email: u.Email, Password: "correct-horse"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// --- Logout ---

func TestLogout_DenylistsToken(t *testing.T) {
	f := newFixture()
	claims := refreshClaims("01HSESS", "jti-1")
	f.tokens.On("ParseRefresh", "refresh").Return(claims, nil)
	f.denied.On("Deny", mock.Anything, mock.MatchedBy(func(d *domain.DeniedToken) bool {
		return d.JTI == "jti-1" && d.UserID == "01HSESS" && d.ExpiresAt == claims.ExpiresAt.Unix()
	})).Return(nil)

	require.NoError(t, f.svc.Logout(context.Background(), "refresh"))
	f.denied.AssertExpectations(t)
}

func TestLogout_BadToken(t *testing.T) {
	f := newFixture()
	f.tokens.On("ParseRefresh", "junk").Return(nil, domain.ErrInvalidToken)

	err := f.svc.Logout(context.Background(), "junk")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- Refresh ---

func TestRefresh_RotatesToken(t *testing.T) {
	f := newFixture()
	u := sessionUser(t, true)
	claims := refreshClaims(u.UserID, "jti-old")
	pair := &domain.TokenPair{Access: "a2", Refresh: "r2"}

	f.tokens.On("ParseRefresh", "old").Return(claims, nil)
	f.denied.On("IsDenied", mock.Anything, "jti-old").Return(false, nil)
	f.users.On("Get", mock.Anything, u.UserID).Return(u, nil)
	f.denied.On("Deny", mock.Anything, mock.MatchedBy(func(d *domain.DeniedToken) bool {
		return d.JTI == "jti-old"
	})).Return(nil)
	f.tokens.On("IssuePair", u).Return(pair, nil)

	got, err := f.svc.Refresh(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, pair, got)
	f.denied.AssertExpectations(t)
}

func TestRefresh_RevokedTokenRejected(t *testing.T) {
	f := newFixture()
	claims := refreshClaims("01HSESS", "jti-used")
	f.tokens.On("ParseRefresh", "used").Return(claims, nil)
	f.denied.On("IsDenied", mock.Anything, "jti-used").Return(true, nil)

	_, err := f.svc.Refresh(context.Background(), "used")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.tokens.AssertNotCalled(t, "IssuePair", mock.Anything)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	f := newFixture()
	f.tokens.On("ParseRefresh", "stale").Return(nil, domain.ErrTokenExpired)

	_, err := f.svc.Refresh(context.Background(), "stale")
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

// --- GoogleLogin ---

func TestGoogleLogin_CreatesUserOnFirstSight(t *testing.T) {
	f := newFixture()
	pair := &domain.TokenPair{Access: "a", Refresh: "r"}

	f.google.On("Verify", mock.Anything, "id-token").Return(&googleinfra.Payload{
		Sub: "google-sub", Email: "eve@example.com", EmailVerified: true, Name: "Eve",
	}, nil)
	f.users.On("GetByEmail", mock.Anything, "eve@example.com").Return(nil, domain.ErrNotFound)
	f.users.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "eve@example.com" &&
			u.AuthProvider == domain.ProviderGoogle &&
			u.IsVerified && u.LastVerifiedIdentity != nil
	})).Return(nil)
	f.tokens.On("IssuePair", mock.Anything).Return(pair, nil)

	got, u, err := f.svc.GoogleLogin(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, pair, got)
	assert.Equal(t, domain.UserTypeJobSeeker, u.UserType)
	f.users.AssertExpectations(t)
}

func TestGoogleLogin_ExistingUserIsRestamped(t *testing.T) {
	f := newFixture()
	u := sessionUser(t, true)
	pair := &domain.TokenPair{Access: "a", Refresh: "r"}

	f.google.On("Verify", mock.Anything, "id-token").Return(&googleinfra.Payload{
		Sub: "google-sub", Email: u.Email, EmailVerified: true, Name: "Dave",
	}, nil)
	f.users.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	f.users.On("Update", mock.Anything, u.UserID, mock.MatchedBy(func(updates map[string]interface{}) bool {
		_, ok := updates["last_verified_identity"]
		return ok
	})).Return(nil)
	f.tokens.On("IssuePair", u).Return(pair, nil)

	_, got, err := f.svc.GoogleLogin(context.Background(), "id-token")
	require.NoError(t, err)
	require.NotNil(t, got.LastVerifiedIdentity)
	f.users.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestGoogleLogin_BadIDToken(t *testing.T) {
	f := newFixture()
	f.google.On("Verify", mock.Anything, "junk").Return(nil, domain.ErrInvalidToken)

	_, _, err := f.svc.GoogleLogin(context.Background(), "junk")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
