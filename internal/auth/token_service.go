package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// UserStore captures the credential-store operations the token service needs.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	UpdateRefreshToken(ctx context.Context, id, token string) error
	SwapRefreshToken(ctx context.Context, id, old, new string) error
}

// Manager mints and validates the two bearer token classes. Access tokens are
// short-lived HS256 JWTs carrying the public identity; refresh tokens are
// longer-lived HS256 JWTs carrying only the user id, signed with a separate
// secret, and bound one-per-user on the user record.
type Manager struct {
	users UserStore

	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	now func() time.Time
}

// NewManager constructs a Manager issuing tokens with the provided secrets
// and TTLs, persisting refresh tokens through the provided store.
func NewManager(users UserStore, accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Manager {
	if users == nil {
		panic("auth: user store must not be nil")
	}
	return &Manager{
		users:         users,
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Issue loads the user and mints a fresh access/refresh pair, storing the new
// refresh token on the user record. The overwrite is unconditional: logging in
// invalidates every other outstanding session for the user.
func (m *Manager) Issue(ctx context.Context, userID string) (models.SessionTokens, error) {
	if userID == "" {
		return models.SessionTokens{}, apperrors.Validation("user id must be provided")
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, apperrors.NotFound("user not found")
		}
		return models.SessionTokens{}, apperrors.Internal(err)
	}

	tokens, err := m.mintPair(user)
	if err != nil {
		return models.SessionTokens{}, apperrors.Internal(err)
	}

	if err := m.users.UpdateRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return models.SessionTokens{}, apperrors.Internal(err)
	}

	return tokens, nil
}

// Rotate exchanges a presented refresh token for a fresh pair. The presented
// token must verify against the refresh secret and exactly equal the token
// currently stored on the user record; the overwrite is a compare-and-swap on
// that stored value, so of two concurrent rotations only one can succeed.
func (m *Manager) Rotate(ctx context.Context, presented string) (models.SessionTokens, error) {
	if presented == "" {
		return models.SessionTokens{}, apperrors.Unauthorized("refresh token is required")
	}

	userID, err := m.verifyRefresh(presented)
	if err != nil {
		return models.SessionTokens{}, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, apperrors.Unauthorized("invalid refresh token")
		}
		return models.SessionTokens{}, apperrors.Internal(err)
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return models.SessionTokens{}, apperrors.Unauthorized("refresh token expired or used")
	}

	tokens, err := m.mintPair(user)
	if err != nil {
		return models.SessionTokens{}, apperrors.Internal(err)
	}

	if err := m.users.SwapRefreshToken(ctx, user.ID, presented, tokens.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, apperrors.Unauthorized("refresh token expired or used")
		}
		return models.SessionTokens{}, apperrors.Internal(err)
	}

	return tokens, nil
}

// Revoke clears the stored refresh token for the user, ending their session.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.users.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// VerifyAccess validates an access token and returns the embedded identity.
// Every verification failure collapses into the same unauthorized error so
// callers cannot distinguish malformed from expired tokens.
func (m *Manager) VerifyAccess(token string) (Identity, error) {
	claims, err := m.parse(token, m.accessSecret)
	if err != nil {
		return Identity{}, apperrors.Unauthorized("invalid access token")
	}

	identity := Identity{
		ID:       stringClaim(claims, "sub"),
		Email:    stringClaim(claims, "email"),
		UserName: stringClaim(claims, "userName"),
		FullName: stringClaim(claims, "fullName"),
	}
	if identity.ID == "" {
		return Identity{}, apperrors.Unauthorized("invalid access token")
	}

	return identity, nil
}

func (m *Manager) mintPair(user models.User) (models.SessionTokens, error) {
	now := m.now()
	accessExpiry := now.Add(m.accessTTL)
	refreshExpiry := now.Add(m.refreshTTL)

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"userName": user.UserName,
		"fullName": user.FullName,
		"iat":      now.Unix(),
		"exp":      accessExpiry.Unix(),
	}).SignedString(m.accessSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	// The jti keeps every minted refresh token distinct, even within the
	// one-second claim resolution; rotation compares tokens byte-for-byte.
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": refreshExpiry.Unix(),
	}).SignedString(m.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

func (m *Manager) verifyRefresh(token string) (string, error) {
	claims, err := m.parse(token, m.refreshSecret)
	if err != nil {
		return "", err
	}
	userID := stringClaim(claims, "sub")
	if userID == "" {
		return "", errors.New("refresh token missing subject")
	}
	return userID, nil
}

func (m *Manager) parse(token string, secret []byte) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	value, _ := claims[key].(string)
	return value
}
