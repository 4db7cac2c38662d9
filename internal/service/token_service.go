package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/taskhive-api/internal/models"
	"github.com/noah-isme/taskhive-api/pkg/config"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/hash"
)

type tokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindActiveBySession(ctx context.Context, userID, sessionID string) (*models.RefreshToken, error)
	RevokeSession(ctx context.Context, userID, sessionID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type tokenUserLoader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// TokenService mints and verifies the three token kinds: signed access
// tokens, opaque rotating refresh tokens and signed reset tokens.
type TokenService struct {
	repo   tokenRepository
	users  tokenUserLoader
	logger *zap.Logger
	config config.JWTConfig
}

// NewTokenService constructs a TokenService.
func NewTokenService(repo tokenRepository, users tokenUserLoader, logger *zap.Logger, cfg config.JWTConfig) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{repo: repo, users: users, logger: logger, config: cfg}
}

// CreateAccessToken signs a short-lived access token carrying identity,
// session and the user's current token version.
func (s *TokenService) CreateAccessToken(user *models.User, sessionID string) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.AccessClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		SessionID:    sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// CreateRefreshToken mints a random opaque secret for the session, stores
// only its bcrypt hash and returns the raw value for the client.
func (s *TokenService) CreateRefreshToken(ctx context.Context, userID, sessionID string) (string, error) {
	raw, err := randomSecret()
	if err != nil {
		return "", fmt.Errorf("generate refresh secret: %w", err)
	}

	digest, err := hash.Hash(raw)
	if err != nil {
		return "", fmt.Errorf("hash refresh secret: %w", err)
	}

	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: digest,
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(s.config.RefreshExpiry),
	}
	if err := s.repo.Create(ctx, token); err != nil {
		return "", err
	}
	return raw, nil
}

// VerifyRefreshToken checks the raw secret against the newest active row for
// the session. Absence or a hash mismatch is Unauthorized.
func (s *TokenService) VerifyRefreshToken(ctx context.Context, userID, raw, sessionID string) error {
	stored, err := s.repo.FindActiveBySession(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "no active session token")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refresh token")
	}

	if !hash.Compare(raw, stored.TokenHash) {
		return appErrors.Clone(appErrors.ErrUnauthorized, "refresh token mismatch")
	}
	return nil
}

// RevokePreviousTokens marks all active rows for the session revoked,
// keeping a single active token per session.
func (s *TokenService) RevokePreviousTokens(ctx context.Context, userID, sessionID string) error {
	if err := s.repo.RevokeSession(ctx, userID, sessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session tokens")
	}
	return nil
}

// RevokeAllForUser revokes every session's tokens, forcing re-login
// everywhere. Used after a password reset.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke user tokens")
	}
	return nil
}

// IssuePair revokes any previous token for the session and mints a fresh
// access/refresh pair.
func (s *TokenService) IssuePair(ctx context.Context, user *models.User, sessionID string) (models.TokenPair, error) {
	if err := s.RevokePreviousTokens(ctx, user.ID, sessionID); err != nil {
		return models.TokenPair{}, err
	}

	access, err := s.CreateAccessToken(user, sessionID)
	if err != nil {
		return models.TokenPair{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refresh, err := s.CreateRefreshToken(ctx, user.ID, sessionID)
	if err != nil {
		return models.TokenPair{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate exchanges a valid refresh secret for a new token pair. The old
// token is revoked only after it has been verified and the user reloaded,
// and before the replacement is minted.
func (s *TokenService) Rotate(ctx context.Context, userID, raw, sessionID string) (models.TokenPair, error) {
	if err := s.VerifyRefreshToken(ctx, userID, raw, sessionID); err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TokenPair{}, appErrors.Clone(appErrors.ErrUnauthorized, "associated user no longer exists")
		}
		return models.TokenPair{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	access, err := s.CreateAccessToken(user, sessionID)
	if err != nil {
		return models.TokenPair{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	if err := s.RevokePreviousTokens(ctx, userID, sessionID); err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := s.CreateRefreshToken(ctx, userID, sessionID)
	if err != nil {
		return models.TokenPair{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// CreateResetToken signs a reset token pinned to the user's current token
// version under the dedicated reset secret.
func (s *TokenService) CreateResetToken(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.ResetClaims{
		UserID:       user.ID,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.ResetExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.ResetSecret))
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// VerifyResetToken validates a reset token's signature and expiry.
func (s *TokenService) VerifyResetToken(tokenString string) (*models.ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.ResetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.ResetSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid reset token")
	}

	claims, ok := token.Claims.(*models.ResetClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid reset token claims")
	}
	return claims, nil
}

// ValidateAccessToken parses and validates an access token.
func (s *TokenService) ValidateAccessToken(tokenString string) (*models.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// DecodeAccessToken structurally decodes an access token without verifying
// signature or expiry. The refresh endpoint uses it to recover the session
// identity from an already expired access cookie.
func (s *TokenService) DecodeAccessToken(tokenString string) (userID, sessionID string, err error) {
	claims := &models.AccessClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "malformed access token")
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return "", "", appErrors.Clone(appErrors.ErrUnauthorized, "access token missing session identity")
	}
	return claims.UserID, claims.SessionID, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
