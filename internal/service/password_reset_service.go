package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/taskhive-api/internal/models"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/hash"
)

type resetUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByIDAndVersion(ctx context.Context, id string, version int) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type resetTokenService interface {
	CreateResetToken(user *models.User) (string, error)
	VerifyResetToken(token string) (*models.ResetClaims, error)
	RevokeAllForUser(ctx context.Context, userID string) error
}

type resetMailer interface {
	SendResetPasswordEmail(email, token string) error
}

// PasswordResetService implements the forgot/reset password flows. Unlike
// the verification email, a reset mail failure propagates to the caller:
// silently dropping it would lock the user out of recovery.
type PasswordResetService struct {
	repo      resetUserRepository
	tokens    resetTokenService
	mailer    resetMailer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(repo resetUserRepository, tokens resetTokenService, mailer resetMailer, validate *validator.Validate, logger *zap.Logger) *PasswordResetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordResetService{repo: repo, tokens: tokens, mailer: mailer, validator: validate, logger: logger}
}

// SendResetPasswordEmail mints a version-pinned reset token and mails it.
func (s *PasswordResetService) SendResetPasswordEmail(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	token, err := s.tokens.CreateResetToken(user)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reset token")
	}

	if err := s.mailer.SendResetPasswordEmail(user.Email, token); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send reset email")
	}
	return nil
}

// ResetPassword redeems a reset token and replaces the password. The token's
// pinned version must still match the user's current version, so a link
// issued before another credential change is rejected. The password update
// bumps the version and every refresh token is revoked.
func (s *PasswordResetService) ResetPassword(ctx context.Context, resetToken string, req models.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset payload")
	}

	claims, err := s.tokens.VerifyResetToken(resetToken)
	if err != nil {
		return err
	}

	user, err := s.repo.FindByIDAndVersion(ctx, claims.UserID, claims.TokenVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "reset token no longer valid")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	passwordHash, err := hash.Hash(req.Password)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}

	if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return err
	}
	return nil
}
