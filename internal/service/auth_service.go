package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/taskhive-api/internal/models"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/hash"
)

type authUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDAndVersion(ctx context.Context, id string, version int) (*models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.User, error)
	MarkVerified(ctx context.Context, token string) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type sessionTokenIssuer interface {
	IssuePair(ctx context.Context, user *models.User, sessionID string) (models.TokenPair, error)
	RevokePreviousTokens(ctx context.Context, userID, sessionID string) error
}

type verificationMailer interface {
	SendVerificationEmail(email, token string) error
}

type captchaVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, response string) error
}

// AuthSession is what signup and login hand back to the transport layer: the
// issued pair plus the session id the pair is bound to.
type AuthSession struct {
	User      models.UserInfo
	Tokens    models.TokenPair
	SessionID string
}

// AuthService implements signup, login, logout, verification and account
// deletion.
type AuthService struct {
	repo      authUserRepository
	tokens    sessionTokenIssuer
	mailer    verificationMailer
	captcha   captchaVerifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(repo authUserRepository, tokens sessionTokenIssuer, mailer verificationMailer, captcha captchaVerifier, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, tokens: tokens, mailer: mailer, captcha: captcha, validator: validate, logger: logger}
}

// Signup registers a new unverified account and issues its first session.
// The verification email is best-effort: a delivery failure is logged and
// the signup still succeeds.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*AuthSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid signup payload")
	}

	if s.captcha != nil && s.captcha.Enabled() {
		if err := s.captcha.Verify(ctx, req.CaptchaResponse); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	passwordHash, err := hash.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	verificationToken := uuid.NewString()
	user := &models.User{
		Email:             req.Email,
		Username:          req.Username,
		PasswordHash:      passwordHash,
		TokenVersion:      1,
		IsVerified:        false,
		VerificationToken: &verificationToken,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	if s.mailer != nil {
		if err := s.mailer.SendVerificationEmail(user.Email, verificationToken); err != nil {
			s.logger.Warn("verification email failed", zap.String("email", user.Email), zap.Error(err))
		}
	}

	sessionID := uuid.NewString()
	pair, err := s.tokens.IssuePair(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}

	return &AuthSession{User: user.Info(), Tokens: pair, SessionID: sessionID}, nil
}

// Login authenticates by email and password and issues a new session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*AuthSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !hash.Compare(req.Password, user.PasswordHash) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	sessionID := uuid.NewString()
	pair, err := s.tokens.IssuePair(ctx, user, sessionID)
	if err != nil {
		return nil, err
	}

	return &AuthSession{User: user.Info(), Tokens: pair, SessionID: sessionID}, nil
}

// ResendVerificationEmail re-sends the outstanding verification link.
// Conflict when the account is already verified, NotFound when there is no
// outstanding token to resend.
func (s *AuthService) ResendVerificationEmail(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if user.IsVerified {
		return appErrors.Clone(appErrors.ErrConflict, "email already verified")
	}
	if user.VerificationToken == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "no outstanding verification token")
	}

	if err := s.mailer.SendVerificationEmail(user.Email, *user.VerificationToken); err != nil {
		s.logger.Warn("verification email failed", zap.String("email", user.Email), zap.Error(err))
	}
	return nil
}

// VerifyEmail redeems a single-use verification token. A second call with
// the same token matches nothing and yields NotFound.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*models.UserInfo, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "verification token required")
	}

	user, err := s.repo.MarkVerified(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "verification token not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify email")
	}

	info := user.Info()
	return &info, nil
}

// Logout revokes the refresh tokens of one session; other sessions stay
// valid for multi-device use.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	return s.tokens.RevokePreviousTokens(ctx, userID, sessionID)
}

// GetAccountInfo returns the public projection of the user.
func (s *AuthService) GetAccountInfo(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	info := user.Info()
	return &info, nil
}

// DeleteUser removes the account.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	return nil
}

// FindUserBy looks a user up by id (optionally pinned to a token version),
// email or verification token.
func (s *AuthService) FindUserBy(ctx context.Context, query models.UserQuery) (*models.User, error) {
	var (
		user *models.User
		err  error
	)

	switch {
	case query.ID != "" && query.TokenVersion != nil:
		user, err = s.repo.FindByIDAndVersion(ctx, query.ID, *query.TokenVersion)
	case query.ID != "":
		user, err = s.repo.FindByID(ctx, query.ID)
	case query.Email != "":
		user, err = s.repo.FindByEmail(ctx, query.Email)
	case query.VerificationToken != "":
		user, err = s.repo.FindByVerificationToken(ctx, query.VerificationToken)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty user query")
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	return user, nil
}
