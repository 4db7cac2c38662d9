package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taskhive-api/internal/models"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
	"github.com/noah-isme/taskhive-api/pkg/hash"
)

type fakeUserRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	deleted []string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (r *fakeUserRepo) add(user *models.User) {
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "generated-" + user.Email
	}
	user.CreatedAt = time.Now()
	r.add(user)
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := r.byID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) FindByIDAndVersion(_ context.Context, id string, version int) (*models.User, error) {
	if user, ok := r.byID[id]; ok && user.TokenVersion == version {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) FindByVerificationToken(_ context.Context, token string) (*models.User, error) {
	for _, user := range r.byID {
		if user.VerificationToken != nil && *user.VerificationToken == token {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) MarkVerified(_ context.Context, token string) (*models.User, error) {
	for _, user := range r.byID {
		if user.VerificationToken != nil && *user.VerificationToken == token {
			user.IsVerified = true
			user.VerificationToken = nil
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := r.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	user.TokenVersion++
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	user, ok := r.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	delete(r.byID, id)
	delete(r.byEmail, user.Email)
	r.deleted = append(r.deleted, id)
	return nil
}

type fakeIssuer struct {
	issued   int
	revoked  []string
	issueErr error
}

func (i *fakeIssuer) IssuePair(_ context.Context, _ *models.User, _ string) (models.TokenPair, error) {
	if i.issueErr != nil {
		return models.TokenPair{}, i.issueErr
	}
	i.issued++
	return models.TokenPair{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (i *fakeIssuer) RevokePreviousTokens(_ context.Context, userID, sessionID string) error {
	i.revoked = append(i.revoked, userID+"/"+sessionID)
	return nil
}

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendVerificationEmail(email, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func signupRequest() models.SignupRequest {
	return models.SignupRequest{Email: "new@example.com", Username: "newuser", Password: "s3cretpass"}
}

func TestSignupCreatesUnverifiedUser(t *testing.T) {
	repo := newFakeUserRepo()
	issuer := &fakeIssuer{}
	mailer := &fakeMailer{}
	svc := NewAuthService(repo, issuer, mailer, nil, nil, nil)

	session, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	user := repo.byEmail["new@example.com"]
	require.NotNil(t, user)
	assert.False(t, user.IsVerified)
	assert.Equal(t, 1, user.TokenVersion)
	require.NotNil(t, user.VerificationToken)

	assert.Equal(t, []string{"new@example.com"}, mailer.sent)
	assert.Equal(t, 1, issuer.issued)
	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, "access", session.Tokens.AccessToken)
}

func TestSignupSurvivesMailFailure(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, &fakeIssuer{}, &fakeMailer{err: errors.New("smtp down")}, nil, nil, nil)

	_, err := svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)
	assert.NotNil(t, repo.byEmail["new@example.com"])
}

func TestSignupDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(&models.User{ID: "u1", Email: "new@example.com"})
	svc := NewAuthService(repo, &fakeIssuer{}, &fakeMailer{}, nil, nil, nil)

	_, err := svc.Signup(context.Background(), signupRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLoginWrongPassword(t *testing.T) {
	digest, err := hash.Hash("correct-password")
	require.NoError(t, err)

	repo := newFakeUserRepo()
	repo.add(&models.User{ID: "u1", Email: "user@example.com", PasswordHash: digest, TokenVersion: 1})
	svc := NewAuthService(repo, &fakeIssuer{}, &fakeMailer{}, nil, nil, nil)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), &fakeIssuer{}, &fakeMailer{}, nil, nil, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLoginIssuesFreshSession(t *testing.T) {
	digest, err := hash.Hash("correct-password")
	require.NoError(t, err)

	repo := newFakeUserRepo()
	repo.add(&models.User{ID: "u1", Email: "user@example.com", PasswordHash: digest, TokenVersion: 1})
	issuer := &fakeIssuer{}
	svc := NewAuthService(repo, issuer, &fakeMailer{}, nil, nil, nil)

	first, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "correct-password"})
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), models.LoginRequest{Email: "user@example.com", Password: "correct-password"})
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, 2, issuer.issued)
}

func TestVerifyEmailSingleUse(t *testing.T) {
	token := "verify-me"
	repo := newFakeUserRepo()
	repo.add(&models.User{ID: "u1", Email: "user@example.com", VerificationToken: &token})
	svc := NewAuthService(repo, &fakeIssuer{}, &fakeMailer{}, nil, nil, nil)

	info, err := svc.VerifyEmail(context.Background(), "verify-me")
	require.NoError(t, err)
	assert.True(t, info.IsVerified)

	_, err = svc.VerifyEmail(context.Background(), "verify-me")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResendVerificationAlreadyVerified(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(&models.User{ID: "u1", Email: "user@example.com", IsVerified: true})
	svc := NewAuthService(repo, &fakeIssuer{}, &fakeMailer{}, nil, nil, nil)

	err := svc.ResendVerificationEmail(context.Background(), "user@example.com")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLogoutRevokesOnlyOneSession(t *testing.T) {
	issuer := &fakeIssuer{}
	svc := NewAuthService(newFakeUserRepo(), issuer, &fakeMailer{}, nil, nil, nil)

	require.NoError(t, svc.Logout(context.Background(), "u1", "s1"))
	assert.Equal(t, []string{"u1/s1"}, issuer.revoked)
}

func TestDeleteUser(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add(&models.User{ID: "u1", Email: "user@example.com"})
	svc := NewAuthService(repo, &fakeIssuer{}, &fakeMailer{}, nil, nil, nil)

	require.NoError(t, svc.DeleteUser(context.Background(), "u1"))
	assert.Equal(t, []string{"u1"}, repo.deleted)

	err := svc.DeleteUser(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
