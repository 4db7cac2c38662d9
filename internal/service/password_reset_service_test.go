package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taskhive-api/internal/models"
	appErrors "github.com/noah-isme/taskhive-api/pkg/errors"
)

type fakeResetTokens struct {
	*TokenService
	revokedAll []string
}

func (f *fakeResetTokens) RevokeAllForUser(ctx context.Context, userID string) error {
	f.revokedAll = append(f.revokedAll, userID)
	return f.TokenService.RevokeAllForUser(ctx, userID)
}

type fakeResetMailer struct {
	sent []string
	err  error
}

func (m *fakeResetMailer) SendResetPasswordEmail(email, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func newResetFixture(t *testing.T) (*PasswordResetService, *fakeUserRepo, *fakeResetTokens, *fakeResetMailer) {
	t.Helper()
	repo := newFakeUserRepo()
	tokens := &fakeResetTokens{TokenService: NewTokenService(&fakeTokenRepo{}, repo, nil, testJWTConfig())}
	mailer := &fakeResetMailer{}
	return NewPasswordResetService(repo, tokens, mailer, nil, nil), repo, tokens, mailer
}

func TestSendResetPasswordEmail(t *testing.T) {
	svc, repo, _, mailer := newResetFixture(t)
	repo.add(&models.User{ID: "u1", Email: "user@example.com", TokenVersion: 1})

	require.NoError(t, svc.SendResetPasswordEmail(context.Background(), "user@example.com"))
	assert.Equal(t, []string{"user@example.com"}, mailer.sent)
}

func TestSendResetPasswordEmailPropagatesMailFailure(t *testing.T) {
	svc, repo, _, mailer := newResetFixture(t)
	repo.add(&models.User{ID: "u1", Email: "user@example.com", TokenVersion: 1})
	mailer.err = errors.New("smtp down")

	err := svc.SendResetPasswordEmail(context.Background(), "user@example.com")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestResetPasswordRevokesEverySession(t *testing.T) {
	svc, repo, tokens, _ := newResetFixture(t)
	user := &models.User{ID: "u1", Email: "user@example.com", TokenVersion: 1, PasswordHash: "old"}
	repo.add(user)

	resetToken, err := tokens.CreateResetToken(user)
	require.NoError(t, err)

	err = svc.ResetPassword(context.Background(), resetToken, models.ResetPasswordRequest{Password: "brand-new-password"})
	require.NoError(t, err)

	assert.NotEqual(t, "old", user.PasswordHash)
	assert.Equal(t, 2, user.TokenVersion)
	assert.Equal(t, []string{"u1"}, tokens.revokedAll)
}

func TestResetPasswordRejectsStaleToken(t *testing.T) {
	svc, repo, tokens, _ := newResetFixture(t)
	user := &models.User{ID: "u1", Email: "user@example.com", TokenVersion: 1}
	repo.add(user)

	resetToken, err := tokens.CreateResetToken(user)
	require.NoError(t, err)

	// A later credential change bumps the version, the pinned token no
	// longer matches.
	user.TokenVersion = 2

	err = svc.ResetPassword(context.Background(), resetToken, models.ResetPasswordRequest{Password: "brand-new-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestResetPasswordRejectsGarbageToken(t *testing.T) {
	svc, _, _, _ := newResetFixture(t)

	err := svc.ResetPassword(context.Background(), "not-a-jwt", models.ResetPasswordRequest{Password: "brand-new-password"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
