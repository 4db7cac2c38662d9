package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taskhive-api/pkg/config"
)

type fakeTokenSweeper struct {
	swept int64
	err   error
	calls int
}

func (s *fakeTokenSweeper) DeleteExpiredOrRevoked(_ context.Context, _ time.Time) (int64, error) {
	s.calls++
	return s.swept, s.err
}

type fakeUserSweeper struct {
	swept  int64
	err    error
	cutoff time.Time
	calls  int
}

func (s *fakeUserSweeper) DeleteStaleUnverified(_ context.Context, cutoff time.Time) (int64, error) {
	s.calls++
	s.cutoff = cutoff
	return s.swept, s.err
}

func TestCleanupRunOnce(t *testing.T) {
	tokens := &fakeTokenSweeper{swept: 5}
	users := &fakeUserSweeper{swept: 2}
	cfg := config.CleanupConfig{Interval: time.Hour, UnverifiedRetention: 72 * time.Hour}
	svc := NewCleanupService(tokens, users, nil, nil, cfg)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Equal(t, 1, tokens.calls)
	assert.Equal(t, 1, users.calls)

	// Stale-user cutoff trails now by the retention window.
	expected := time.Now().UTC().Add(-cfg.UnverifiedRetention)
	assert.WithinDuration(t, expected, users.cutoff, time.Minute)
}

func TestCleanupTokenSweepFailureAbortsRun(t *testing.T) {
	tokens := &fakeTokenSweeper{err: errors.New("db down")}
	users := &fakeUserSweeper{}
	svc := NewCleanupService(tokens, users, nil, nil, config.CleanupConfig{})

	require.Error(t, svc.RunOnce(context.Background()))
	assert.Zero(t, users.calls)
}

func TestCleanupUserSweepFailure(t *testing.T) {
	tokens := &fakeTokenSweeper{}
	users := &fakeUserSweeper{err: errors.New("db down")}
	svc := NewCleanupService(tokens, users, nil, nil, config.CleanupConfig{})

	require.Error(t, svc.RunOnce(context.Background()))
	assert.Equal(t, 1, tokens.calls)
}
