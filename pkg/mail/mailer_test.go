package mail

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/gomail.v2"
)

type captureSender struct {
	messages []*gomail.Message
	err      error
}

func (s *captureSender) DialAndSend(m ...*gomail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, m...)
	return nil
}

func TestSendVerificationEmail(t *testing.T) {
	sender := &captureSender{}
	mailer := NewWithSender(sender, "noreply@taskhive.dev", "https://app.taskhive.dev", nil)

	err := mailer.SendVerificationEmail("user@example.com", "tok-123")
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, []string{"user@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Verify your email"}, msg.GetHeader("Subject"))
}

func TestSendResetPasswordEmailPropagatesFailure(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp down")}
	mailer := NewWithSender(sender, "noreply@taskhive.dev", "https://app.taskhive.dev", nil)

	err := mailer.SendResetPasswordEmail("user@example.com", "tok-456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user@example.com")
}
