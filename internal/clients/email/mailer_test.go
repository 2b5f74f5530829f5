package email

import (
	"bytes"
	"context"
	"testing"

	"github.com/maxaizer/jobalert/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type mockDialer struct {
	mock.Mock
}

func (m *mockDialer) DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error {
	return m.Called(ctx, messages).Error(0)
}

func Test_NewMailer_RequiresHost(t *testing.T) {
	_, err := NewMailer(config.MailConfig{Port: 465, Username: "bot@example.com", Password: "secret"})
	assert.Error(t, err)

	mailer, err := NewMailer(config.MailConfig{Host: "smtp.example.com", Port: 465,
		Username: "bot@example.com", Password: "secret", Sender: "alerts@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "alerts@example.com", mailer.from)
}

func Test_Mailer_Send_BuildsPlainTextMessage(t *testing.T) {
	client := &mockDialer{}
	var sent []*mail.Msg
	client.On("DialAndSendWithContext", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).([]*mail.Msg) }).
		Return(nil).Once()

	mailer := &Mailer{client: client, from: "alerts@example.com"}
	err := mailer.Send(context.Background(), "ann@example.com", "2 New Job(s) Matching Your Preferences", "Company: Acme")
	require.NoError(t, err)
	require.Len(t, sent, 1)

	var buf bytes.Buffer
	_, err = sent[0].WriteTo(&buf)
	require.NoError(t, err)

	rendered := buf.String()
	assert.Contains(t, rendered, "Subject: 2 New Job(s) Matching Your Preferences")
	assert.Contains(t, rendered, "<ann@example.com>")
	assert.Contains(t, rendered, "<alerts@example.com>")
	assert.Contains(t, rendered, "Company: Acme")
}

func Test_Mailer_Send_RejectsInvalidRecipient(t *testing.T) {
	client := &mockDialer{}
	mailer := &Mailer{client: client, from: "alerts@example.com"}

	err := mailer.Send(context.Background(), "not an address", "subject", "body")
	assert.Error(t, err)
	client.AssertNotCalled(t, "DialAndSendWithContext", mock.Anything, mock.Anything)
}

func Test_Mailer_Send_PropagatesTransportError(t *testing.T) {
	client := &mockDialer{}
	client.On("DialAndSendWithContext", mock.Anything, mock.Anything).Return(assert.AnError)
	mailer := &Mailer{client: client, from: "alerts@example.com"}

	err := mailer.Send(context.Background(), "ann@example.com", "subject", "body")
	assert.ErrorIs(t, err, assert.AnError)
}
