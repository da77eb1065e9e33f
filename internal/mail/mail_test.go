package mail

import (
	"context"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quizhub/internal/model"
)

func TestNewWithoutKeyIsNoop(t *testing.T) {
	n := New("", "no-reply@quizhub.local", zap.NewNop())

	_, ok := n.(NoopNotifier)
	require.True(t, ok)
	assert.NoError(t, n.SendWelcome(context.Background(), &model.User{Email: "a@example.com"}))
}

func TestNewWithKey(t *testing.T) {
	n := New("SG.test", "no-reply@quizhub.local", zap.NewNop())

	sg, ok := n.(*SendGridNotifier)
	require.True(t, ok)
	assert.Equal(t, "no-reply@quizhub.local", sg.from.Address)
}

func TestWelcomeMessage(t *testing.T) {
	from := sgmail.NewEmail("QuizHub", "no-reply@quizhub.local")
	user := &model.User{Name: "Ada", Username: "ada_l", Email: "ada@example.com"}

	msg := WelcomeMessage(from, user)

	assert.Equal(t, "Welcome to QuizHub", msg.Subject)
	require.Len(t, msg.Personalizations, 1)
	require.Len(t, msg.Personalizations[0].To, 1)
	assert.Equal(t, "ada@example.com", msg.Personalizations[0].To[0].Address)
	require.Len(t, msg.Content, 2)
	assert.Contains(t, msg.Content[1].Value, "<strong>ada_l</strong>")
}
