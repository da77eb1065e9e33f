// Package mail sends transactional email through SendGrid.
package mail

import (
	"context"
	"fmt"
	"quizhub/internal/model"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type Notifier interface {
	SendWelcome(ctx context.Context, user *model.User) error
}

type SendGridNotifier struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *zap.Logger
}

// New returns a SendGrid notifier, or a no-op notifier when apiKey is empty.
func New(apiKey, from string, logger *zap.Logger) Notifier {
	if apiKey == "" {
		logger.Info("SENDGRID_API_KEY not set, welcome emails disabled")
		return NoopNotifier{}
	}

	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail("QuizHub", from),
		logger: logger,
	}
}

func (n *SendGridNotifier) SendWelcome(ctx context.Context, user *model.User) error {
	message := WelcomeMessage(n.from, user)

	resp, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending welcome email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sending welcome email: sendgrid status %d", resp.StatusCode)
	}

	n.logger.Debug("welcome email sent", zap.String("user_id", user.ID), zap.Int("status", resp.StatusCode))
	return nil
}

func WelcomeMessage(from *sgmail.Email, user *model.User) *sgmail.SGMailV3 {
	to := sgmail.NewEmail(user.Name, user.Email)
	subject := "Welcome to QuizHub"

	plain := fmt.Sprintf("Hi %s,\n\nyour QuizHub account %q is ready. Have fun with the quizzes!", user.Name, user.Username)
	html := fmt.Sprintf("<p>Hi %s,</p><p>your QuizHub account <strong>%s</strong> is ready. Have fun with the quizzes!</p>",
		user.Name, user.Username)

	return sgmail.NewSingleEmail(from, subject, to, plain, html)
}

type NoopNotifier struct{}

func (NoopNotifier) SendWelcome(context.Context, *model.User) error {
	return nil
}
