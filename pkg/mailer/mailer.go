package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/autopartsvn/backend/pkg/config"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
	"github.com/autopartsvn/backend/pkg/logger"
)

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, plainText string) error
}

// SendGridMailer delivers mail through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *logger.Logger
}

// NewSendGrid builds a SendGrid-backed Mailer from config.
func NewSendGrid(cfg config.SendgridConfig, logg *logger.Logger) (*SendGridMailer, error) {
	if logg == nil {
		return nil, errors.New("mailer logger is required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, errors.New("sendgrid from address is required")
	}

	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("AutoParts", from),
		logger: logg,
	}, nil
}

// Send delivers a plain-text message to a single recipient.
func (m *SendGridMailer) Send(ctx context.Context, to, subject, plainText string) error {
	if strings.TrimSpace(to) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient address is required")
	}

	message := mail.NewSingleEmailPlainText(m.from, subject, mail.NewEmail("", to), plainText)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending email")
	}
	if resp.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("email provider returned status %d", resp.StatusCode))
	}

	m.logger.Info(m.logger.WithField(ctx, "email_subject", subject), "email dispatched")
	return nil
}
