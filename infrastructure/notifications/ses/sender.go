package ses

import (
	"context"
	"strings"

	"automation-backend/application/ports"
	pkgerrors "automation-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

// SendEmailAPI is the subset of the SES client the sender uses
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Sender delivers notifications as plain-text email through SES
type Sender struct {
	client SendEmailAPI
	from   string
	logger *zap.Logger
}

// NewSender creates a new SES sender
func NewSender(client SendEmailAPI, from string, logger *zap.Logger) *Sender {
	return &Sender{
		client: client,
		from:   from,
		logger: logger,
	}
}

var _ ports.NotificationSender = (*Sender)(nil)

// Send emails a single notification
func (s *Sender) Send(ctx context.Context, notification ports.Notification) error {
	if strings.TrimSpace(notification.To) == "" {
		return pkgerrors.NewValidationError("notification has no recipient")
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{notification.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(notification.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(notification.Body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("Failed to send email",
			zap.Error(err),
			zap.String("to", notification.To),
			zap.String("subject", notification.Subject),
		)
		return pkgerrors.NewExternalError("ses", err)
	}

	s.logger.Info("Email sent",
		zap.String("to", notification.To),
		zap.String("subject", notification.Subject),
		zap.String("messageId", aws.ToString(result.MessageId)),
	)
	return nil
}
