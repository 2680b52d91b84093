package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// sesAPI часть клиента SES, которую мы используем
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SES отправляет письма через AWS SES
type SES struct {
	client     sesAPI
	from       string
	recipients []string
}

// NewSES создает SES notifier с учетными данными из стандартной цепочки AWS
func NewSES(ctx context.Context, region, from string, recipients []string) (*SES, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSESWithClient(ses.NewFromConfig(cfg), from, recipients), nil
}

func newSESWithClient(client sesAPI, from string, recipients []string) *SES {
	return &SES{client: client, from: from, recipients: recipients}
}

// Name возвращает имя канала
func (s *SES) Name() string { return "ses" }

// Notify отправляет письмо адресатам msg.To, а если их нет, то списку команды
func (s *SES) Notify(ctx context.Context, msg Message) error {
	to := msg.To
	if len(to) == 0 {
		to = s.recipients
	}
	if len(to) == 0 {
		return nil
	}

	subject := msg.Subject
	if subject == "" {
		subject = "Member CRM notification"
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: to},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}
