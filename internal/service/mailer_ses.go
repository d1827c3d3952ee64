package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go_course_progress/internal/config"
	"go_course_progress/internal/middleware"
	"go_course_progress/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesSender は sesv2.Client のうち送信に使う部分
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer は証明書通知を AWS SES で送る。HTML があればテキストと併せて送る
type SESMailer struct {
	client sesSender
	cfg    config.SESConfig
}

// NewSESMailer は auth_type に応じて認証情報の取得方法を切り替える
func NewSESMailer(ctx context.Context, cfg *config.SESConfig) (*SESMailer, error) {
	if cfg.From == "" {
		return nil, errors.New("NewSESMailer: ses.from is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}

	switch cfg.AuthType {
	case "static_credentials":
		if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
			return nil, errors.New("NewSESMailer: access_key_id and secret_access_key are required for static_credentials")
		}
		slog.Info("Configuring SES with static credentials.")
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	case "iam_role":
		// ECS タスクロールなど、SDK の既定の探索に任せる
		slog.Info("Configuring SES with IAM Role credentials.")
	default:
		slog.Warn("Unknown SES auth_type specified, defaulting to IAM Role.", "type", cfg.AuthType)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewSESMailer: load aws config: %w", err)
	}
	return newSESMailerWithClient(sesv2.NewFromConfig(awsCfg), *cfg), nil
}

func newSESMailerWithClient(client sesSender, cfg config.SESConfig) *SESMailer {
	return &SESMailer{client: client, cfg: cfg}
}

func (m *SESMailer) Send(ctx context.Context, msg model.MailMessage) error {
	logger := middleware.GetLogger(ctx)

	input := m.buildInput(msg)
	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		logger.Error("Failed to send email via SES", "error", err, "to", msg.To, "category", msg.Tags["category"])
		return fmt.Errorf("SESMailer.Send: %w", err)
	}

	logger.Info("Email sent successfully via SES", "to", msg.To, "subject", msg.Subject, "message_id", aws.ToString(out.MessageId))
	return nil
}

func (m *SESMailer) buildInput(msg model.MailMessage) *sesv2.SendEmailInput {
	body := &types.Body{
		Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
	}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.cfg.From),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	if m.cfg.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(m.cfg.ConfigurationSet)
	}

	// タグは名前順にして送信内容を安定させる
	names := make([]string, 0, len(msg.Tags))
	for name := range msg.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		input.EmailTags = append(input.EmailTags, types.MessageTag{
			Name:  aws.String(name),
			Value: aws.String(msg.Tags[name]),
		})
	}
	return input
}
