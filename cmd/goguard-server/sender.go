package main

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// otpSender delivers codes and messages. Email and WhatsApp providers live
// outside this server; logSender stands in for them.
type otpSender interface {
	SendEmail(ctx context.Context, email, code string) error
	SendSMS(ctx context.Context, phone, code string) error
	SendWhatsApp(ctx context.Context, phone, message string) error
}

func newSender(ctx context.Context, cfg serverConfig, logger *slog.Logger) (otpSender, error) {
	switch cfg.SMSProvider {
	case "", "log":
		return logSender{logger: logger}, nil
	case "sns":
		return newSNSSender(ctx, cfg.SNSRegion, logger)
	default:
		return nil, fmt.Errorf("unsupported SMS_PROVIDER %q", cfg.SMSProvider)
	}
}

type logSender struct {
	logger *slog.Logger
}

func (s logSender) SendEmail(ctx context.Context, email, _ string) error {
	s.logger.InfoContext(ctx, "otp email queued", "email", email)
	return nil
}

func (s logSender) SendSMS(ctx context.Context, phone, _ string) error {
	s.logger.InfoContext(ctx, "otp sms queued", "phone", phone)
	return nil
}

func (s logSender) SendWhatsApp(ctx context.Context, phone, message string) error {
	s.logger.InfoContext(ctx, "whatsapp message queued", "phone", phone, "length", len(message))
	return nil
}

// snsPublisher is the subset of the SNS client used for SMS.
type snsPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// snsSender sends phone codes through AWS SNS and logs everything else.
type snsSender struct {
	logSender
	client snsPublisher
}

func newSNSSender(ctx context.Context, region string, logger *slog.Logger) (*snsSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &snsSender{
		logSender: logSender{logger: logger},
		client:    sns.NewFromConfig(awsCfg),
	}, nil
}

func (s *snsSender) SendSMS(ctx context.Context, phone, code string) error {
	message := fmt.Sprintf("Your verification code is %s", code)
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &phone,
		Message:     &message,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	s.logger.InfoContext(ctx, "otp sms sent", "phone", phone)
	return nil
}
