package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	appconfig "github.com/wolfman30/dentaai-platform/internal/config"
	"github.com/wolfman30/dentaai-platform/internal/notify"
	"github.com/wolfman30/dentaai-platform/internal/observability/metrics"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// BuildNotifier fans confirmation and manual SMS intents out to the log,
// the SQS queue and the staff inbox, whichever are configured. awsCfg may be
// nil when no AWS collaborator is enabled.
func BuildNotifier(cfg *appconfig.Config, awsCfg *aws.Config, m *metrics.NotificationMetrics, logger *logging.Logger) *notify.Fanout {
	if logger == nil {
		logger = logging.Default()
	}
	channels := []notify.Channel{{Name: "log", Emitter: notify.NewLogEmitter(logger)}}

	if queueURL := strings.TrimSpace(cfg.NotificationQueueURL); queueURL != "" && awsCfg != nil {
		channels = append(channels, notify.Channel{
			Name:    "sqs",
			Emitter: notify.NewSQSEmitter(sqs.NewFromConfig(*awsCfg), queueURL),
		})
	}

	if to := strings.TrimSpace(cfg.StaffNotifyEmail); to != "" {
		sender, provider := buildEmailSender(cfg, awsCfg, logger)
		channels = append(channels, notify.Channel{
			Name:    "email",
			Emitter: notify.NewStaffEmailEmitter(sender, to, cfg.ClinicName),
		})
		logger.Info("staff notification email enabled", "provider", provider)
	}

	return notify.NewFanout(m, logger, channels...)
}

// buildEmailSender picks SendGrid, then SES, then the logging stub.
func buildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, string) {
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
	}, logger); sg != nil {
		return sg, "sendgrid"
	}
	if cfg.SESEnabled && awsCfg != nil {
		ses := notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if ses != nil {
			return ses, "ses"
		}
	}
	return notify.NewStubEmailSender(logger), "stub"
}
