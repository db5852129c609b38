package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/dentaai-platform/cmd/mainconfig"
	appconfig "github.com/wolfman30/dentaai-platform/internal/config"
	"github.com/wolfman30/dentaai-platform/internal/notify"
	"github.com/wolfman30/dentaai-platform/internal/observability/metrics"
	notifyworker "github.com/wolfman30/dentaai-platform/internal/worker/notify"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker, err := buildWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise notification worker", "error", err)
		os.Exit(1)
	}

	logger.Info("notification worker starting",
		"queue_url", cfg.NotificationQueueURL,
		"workers", cfg.NotifyWorkerCount,
	)
	worker.Start(ctx)
	<-ctx.Done()
	logger.Info("shutting down notification worker...")
	worker.Wait()
	logger.Info("notification worker stopped")
}

func buildWorker(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*notifyworker.Worker, error) {
	if cfg.NotificationQueueURL == "" {
		return nil, errors.New("NOTIFICATION_QUEUE_URL is required")
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// The SMS gateway is simulated; delivered intents are logged.
	dispatcher := notify.NewFanout(
		metrics.NewNotificationMetrics(prometheus.DefaultRegisterer),
		logger,
		notify.Channel{Name: "sms", Emitter: notify.NewLogEmitter(logger.With("channel", "sms"))},
	)
	queue := notifyworker.NewSQSQueue(sqs.NewFromConfig(*awsCfg), cfg.NotificationQueueURL)
	return notifyworker.New(queue, dispatcher, logger, notifyworker.WithWorkerCount(cfg.NotifyWorkerCount)), nil
}
