package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/dentaai-platform/internal/config"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

func TestBuildWorkerRequiresQueue(t *testing.T) {
	_, err := buildWorker(context.Background(), &appconfig.Config{}, logging.New("error"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFICATION_QUEUE_URL")
}

func TestBuildWorker(t *testing.T) {
	cfg := &appconfig.Config{
		AWSRegion:            "eu-central-1",
		AWSAccessKeyID:       "test",
		AWSSecretAccessKey:   "test",
		AWSEndpointOverride:  "http://localhost:4566",
		NotificationQueueURL: "http://localhost:4566/000000000000/notifications",
		NotifyWorkerCount:    1,
	}
	w, err := buildWorker(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	assert.NotNil(t, w)
}
