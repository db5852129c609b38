package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/dentaai-platform/internal/booking"
	appconfig "github.com/wolfman30/dentaai-platform/internal/config"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// BuildWizardStore chooses where booking wizard sessions live: DynamoDB when
// WIZARD_SESSIONS_TABLE is set, then Redis, then process memory.
func BuildWizardStore(cfg *appconfig.Config, awsCfg *aws.Config, redisClient *redis.Client, logger *logging.Logger) (booking.WizardStore, string) {
	if logger == nil {
		logger = logging.Default()
	}
	if table := strings.TrimSpace(cfg.WizardSessionsTable); table != "" && awsCfg != nil {
		return booking.NewDynamoWizardStore(dynamodb.NewFromConfig(*awsCfg), table, cfg.WizardSessionTTL), "dynamodb"
	}
	if redisClient != nil {
		return booking.NewRedisWizardStore(redisClient, cfg.WizardSessionTTL), "redis"
	}
	logger.Warn("no shared store for booking sessions; using process memory")
	return booking.NewMemoryWizardStore(cfg.WizardSessionTTL), "memory"
}
