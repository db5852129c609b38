package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/dentaai-platform/internal/assistant"
	"github.com/wolfman30/dentaai-platform/internal/compliance"
	appconfig "github.com/wolfman30/dentaai-platform/internal/config"
	"github.com/wolfman30/dentaai-platform/internal/observability/metrics"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// BuildLLM selects the text-generation backend. With nothing configured the
// assistant answers every request with its canned fallback. The returned
// close func is never nil.
func BuildLLM(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (assistant.LLM, string, func(), error) {
	if logger == nil {
		logger = logging.Default()
	}
	noop := func() {}

	if cfg.LLMProvider == "bedrock" {
		if !cfg.UsesBedrock() || awsCfg == nil {
			logger.Warn("bedrock selected but BEDROCK_MODEL_ID empty; assistant disabled")
			return assistant.Unconfigured(), "none", noop, nil
		}
		client := assistant.NewBedrockClient(bedrockruntime.NewFromConfig(*awsCfg), cfg.BedrockModelID)
		return client, "bedrock", noop, nil
	}

	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		logger.Warn("GEMINI_API_KEY not set; assistant disabled")
		return assistant.Unconfigured(), "none", noop, nil
	}
	client, err := assistant.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		return nil, "", noop, fmt.Errorf("bootstrap: gemini client: %w", err)
	}
	return client, "gemini", func() { _ = client.Close() }, nil
}

// AssistantDeps are the optional collaborators of the assistant service.
type AssistantDeps struct {
	Redis   *redis.Client
	AWS     *aws.Config
	Audit   *compliance.AuditService
	Metrics *metrics.AssistantMetrics
}

// AssistantOptions turns config into assistant.Service options: an image
// archive when AI_IMAGE_BUCKET is set, an article cache when Redis is up and
// the configured disclaimer.
func AssistantOptions(cfg *appconfig.Config, deps AssistantDeps, logger *logging.Logger) []assistant.Option {
	if logger == nil {
		logger = logging.Default()
	}
	opts := []assistant.Option{
		assistant.WithMetrics(deps.Metrics),
		assistant.WithDisclaimer(compliance.NewDisclaimerService(deps.Audit, compliance.DisclaimerConfig{
			Level:   compliance.DisclaimerLevel(strings.ToLower(cfg.DisclaimerLevel)),
			Enabled: true,
		})),
	}

	if bucket := strings.TrimSpace(cfg.AIImageBucket); bucket != "" && deps.AWS != nil {
		client := s3.NewFromConfig(*deps.AWS, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
		opts = append(opts, assistant.WithImageArchive(assistant.NewS3ImageArchive(client, bucket, logger)))
		logger.Info("complaint image archive enabled", "bucket", bucket)
	}

	if deps.Redis != nil {
		ttl := cfg.ArticleCacheTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		opts = append(opts, assistant.WithArticleCache(assistant.NewRedisArticleCache(deps.Redis, ttl)))
	}
	return opts
}
