package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GEMINI_MODEL_ID", "")
	t.Setenv("VISIT_REASONS", "")
	t.Setenv("ADMIN_SESSION_TTL", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.GeminiModelID != "gemini-2.5-flash" {
		t.Fatalf("expected default gemini model, got %s", cfg.GeminiModelID)
	}
	if len(cfg.VisitReasons) != len(DefaultVisitReasons) {
		t.Fatalf("expected %d default visit reasons, got %d", len(DefaultVisitReasons), len(cfg.VisitReasons))
	}
	if cfg.AdminSessionTTL != 8*time.Hour {
		t.Fatalf("expected default session ttl, got %s", cfg.AdminSessionTTL)
	}
	if cfg.EstimatedVisitRevenue != 1500 {
		t.Fatalf("expected default visit revenue, got %d", cfg.EstimatedVisitRevenue)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("WIZARD_SESSION_TTL", "15m")
	t.Setenv("VISIT_REASONS", "Kontrol, Dolgu ,,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://dentaai.example, http://localhost:5173")
	t.Setenv("ESTIMATED_VISIT_REVENUE", "2000")
	t.Setenv("NOTIFICATION_QUEUE_URL", "http://localhost:4566/000000000000/notifications")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls enabled")
	}
	if cfg.WizardSessionTTL != 15*time.Minute {
		t.Fatalf("expected wizard ttl override, got %s", cfg.WizardSessionTTL)
	}
	if len(cfg.VisitReasons) != 2 || cfg.VisitReasons[1] != "Dolgu" {
		t.Fatalf("unexpected visit reasons: %#v", cfg.VisitReasons)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected cors origins: %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.EstimatedVisitRevenue != 2000 {
		t.Fatalf("expected revenue override, got %d", cfg.EstimatedVisitRevenue)
	}
	if !cfg.UsesAWS() {
		t.Fatalf("expected AWS usage when queue url set")
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("ESTIMATED_VISIT_REVENUE", "lots")
	t.Setenv("ADMIN_SESSION_TTL", "forever")
	t.Setenv("REDIS_TLS", "maybe")
	cfg := Load()
	if cfg.EstimatedVisitRevenue != 1500 {
		t.Fatalf("expected fallback revenue, got %d", cfg.EstimatedVisitRevenue)
	}
	if cfg.AdminSessionTTL != 8*time.Hour {
		t.Fatalf("expected fallback ttl, got %s", cfg.AdminSessionTTL)
	}
	if cfg.RedisTLS {
		t.Fatalf("expected fallback redis tls false")
	}
}

func TestBedrockProvider(t *testing.T) {
	t.Setenv("NOTIFICATION_QUEUE_URL", "")
	t.Setenv("AI_IMAGE_BUCKET", "")
	t.Setenv("SES_ENABLED", "")
	t.Setenv("WIZARD_SESSIONS_TABLE", "")
	t.Setenv("LLM_PROVIDER", "Bedrock")
	t.Setenv("BEDROCK_MODEL_ID", "")
	cfg := Load()
	if cfg.LLMProvider != "bedrock" {
		t.Fatalf("expected lowercased provider, got %s", cfg.LLMProvider)
	}
	if cfg.UsesBedrock() || cfg.UsesAWS() {
		t.Fatalf("bedrock without a model id should be off")
	}

	t.Setenv("BEDROCK_MODEL_ID", "amazon.nova-lite-v1:0")
	cfg = Load()
	if !cfg.UsesBedrock() || !cfg.UsesAWS() {
		t.Fatalf("expected bedrock and AWS usage when model id set")
	}
}

func TestRateLimitDefaults(t *testing.T) {
	t.Setenv("LOGIN_RATE_PER_MINUTE", "")
	t.Setenv("ASSISTANT_RATE_PER_MINUTE", "0")
	cfg := Load()
	if cfg.LoginRatePerMinute != 10 {
		t.Fatalf("expected default login rate, got %d", cfg.LoginRatePerMinute)
	}
	if cfg.AssistantRatePerMinute != 0 {
		t.Fatalf("expected assistant limit disabled, got %d", cfg.AssistantRatePerMinute)
	}
}
