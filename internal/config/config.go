package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	CORSAllowedOrigins []string
	ClinicName         string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	LLMProvider     string
	GeminiAPIKey    string
	GeminiModelID   string
	BedrockModelID  string
	ArticleCacheTTL time.Duration
	DisclaimerLevel string

	AdminJWTSecret       string
	AdminSessionTTL      time.Duration
	DefaultAdminUsername string
	DefaultAdminPassword string

	VisitReasons          []string
	WizardSessionTTL      time.Duration
	WizardSessionsTable   string
	EstimatedVisitRevenue int

	// Per-IP request budgets; 0 disables the limit.
	LoginRatePerMinute     int
	AssistantRatePerMinute int

	AWSRegion            string
	AWSAccessKeyID       string
	AWSSecretAccessKey   string
	AWSEndpointOverride  string
	NotificationQueueURL string
	AIImageBucket        string
	NotifyWorkerCount    int

	// Staff email copy of notification intents.
	StaffNotifyEmail string
	EmailFrom        string
	EmailFromName    string
	SendGridAPIKey   string
	SESEnabled       bool
}

// DefaultVisitReasons is the suggested list shown by the booking form.
var DefaultVisitReasons = []string{
	"Genel Muayene",
	"Diş Ağrısı / Sızı",
	"Diş Temizliği & Beyazlatma",
	"İmplant Danışma",
	"Ortodonti (Tel) Kontrolü",
	"Estetik Gülüş Tasarımı",
	"Kanal Tedavisi",
	"Diş Çekimi",
	"Diş Eti Problemleri",
	"Çocuk Diş Muayenesi",
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		ClinicName:         getEnv("CLINIC_NAME", "DentaAI"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:   getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		BedrockModelID:  getEnv("BEDROCK_MODEL_ID", ""),
		ArticleCacheTTL: getEnvAsDuration("ARTICLE_CACHE_TTL", 24*time.Hour),
		DisclaimerLevel: getEnv("DISCLAIMER_LEVEL", "medium"),

		AdminJWTSecret:       getEnv("ADMIN_JWT_SECRET", ""),
		AdminSessionTTL:      getEnvAsDuration("ADMIN_SESSION_TTL", 8*time.Hour),
		DefaultAdminUsername: getEnv("DEFAULT_ADMIN_USERNAME", "admin"),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "12345"),

		VisitReasons:          getEnvAsList("VISIT_REASONS", DefaultVisitReasons),
		WizardSessionTTL:      getEnvAsDuration("WIZARD_SESSION_TTL", time.Hour),
		WizardSessionsTable:   getEnv("WIZARD_SESSIONS_TABLE", ""),
		EstimatedVisitRevenue: getEnvAsInt("ESTIMATED_VISIT_REVENUE", 1500),

		LoginRatePerMinute:     getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
		AssistantRatePerMinute: getEnvAsInt("ASSISTANT_RATE_PER_MINUTE", 30),

		AWSRegion:            getEnv("AWS_REGION", "eu-central-1"),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:  getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		NotificationQueueURL: getEnv("NOTIFICATION_QUEUE_URL", ""),
		AIImageBucket:        getEnv("AI_IMAGE_BUCKET", ""),
		NotifyWorkerCount:    getEnvAsInt("NOTIFY_WORKER_COUNT", 2),

		StaffNotifyEmail: getEnv("STAFF_NOTIFY_EMAIL", ""),
		EmailFrom:        getEnv("EMAIL_FROM", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "DentaAI"),
		SendGridAPIKey:   getEnv("SENDGRID_API_KEY", ""),
		SESEnabled:       getEnvAsBool("SES_ENABLED", false),
	}
}

// UsesAWS reports whether any AWS-backed collaborator is configured.
func (c *Config) UsesAWS() bool {
	return c.NotificationQueueURL != "" || c.AIImageBucket != "" || c.SESEnabled ||
		c.WizardSessionsTable != "" || c.UsesBedrock()
}

// UsesBedrock reports whether text generation goes through Bedrock.
func (c *Config) UsesBedrock() bool {
	return c.LLMProvider == "bedrock" && c.BedrockModelID != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
