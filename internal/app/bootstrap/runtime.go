// Package bootstrap turns configuration into the collaborators cmd/api wires
// into the router. Every builder degrades to an in-process fallback when its
// backing service is not configured.
package bootstrap

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/dentaai-platform/internal/auth"
	appconfig "github.com/wolfman30/dentaai-platform/internal/config"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/internal/store"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL, or returns nil when it is unset.
func BuildPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) (*pgxpool.Pool, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse database url: %w", err)
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	logger.Info("postgres connected", "max_conns", poolCfg.MaxConns)
	return pool, nil
}

// BuildDocumentStore picks Postgres when a pool is available and the
// in-memory store otherwise. Both enforce the active-slot rule.
func BuildDocumentStore(pool *pgxpool.Pool, logger *logging.Logger) store.DocumentStore {
	if logger == nil {
		logger = logging.Default()
	}
	if pool != nil {
		return store.NewPostgresStore(pool)
	}
	logger.Warn("DATABASE_URL not set; using in-memory document store")
	return store.NewMemoryStore(records.ActiveSlotConstraint())
}

// BuildAuditDB opens a database/sql handle over the pgx pool for the audit
// trail. Nil pool means auditing is off.
func BuildAuditDB(pool *pgxpool.Pool) *sql.DB {
	if pool == nil {
		return nil
	}
	return stdlib.OpenDBFromPool(pool)
}

// BuildSessionStore prefers Redis so sessions survive restarts and are shared
// across instances.
func BuildSessionStore(redisClient *redis.Client, logger *logging.Logger) auth.SessionStore {
	if redisClient != nil {
		return auth.NewRedisSessionStore(redisClient)
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger.Warn("redis not configured; admin sessions are process-local")
	return auth.NewMemorySessionStore()
}

// AdminSecret returns the configured signing secret, or a random one when
// unset. A random secret invalidates every session on restart.
func AdminSecret(cfg *appconfig.Config, logger *logging.Logger) (string, error) {
	if secret := strings.TrimSpace(cfg.AdminJWTSecret); secret != "" {
		return secret, nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("bootstrap: generate admin secret: %w", err)
	}
	logger.Warn("ADMIN_JWT_SECRET not set; generated an ephemeral signing secret")
	return hex.EncodeToString(buf), nil
}
