package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wolfman30/dentaai-platform/internal/compliance"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

const (
	issuer            = "dentaai"
	defaultSessionTTL = 8 * time.Hour
)

// AdminStore is the records subset used for credentials.
type AdminStore interface {
	ListAdmins(ctx context.Context) ([]records.Admin, error)
	CreateAdmin(ctx context.Context, a records.Admin) (*records.Admin, error)
}

// Options configures a Service.
type Options struct {
	Secret          string
	TTL             time.Duration
	DefaultUsername string
	DefaultPassword string
}

// Service authenticates admins and manages their sessions.
type Service struct {
	admins   AdminStore
	sessions SessionStore
	audit    *compliance.AuditService
	opts     Options
	logger   *logging.Logger
	now      func() time.Time
	seedMu   sync.Mutex
}

func NewService(admins AdminStore, sessions SessionStore, audit *compliance.AuditService, opts Options, logger *logging.Logger) *Service {
	if admins == nil || sessions == nil {
		panic("auth: admin and session stores required")
	}
	if strings.TrimSpace(opts.Secret) == "" {
		panic("auth: jwt secret required")
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultSessionTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{admins: admins, sessions: sessions, audit: audit, opts: opts, logger: logger, now: time.Now}
}

// Login checks the credentials against the admins collection and issues a
// session. An empty collection is first seeded with the default admin.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	admins, err := s.loadAdmins(ctx)
	if err != nil {
		return nil, err
	}

	matched := false
	for _, a := range admins {
		userOK := subtle.ConstantTimeCompare([]byte(a.Username), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(a.Password), []byte(password)) == 1
		if userOK && passOK {
			matched = true
		}
	}
	if !matched {
		return nil, ErrAuthFailure
	}
	return s.issue(ctx, username)
}

func (s *Service) loadAdmins(ctx context.Context) ([]records.Admin, error) {
	admins, err := s.admins.ListAdmins(ctx)
	if err != nil || len(admins) > 0 {
		return admins, err
	}

	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if admins, err = s.admins.ListAdmins(ctx); err != nil || len(admins) > 0 {
		return admins, err
	}
	created, err := s.admins.CreateAdmin(ctx, records.Admin{
		Username: s.opts.DefaultUsername,
		Password: s.opts.DefaultPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: create default admin: %w", err)
	}
	s.logger.Warn("admins collection empty; default admin created", "username", created.Username)
	if err := s.audit.Record(ctx, compliance.EventAdminDefaultCreated, "admin", created.ID, nil); err != nil {
		s.logger.Warn("audit record failed", "error", err)
	}
	return []records.Admin{*created}, nil
}

func (s *Service) issue(ctx context.Context, username string) (*Session, error) {
	now := s.now().UTC().Truncate(time.Second)
	session := &Session{
		ID:        uuid.NewString(),
		Username:  username,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.opts.TTL),
	}
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   username,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.Secret))
	if err != nil {
		return nil, fmt.Errorf("auth: sign token: %w", err)
	}
	if err := s.sessions.Register(ctx, session.ID, username, s.opts.TTL); err != nil {
		return nil, err
	}
	session.Token = token
	return session, nil
}

// Verify validates a bearer token and checks that its session is still live.
// Store failures are returned as-is so callers can tell them from bad tokens.
func (s *Service) Verify(ctx context.Context, token string) (*Session, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.opts.Secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, ErrSessionInvalid
	}

	live, err := s.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrSessionInvalid
	}

	session := &Session{ID: claims.ID, Username: claims.Subject}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// Logout revokes the session; revoking twice is harmless.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("auth: session id required")
	}
	return s.sessions.Revoke(ctx, sessionID)
}
