// Package compliance keeps the admin audit trail and the AI disclaimer text.
package compliance

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEventType names an audited action.
type AuditEventType string

const (
	EventAdminLogin          AuditEventType = "admin.login"
	EventAdminLoginFailed    AuditEventType = "admin.login_failed"
	EventAdminLogout         AuditEventType = "admin.logout"
	EventAppointmentStatus   AuditEventType = "appointment.status_changed"
	EventAppointmentDeleted  AuditEventType = "appointment.deleted"
	EventDoctorCreated       AuditEventType = "doctor.created"
	EventDoctorDeleted       AuditEventType = "doctor.deleted"
	EventServiceCreated      AuditEventType = "service.created"
	EventServiceDeleted      AuditEventType = "service.deleted"
	EventAILogCommented      AuditEventType = "ai_log.commented"
	EventPatientSMSSent      AuditEventType = "patient.sms_sent"
	EventDisclaimerSent      AuditEventType = "compliance.disclaimer_sent"
	EventAdminDefaultCreated AuditEventType = "admin.default_created"
)

// AuditEvent is an immutable audit record.
type AuditEvent struct {
	ID         string          `json:"id"`
	EventType  AuditEventType  `json:"event_type"`
	Actor      string          `json:"actor,omitempty"`
	TargetType string          `json:"target_type,omitempty"`
	TargetID   string          `json:"target_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type actorKey struct{}

// WithActor tags ctx with the admin username performing the request.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the admin username set by WithActor.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// AuditService writes audit events to compliance_audit_events. A nil service
// or one without a database records nothing.
type AuditService struct {
	db *sql.DB
}

// NewAuditService creates a new audit service.
func NewAuditService(db *sql.DB) *AuditService {
	return &AuditService{db: db}
}

// Enabled reports whether events are persisted.
func (s *AuditService) Enabled() bool {
	return s != nil && s.db != nil
}

// LogEvent records an audit event.
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	if !s.Enabled() {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Actor == "" {
		event.Actor = ActorFromContext(ctx)
	}

	query := `
		INSERT INTO compliance_audit_events (
			id, event_type, actor, target_type, target_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		nullString(event.Actor),
		nullString(event.TargetType),
		nullString(event.TargetID),
		nullJSON(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("compliance: failed to log audit event: %w", err)
	}
	return nil
}

// Record logs an admin action on a target; details may be nil.
func (s *AuditService) Record(ctx context.Context, eventType AuditEventType, targetType, targetID string, details any) error {
	var raw json.RawMessage
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("compliance: encode details: %w", err)
		}
		raw = data
	}
	return s.LogEvent(ctx, AuditEvent{
		EventType:  eventType,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    raw,
	})
}

// AuditFilter specifies criteria for querying audit events.
type AuditFilter struct {
	Actor     string
	EventType AuditEventType
	TargetID  string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// QueryEvents retrieves audit events newest first.
func (s *AuditService) QueryEvents(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	if !s.Enabled() {
		return []AuditEvent{}, nil
	}

	query := `
		SELECT id, event_type, actor, target_type, target_id, details, created_at
		FROM compliance_audit_events
		WHERE 1=1
	`
	var args []interface{}
	argIdx := 1

	if filter.Actor != "" {
		query += fmt.Sprintf(" AND actor = $%d", argIdx)
		args = append(args, filter.Actor)
		argIdx++
	}
	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, filter.EventType)
		argIdx++
	}
	if filter.TargetID != "" {
		query += fmt.Sprintf(" AND target_id = $%d", argIdx)
		args = append(args, filter.TargetID)
		argIdx++
	}
	if !filter.StartTime.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.StartTime)
		argIdx++
	}
	if !filter.EndTime.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, filter.EndTime)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := []AuditEvent{}
	for rows.Next() {
		var e AuditEvent
		var actor, targetType, targetID sql.NullString
		var details []byte
		if err := rows.Scan(&e.ID, &e.EventType, &actor, &targetType, &targetID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.Actor = actor.String
		e.TargetType = targetType.String
		e.TargetID = targetID.String
		if len(details) > 0 {
			e.Details = json.RawMessage(details)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("compliance: failed to read audit events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
