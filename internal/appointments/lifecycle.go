// Package appointments owns the appointment status workflow and the admin
// operations on booked appointments.
package appointments

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/dentaai-platform/internal/notify"
	"github.com/wolfman30/dentaai-platform/internal/observability/metrics"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

var tracer = otel.Tracer("dentaai.internal.appointments")

var (
	// ErrInvalidStatus is returned for a status outside the four known values.
	ErrInvalidStatus = errors.New("appointments: invalid status")
	// ErrInvalidTransition is returned for a move the workflow does not allow,
	// including any move out of completed or cancelled.
	ErrInvalidTransition = errors.New("appointments: invalid status transition")
)

var transitions = map[records.Status][]records.Status{
	records.StatusPending:   {records.StatusConfirmed, records.StatusCancelled},
	records.StatusConfirmed: {records.StatusCompleted, records.StatusCancelled},
}

// CanTransition reports whether from -> to is a legal workflow step.
func CanTransition(from, to records.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Store is the subset of records.Client the lifecycle manager needs.
type Store interface {
	GetAppointment(ctx context.Context, id string) (*records.Appointment, error)
	ListAppointments(ctx context.Context) ([]records.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status records.Status) error
	DeleteAppointment(ctx context.Context, id string) error
}

// Lifecycle applies status transitions and raises the confirmation intent.
type Lifecycle struct {
	store   Store
	emitter notify.Emitter
	metrics *metrics.LifecycleMetrics
	logger  *logging.Logger
}

func NewLifecycle(store Store, emitter notify.Emitter, m *metrics.LifecycleMetrics, logger *logging.Logger) *Lifecycle {
	if store == nil {
		panic("appointments: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Lifecycle{store: store, emitter: emitter, metrics: m, logger: logger}
}

// List returns all appointments in store order.
func (l *Lifecycle) List(ctx context.Context) ([]records.Appointment, error) {
	appts, err := l.store.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	return appts, nil
}

// SetStatus moves an appointment to status. Setting the current status again
// is a no-op. Entering confirmed emits AppointmentConfirmed; a failed
// emission is logged and never undoes the status change.
func (l *Lifecycle) SetStatus(ctx context.Context, id string, status records.Status) (*records.Appointment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	ctx, span := tracer.Start(ctx, "appointments.set_status")
	defer span.End()
	span.SetAttributes(
		attribute.String("dentaai.appointment_id", id),
		attribute.String("dentaai.status", string(status)),
	)

	appt, err := l.store.GetAppointment(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: load %s: %w", id, err)
	}
	from := appt.Status
	if from == status {
		l.metrics.ObserveTransition(string(from), string(status), "noop")
		return appt, nil
	}
	if !CanTransition(from, status) {
		l.metrics.ObserveTransition(string(from), string(status), "rejected")
		return appt, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
	}

	if err := l.store.UpdateAppointmentStatus(ctx, id, status); err != nil {
		span.RecordError(err)
		l.metrics.ObserveTransition(string(from), string(status), "error")
		return nil, fmt.Errorf("appointments: update %s: %w", id, err)
	}
	appt.Status = status
	l.metrics.ObserveTransition(string(from), string(status), "applied")
	l.logger.Info("appointment status changed", "appointment_id", id, "from", from, "to", status)

	if status == records.StatusConfirmed {
		l.emitConfirmed(ctx, appt)
	}
	return appt, nil
}

func (l *Lifecycle) emitConfirmed(ctx context.Context, appt *records.Appointment) {
	if l.emitter == nil {
		return
	}
	event := notify.AppointmentConfirmed{
		AppointmentID: appt.ID,
		Phone:         appt.PatientPhone,
		Name:          appt.PatientName,
		Date:          appt.Date,
		Time:          appt.Time,
	}
	if err := l.emitter.Emit(ctx, event.Message()); err != nil {
		l.logger.Warn("appointments: confirmation notification failed", "appointment_id", appt.ID, "error", err)
	}
}

// Delete removes an appointment regardless of status.
func (l *Lifecycle) Delete(ctx context.Context, id string) error {
	if err := l.store.DeleteAppointment(ctx, id); err != nil {
		return fmt.Errorf("appointments: delete %s: %w", id, err)
	}
	l.logger.Info("appointment deleted", "appointment_id", id)
	return nil
}
