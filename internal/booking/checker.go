// Package booking owns slot reservation: the conflict checker that guards the
// one-active-appointment-per-slot rule and the three-step booking wizard.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/dentaai-platform/internal/observability/metrics"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/internal/store"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

var tracer = otel.Tracer("dentaai.internal.booking")

const dateLayout = "2006-01-02"

// ReserveRequest is a fully collected booking.
type ReserveRequest struct {
	DoctorID string         `json:"doctorId"`
	Date     string         `json:"date"`
	Time     string         `json:"time"`
	Patient  PatientDetails `json:"patient"`
}

// AppointmentStore is the subset of records.Client the checker needs.
type AppointmentStore interface {
	AppointmentsAtSlot(ctx context.Context, doctorID, date, time string) ([]records.Appointment, error)
	AppointmentsForDay(ctx context.Context, doctorID, date string) ([]records.Appointment, error)
	InsertAppointment(ctx context.Context, a records.Appointment) (*records.Appointment, error)
}

// ConflictChecker is the only authority on whether a slot can be booked.
type ConflictChecker struct {
	appointments AppointmentStore
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
	now          func() time.Time
}

func NewConflictChecker(appointments AppointmentStore, m *metrics.BookingMetrics, logger *logging.Logger) *ConflictChecker {
	if appointments == nil {
		panic("booking: appointment store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ConflictChecker{
		appointments: appointments,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// CheckAndReserve inserts a pending appointment for the slot unless an active
// appointment already holds it. The store's active-slot constraint backs the
// query, so concurrent callers racing past the check still get ErrSlotTaken.
func (c *ConflictChecker) CheckAndReserve(ctx context.Context, req ReserveRequest) (*records.Appointment, error) {
	if err := validateSlot(req.DoctorID, req.Date, req.Time); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "booking.check_and_reserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("dentaai.doctor_id", req.DoctorID),
		attribute.String("dentaai.date", req.Date),
		attribute.String("dentaai.time", req.Time),
	)

	start := c.now()
	appt, err := c.reserve(ctx, req)
	elapsed := c.now().Sub(start).Seconds()

	switch {
	case err == nil:
		c.metrics.ObserveReservation("reserved", elapsed)
		c.logger.Info("appointment reserved",
			"appointment_id", appt.ID,
			"doctor_id", req.DoctorID,
			"date", req.Date,
			"time", req.Time,
		)
	case errors.Is(err, ErrSlotTaken):
		c.metrics.ObserveReservation("slot_taken", elapsed)
		span.SetAttributes(attribute.Bool("dentaai.slot_taken", true))
		c.logger.Info("slot already taken", "doctor_id", req.DoctorID, "date", req.Date, "time", req.Time)
	default:
		c.metrics.ObserveReservation("error", elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "reserve failed")
	}
	return appt, err
}

func (c *ConflictChecker) reserve(ctx context.Context, req ReserveRequest) (*records.Appointment, error) {
	existing, err := c.appointments.AppointmentsAtSlot(ctx, req.DoctorID, req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("booking: check slot: %w", err)
	}
	for _, a := range existing {
		if a.Status.Active() {
			return nil, ErrSlotTaken
		}
	}

	p := req.Patient
	appt, err := c.appointments.InsertAppointment(ctx, records.Appointment{
		DoctorID:       req.DoctorID,
		PatientName:    p.Name,
		PatientPhone:   p.Phone,
		PatientTC:      p.TC,
		PatientAge:     p.Age,
		MedicalHistory: p.MedicalHistory,
		VisitReason:    p.VisitReason,
		Date:           req.Date,
		Time:           req.Time,
		Status:         records.StatusPending,
		Notes:          p.Notes,
		CreatedAt:      c.now().UnixMilli(),
	})
	if errors.Is(err, store.ErrConflict) {
		return nil, ErrSlotTaken
	}
	if err != nil {
		return nil, fmt.Errorf("booking: insert appointment: %w", err)
	}
	return appt, nil
}

// AvailableSlots lists the fixed slots still free for a doctor on a date.
// The result is advisory; only CheckAndReserve decides.
func (c *ConflictChecker) AvailableSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	if strings.TrimSpace(doctorID) == "" {
		return nil, invalid("doctorId", "doktor seçilmelidir")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, invalid("date", "tarih YYYY-MM-DD biçiminde olmalıdır")
	}
	appts, err := c.appointments.AppointmentsForDay(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("booking: load day: %w", err)
	}
	return FreeSlots(appts), nil
}

func validateSlot(doctorID, date, t string) error {
	if strings.TrimSpace(doctorID) == "" {
		return invalid("doctorId", "doktor seçilmelidir")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return invalid("date", "tarih YYYY-MM-DD biçiminde olmalıdır")
	}
	if !IsSlot(t) {
		return invalid("time", "geçerli bir randevu saati seçilmelidir")
	}
	return nil
}
