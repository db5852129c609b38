// Package patients derives the patient roster from appointments. Patients are
// never stored; every call regroups the current appointments.
package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/dentaai-platform/internal/notify"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// ErrNotFound is returned when no appointment carries the national ID.
var ErrNotFound = errors.New("patients: patient not found")

// Patient is the projection of all appointments sharing a national ID.
type Patient struct {
	TC             string                `json:"tc"`
	Name           string                `json:"name"`
	Phone          string                `json:"phone"`
	Age            int                   `json:"age"`
	MedicalHistory string                `json:"medicalHistory"`
	Appointments   []records.Appointment `json:"appointments"`
}

// AppointmentLister loads appointments in store order.
type AppointmentLister interface {
	ListAppointments(ctx context.Context) ([]records.Appointment, error)
}

// Aggregator builds patient projections.
type Aggregator struct {
	appointments AppointmentLister
	emitter      notify.Emitter
	logger       *logging.Logger
}

func NewAggregator(appointments AppointmentLister, emitter notify.Emitter, logger *logging.Logger) *Aggregator {
	if appointments == nil {
		panic("patients: appointment lister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Aggregator{appointments: appointments, emitter: emitter, logger: logger}
}

// ListPatients groups appointments by national ID in first-seen order. The
// profile fields come from the last appointment of each group in store order,
// which is not necessarily the most recent by date.
func (a *Aggregator) ListPatients(ctx context.Context) ([]Patient, error) {
	appts, err := a.appointments.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("patients: list appointments: %w", err)
	}
	return Group(appts), nil
}

// Group is the pure projection behind ListPatients.
func Group(appts []records.Appointment) []Patient {
	index := make(map[string]int)
	var out []Patient
	for _, appt := range appts {
		i, ok := index[appt.PatientTC]
		if !ok {
			i = len(out)
			index[appt.PatientTC] = i
			out = append(out, Patient{TC: appt.PatientTC})
		}
		p := &out[i]
		p.Name = appt.PatientName
		p.Phone = appt.PatientPhone
		p.Age = appt.PatientAge
		p.MedicalHistory = appt.MedicalHistory
		p.Appointments = append(p.Appointments, appt)
	}
	if out == nil {
		out = []Patient{}
	}
	return out
}

// Find returns one patient by national ID.
func (a *Aggregator) Find(ctx context.Context, tc string) (*Patient, error) {
	all, err := a.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].TC == tc {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

// SendSMS emits a manual message to the patient's latest phone number.
func (a *Aggregator) SendSMS(ctx context.Context, tc, body string) (*notify.Message, error) {
	p, err := a.Find(ctx, tc)
	if err != nil {
		return nil, err
	}
	msg := notify.ManualSMS{Phone: p.Phone, Name: p.Name, Body: body}.Message()
	if a.emitter != nil {
		if err := a.emitter.Emit(ctx, msg); err != nil {
			return nil, fmt.Errorf("patients: send sms: %w", err)
		}
	}
	a.logger.Info("manual sms emitted", "patient_tc", tc)
	return &msg, nil
}
