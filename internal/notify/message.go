// Package notify turns appointment events into outbound notification intents.
// Patient-facing SMS is simulated: intents are logged, queued or copied to
// clinic staff, never dispatched to a carrier.
package notify

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies the event behind a notification intent.
type Kind string

const (
	KindAppointmentConfirmed Kind = "appointment_confirmed"
	KindManualSMS            Kind = "manual_sms"
)

// Message is a rendered notification intent addressed to a patient phone.
type Message struct {
	Kind          Kind      `json:"kind"`
	AppointmentID string    `json:"appointmentId,omitempty"`
	Phone         string    `json:"phone"`
	Name          string    `json:"name"`
	Date          string    `json:"date,omitempty"`
	Time          string    `json:"time,omitempty"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Emitter publishes notification intents.
type Emitter interface {
	Emit(ctx context.Context, msg Message) error
}

// AppointmentConfirmed is raised when an appointment enters the confirmed state.
type AppointmentConfirmed struct {
	AppointmentID string
	Phone         string
	Name          string
	Date          string
	Time          string
}

// Message renders the confirmation SMS text.
func (e AppointmentConfirmed) Message() Message {
	return Message{
		Kind:          KindAppointmentConfirmed,
		AppointmentID: e.AppointmentID,
		Phone:         e.Phone,
		Name:          e.Name,
		Date:          e.Date,
		Time:          e.Time,
		Body:          fmt.Sprintf("Sayın %s, %s saat %s randevunuz onaylanmıştır. Sağlıklı günler dileriz. -DentaAI", e.Name, e.Date, e.Time),
		CreatedAt:     time.Now().UTC(),
	}
}

// ManualSMS is a free-text message an admin sends to a patient.
type ManualSMS struct {
	Phone string
	Name  string
	Body  string
}

func (m ManualSMS) Message() Message {
	return Message{
		Kind:      KindManualSMS,
		Phone:     m.Phone,
		Name:      m.Name,
		Body:      m.Body,
		CreatedAt: time.Now().UTC(),
	}
}
