package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// EmailSender sends a single email. SendGrid and SES implementations are
// interchangeable.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a plain-text email with an optional HTML body. Category
// is the notification kind; providers attach it for reporting.
type EmailMessage struct {
	To       string
	ToName   string
	Subject  string
	Body     string
	HTML     string
	Category string
}

const defaultFromName = "DentaAI"

// SendGridSender sends emails via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, html)
	if msg.Category != "" {
		message.AddCategories(msg.Category)
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "to", msg.To)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject)
	return nil
}

// StubEmailSender logs instead of sending.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject)
	return nil
}

// StaffEmailEmitter copies every patient notification to the clinic inbox so
// front-desk staff can follow up by phone.
type StaffEmailEmitter struct {
	sender     EmailSender
	to         string
	clinicName string
}

func NewStaffEmailEmitter(sender EmailSender, to, clinicName string) *StaffEmailEmitter {
	if clinicName == "" {
		clinicName = defaultFromName
	}
	return &StaffEmailEmitter{sender: sender, to: to, clinicName: clinicName}
}

func (e *StaffEmailEmitter) Emit(ctx context.Context, msg Message) error {
	if e.sender == nil || strings.TrimSpace(e.to) == "" {
		return nil
	}
	return e.sender.Send(ctx, EmailMessage{
		To:       e.to,
		ToName:   e.clinicName,
		Subject:  staffSubject(msg),
		Body:     staffBody(msg),
		Category: string(msg.Kind),
	})
}

func staffSubject(msg Message) string {
	switch msg.Kind {
	case KindAppointmentConfirmed:
		return fmt.Sprintf("Randevu onaylandı: %s %s %s", msg.Name, msg.Date, msg.Time)
	case KindManualSMS:
		return fmt.Sprintf("Hastaya SMS gönderildi: %s", msg.Name)
	default:
		return "Bildirim"
	}
}

func staffBody(msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hasta: %s\nTelefon: %s\n", msg.Name, msg.Phone)
	if msg.Date != "" {
		fmt.Fprintf(&b, "Tarih: %s %s\n", msg.Date, msg.Time)
	}
	if msg.AppointmentID != "" {
		fmt.Fprintf(&b, "Randevu: %s\n", msg.AppointmentID)
	}
	fmt.Fprintf(&b, "\nMesaj:\n%s\n", msg.Body)
	return b.String()
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
	_ Emitter     = (*StaffEmailEmitter)(nil)
)
