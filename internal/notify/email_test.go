package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{FromEmail: "klinik@example.com"}, nil)
	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "test-key", FromEmail: "klinik@example.com"}, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "DentaAI" {
		t.Errorf("expected default from name 'DentaAI', got %q", sender.fromName)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}
	err := sender.Send(context.Background(), EmailMessage{To: "a@example.com", Subject: "x", Body: "y"})
	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	if err := NewStubEmailSender(nil).Send(context.Background(), EmailMessage{To: "a@example.com"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

type recordingSender struct {
	sent []EmailMessage
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestStaffEmailEmitter_ConfirmationCopy(t *testing.T) {
	sender := &recordingSender{}
	emitter := NewStaffEmailEmitter(sender, "resepsiyon@example.com", "")

	msg := AppointmentConfirmed{AppointmentID: "a1", Phone: "5551112233", Name: "Ayşe", Date: "2025-06-10", Time: "10:00"}.Message()
	if err := emitter.Emit(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if got.To != "resepsiyon@example.com" {
		t.Errorf("unexpected recipient %q", got.To)
	}
	if !strings.Contains(got.Subject, "2025-06-10 10:00") {
		t.Errorf("subject missing slot: %q", got.Subject)
	}
	if !strings.Contains(got.Body, "5551112233") || !strings.Contains(got.Body, "a1") {
		t.Errorf("body missing details: %q", got.Body)
	}
	if got.Category != string(KindAppointmentConfirmed) {
		t.Errorf("unexpected category %q", got.Category)
	}
}

func TestStaffEmailEmitter_NoRecipientIsNoop(t *testing.T) {
	sender := &recordingSender{}
	emitter := NewStaffEmailEmitter(sender, "", "Klinik")
	if err := emitter.Emit(context.Background(), ManualSMS{Phone: "1", Name: "x", Body: "y"}.Message()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email, got %d", len(sender.sent))
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	return &sesv2.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	client := &fakeSES{}
	sender := newSESSender(client, SESConfig{FromEmail: "no-reply@example.com"}, nil)

	err := sender.Send(context.Background(), EmailMessage{To: "staff@example.com", Subject: "Konu", Body: "Metin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToString(client.input.FromEmailAddress); got != `"DentaAI" <no-reply@example.com>` {
		t.Errorf("unexpected from %q", got)
	}
	if got := aws.ToString(client.input.Content.Simple.Body.Text.Data); got != "Metin" {
		t.Errorf("unexpected body %q", got)
	}
	if client.input.Content.Simple.Body.Html != nil {
		t.Error("expected no html body")
	}
	if len(client.input.EmailTags) != 0 {
		t.Errorf("expected no tags without a category, got %d", len(client.input.EmailTags))
	}
}

func TestSESSender_ConfirmationCopyIsTagged(t *testing.T) {
	client := &fakeSES{}
	emitter := NewStaffEmailEmitter(newSESSender(client, SESConfig{FromEmail: "no-reply@example.com", FromName: "Gülüş Kliniği"}, nil), "resepsiyon@example.com", "")

	msg := AppointmentConfirmed{AppointmentID: "a1", Phone: "5551112233", Name: "Ayşe", Date: "2025-06-10", Time: "10:00"}.Message()
	if err := emitter.Emit(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	from := aws.ToString(client.input.FromEmailAddress)
	if !strings.HasPrefix(from, "=?utf-8?") || !strings.HasSuffix(from, " <no-reply@example.com>") {
		t.Errorf("display name not encoded: %q", from)
	}
	if got := aws.ToString(client.input.Content.Simple.Subject.Charset); got != "UTF-8" {
		t.Errorf("unexpected charset %q", got)
	}
	if got := aws.ToString(client.input.Content.Simple.Subject.Data); !strings.Contains(got, "Ayşe") {
		t.Errorf("subject missing patient name: %q", got)
	}
	if len(client.input.EmailTags) != 1 {
		t.Fatalf("expected one tag, got %d", len(client.input.EmailTags))
	}
	tag := client.input.EmailTags[0]
	if aws.ToString(tag.Name) != "category" || aws.ToString(tag.Value) != "appointment_confirmed" {
		t.Errorf("unexpected tag %s=%s", aws.ToString(tag.Name), aws.ToString(tag.Value))
	}
}

func TestSESSender_RejectsEmptyRecipient(t *testing.T) {
	client := &fakeSES{}
	if err := newSESSender(client, SESConfig{FromEmail: "no-reply@example.com"}, nil).Send(context.Background(), EmailMessage{Subject: "x"}); err == nil {
		t.Error("expected error for empty recipient")
	}
	if client.input != nil {
		t.Error("SES should not be called without a recipient")
	}
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, SESConfig{}, nil) != nil {
		t.Error("expected nil sender without client")
	}
}
