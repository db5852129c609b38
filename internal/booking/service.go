package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// DoctorLookup resolves doctors for the wizard's doctor step.
type DoctorLookup interface {
	GetDoctor(ctx context.Context, id string) (*records.Doctor, error)
}

// WizardService drives stored wizard sessions through their steps.
type WizardService struct {
	sessions WizardStore
	checker  *ConflictChecker
	doctors  DoctorLookup
	reasons  VisitReasons
	filter   DoctorFilter
	logger   *logging.Logger
	now      func() time.Time
	newID    func() string
}

// WizardOption customizes a WizardService.
type WizardOption func(*WizardService)

// WithDoctorFilter replaces the AllDoctors default.
func WithDoctorFilter(f DoctorFilter) WizardOption {
	return func(s *WizardService) {
		if f != nil {
			s.filter = f
		}
	}
}

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) WizardOption {
	return func(s *WizardService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewWizardService(sessions WizardStore, checker *ConflictChecker, doctors DoctorLookup, reasons VisitReasons, logger *logging.Logger, opts ...WizardOption) *WizardService {
	if sessions == nil || checker == nil || doctors == nil {
		panic("booking: wizard service dependencies required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &WizardService{
		sessions: sessions,
		checker:  checker,
		doctors:  doctors,
		reasons:  reasons,
		filter:   AllDoctors,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reasons exposes the configured visit reasons.
func (s *WizardService) Reasons() VisitReasons { return s.reasons }

// Checker exposes the conflict checker for direct reservations.
func (s *WizardService) Checker() *ConflictChecker { return s.checker }

// Start opens a new session at the doctor step.
func (s *WizardService) Start(ctx context.Context) (*Wizard, error) {
	w := NewWizard(s.newID())
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Get loads a session.
func (s *WizardService) Get(ctx context.Context, id string) (*Wizard, error) {
	return s.sessions.Load(ctx, id)
}

// SelectDoctor records the doctor after confirming it exists.
func (s *WizardService) SelectDoctor(ctx context.Context, id, doctorID string) (*Wizard, error) {
	return s.update(ctx, id, func(w *Wizard) error {
		if doctorID != "" {
			if _, err := s.doctor(ctx, doctorID); err != nil {
				return err
			}
		}
		return w.SelectDoctor(doctorID)
	})
}

// SelectSchedule applies a date and, when given, a time checked against the
// live available slots.
func (s *WizardService) SelectSchedule(ctx context.Context, id, date, t string) (*Wizard, error) {
	return s.update(ctx, id, func(w *Wizard) error {
		if err := w.at(StepSchedule); err != nil {
			return err
		}
		if date != "" {
			doctor, err := s.doctors.GetDoctor(ctx, w.DoctorID)
			if err != nil {
				return err
			}
			if !s.filter(*doctor, date) {
				return invalid("date", "doktor bu tarihte çalışmıyor")
			}
			if err := w.SelectDate(date, s.now()); err != nil {
				return err
			}
		}
		if t == "" {
			return nil
		}
		available, err := s.checker.AvailableSlots(ctx, w.DoctorID, w.Date)
		if err != nil {
			return err
		}
		return w.SelectTime(t, available)
	})
}

// SetPatient stores the patient form.
func (s *WizardService) SetPatient(ctx context.Context, id string, details PatientDetails) (*Wizard, error) {
	return s.update(ctx, id, func(w *Wizard) error {
		return w.SetPatient(details)
	})
}

// Next advances the session.
func (s *WizardService) Next(ctx context.Context, id string) (*Wizard, error) {
	return s.update(ctx, id, func(w *Wizard) error { return w.Next() })
}

// Back steps the session back.
func (s *WizardService) Back(ctx context.Context, id string) (*Wizard, error) {
	return s.update(ctx, id, func(w *Wizard) error { return w.Back() })
}

// Reset restarts the session.
func (s *WizardService) Reset(ctx context.Context, id string) (*Wizard, error) {
	return s.update(ctx, id, func(w *Wizard) error {
		w.Reset()
		return nil
	})
}

// Submit validates the patient form and reserves the slot. A taken slot keeps
// the session on the patient step with the error recorded so the patient can
// go back and choose another time.
func (s *WizardService) Submit(ctx context.Context, id string) (*Wizard, error) {
	w, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	req, err := w.Request(s.reasons)
	if err != nil {
		return w, err
	}
	// The session may have been filled in on an earlier day.
	if err := s.checkBookable(ctx, req.DoctorID, req.Date); err != nil {
		return w, err
	}

	appt, err := s.checker.CheckAndReserve(ctx, req)
	if errors.Is(err, ErrSlotTaken) {
		w.Error = SlotTakenMessage
		if saveErr := s.save(ctx, w); saveErr != nil {
			return nil, saveErr
		}
		return w, err
	}
	if err != nil {
		return w, err
	}

	w.complete(appt)
	if err := s.save(ctx, w); err != nil {
		s.logger.Warn("booking: wizard save after reserve failed", "session_id", id, "appointment_id", appt.ID, "error", err)
	}
	return w, nil
}

// Reserve books a slot in one call without a session. The doctor and date
// gates of the wizard still apply.
func (s *WizardService) Reserve(ctx context.Context, req ReserveRequest) (*records.Appointment, error) {
	if err := req.Patient.Validate(s.reasons); err != nil {
		return nil, err
	}
	if err := s.checkBookable(ctx, req.DoctorID, req.Date); err != nil {
		return nil, err
	}
	return s.checker.CheckAndReserve(ctx, req)
}

// checkBookable requires an existing doctor who passes the filter and a date
// that is not in the past.
func (s *WizardService) checkBookable(ctx context.Context, doctorID, date string) error {
	if strings.TrimSpace(doctorID) == "" {
		return invalid("doctorId", "doktor seçilmelidir")
	}
	if err := checkDate(date, s.now()); err != nil {
		return err
	}
	doctor, err := s.doctor(ctx, doctorID)
	if err != nil {
		return err
	}
	if !s.filter(*doctor, date) {
		return invalid("date", "doktor bu tarihte çalışmıyor")
	}
	return nil
}

func (s *WizardService) doctor(ctx context.Context, id string) (*records.Doctor, error) {
	doctor, err := s.doctors.GetDoctor(ctx, id)
	if errors.Is(err, records.ErrNotFound) {
		return nil, invalid("doctorId", "doktor bulunamadı")
	}
	return doctor, err
}

func (s *WizardService) update(ctx context.Context, id string, fn func(*Wizard) error) (*Wizard, error) {
	w, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(w); err != nil {
		return w, err
	}
	if err := s.save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WizardService) save(ctx context.Context, w *Wizard) error {
	w.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, w); err != nil {
		return fmt.Errorf("booking: persist session: %w", err)
	}
	return nil
}
