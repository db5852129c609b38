package booking

import (
	"slices"
	"strings"
	"time"

	"github.com/wolfman30/dentaai-platform/internal/records"
)

// Step is a wizard stage.
type Step int

const (
	StepDoctor   Step = 1
	StepSchedule Step = 2
	StepPatient  Step = 3
	StepDone     Step = 4
)

// Wizard is one patient's progress through doctor, schedule and patient
// details. It is a plain value; WizardService persists it between requests.
type Wizard struct {
	ID          string               `json:"id"`
	Step        Step                 `json:"step"`
	DoctorID    string               `json:"doctorId,omitempty"`
	Date        string               `json:"date,omitempty"`
	Time        string               `json:"time,omitempty"`
	Patient     PatientDetails       `json:"patient"`
	Error       string               `json:"error,omitempty"`
	Appointment *records.Appointment `json:"appointment,omitempty"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// NewWizard starts a wizard at the doctor step.
func NewWizard(id string) *Wizard {
	return &Wizard{ID: id, Step: StepDoctor}
}

func (w *Wizard) at(step Step) error {
	if w.Step != step {
		return ErrWrongStep
	}
	return nil
}

// SelectDoctor records the chosen doctor.
func (w *Wizard) SelectDoctor(doctorID string) error {
	if err := w.at(StepDoctor); err != nil {
		return err
	}
	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		return invalid("doctorId", "doktor seçilmelidir")
	}
	if doctorID != w.DoctorID {
		w.Date, w.Time = "", ""
	}
	w.DoctorID = doctorID
	return nil
}

// SelectDate sets the appointment date. Past dates are rejected and a changed
// date clears the chosen time.
func (w *Wizard) SelectDate(date string, today time.Time) error {
	if err := w.at(StepSchedule); err != nil {
		return err
	}
	if err := checkDate(date, today); err != nil {
		return err
	}
	if date != w.Date {
		w.Time = ""
	}
	w.Date = date
	return nil
}

// SelectTime sets the slot, which must be in the advisory available list.
func (w *Wizard) SelectTime(t string, available []string) error {
	if err := w.at(StepSchedule); err != nil {
		return err
	}
	if w.Date == "" {
		return invalid("date", "önce tarih seçilmelidir")
	}
	if !slices.Contains(available, t) {
		return invalid("time", "seçilen saat müsait değil")
	}
	w.Time = t
	return nil
}

// SetPatient stores the patient form. Only the national ID is normalized
// here; the rest is validated on submit.
func (w *Wizard) SetPatient(details PatientDetails) error {
	if err := w.at(StepPatient); err != nil {
		return err
	}
	details.TC = DigitsOnly(details.TC)
	w.Patient = details
	return nil
}

// Next advances one step if the current step is complete.
func (w *Wizard) Next() error {
	switch w.Step {
	case StepDoctor:
		if w.DoctorID == "" {
			return invalid("doctorId", "doktor seçilmelidir")
		}
		w.Step = StepSchedule
	case StepSchedule:
		if w.Date == "" {
			return invalid("date", "tarih seçilmelidir")
		}
		if w.Time == "" {
			return invalid("time", "saat seçilmelidir")
		}
		w.Step = StepPatient
	default:
		return ErrWrongStep
	}
	w.Error = ""
	return nil
}

// Back returns to the previous step from schedule or patient.
func (w *Wizard) Back() error {
	switch w.Step {
	case StepSchedule, StepPatient:
		w.Step--
		w.Error = ""
		return nil
	}
	return ErrWrongStep
}

// Reset restarts the wizard keeping its id.
func (w *Wizard) Reset() {
	*w = Wizard{ID: w.ID, Step: StepDoctor}
}

// Request validates the patient form and builds the reservation.
func (w *Wizard) Request(reasons VisitReasons) (ReserveRequest, error) {
	if err := w.at(StepPatient); err != nil {
		return ReserveRequest{}, err
	}
	p := w.Patient
	if err := p.Validate(reasons); err != nil {
		return ReserveRequest{}, err
	}
	w.Patient = p
	return ReserveRequest{DoctorID: w.DoctorID, Date: w.Date, Time: w.Time, Patient: p}, nil
}

// complete moves the wizard to the confirmation view.
func (w *Wizard) complete(appt *records.Appointment) {
	w.Step = StepDone
	w.Appointment = appt
	w.Error = ""
}

// checkDate rejects malformed dates and days before today.
func checkDate(date string, today time.Time) error {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return invalid("date", "tarih YYYY-MM-DD biçiminde olmalıdır")
	}
	if d.Before(truncateDay(today)) {
		return invalid("date", "geçmiş bir tarih seçilemez")
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
