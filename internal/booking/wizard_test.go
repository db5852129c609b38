package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)

func TestWizard_HappyPathSteps(t *testing.T) {
	w := NewWizard("s1")
	assert.Equal(t, StepDoctor, w.Step)

	var verr *ValidationError
	require.ErrorAs(t, w.Next(), &verr)
	assert.Equal(t, "doctorId", verr.Field)

	require.NoError(t, w.SelectDoctor("d1"))
	require.NoError(t, w.Next())
	assert.Equal(t, StepSchedule, w.Step)

	require.ErrorAs(t, w.Next(), &verr)
	assert.Equal(t, "date", verr.Field)

	require.NoError(t, w.SelectDate("2025-06-10", today))
	require.ErrorAs(t, w.Next(), &verr)
	assert.Equal(t, "time", verr.Field)

	require.NoError(t, w.SelectTime("10:00", FixedSlots))
	require.NoError(t, w.Next())
	assert.Equal(t, StepPatient, w.Step)

	require.NoError(t, w.SetPatient(PatientDetails{TC: "123-456 789 01"}))
	assert.Equal(t, "12345678901", w.Patient.TC)
}

func TestWizard_SelectDateRules(t *testing.T) {
	w := &Wizard{ID: "s1", Step: StepSchedule, DoctorID: "d1"}

	var verr *ValidationError
	require.ErrorAs(t, w.SelectDate("2025-05-31", today), &verr)
	assert.Equal(t, "date", verr.Field)
	require.ErrorAs(t, w.SelectDate("not-a-date", today), &verr)

	require.NoError(t, w.SelectDate("2025-06-01", today), "today is bookable")
	require.NoError(t, w.SelectTime("09:00", FixedSlots))

	require.NoError(t, w.SelectDate("2025-06-01", today))
	assert.Equal(t, "09:00", w.Time, "same date keeps time")

	require.NoError(t, w.SelectDate("2025-06-02", today))
	assert.Empty(t, w.Time, "changed date clears time")
}

func TestWizard_SelectTimeRequiresAvailableSlot(t *testing.T) {
	w := &Wizard{ID: "s1", Step: StepSchedule, DoctorID: "d1"}

	var verr *ValidationError
	require.ErrorAs(t, w.SelectTime("10:00", FixedSlots), &verr)
	assert.Equal(t, "date", verr.Field)

	require.NoError(t, w.SelectDate("2025-06-10", today))
	require.ErrorAs(t, w.SelectTime("10:00", []string{"09:00", "11:00"}), &verr)
	assert.Equal(t, "time", verr.Field)
}

func TestWizard_OperationsOutOfOrder(t *testing.T) {
	w := NewWizard("s1")
	assert.ErrorIs(t, w.SelectDate("2025-06-10", today), ErrWrongStep)
	assert.ErrorIs(t, w.SetPatient(PatientDetails{}), ErrWrongStep)
	assert.ErrorIs(t, w.Back(), ErrWrongStep)
	_, err := w.Request(NewVisitReasons(nil))
	assert.ErrorIs(t, err, ErrWrongStep)

	w.Step = StepPatient
	assert.ErrorIs(t, w.Next(), ErrWrongStep)
	assert.ErrorIs(t, w.SelectDoctor("d2"), ErrWrongStep)
}

func TestWizard_BackAndReset(t *testing.T) {
	w := &Wizard{ID: "s1", Step: StepPatient, DoctorID: "d1", Date: "2025-06-10", Time: "10:00", Error: SlotTakenMessage}
	require.NoError(t, w.Back())
	assert.Equal(t, StepSchedule, w.Step)
	assert.Empty(t, w.Error)
	require.NoError(t, w.Back())
	assert.Equal(t, StepDoctor, w.Step)

	w.Reset()
	assert.Equal(t, Wizard{ID: "s1", Step: StepDoctor}, *w)
}

func TestWizard_ChangingDoctorClearsSchedule(t *testing.T) {
	w := &Wizard{ID: "s1", Step: StepDoctor, DoctorID: "d1", Date: "2025-06-10", Time: "10:00"}
	require.NoError(t, w.SelectDoctor("d1"))
	assert.Equal(t, "10:00", w.Time)
	require.NoError(t, w.SelectDoctor("d2"))
	assert.Empty(t, w.Date)
	assert.Empty(t, w.Time)
}

func TestWizard_RequestValidatesPatient(t *testing.T) {
	reasons := NewVisitReasons([]string{"Kanal Tedavisi"})
	base := func() *Wizard {
		return &Wizard{ID: "s1", Step: StepPatient, DoctorID: "d1", Date: "2025-06-10", Time: "10:00", Patient: samplePatient("Ali")}
	}

	cases := []struct {
		name  string
		mut   func(*PatientDetails)
		field string
	}{
		{"missing name", func(p *PatientDetails) { p.Name = "  " }, "name"},
		{"missing phone", func(p *PatientDetails) { p.Phone = "" }, "phone"},
		{"short tc", func(p *PatientDetails) { p.TC = "1234" }, "tc"},
		{"long tc", func(p *PatientDetails) { p.TC = "123456789012" }, "tc"},
		{"age zero", func(p *PatientDetails) { p.Age = 0 }, "age"},
		{"age too high", func(p *PatientDetails) { p.Age = 121 }, "age"},
		{"missing history", func(p *PatientDetails) { p.MedicalHistory = "" }, "medicalHistory"},
		{"unknown reason", func(p *PatientDetails) { p.VisitReason = "Botoks" }, "visitReason"},
		{"empty custom", func(p *PatientDetails) { p.VisitReason = "custom:  " }, "visitReason"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := base()
			tc.mut(&w.Patient)
			_, err := w.Request(reasons)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	w := base()
	w.Patient.VisitReason = ""
	w.Patient.Age = 120
	req, err := w.Request(reasons)
	require.NoError(t, err)
	assert.Equal(t, DefaultVisitReason, req.Patient.VisitReason)
	assert.Equal(t, "d1", req.DoctorID)
	assert.Equal(t, "10:00", req.Time)
}

func TestVisitReasons_Normalize(t *testing.T) {
	reasons := NewVisitReasons([]string{"Kanal Tedavisi", " Diş Çekimi ", "Kanal Tedavisi"})
	assert.Equal(t, []string{DefaultVisitReason, "Kanal Tedavisi", "Diş Çekimi"}, reasons.List())

	got, err := reasons.Normalize(" Diş Çekimi ")
	require.NoError(t, err)
	assert.Equal(t, "Diş Çekimi", got)

	got, err = reasons.Normalize("custom: Protez kontrolü ")
	require.NoError(t, err)
	assert.Equal(t, "custom:Protez kontrolü", got)
}

func TestFreeSlotsPreservesOrder(t *testing.T) {
	assert.Equal(t, FixedSlots, FreeSlots(nil))
	assert.True(t, IsSlot("13:00"))
	assert.False(t, IsSlot("12:00"))
}
