package booking

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/dentaai-platform/internal/http/respond"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// Handler exposes the booking wizard and direct reservations over HTTP.
type Handler struct {
	wizard *WizardService
	logger *logging.Logger
}

func NewHandler(wizard *WizardService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{wizard: wizard, logger: logger}
}

// Routes mounts under /api/booking.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/slots", h.Slots)
	r.Get("/reasons", h.Reasons)
	r.Post("/sessions", h.StartSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Put("/doctor", h.SelectDoctor)
		r.Put("/schedule", h.SelectSchedule)
		r.Put("/patient", h.SetPatient)
		r.Post("/next", h.Next)
		r.Post("/back", h.Back)
		r.Post("/submit", h.Submit)
		r.Post("/reset", h.Reset)
	})
	return r
}

type errorBody struct {
	Error   string  `json:"error"`
	Field   string  `json:"field,omitempty"`
	Session *Wizard `json:"session,omitempty"`
}

func (h *Handler) fail(w http.ResponseWriter, err error, session *Wizard) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.JSON(w, http.StatusUnprocessableEntity, errorBody{Error: verr.Message, Field: verr.Field, Session: session})
	case errors.Is(err, ErrSlotTaken):
		respond.JSON(w, http.StatusConflict, errorBody{Error: SlotTakenMessage, Session: session})
	case errors.Is(err, ErrWrongStep):
		respond.JSON(w, http.StatusConflict, errorBody{Error: err.Error(), Session: session})
	case errors.Is(err, ErrSessionNotFound):
		respond.Error(w, "booking session not found", http.StatusNotFound)
	default:
		respond.StoreError(w, h.logger, "booking request failed", err)
	}
}

// Slots returns the advisory free slots.
// GET /api/booking/slots?doctor_id=...&date=YYYY-MM-DD
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	doctorID := r.URL.Query().Get("doctor_id")
	date := r.URL.Query().Get("date")
	slots, err := h.wizard.Checker().AvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		h.fail(w, err, nil)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"doctorId": doctorID,
		"date":     date,
		"slots":    slots,
	})
}

// Reasons lists the suggested visit reasons.
func (h *Handler) Reasons(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"reasons":      h.wizard.Reasons().List(),
		"default":      DefaultVisitReason,
		"customPrefix": CustomReasonPrefix,
	})
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Start(r.Context())
	if err != nil {
		h.fail(w, err, nil)
		return
	}
	respond.JSON(w, http.StatusCreated, session)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, err, nil)
		return
	}
	respond.JSON(w, http.StatusOK, session)
}

type selectDoctorRequest struct {
	DoctorID string `json:"doctorId"`
}

func (h *Handler) SelectDoctor(w http.ResponseWriter, r *http.Request) {
	var req selectDoctorRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	session, err := h.wizard.SelectDoctor(r.Context(), chi.URLParam(r, "sessionID"), req.DoctorID)
	h.result(w, session, err)
}

type selectScheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *Handler) SelectSchedule(w http.ResponseWriter, r *http.Request) {
	var req selectScheduleRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	session, err := h.wizard.SelectSchedule(r.Context(), chi.URLParam(r, "sessionID"), req.Date, req.Time)
	h.result(w, session, err)
}

func (h *Handler) SetPatient(w http.ResponseWriter, r *http.Request) {
	var req PatientDetails
	if !respond.Decode(w, r, &req) {
		return
	}
	session, err := h.wizard.SetPatient(r.Context(), chi.URLParam(r, "sessionID"), req)
	h.result(w, session, err)
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Next(r.Context(), chi.URLParam(r, "sessionID"))
	h.result(w, session, err)
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Back(r.Context(), chi.URLParam(r, "sessionID"))
	h.result(w, session, err)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Reset(r.Context(), chi.URLParam(r, "sessionID"))
	h.result(w, session, err)
}

// Submit reserves the slot collected by the session.
// POST /api/booking/sessions/{sessionID}/submit
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	session, err := h.wizard.Submit(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, err, session)
		return
	}
	respond.JSON(w, http.StatusCreated, session)
}

// Reserve books a slot in one call without a wizard session.
// POST /api/appointments
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	appt, err := h.wizard.Reserve(r.Context(), req)
	if err != nil {
		h.fail(w, err, nil)
		return
	}
	respond.JSON(w, http.StatusCreated, appt)
}

func (h *Handler) result(w http.ResponseWriter, session *Wizard, err error) {
	if err != nil {
		h.fail(w, err, session)
		return
	}
	respond.JSON(w, http.StatusOK, session)
}
