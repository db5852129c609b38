package appointments

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/dentaai-platform/internal/compliance"
	"github.com/wolfman30/dentaai-platform/internal/http/respond"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// Handler serves the admin appointment list and status actions.
type Handler struct {
	lifecycle *Lifecycle
	audit     *compliance.AuditService
	logger    *logging.Logger
}

func NewHandler(lifecycle *Lifecycle, audit *compliance.AuditService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{lifecycle: lifecycle, audit: audit, logger: logger}
}

// Routes mounts under /api/admin/appointments.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Put("/{appointmentID}/status", h.SetStatus)
	r.Delete("/{appointmentID}", h.Delete)
	return r
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	appts, err := h.lifecycle.List(r.Context())
	if err != nil {
		respond.StoreError(w, h.logger, "failed to list appointments", err)
		return
	}
	respond.JSON(w, http.StatusOK, appts)
}

type statusRequest struct {
	Status records.Status `json:"status"`
}

// SetStatus applies a workflow transition.
// PUT /api/admin/appointments/{appointmentID}/status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")
	var req statusRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	appt, err := h.lifecycle.SetStatus(r.Context(), id, req.Status)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		respond.Error(w, "unknown status", http.StatusUnprocessableEntity)
		return
	case errors.Is(err, ErrInvalidTransition):
		respond.JSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "appointment": appt})
		return
	case errors.Is(err, records.ErrNotFound):
		respond.Error(w, "appointment not found", http.StatusNotFound)
		return
	case err != nil:
		respond.StoreError(w, h.logger, "failed to update appointment status", err)
		return
	}

	if err := h.audit.Record(r.Context(), compliance.EventAppointmentStatus, "appointment", id, map[string]string{"status": string(req.Status)}); err != nil {
		h.logger.Warn("audit record failed", "error", err)
	}
	respond.JSON(w, http.StatusOK, appt)
}

// Delete removes an appointment outright.
// DELETE /api/admin/appointments/{appointmentID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")
	if err := h.lifecycle.Delete(r.Context(), id); err != nil {
		respond.StoreError(w, h.logger, "failed to delete appointment", err)
		return
	}
	if err := h.audit.Record(r.Context(), compliance.EventAppointmentDeleted, "appointment", id, nil); err != nil {
		h.logger.Warn("audit record failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
