package patients

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/dentaai-platform/internal/compliance"
	"github.com/wolfman30/dentaai-platform/internal/http/respond"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// Handler serves the admin patient roster.
type Handler struct {
	aggregator *Aggregator
	audit      *compliance.AuditService
	logger     *logging.Logger
}

func NewHandler(aggregator *Aggregator, audit *compliance.AuditService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{aggregator: aggregator, audit: audit, logger: logger}
}

// Routes mounts under /api/admin/patients.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{tc}", h.Get)
	r.Post("/{tc}/sms", h.SendSMS)
	return r
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.aggregator.ListPatients(r.Context())
	if err != nil {
		respond.StoreError(w, h.logger, "failed to list patients", err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.aggregator.Find(r.Context(), chi.URLParam(r, "tc"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	if err != nil {
		respond.StoreError(w, h.logger, "failed to load patient", err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

type smsRequest struct {
	Message string `json:"message"`
}

// SendSMS simulates a manual SMS to a patient.
// POST /api/admin/patients/{tc}/sms
func (h *Handler) SendSMS(w http.ResponseWriter, r *http.Request) {
	var req smsRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respond.Error(w, "message required", http.StatusUnprocessableEntity)
		return
	}
	tc := chi.URLParam(r, "tc")
	msg, err := h.aggregator.SendSMS(r.Context(), tc, strings.TrimSpace(req.Message))
	if errors.Is(err, ErrNotFound) {
		respond.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to send patient sms", "patient_tc", tc, "error", err)
		respond.Error(w, "sms could not be queued", http.StatusBadGateway)
		return
	}
	if err := h.audit.Record(r.Context(), compliance.EventPatientSMSSent, "patient", tc, nil); err != nil {
		h.logger.Warn("audit record failed", "error", err)
	}
	respond.JSON(w, http.StatusAccepted, msg)
}
