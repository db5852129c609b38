package clinic

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/dentaai-platform/internal/compliance"
	"github.com/wolfman30/dentaai-platform/internal/http/respond"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// Handler provides the catalogue endpoints.
type Handler struct {
	directory *Directory
	audit     *compliance.AuditService
	logger    *logging.Logger
}

func NewHandler(directory *Directory, audit *compliance.AuditService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{directory: directory, audit: audit, logger: logger}
}

// PublicRoutes mounts under /api.
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/doctors", h.ListDoctors)
	r.Get("/services", h.ListServices)
	r.Get("/reviews", h.ListReviews)
	r.Post("/reviews", h.CreateReview)
	return r
}

// AdminRoutes mounts under /api/admin behind the session middleware.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/doctors", h.CreateDoctor)
	r.Delete("/doctors/{doctorID}", h.DeleteDoctor)
	r.Post("/services", h.CreateService)
	r.Delete("/services/{serviceID}", h.DeleteService)
	return r
}

func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.directory.ListDoctors(r.Context())
	if err != nil {
		respond.StoreError(w, h.logger, "failed to list doctors", err)
		return
	}
	respond.JSON(w, http.StatusOK, doctors)
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.directory.ListServices(r.Context())
	if err != nil {
		respond.StoreError(w, h.logger, "failed to list services", err)
		return
	}
	respond.JSON(w, http.StatusOK, services)
}

// ListReviews returns reviews newest first.
// GET /api/reviews?doctor_id=&limit=
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	reviews, err := h.directory.ListReviews(r.Context(), r.URL.Query().Get("doctor_id"), limit)
	if err != nil {
		respond.StoreError(w, h.logger, "failed to list reviews", err)
		return
	}
	respond.JSON(w, http.StatusOK, reviews)
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req records.Review
	if !respond.Decode(w, r, &req) {
		return
	}
	created, err := h.directory.CreateReview(r.Context(), req)
	if h.failed(w, "failed to create review", err) {
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

func (h *Handler) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req records.Doctor
	if !respond.Decode(w, r, &req) {
		return
	}
	created, err := h.directory.CreateDoctor(r.Context(), req)
	if h.failed(w, "failed to create doctor", err) {
		return
	}
	h.record(r, compliance.EventDoctorCreated, "doctor", created.ID, map[string]string{"name": created.Name})
	respond.JSON(w, http.StatusCreated, created)
}

func (h *Handler) DeleteDoctor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")
	if err := h.directory.DeleteDoctor(r.Context(), id); err != nil {
		respond.StoreError(w, h.logger, "failed to delete doctor", err)
		return
	}
	h.record(r, compliance.EventDoctorDeleted, "doctor", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req records.Service
	if !respond.Decode(w, r, &req) {
		return
	}
	created, err := h.directory.CreateService(r.Context(), req)
	if h.failed(w, "failed to create service", err) {
		return
	}
	h.record(r, compliance.EventServiceCreated, "service", created.ID, map[string]string{"name": created.Name})
	respond.JSON(w, http.StatusCreated, created)
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "serviceID")
	if err := h.directory.DeleteService(r.Context(), id); err != nil {
		respond.StoreError(w, h.logger, "failed to delete service", err)
		return
	}
	h.record(r, compliance.EventServiceDeleted, "service", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) failed(w http.ResponseWriter, msg string, err error) bool {
	if err == nil {
		return false
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.Message, "field": verr.Field})
		return true
	}
	respond.StoreError(w, h.logger, msg, err)
	return true
}

func (h *Handler) record(r *http.Request, event compliance.AuditEventType, targetType, targetID string, details any) {
	if err := h.audit.Record(r.Context(), event, targetType, targetID, details); err != nil {
		h.logger.Warn("audit record failed", "event", event, "error", err)
	}
}
