package assistant

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/dentaai-platform/internal/compliance"
	"github.com/wolfman30/dentaai-platform/internal/http/respond"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

const maxChatHistory = 50

// Handler exposes the assistant, blog and AI-log endpoints.
type Handler struct {
	service *Service
	audit   *compliance.AuditService
	logger  *logging.Logger
}

func NewHandler(service *Service, audit *compliance.AuditService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, audit: audit, logger: logger}
}

// PublicRoutes mounts under /api/assistant.
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/analyze", h.Analyze)
	r.Post("/chat", h.Chat)
	return r
}

// BlogRoutes mounts under /api/blog.
func (h *Handler) BlogRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/topics", h.Topics)
	r.Get("/articles", h.Article)
	return r
}

// AdminRoutes mounts under /api/admin/ai-logs.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListLogs)
	r.Put("/{logID}/comment", h.Comment)
	return r
}

type analyzeRequest struct {
	Complaint string `json:"complaint"`
	Image     string `json:"image,omitempty"`
}

// Analyze runs the symptom pre-check.
// POST /api/assistant/analyze
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	result, err := h.service.Analyze(r.Context(), req.Complaint, req.Image)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, result)
}

type chatRequest struct {
	History []Turn `json:"history"`
	Message string `json:"message"`
}

// Chat returns the assistant's reply.
// POST /api/assistant/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.fail(w, invalid("message", "Mesaj boş olamaz."))
		return
	}
	if len(req.History) > maxChatHistory {
		req.History = req.History[len(req.History)-maxChatHistory:]
	}
	respond.JSON(w, http.StatusOK, map[string]string{"reply": h.service.Chat(r.Context(), req.History, req.Message)})
}

func (h *Handler) Topics(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, BlogTopics)
}

// Article generates (or serves a cached) blog article.
// GET /api/blog/articles?topic=
func (h *Handler) Article(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		h.fail(w, invalid("topic", "Konu seçiniz."))
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{
		"topic":   topic,
		"content": h.service.GenerateArticle(r.Context(), topic),
	})
}

func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.Logs(r.Context())
	if err != nil {
		respond.StoreError(w, h.logger, "failed to list ai logs", err)
		return
	}
	if logs == nil {
		logs = []records.AIAnalysisLog{}
	}
	respond.JSON(w, http.StatusOK, logs)
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// Comment attaches a doctor's note to an analysis log.
// PUT /api/admin/ai-logs/{logID}/comment
func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "logID")
	var req commentRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.service.Comment(r.Context(), id, req.Comment); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.audit.Record(r.Context(), compliance.EventAILogCommented, "ai_log", id, nil); err != nil {
		h.logger.Warn("audit record failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		respond.JSON(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.Message, "field": verr.Field})
		return
	}
	respond.StoreError(w, h.logger, "assistant request failed", err)
}
