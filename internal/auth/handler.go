package auth

import (
	"errors"
	"net/http"

	"github.com/wolfman30/dentaai-platform/internal/compliance"
	"github.com/wolfman30/dentaai-platform/internal/http/respond"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// Handler serves admin login and logout.
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

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session token.
// POST /api/admin/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	ctx := compliance.WithActor(r.Context(), req.Username)

	session, err := h.service.Login(ctx, req.Username, req.Password)
	if errors.Is(err, ErrAuthFailure) {
		if err := h.audit.Record(ctx, compliance.EventAdminLoginFailed, "admin", req.Username, nil); err != nil {
			h.logger.Warn("audit record failed", "error", err)
		}
		respond.Error(w, FailureMessage, http.StatusUnauthorized)
		return
	}
	if err != nil {
		respond.StoreError(w, h.logger, "admin login failed", err)
		return
	}

	if err := h.audit.Record(ctx, compliance.EventAdminLogin, "session", session.ID, nil); err != nil {
		h.logger.Warn("audit record failed", "error", err)
	}
	respond.JSON(w, http.StatusOK, session)
}

// Logout revokes the caller's session.
// POST /api/admin/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		respond.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.service.Logout(r.Context(), session.ID); err != nil {
		respond.StoreError(w, h.logger, "admin logout failed", err)
		return
	}
	if err := h.audit.Record(r.Context(), compliance.EventAdminLogout, "session", session.ID, nil); err != nil {
		h.logger.Warn("audit record failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
