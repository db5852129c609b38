package compliance

import (
	"net/http"
	"strconv"
	"time"

	"github.com/wolfman30/dentaai-platform/internal/http/respond"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// Handler serves the admin audit trail.
type Handler struct {
	audit  *AuditService
	logger *logging.Logger
}

func NewHandler(audit *AuditService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{audit: audit, logger: logger}
}

// ListEvents returns audit events.
// GET /api/admin/audit?actor=&event_type=&target_id=&since=&until=&limit=&offset=
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := AuditFilter{
		Actor:     q.Get("actor"),
		EventType: AuditEventType(q.Get("event_type")),
		TargetID:  q.Get("target_id"),
		Limit:     100,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			respond.Error(w, "limit must be between 1 and 1000", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respond.Error(w, "offset must be a non-negative integer", http.StatusBadRequest)
			return
		}
		filter.Offset = n
	}
	for key, dst := range map[string]*time.Time{"since": &filter.StartTime, "until": &filter.EndTime} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respond.Error(w, key+" must be RFC3339", http.StatusBadRequest)
			return
		}
		*dst = ts
	}

	events, err := h.audit.QueryEvents(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to query audit events", "error", err)
		respond.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"events": events, "enabled": h.audit.Enabled()})
}
