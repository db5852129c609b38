package clinic

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/wolfman30/dentaai-platform/internal/http/respond"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

const assistantLatencyFamily = "dentaai_assistant_latency_seconds"

type LatencySnapshot struct {
	Total   int64           `json:"total"`
	P90Ms   float64         `json:"p90_ms"`
	P95Ms   float64         `json:"p95_ms"`
	Buckets []LatencyBucket `json:"buckets"`
}

type LatencyBucket struct {
	LeSeconds float64 `json:"le_seconds"`
	Label     string  `json:"label,omitempty"`
	Count     int64   `json:"count"`
}

// Dashboard is the admin overview payload.
type Dashboard struct {
	PeriodStart           string           `json:"period_start"`
	PeriodEnd             string           `json:"period_end"`
	TotalAppointments     int64            `json:"total_appointments"`
	PendingAppointments   int64            `json:"pending_appointments"`
	CompletedAppointments int64            `json:"completed_appointments"`
	RegisteredPatients    int64            `json:"registered_patients"`
	EstimatedRevenue      int64            `json:"estimated_revenue"`
	Currency              string           `json:"currency"`
	ByStatus              map[string]int64 `json:"by_status"`
	AssistantLatency      LatencySnapshot  `json:"assistant_latency"`
	Daily                 []DayCount       `json:"daily"`
}

// DashboardHandler serves the admin dashboard JSON.
type DashboardHandler struct {
	stats        StatsSource
	gatherer     prometheus.Gatherer
	visitRevenue int64
	logger       *logging.Logger
	now          func() time.Time
}

// NewDashboardHandler builds the handler. visitRevenue is the flat estimate
// credited per completed appointment.
func NewDashboardHandler(stats StatsSource, gatherer prometheus.Gatherer, visitRevenue int, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &DashboardHandler{
		stats:        stats,
		gatherer:     gatherer,
		visitRevenue: int64(visitRevenue),
		logger:       logger,
		now:          time.Now,
	}
}

// GetDashboard returns counters, revenue estimate, daily volume and
// assistant latency.
// GET /api/admin/dashboard
// Query params:
//   - start, end: RFC3339 (both or neither)
//   - days: window on either side of today (default 7) when start/end omitted
//   - operation: restrict the latency snapshot to one assistant operation
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDashboardWindow(r, h.now())
	if err != nil {
		respond.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stats, err := h.stats.AppointmentStats(r.Context())
	if err != nil {
		respond.StoreError(w, h.logger, "failed to compute dashboard stats", err)
		return
	}
	daily, err := h.stats.AppointmentsByDay(r.Context(), start, end)
	if err != nil {
		respond.StoreError(w, h.logger, "failed to query daily appointments", err)
		return
	}

	byStatus := make(map[string]int64, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[string(status)] = n
	}
	completed := stats.ByStatus[records.StatusCompleted]

	respond.JSON(w, http.StatusOK, Dashboard{
		PeriodStart:           start.Format(time.RFC3339),
		PeriodEnd:             end.Format(time.RFC3339),
		TotalAppointments:     stats.Total,
		PendingAppointments:   stats.ByStatus[records.StatusPending],
		CompletedAppointments: completed,
		RegisteredPatients:    stats.Patients,
		EstimatedRevenue:      completed * h.visitRevenue,
		Currency:              "TL",
		ByStatus:              byStatus,
		AssistantLatency:      snapshotAssistantLatency(h.gatherer, strings.TrimSpace(r.URL.Query().Get("operation"))),
		Daily:                 fillMissingDays(daily, start, end),
	})
}

func parseDashboardWindow(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()

	startRaw := strings.TrimSpace(q.Get("start"))
	endRaw := strings.TrimSpace(q.Get("end"))
	if (startRaw == "") != (endRaw == "") {
		return time.Time{}, time.Time{}, fmt.Errorf("both start and end must be provided, or neither")
	}
	if startRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start time, use RFC3339 format")
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time, use RFC3339 format")
		}
		if !end.After(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("end must be after start")
		}
		return start.UTC(), end.UTC(), nil
	}

	days := 7
	if raw := strings.TrimSpace(q.Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid days; must be 1-90")
		}
		days = parsed
	}

	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -days), today.AddDate(0, 0, days+1), nil
}

func fillMissingDays(existing []DayCount, start, end time.Time) []DayCount {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	lookup := map[string]DayCount{}
	for _, d := range existing {
		lookup[d.Day.UTC().Format(dayLayout)] = d
	}

	out := make([]DayCount, 0, int(endDay.Sub(startDay).Hours()/24)+1)
	for day := startDay; day.Before(endDay); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayLayout)
		if found, ok := lookup[key]; ok {
			out = append(out, found)
			continue
		}
		out = append(out, DayCount{Day: day, DayLabel: key})
	}
	return out
}

// snapshotAssistantLatency folds the assistant latency histogram into
// display buckets and percentiles. An empty operation aggregates all of them.
func snapshotAssistantLatency(gatherer prometheus.Gatherer, operation string) LatencySnapshot {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return LatencySnapshot{}
	}

	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == assistantLatencyFamily {
			family = mf
			break
		}
	}
	if family == nil {
		return LatencySnapshot{}
	}

	cumulativeByUpper := map[float64]uint64{}
	var sampleCount uint64
	for _, metric := range family.Metric {
		if metric == nil {
			continue
		}
		if operation != "" && !hasLabel(metric, "operation", operation) {
			continue
		}
		hist := metric.GetHistogram()
		if hist == nil {
			continue
		}
		sampleCount += hist.GetSampleCount()
		for _, b := range hist.Bucket {
			if b != nil {
				cumulativeByUpper[b.GetUpperBound()] += b.GetCumulativeCount()
			}
		}
	}
	if sampleCount == 0 || len(cumulativeByUpper) == 0 {
		return LatencySnapshot{}
	}

	uppers := make([]float64, 0, len(cumulativeByUpper))
	for upper := range cumulativeByUpper {
		uppers = append(uppers, upper)
	}
	sort.Float64s(uppers)

	// The exposition format omits +Inf buckets; anything above the last
	// finite bound is the sample count minus that bucket.
	buckets := make([]LatencyBucket, 0, len(uppers)+1)
	var prev uint64
	var lastFinite float64
	for _, upper := range uppers {
		cum := cumulativeByUpper[upper]
		if math.IsInf(upper, 1) {
			continue
		}
		buckets = append(buckets, LatencyBucket{LeSeconds: upper, Count: delta(cum, prev)})
		lastFinite = upper
		prev = cum
	}
	if overflow := delta(sampleCount, prev); overflow > 0 {
		buckets = append(buckets, LatencyBucket{
			LeSeconds: lastFinite,
			Label:     ">" + formatSeconds(lastFinite),
			Count:     overflow,
		})
	}

	return LatencySnapshot{
		Total:   int64(sampleCount),
		P90Ms:   histogramQuantile(0.90, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		P95Ms:   histogramQuantile(0.95, sampleCount, uppers, cumulativeByUpper) * 1000.0,
		Buckets: buckets,
	}
}

func delta(cum, prev uint64) int64 {
	if cum >= prev {
		return int64(cum - prev)
	}
	return int64(cum)
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, lp := range metric.Label {
		if lp != nil && lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

// histogramQuantile interpolates linearly inside the bucket holding the
// target rank. Ranks past the last finite bound return that bound.
func histogramQuantile(q float64, total uint64, uppers []float64, cumulativeByUpper map[float64]uint64) float64 {
	if total == 0 || q <= 0 || len(uppers) == 0 {
		return 0
	}
	lastFinite := 0.0
	for i := len(uppers) - 1; i >= 0; i-- {
		if !math.IsInf(uppers[i], 1) {
			lastFinite = uppers[i]
			break
		}
	}
	if q >= 1 {
		return lastFinite
	}

	target := q * float64(total)
	var prevUpper, prevCum float64
	for _, upper := range uppers {
		if math.IsInf(upper, 1) {
			break
		}
		cum := float64(cumulativeByUpper[upper])
		if cum < target {
			prevUpper, prevCum = upper, cum
			continue
		}
		bucketCount := cum - prevCum
		if bucketCount <= 0 || upper == prevUpper {
			return upper
		}
		fraction := math.Min(math.Max((target-prevCum)/bucketCount, 0), 1)
		return prevUpper + fraction*(upper-prevUpper)
	}
	return lastFinite
}

func formatSeconds(seconds float64) string {
	switch {
	case seconds <= 0:
		return "0s"
	case seconds < 1:
		return fmt.Sprintf("%.2fs", seconds)
	case seconds < 10:
		return fmt.Sprintf("%.1fs", seconds)
	}
	return fmt.Sprintf("%.0fs", seconds)
}
