package clinic

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/dentaai-platform/internal/patients"
	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/internal/store"
)

const dayLayout = "2006-01-02"

// AppointmentStats are the all-time appointment counters shown on the dashboard.
type AppointmentStats struct {
	Total    int64                    `json:"total"`
	ByStatus map[records.Status]int64 `json:"by_status"`
	Patients int64                    `json:"patients"`
}

// DayCount is the appointment volume for one calendar day.
type DayCount struct {
	Day          time.Time `json:"-"`
	DayLabel     string    `json:"day"`
	Appointments int64     `json:"appointments"`
	Completed    int64     `json:"completed"`
}

// StatsSource computes dashboard counters.
type StatsSource interface {
	AppointmentStats(ctx context.Context) (AppointmentStats, error)
	AppointmentsByDay(ctx context.Context, start, end time.Time) ([]DayCount, error)
}

// AppointmentLister is the records subset RecordsStats needs.
type AppointmentLister interface {
	ListAppointments(ctx context.Context) ([]records.Appointment, error)
}

// RecordsStats derives counters by scanning every appointment. It works on
// any store backend.
type RecordsStats struct {
	appointments AppointmentLister
}

func NewRecordsStats(appointments AppointmentLister) *RecordsStats {
	return &RecordsStats{appointments: appointments}
}

func (s *RecordsStats) AppointmentStats(ctx context.Context) (AppointmentStats, error) {
	appts, err := s.appointments.ListAppointments(ctx)
	if err != nil {
		return AppointmentStats{}, fmt.Errorf("clinic stats: list appointments: %w", err)
	}
	stats := AppointmentStats{
		Total:    int64(len(appts)),
		ByStatus: map[records.Status]int64{},
		Patients: int64(len(patients.Group(appts))),
	}
	for _, a := range appts {
		stats.ByStatus[a.Status]++
	}
	return stats, nil
}

func (s *RecordsStats) AppointmentsByDay(ctx context.Context, start, end time.Time) ([]DayCount, error) {
	appts, err := s.appointments.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("clinic stats: list appointments: %w", err)
	}
	from, to := start.Format(dayLayout), end.Format(dayLayout)
	byDay := map[string]*DayCount{}
	for _, a := range appts {
		if a.Date < from || a.Date >= to {
			continue
		}
		dc, ok := byDay[a.Date]
		if !ok {
			day, err := time.Parse(dayLayout, a.Date)
			if err != nil {
				continue
			}
			dc = &DayCount{Day: day, DayLabel: a.Date}
			byDay[a.Date] = dc
		}
		dc.Appointments++
		if a.Status == records.StatusCompleted {
			dc.Completed++
		}
	}
	out := make([]DayCount, 0, len(byDay))
	for _, dc := range byDay {
		out = append(out, *dc)
	}
	return out, nil
}

// statsDB defines the database interface needed by PostgresStats.
type statsDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStats aggregates directly over the documents table.
type PostgresStats struct {
	db statsDB
}

func NewPostgresStats(pool *pgxpool.Pool) *PostgresStats {
	if pool == nil {
		panic("clinic: pgx pool required for stats")
	}
	return &PostgresStats{db: pool}
}

// NewPostgresStatsWithDB allows injecting a mock database for testing.
func NewPostgresStatsWithDB(db statsDB) *PostgresStats {
	return &PostgresStats{db: db}
}

func (s *PostgresStats) AppointmentStats(ctx context.Context) (AppointmentStats, error) {
	stats := AppointmentStats{ByStatus: map[records.Status]int64{}}

	statusQuery := `
		SELECT COALESCE(data->>'status', ''), COUNT(*)
		FROM documents
		WHERE collection = $1
		GROUP BY 1
	`
	rows, err := s.db.Query(ctx, statusQuery, string(store.Appointments))
	if err != nil {
		return AppointmentStats{}, fmt.Errorf("clinic stats: count by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return AppointmentStats{}, fmt.Errorf("clinic stats: scan status: %w", err)
		}
		stats.ByStatus[records.Status(status)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return AppointmentStats{}, fmt.Errorf("clinic stats: iterate status: %w", err)
	}

	patientQuery := `SELECT COUNT(DISTINCT COALESCE(data->>'patientTC', '')) FROM documents WHERE collection = $1`
	if err := s.db.QueryRow(ctx, patientQuery, string(store.Appointments)).Scan(&stats.Patients); err != nil {
		return AppointmentStats{}, fmt.Errorf("clinic stats: count patients: %w", err)
	}
	return stats, nil
}

func (s *PostgresStats) AppointmentsByDay(ctx context.Context, start, end time.Time) ([]DayCount, error) {
	query := `
		SELECT data->>'date' AS day,
		       COUNT(*) AS appointments,
		       COUNT(*) FILTER (WHERE data->>'status' = 'completed') AS completed
		FROM documents
		WHERE collection = $1
		  AND data->>'date' >= $2
		  AND data->>'date' < $3
		GROUP BY day
		ORDER BY day
	`
	rows, err := s.db.Query(ctx, query, string(store.Appointments), start.Format(dayLayout), end.Format(dayLayout))
	if err != nil {
		return nil, fmt.Errorf("clinic stats: query daily: %w", err)
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.DayLabel, &dc.Appointments, &dc.Completed); err != nil {
			return nil, fmt.Errorf("clinic stats: scan daily: %w", err)
		}
		day, err := time.Parse(dayLayout, dc.DayLabel)
		if err != nil {
			continue
		}
		dc.Day = day
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clinic stats: iterate daily: %w", err)
	}
	return out, nil
}
