package clinic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/internal/store"
)

func TestPostgresStats_AppointmentStats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COALESCE\(data->>'status', ''\), COUNT\(\*\)`).
		WithArgs("appointments").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("pending", int64(2)).
			AddRow("completed", int64(3)).
			AddRow("cancelled", int64(1)))
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT COALESCE\(data->>'patientTC', ''\)\) FROM documents WHERE collection = \$1`).
		WithArgs("appointments").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(4)))

	stats, err := NewPostgresStatsWithDB(mock).AppointmentStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[records.StatusPending])
	assert.Equal(t, int64(3), stats.ByStatus[records.StatusCompleted])
	assert.Equal(t, int64(4), stats.Patients)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStats_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COALESCE`).WithArgs("appointments").WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresStatsWithDB(mock).AppointmentStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count by status")
}

func TestPostgresStats_AppointmentsByDay(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT data->>'date' AS day`).
		WithArgs("appointments", "2025-03-01", "2025-03-08").
		WillReturnRows(pgxmock.NewRows([]string{"day", "appointments", "completed"}).
			AddRow("2025-03-02", int64(4), int64(1)).
			AddRow("2025-03-05", int64(1), int64(0)))

	days, err := NewPostgresStatsWithDB(mock).AppointmentsByDay(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-03-02", days[0].DayLabel)
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), days[0].Day)
	assert.Equal(t, int64(4), days[0].Appointments)
	assert.Equal(t, int64(1), days[0].Completed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordsStats(t *testing.T) {
	rc := records.NewClient(store.NewMemoryStore(records.ActiveSlotConstraint()), nil)
	ctx := context.Background()
	for _, a := range []records.Appointment{
		{DoctorID: "d1", PatientTC: "11111111111", Date: "2025-03-02", Time: "09:00", Status: records.StatusCompleted},
		{DoctorID: "d1", PatientTC: "11111111111", Date: "2025-03-02", Time: "10:00", Status: records.StatusPending},
		{DoctorID: "d2", PatientTC: "22222222222", Date: "2025-03-04", Time: "09:00", Status: records.StatusPending},
		{DoctorID: "d2", PatientTC: "33333333333", Date: "2025-04-01", Time: "09:00", Status: records.StatusCancelled},
	} {
		_, err := rc.InsertAppointment(ctx, a)
		require.NoError(t, err)
	}

	s := NewRecordsStats(rc)
	stats, err := s.AppointmentStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[records.StatusPending])
	assert.Equal(t, int64(1), stats.ByStatus[records.StatusCompleted])
	assert.Equal(t, int64(3), stats.Patients)

	days, err := s.AppointmentsByDay(ctx, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	filled := fillMissingDays(days, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC))
	require.Len(t, filled, 7)
	assert.Equal(t, int64(2), filled[1].Appointments)
	assert.Equal(t, int64(1), filled[1].Completed)
	assert.Equal(t, int64(1), filled[3].Appointments)
	assert.Equal(t, int64(0), filled[0].Appointments)
}
