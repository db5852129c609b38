package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresStore_InsertAndQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPostgresStoreWithDB(mock)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("services", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	id, err := s.Insert(ctx, Services, Fields{"name": "Kanal Tedavisi"})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	rows := pgxmock.NewRows([]string{"id", "data"}).
		AddRow("apt-1", []byte(`{"doctorId":"d1","date":"2025-06-10","time":"10:00","status":"pending"}`))
	mock.ExpectQuery(`SELECT id, data\s+FROM documents\s+WHERE collection = \$1 AND data @> \$2::jsonb`).
		WithArgs("appointments", []byte(`{"date":"2025-06-10","doctorId":"d1","time":"10:00"}`)).
		WillReturnRows(rows)

	docs, err := s.Query(ctx, Appointments, Eq("doctorId", "d1"), Eq("date", "2025-06-10"), Eq("time", "10:00"))
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "apt-1" || docs[0].Fields["status"] != "pending" {
		t.Fatalf("unexpected documents: %#v", docs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_InsertUniqueViolation(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPostgresStoreWithDB(mock)
	mock.ExpectExec("INSERT INTO documents").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "appointments_active_slot_idx"})

	_, err = s.Insert(context.Background(), Appointments, Fields{"doctorId": "d1"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPostgresStoreWithDB(mock)
	mock.ExpectQuery("SELECT id, data FROM documents").
		WithArgs("doctors", "missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := s.Get(context.Background(), Doctors, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_UpdateMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPostgresStoreWithDB(mock)
	mock.ExpectExec("UPDATE documents").
		WithArgs("appointments", "apt-9", []byte(`{"status":"confirmed"}`)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = s.Update(context.Background(), Appointments, "apt-9", Fields{"status": "confirmed"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_TransportErrorIsUnavailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	s := NewPostgresStoreWithDB(mock)
	mock.ExpectQuery("SELECT id, data").
		WithArgs("reviews").
		WillReturnError(errors.New("connection refused"))

	if _, err := s.List(context.Background(), Reviews); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
