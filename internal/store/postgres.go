package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// pgxDB is the subset of pgxpool.Pool used by PostgresStore.
type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps every collection in the JSONB documents table.
type PostgresStore struct {
	db pgxDB
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("store: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithDB allows injecting a mock database for testing.
func NewPostgresStoreWithDB(db pgxDB) *PostgresStore {
	return &PostgresStore{db: db}
}

// List returns every document of coll in insertion order.
func (s *PostgresStore) List(ctx context.Context, coll Collection) ([]Document, error) {
	query := `
		SELECT id, data
		FROM documents
		WHERE collection = $1
		ORDER BY seq
	`
	rows, err := s.db.Query(ctx, query, string(coll))
	if err != nil {
		return nil, unavailable("list", coll, err)
	}
	return scanDocuments(rows, coll)
}

// Get returns a single document.
func (s *PostgresStore) Get(ctx context.Context, coll Collection, id string) (Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1 AND id = $2`
	var (
		doc  Document
		data []byte
	)
	if err := s.db.QueryRow(ctx, query, string(coll), id).Scan(&doc.ID, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, unavailable("get", coll, err)
	}
	if err := json.Unmarshal(data, &doc.Fields); err != nil {
		return Document{}, fmt.Errorf("store: decode %s/%s: %w", coll, id, err)
	}
	return doc, nil
}

// Insert stores fields under a new uuid. Unique index violations surface as ErrConflict.
func (s *PostgresStore) Insert(ctx context.Context, coll Collection, fields Fields) (string, error) {
	data, err := encodeFields(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
	`
	if _, err := s.db.Exec(ctx, query, string(coll), id, data); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: %s", ErrConflict, constraintName(err))
		}
		return "", unavailable("insert", coll, err)
	}
	return id, nil
}

// Update merges partial into the stored JSONB object.
func (s *PostgresStore) Update(ctx context.Context, coll Collection, id string, partial Fields) error {
	data, err := encodeFields(partial)
	if err != nil {
		return err
	}
	query := `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
	`
	ct, err := s.db.Exec(ctx, query, string(coll), id, data)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrConflict, constraintName(err))
		}
		return unavailable("update", coll, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document. Deleting a missing id is a no-op.
func (s *PostgresStore) Delete(ctx context.Context, coll Collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := s.db.Exec(ctx, query, string(coll), id); err != nil {
		return unavailable("delete", coll, err)
	}
	return nil
}

// Query returns documents whose data contains every filter value.
func (s *PostgresStore) Query(ctx context.Context, coll Collection, filters ...Filter) ([]Document, error) {
	if len(filters) == 0 {
		return s.List(ctx, coll)
	}
	criteria := make(map[string]any, len(filters))
	for _, f := range filters {
		criteria[f.Field] = f.Value
	}
	data, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("store: encode filters: %w", err)
	}
	query := `
		SELECT id, data
		FROM documents
		WHERE collection = $1 AND data @> $2::jsonb
		ORDER BY seq
	`
	rows, err := s.db.Query(ctx, query, string(coll), data)
	if err != nil {
		return nil, unavailable("query", coll, err)
	}
	return scanDocuments(rows, coll)
}

func scanDocuments(rows pgx.Rows, coll Collection) ([]Document, error) {
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			doc  Document
			data []byte
		)
		if err := rows.Scan(&doc.ID, &data); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", coll, err)
		}
		if err := json.Unmarshal(data, &doc.Fields); err != nil {
			return nil, fmt.Errorf("store: decode %s/%s: %w", coll, doc.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("scan", coll, err)
	}
	return docs, nil
}

func encodeFields(fields Fields) ([]byte, error) {
	clean := make(Fields, len(fields))
	for k, v := range fields {
		if k != "id" {
			clean[k] = v
		}
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("store: encode fields: %w", err)
	}
	return data, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func unavailable(op string, coll Collection, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, op, coll, err)
}
