// Package store is the document store collaborator: schemaless records grouped
// in named collections with equality queries. Typed access lives in records.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Collection names a group of documents.
type Collection string

const (
	Doctors      Collection = "doctors"
	Services     Collection = "services"
	Appointments Collection = "appointments"
	AILogs       Collection = "ai_logs"
	Reviews      Collection = "reviews"
	Admins       Collection = "admins"
)

var (
	// ErrNotFound is returned when a document id does not exist in the collection.
	ErrNotFound = errors.New("store: document not found")
	// ErrConflict is returned when a write would violate a unique constraint.
	ErrConflict = errors.New("store: unique constraint violated")
	// ErrUnavailable wraps transport or backend failures.
	ErrUnavailable = errors.New("store: unavailable")
)

// Fields is the field set of a document, excluding its id.
type Fields map[string]any

// Document is a stored record together with its server-assigned id.
type Document struct {
	ID     string
	Fields Fields
}

// Filter is a single equality predicate. Queries AND all filters together.
type Filter struct {
	Field string
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// DocumentStore is the collection-level contract every backend implements.
// List and Query return documents in insertion order.
type DocumentStore interface {
	List(ctx context.Context, coll Collection) ([]Document, error)
	Get(ctx context.Context, coll Collection, id string) (Document, error)
	Insert(ctx context.Context, coll Collection, fields Fields) (string, error)
	Update(ctx context.Context, coll Collection, id string, partial Fields) error
	Delete(ctx context.Context, coll Collection, id string) error
	Query(ctx context.Context, coll Collection, filters ...Filter) ([]Document, error)
}

// normalize round-trips a value through JSON so in-memory documents compare
// and decode exactly like documents loaded from JSONB.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("store: decode value: %w", err)
	}
	return out, nil
}

func normalizeFields(fields Fields) (Fields, error) {
	out := make(Fields, len(fields))
	for k, v := range fields {
		if k == "id" {
			continue
		}
		n, err := normalize(v)
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

func matches(fields Fields, filters []Filter) bool {
	for _, f := range filters {
		got, ok := fields[f.Field]
		if !ok {
			return false
		}
		want, err := normalize(f.Value)
		if err != nil || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func cloneFields(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
