package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Constraint declares a (partial) unique index for MemoryStore. Postgres
// enforces the same rules through indexes created by migrations.
type Constraint struct {
	Name       string
	Collection Collection
	Fields     []string
	// Applies limits the constraint to matching documents. Nil means all.
	Applies func(Fields) bool
}

func (c Constraint) covers(fields Fields) bool {
	if c.Applies != nil && !c.Applies(fields) {
		return false
	}
	for _, f := range c.Fields {
		if _, ok := fields[f]; !ok {
			return false
		}
	}
	return true
}

func (c Constraint) collides(a, b Fields) bool {
	for _, f := range c.Fields {
		if !reflect.DeepEqual(a[f], b[f]) {
			return false
		}
	}
	return true
}

type memoryCollection struct {
	order []string
	docs  map[string]Fields
}

// MemoryStore is a process-local DocumentStore used for development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[Collection]*memoryCollection
	constraints []Constraint
	newID       func() string
}

// NewMemoryStore creates an empty store enforcing the given constraints.
func NewMemoryStore(constraints ...Constraint) *MemoryStore {
	return &MemoryStore{
		collections: make(map[Collection]*memoryCollection),
		constraints: constraints,
		newID:       uuid.NewString,
	}
}

func (s *MemoryStore) collection(coll Collection) *memoryCollection {
	c, ok := s.collections[coll]
	if !ok {
		c = &memoryCollection{docs: make(map[string]Fields)}
		s.collections[coll] = c
	}
	return c
}

// List returns every document of coll in insertion order.
func (s *MemoryStore) List(ctx context.Context, coll Collection) ([]Document, error) {
	return s.Query(ctx, coll)
}

// Get returns a single document.
func (s *MemoryStore) Get(ctx context.Context, coll Collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[coll]
	if !ok {
		return Document{}, ErrNotFound
	}
	fields, ok := c.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

// Insert stores fields under a new id after checking constraints.
func (s *MemoryStore) Insert(ctx context.Context, coll Collection, fields Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(coll)
	if err := s.checkConstraints(coll, c, "", normalized); err != nil {
		return "", err
	}
	id := s.newID()
	c.docs[id] = normalized
	c.order = append(c.order, id)
	return id, nil
}

// Update merges partial into an existing document.
func (s *MemoryStore) Update(ctx context.Context, coll Collection, id string, partial Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := normalizeFields(partial)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(coll)
	current, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	merged := cloneFields(current)
	for k, v := range normalized {
		merged[k] = v
	}
	if err := s.checkConstraints(coll, c, id, merged); err != nil {
		return err
	}
	c.docs[id] = merged
	return nil
}

// Delete removes a document. Deleting a missing id is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, coll Collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[coll]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Query returns documents matching every filter, in insertion order.
func (s *MemoryStore) Query(ctx context.Context, coll Collection, filters ...Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[coll]
	if !ok {
		return nil, nil
	}
	var out []Document
	for _, id := range c.order {
		fields := c.docs[id]
		if matches(fields, filters) {
			out = append(out, Document{ID: id, Fields: cloneFields(fields)})
		}
	}
	return out, nil
}

// checkConstraints must be called with s.mu held for writing.
func (s *MemoryStore) checkConstraints(coll Collection, c *memoryCollection, selfID string, candidate Fields) error {
	for _, constraint := range s.constraints {
		if constraint.Collection != coll || !constraint.covers(candidate) {
			continue
		}
		for id, existing := range c.docs {
			if id == selfID || !constraint.covers(existing) {
				continue
			}
			if constraint.collides(existing, candidate) {
				return fmt.Errorf("%w: %s", ErrConflict, constraint.Name)
			}
		}
	}
	return nil
}
