// Package records gives typed access to the clinic collections held by the
// document store.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/wolfman30/dentaai-platform/internal/store"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = store.ErrNotFound

// ActiveSlotConstraint is the in-memory twin of appointments_active_slot_idx:
// one non-cancelled appointment per doctor, date and time.
func ActiveSlotConstraint() store.Constraint {
	return store.Constraint{
		Name:       "appointments_active_slot_idx",
		Collection: store.Appointments,
		Fields:     []string{"doctorId", "date", "time"},
		Applies: func(f store.Fields) bool {
			return f["status"] != string(StatusCancelled)
		},
	}
}

// Client wraps a DocumentStore with typed collection helpers.
type Client struct {
	store  store.DocumentStore
	logger *logging.Logger

	seedMu sync.Mutex
}

// NewClient creates a records client.
func NewClient(s store.DocumentStore, logger *logging.Logger) *Client {
	if s == nil {
		panic("records: document store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{store: s, logger: logger}
}

// --- Doctors ---

// ListDoctors returns all doctors, seeding the collection when it is empty.
func (c *Client) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return listSeeded(ctx, c, store.Doctors, seedDoctors)
}

// GetDoctor loads a doctor by id.
func (c *Client) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	return get[Doctor](ctx, c.store, store.Doctors, id)
}

// CreateDoctor inserts a doctor and returns it with its new id.
func (c *Client) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	d.Reviews = nil
	id, err := insert(ctx, c.store, store.Doctors, d)
	if err != nil {
		return nil, err
	}
	d.ID = id
	return &d, nil
}

// DeleteDoctor removes a doctor.
func (c *Client) DeleteDoctor(ctx context.Context, id string) error {
	return remove(ctx, c.store, store.Doctors, id)
}

// --- Services ---

// ListServices returns the price list, seeding it when empty.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	return listSeeded(ctx, c, store.Services, seedServices)
}

// CreateService inserts a service.
func (c *Client) CreateService(ctx context.Context, s Service) (*Service, error) {
	id, err := insert(ctx, c.store, store.Services, s)
	if err != nil {
		return nil, err
	}
	s.ID = id
	return &s, nil
}

// DeleteService removes a service.
func (c *Client) DeleteService(ctx context.Context, id string) error {
	return remove(ctx, c.store, store.Services, id)
}

// --- Appointments ---

// ListAppointments returns every appointment in store order.
func (c *Client) ListAppointments(ctx context.Context) ([]Appointment, error) {
	return query[Appointment](ctx, c.store, store.Appointments)
}

// GetAppointment loads an appointment by id.
func (c *Client) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	return get[Appointment](ctx, c.store, store.Appointments, id)
}

// AppointmentsAtSlot returns every appointment, cancelled included, at the exact slot.
func (c *Client) AppointmentsAtSlot(ctx context.Context, doctorID, date, time string) ([]Appointment, error) {
	return query[Appointment](ctx, c.store, store.Appointments,
		store.Eq("doctorId", doctorID),
		store.Eq("date", date),
		store.Eq("time", time),
	)
}

// AppointmentsForDay returns a doctor's appointments on a date.
func (c *Client) AppointmentsForDay(ctx context.Context, doctorID, date string) ([]Appointment, error) {
	return query[Appointment](ctx, c.store, store.Appointments,
		store.Eq("doctorId", doctorID),
		store.Eq("date", date),
	)
}

// InsertAppointment writes a new appointment. A store.ErrConflict means the
// slot already has an active occupant.
func (c *Client) InsertAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	id, err := insert(ctx, c.store, store.Appointments, a)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return &a, nil
}

// UpdateAppointmentStatus overwrites the status field only.
func (c *Client) UpdateAppointmentStatus(ctx context.Context, id string, status Status) error {
	if err := c.store.Update(ctx, store.Appointments, id, store.Fields{"status": string(status)}); err != nil {
		return fmt.Errorf("records: update appointment %s status: %w", id, err)
	}
	return nil
}

// DeleteAppointment removes an appointment outright.
func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return remove(ctx, c.store, store.Appointments, id)
}

// --- Reviews ---

// ListReviews returns every review in store order.
func (c *Client) ListReviews(ctx context.Context) ([]Review, error) {
	return query[Review](ctx, c.store, store.Reviews)
}

// ListReviewsForDoctor returns the reviews of one doctor.
func (c *Client) ListReviewsForDoctor(ctx context.Context, doctorID string) ([]Review, error) {
	return query[Review](ctx, c.store, store.Reviews, store.Eq("doctorId", doctorID))
}

// CreateReview inserts a review.
func (c *Client) CreateReview(ctx context.Context, r Review) (*Review, error) {
	id, err := insert(ctx, c.store, store.Reviews, r)
	if err != nil {
		return nil, err
	}
	r.ID = id
	return &r, nil
}

// --- AI logs ---

// ListAILogs returns analysis logs newest first.
func (c *Client) ListAILogs(ctx context.Context) ([]AIAnalysisLog, error) {
	logs, err := query[AIAnalysisLog](ctx, c.store, store.AILogs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Timestamp > logs[j].Timestamp })
	return logs, nil
}

// GetAILog loads one analysis log.
func (c *Client) GetAILog(ctx context.Context, id string) (*AIAnalysisLog, error) {
	return get[AIAnalysisLog](ctx, c.store, store.AILogs, id)
}

// CreateAILog appends an analysis log.
func (c *Client) CreateAILog(ctx context.Context, l AIAnalysisLog) (*AIAnalysisLog, error) {
	id, err := insert(ctx, c.store, store.AILogs, l)
	if err != nil {
		return nil, err
	}
	l.ID = id
	return &l, nil
}

// SetAILogComment attaches the doctor's comment; no other field is mutable.
func (c *Client) SetAILogComment(ctx context.Context, id, comment string) error {
	if err := c.store.Update(ctx, store.AILogs, id, store.Fields{"doctorComment": comment}); err != nil {
		return fmt.Errorf("records: comment ai log %s: %w", id, err)
	}
	return nil
}

// --- Admins ---

// ListAdmins returns every admin credential.
func (c *Client) ListAdmins(ctx context.Context) ([]Admin, error) {
	return query[Admin](ctx, c.store, store.Admins)
}

// CreateAdmin inserts an admin credential.
func (c *Client) CreateAdmin(ctx context.Context, a Admin) (*Admin, error) {
	id, err := insert(ctx, c.store, store.Admins, a)
	if err != nil {
		return nil, err
	}
	a.ID = id
	return &a, nil
}

// --- generic helpers ---

func listSeeded[T any](ctx context.Context, c *Client, coll store.Collection, seed []T) ([]T, error) {
	items, err := query[T](ctx, c.store, coll)
	if err != nil || len(items) > 0 {
		return items, err
	}

	c.seedMu.Lock()
	defer c.seedMu.Unlock()

	// Another request may have seeded while we waited.
	items, err = query[T](ctx, c.store, coll)
	if err != nil || len(items) > 0 {
		return items, err
	}
	c.logger.Info("collection empty, loading seed data", "collection", coll, "count", len(seed))
	for _, item := range seed {
		if _, err := insert(ctx, c.store, coll, item); err != nil {
			return nil, err
		}
	}
	return query[T](ctx, c.store, coll)
}

func get[T any](ctx context.Context, s store.DocumentStore, coll store.Collection, id string) (*T, error) {
	doc, err := s.Get(ctx, coll, id)
	if err != nil {
		return nil, fmt.Errorf("records: get %s %s: %w", coll, id, err)
	}
	var out T
	if err := decode(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func query[T any](ctx context.Context, s store.DocumentStore, coll store.Collection, filters ...store.Filter) ([]T, error) {
	var (
		docs []store.Document
		err  error
	)
	if len(filters) == 0 {
		docs, err = s.List(ctx, coll)
	} else {
		docs, err = s.Query(ctx, coll, filters...)
	}
	if err != nil {
		return nil, fmt.Errorf("records: list %s: %w", coll, err)
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := decode(doc, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func insert(ctx context.Context, s store.DocumentStore, coll store.Collection, v any) (string, error) {
	fields, err := encode(v)
	if err != nil {
		return "", err
	}
	id, err := s.Insert(ctx, coll, fields)
	if err != nil {
		return "", fmt.Errorf("records: insert %s: %w", coll, err)
	}
	return id, nil
}

func remove(ctx context.Context, s store.DocumentStore, coll store.Collection, id string) error {
	if err := s.Delete(ctx, coll, id); err != nil {
		return fmt.Errorf("records: delete %s %s: %w", coll, id, err)
	}
	return nil
}

func encode(v any) (store.Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("records: encode: %w", err)
	}
	var fields store.Fields
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("records: encode: %w", err)
	}
	delete(fields, "id")
	return fields, nil
}

func decode(doc store.Document, dst any) error {
	fields := make(store.Fields, len(doc.Fields)+1)
	for k, v := range doc.Fields {
		fields[k] = v
	}
	fields["id"] = doc.ID
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("records: decode %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("records: decode %s: %w", doc.ID, err)
	}
	return nil
}
