// Package clinic serves the doctor roster, the price list and patient
// reviews, plus the admin dashboard built on top of them.
package clinic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wolfman30/dentaai-platform/internal/records"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

const (
	// DefaultRating is served for a doctor with no reviews and no stored rating.
	DefaultRating = 5.0

	defaultDoctorImage     = "https://via.placeholder.com/300"
	defaultServiceDuration = "30 dk"
	reviewDateLayout       = "2006-01-02"
)

var defaultAvailableDays = []int{1, 2, 3, 4, 5}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("clinic: invalid %s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Directory reads and edits the public clinic catalogue.
type Directory struct {
	records *records.Client
	logger  *logging.Logger
	now     func() time.Time
}

func NewDirectory(rc *records.Client, logger *logging.Logger) *Directory {
	if rc == nil {
		panic("clinic: records client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Directory{records: rc, logger: logger, now: time.Now}
}

// ListDoctors returns every doctor with its reviews attached and the rating
// recomputed from them. The computed rating is never written back.
func (d *Directory) ListDoctors(ctx context.Context) ([]records.Doctor, error) {
	doctors, err := d.records.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	reviews, err := d.records.ListReviews(ctx)
	if err != nil {
		return nil, err
	}
	return WithRatings(doctors, reviews), nil
}

// GetDoctor satisfies the booking wizard's doctor lookup.
func (d *Directory) GetDoctor(ctx context.Context, id string) (*records.Doctor, error) {
	return d.records.GetDoctor(ctx, id)
}

// WithRatings attaches reviews to their doctors and fills AverageRating.
func WithRatings(doctors []records.Doctor, reviews []records.Review) []records.Doctor {
	byDoctor := make(map[string][]records.Review, len(doctors))
	for _, r := range reviews {
		byDoctor[r.DoctorID] = append(byDoctor[r.DoctorID], r)
	}
	out := make([]records.Doctor, len(doctors))
	for i, doc := range doctors {
		doc.Reviews = byDoctor[doc.ID]
		doc.AverageRating = Rating(doc.AverageRating, doc.Reviews)
		out[i] = doc
	}
	return out
}

// Rating is the mean of the review ratings rounded to one decimal. Without
// reviews it falls back to the stored rating, or DefaultRating when that is zero.
func Rating(stored float64, reviews []records.Review) float64 {
	if len(reviews) == 0 {
		if stored == 0 {
			return DefaultRating
		}
		return round1(stored)
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return round1(float64(sum) / float64(len(reviews)))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// CreateDoctor adds a doctor. Image and working days fall back to defaults.
func (d *Directory) CreateDoctor(ctx context.Context, doc records.Doctor) (*records.Doctor, error) {
	doc.Name = strings.TrimSpace(doc.Name)
	doc.Specialty = strings.TrimSpace(doc.Specialty)
	if doc.Name == "" {
		return nil, invalid("name", "Doktor adı zorunludur.")
	}
	if strings.TrimSpace(doc.Image) == "" {
		doc.Image = defaultDoctorImage
	}
	if len(doc.AvailableDays) == 0 {
		doc.AvailableDays = append([]int(nil), defaultAvailableDays...)
	}
	for _, day := range doc.AvailableDays {
		if day < 0 || day > 6 {
			return nil, invalid("availableDays", "Gün değeri 0 ile 6 arasında olmalıdır.")
		}
	}
	doc.AverageRating = 0
	created, err := d.records.CreateDoctor(ctx, doc)
	if err != nil {
		return nil, err
	}
	d.logger.Info("doctor created", "doctor_id", created.ID)
	return created, nil
}

func (d *Directory) DeleteDoctor(ctx context.Context, id string) error {
	return d.records.DeleteDoctor(ctx, id)
}

func (d *Directory) ListServices(ctx context.Context) ([]records.Service, error) {
	return d.records.ListServices(ctx)
}

// CreateService adds a price-list entry; the duration defaults to 30 minutes.
func (d *Directory) CreateService(ctx context.Context, svc records.Service) (*records.Service, error) {
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		return nil, invalid("name", "Hizmet adı zorunludur.")
	}
	if strings.TrimSpace(svc.Duration) == "" {
		svc.Duration = defaultServiceDuration
	}
	created, err := d.records.CreateService(ctx, svc)
	if err != nil {
		return nil, err
	}
	d.logger.Info("service created", "service_id", created.ID)
	return created, nil
}

func (d *Directory) DeleteService(ctx context.Context, id string) error {
	return d.records.DeleteService(ctx, id)
}

// ListReviews returns reviews newest first, optionally for one doctor. A
// positive limit keeps only the first limit entries.
func (d *Directory) ListReviews(ctx context.Context, doctorID string, limit int) ([]records.Review, error) {
	var (
		reviews []records.Review
		err     error
	)
	if doctorID = strings.TrimSpace(doctorID); doctorID != "" {
		reviews, err = d.records.ListReviewsForDoctor(ctx, doctorID)
	} else {
		reviews, err = d.records.ListReviews(ctx)
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].Date > reviews[j].Date
	})
	if limit > 0 && len(reviews) > limit {
		reviews = reviews[:limit]
	}
	if reviews == nil {
		reviews = []records.Review{}
	}
	return reviews, nil
}

// CreateReview stores a patient's review of an existing doctor. The date is
// always the server's current day.
func (d *Directory) CreateReview(ctx context.Context, r records.Review) (*records.Review, error) {
	r.DoctorID = strings.TrimSpace(r.DoctorID)
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.Comment = strings.TrimSpace(r.Comment)
	switch {
	case r.DoctorID == "":
		return nil, invalid("doctorId", "Lütfen bir doktor seçiniz.")
	case r.PatientName == "":
		return nil, invalid("patientName", "Ad soyad zorunludur.")
	case r.Comment == "":
		return nil, invalid("comment", "Yorum boş olamaz.")
	case r.Rating < 1 || r.Rating > 5:
		return nil, invalid("rating", "Puan 1 ile 5 arasında olmalıdır.")
	}
	if _, err := d.records.GetDoctor(ctx, r.DoctorID); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return nil, invalid("doctorId", "Seçilen doktor bulunamadı.")
		}
		return nil, err
	}
	r.Date = d.now().Format(reviewDateLayout)
	return d.records.CreateReview(ctx, r)
}
