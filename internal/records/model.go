package records

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether the appointment still occupies its slot.
func (s Status) Active() bool {
	return s != StatusCancelled
}

// Urgency is the triage level returned by the symptom pre-check.
type Urgency string

const (
	UrgencyLow       Urgency = "Düşük"
	UrgencyMedium    Urgency = "Orta"
	UrgencyHigh      Urgency = "Yüksek"
	UrgencyEmergency Urgency = "Acil"
)

// Doctor is a clinic dentist. AverageRating holds the seed value; the served
// rating is always recomputed from reviews.
type Doctor struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Specialty     string   `json:"specialty"`
	Image         string   `json:"image"`
	AvailableDays []int    `json:"availableDays"`
	AverageRating float64  `json:"averageRating"`
	Reviews       []Review `json:"reviews,omitempty"`
}

// Service is a treatment on the price list. PriceRange and Duration are free text.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PriceRange  string `json:"priceRange"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Appointment is a booked (doctor, date, time) slot.
type Appointment struct {
	ID             string `json:"id"`
	DoctorID       string `json:"doctorId"`
	PatientName    string `json:"patientName"`
	PatientPhone   string `json:"patientPhone"`
	PatientTC      string `json:"patientTC"`
	PatientAge     int    `json:"patientAge"`
	MedicalHistory string `json:"medicalHistory"`
	VisitReason    string `json:"visitReason"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Status         Status `json:"status"`
	Notes          string `json:"notes,omitempty"`
	CreatedAt      int64  `json:"createdAt"`
}

// Review is a patient's rating of a doctor.
type Review struct {
	ID          string `json:"id"`
	DoctorID    string `json:"doctorId"`
	PatientName string `json:"patientName"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	Date        string `json:"date"`
}

// AIAnalysisLog is the audit entry written for every symptom pre-check.
type AIAnalysisLog struct {
	ID            string  `json:"id"`
	UserComplaint string  `json:"userComplaint"`
	AIResponse    string  `json:"aiResponse"`
	Urgency       Urgency `json:"urgency"`
	Timestamp     int64   `json:"timestamp"`
	HasImage      bool    `json:"hasImage"`
	ImageBase64   string  `json:"imageBase64,omitempty"`
	ImageKey      string  `json:"imageKey,omitempty"`
	DoctorComment string  `json:"doctorComment,omitempty"`
}

// Admin is a back-office credential pair.
type Admin struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}
