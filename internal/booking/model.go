package booking

import (
	"time"

	"github.com/google/uuid"
)

// Status is the appointment lifecycle stage. The numeric values are part of
// the storage format and the patient-facing condition filters.
type Status int

const (
	StatusScheduled Status = 0
	StatusCompleted Status = 1
	StatusCancelled Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

type PaymentMethod string

const (
	PaymentCash      PaymentMethod = "cash"
	PaymentCredit    PaymentMethod = "credit"
	PaymentInsurance PaymentMethod = "insurance"
)

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentFailed  PaymentStatus = "failed"
)

type Doctor struct {
	ID        uuid.UUID
	FullName  string
	Specialty string
	// AvailableTimes holds the doctor's declared availability as raw slot
	// strings, either "HH:MM-HH:MM" or "YYYY-MM-DD HH:MM-HH:MM". The list is
	// not guaranteed sorted or deduplicated.
	AvailableTimes []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Patient struct {
	ID        uuid.UUID
	FullName  string
	Email     *string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payment is the optional one-to-one payment record saved atomically with
// its appointment. Amount is in whole currency units.
type Payment struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	Amount        int64
	Method        PaymentMethod
	Status        PaymentStatus
	PaidAt        *time.Time
	CreatedAt     time.Time
}

type Appointment struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	// Time is the booking instant at minute precision, UTC.
	Time      time.Time
	Status    Status
	Payment   *Payment
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EndTime is the derived end of the visit; appointments run one hour.
func (a Appointment) EndTime() time.Time {
	return a.Time.Add(time.Hour)
}

// AppointmentDetail is an appointment hydrated with its doctor and patient,
// used by the read-side query layer.
type AppointmentDetail struct {
	Appointment
	Doctor  *Doctor
	Patient *Patient
}
