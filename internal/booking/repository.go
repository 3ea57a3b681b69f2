package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrDuplicateBooking is returned by the repository when the active-slot
	// uniqueness constraint rejects a write.
	ErrDuplicateBooking = errors.New("doctor already has an active appointment at this instant")
)

// Repository contains all DB interactions needed by the service. Ordinary
// absence is reported through the sentinel errors above, never a panic.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	// SearchDoctors filters by name substring (case-insensitive) and exact
	// specialty (case-insensitive). Empty arguments apply no constraint.
	SearchDoctors(ctx context.Context, name, specialty string) ([]Doctor, error)

	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// ListDoctorAppointmentsBetween returns the doctor's non-cancelled
	// appointments whose instant falls within [start, end].
	ListDoctorAppointmentsBetween(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]Appointment, error)
	// ListDoctorDay returns all of a doctor's appointments for a day window,
	// hydrated, optionally narrowed by patient-name substring.
	ListDoctorDay(ctx context.Context, doctorID uuid.UUID, start, end time.Time, patientName string) ([]AppointmentDetail, error)

	// SaveAppointment persists a new appointment and its optional payment in
	// a single transaction.
	SaveAppointment(ctx context.Context, appt *Appointment) error
	// UpdateAppointmentSchedule rewrites only the doctor and instant of an
	// existing appointment.
	UpdateAppointmentSchedule(ctx context.Context, id, doctorID uuid.UUID, at time.Time) (*Appointment, error)
	// UpdateAppointmentStatus moves an appointment from one status to
	// another; it reports ErrAppointmentNotFound when no row holds the
	// expected current status.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// ListPatientAppointments returns a patient's appointments ordered by
	// instant, optionally narrowed by status and doctor-name substring.
	ListPatientAppointments(ctx context.Context, patientID uuid.UUID, status *Status, doctorName string) ([]AppointmentDetail, error)

	// DeleteAppointmentsForDoctor removes every appointment held by a doctor
	// and reports how many rows went away.
	DeleteAppointmentsForDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error)
}
