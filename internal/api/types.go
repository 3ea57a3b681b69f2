package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/appointment-booking/internal/booking"
)

// BookingService is the slice of the booking engine the HTTP layer needs.
type BookingService interface {
	FreeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	Book(ctx context.Context, appt *booking.Appointment) error
	Update(ctx context.Context, updated *booking.Appointment, requester uuid.UUID) (*booking.Appointment, error)
	Cancel(ctx context.Context, id, requester uuid.UUID) error
	ChangeStatus(ctx context.Context, id uuid.UUID, newStatus booking.Status) bool
	FilterDoctors(ctx context.Context, name, specialty, period string) ([]booking.Doctor, error)
	PatientAppointments(ctx context.Context, patientID uuid.UUID, condition, doctorName string) ([]booking.AppointmentDetail, error)
	DoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName string) ([]booking.AppointmentDetail, error)
	RemoveDoctorAppointments(ctx context.Context, doctorID uuid.UUID) (int64, error)
}

type PaymentRequest struct {
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

type BookAppointmentRequest struct {
	DoctorID string          `json:"doctor_id"`
	Time     string          `json:"time"` // "2006-01-02 15:04"
	Payment  *PaymentRequest `json:"payment,omitempty"`
}

type UpdateAppointmentRequest struct {
	DoctorID string `json:"doctor_id"`
	Time     string `json:"time"`
}

type AppointmentResponse struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	DoctorName  string `json:"doctor_name,omitempty"`
	Specialty   string `json:"specialty,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
}

type DoctorResponse struct {
	ID             uuid.UUID `json:"id"`
	FullName       string    `json:"full_name"`
	Specialty      string    `json:"specialty"`
	AvailableTimes []string  `json:"available_times"`
}

type AvailabilityResponse struct {
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	FreeSlots []string  `json:"free_slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		DoctorID:  a.DoctorID,
		PatientID: a.PatientID,
		Time:      a.Time.Format(booking.InstantLayout),
		Status:    a.Status.String(),
	}
}

func toDetailResponse(d booking.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{
		AppointmentResponse: toAppointmentResponse(&d.Appointment),
	}
	if d.Doctor != nil {
		resp.DoctorName = d.Doctor.FullName
		resp.Specialty = d.Doctor.Specialty
	}
	if d.Patient != nil {
		resp.PatientName = d.Patient.FullName
	}
	return resp
}

func toDoctorResponse(d booking.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:             d.ID,
		FullName:       d.FullName,
		Specialty:      d.Specialty,
		AvailableTimes: d.AvailableTimes,
	}
}
