package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/appointment-booking/internal/booking"
	redisclient "github.com/clinicdesk/appointment-booking/internal/redis"
)

const dateLayout = "2006-01-02"

func listDoctorsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		doctors, err := svc.FilterDoctors(r.Context(), q.Get("name"), q.Get("specialty"), q.Get("period"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "could not search doctors")
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, toDoctorResponse(d))
		}
		writeJSON(w, http.StatusOK, map[string]any{"doctors": resp})
	}
}

func doctorAvailabilityHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		date, err := time.ParseInLocation(dateLayout, r.URL.Query().Get("date"), time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		free, err := svc.FreeSlots(r.Context(), doctorID, date)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "could not compute availability")
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			DoctorID:  doctorID,
			Date:      date.Format(dateLayout),
			FreeSlots: free,
		})
	}
}

func bookAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFrom(r.Context())

		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		at, err := time.ParseInLocation(booking.InstantLayout, req.Time, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", `time must be "YYYY-MM-DD HH:MM"`)
			return
		}

		appt := &booking.Appointment{
			DoctorID:  doctorID,
			PatientID: identity.ID,
			Time:      at,
		}
		if req.Payment != nil {
			appt.Payment = &booking.Payment{
				Amount: req.Payment.Amount,
				Method: booking.PaymentMethod(req.Payment.Method),
				Status: booking.PaymentPending,
			}
		}

		if err := svc.Book(r.Context(), appt); err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFrom(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		at, err := time.ParseInLocation(booking.InstantLayout, req.Time, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", `time must be "YYYY-MM-DD HH:MM"`)
			return
		}

		updated, err := svc.Update(r.Context(), &booking.Appointment{
			ID:       id,
			DoctorID: doctorID,
			Time:     at,
		}, identity.ID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
	}
}

func cancelAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFrom(r.Context())

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if err := svc.Cancel(r.Context(), id, identity.ID); err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": booking.StatusCancelled.String()})
	}
}

func patientAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := IdentityFrom(r.Context())

		q := r.URL.Query()
		appts, err := svc.PatientAppointments(r.Context(), identity.ID, q.Get("condition"), q.Get("doctor"))
		if err != nil {
			if errors.Is(err, booking.ErrInvalidCondition) {
				writeError(w, http.StatusBadRequest, "invalid_condition", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", "could not list appointments")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"appointments": detailResponses(appts)})
	}
}

func doctorDayHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		q := r.URL.Query()
		date, err := time.ParseInLocation(dateLayout, q.Get("date"), time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		appts, err := svc.DoctorDay(r.Context(), doctorID, date, q.Get("patient"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "could not list appointments")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"appointments": detailResponses(appts)})
	}
}

// completeAppointmentHandler marks a visit completed on behalf of a
// secondary action such as prescription issuance. The transition is
// best-effort: the response reports whether it was applied but is always a
// success, mirroring the fire-and-forget contract.
func completeAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		applied := svc.ChangeStatus(r.Context(), id, booking.StatusCompleted)
		writeJSON(w, http.StatusAccepted, map[string]bool{"applied": applied})
	}
}

func purgeDoctorAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		n, err := svc.RemoveDoctorAppointments(r.Context(), doctorID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "could not remove appointments")
			return
		}

		writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
	}
}

func detailResponses(appts []booking.AppointmentDetail) []AppointmentDetailResponse {
	resp := make([]AppointmentDetailResponse, 0, len(appts))
	for _, a := range appts {
		resp = append(resp, toDetailResponse(a))
	}
	return resp
}

// handleBookingError maps service failures onto the HTTP taxonomy. NotFound,
// Unavailable and Forbidden are distinct user-facing conditions; anything
// unexpected becomes an opaque internal error so storage details never reach
// the client.
func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, booking.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, booking.ErrNotModifiable):
		writeError(w, http.StatusConflict, "not_modifiable", err.Error())
	case errors.Is(err, booking.ErrPastInstant):
		writeError(w, http.StatusBadRequest, "past_appointment_time", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "an internal error occurred")
	}
}
