package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/clinicdesk/appointment-booking/internal/redis"
)

var (
	ErrSlotUnavailable = errors.New("requested time is not available for this doctor")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
	ErrForbidden       = errors.New("appointment belongs to a different patient")
	ErrNotModifiable   = errors.New("only scheduled appointments can be modified")
	ErrPastInstant     = errors.New("appointment time must be in the future")
)

// Service owns the appointment lifecycle: booking with availability
// validation, updates with re-validation and ownership checks, soft
// cancellation, and best-effort status transitions.
type Service struct {
	repo   Repository
	locker redisclient.Locker
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

// minuteUTC normalizes a booking instant to the minute precision everything
// in this package compares at.
func minuteUTC(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// dayBounds returns the [00:00:00, 23:59:59.999999999] UTC window of t's date.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Nanosecond)
}

// Book validates a new appointment and persists it. The re-check and insert
// run under a per-(doctor, instant) lock so that concurrent requests for the
// same slot cannot both pass validation; the partial unique index in the
// schema backstops the same invariant.
func (s *Service) Book(ctx context.Context, appt *Appointment) error {
	appt.Time = minuteUTC(appt.Time)

	if !appt.Time.After(s.now().UTC()) {
		return ErrPastInstant
	}

	if _, err := s.repo.GetPatientByID(ctx, appt.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return err
		}
		return fmt.Errorf("load patient: %w", err)
	}

	outcome, err := s.Validate(ctx, appt)
	if err != nil {
		return err
	}
	switch outcome {
	case OutcomeDoctorNotFound:
		return ErrDoctorNotFound
	case OutcomeSlotUnavailable:
		return ErrSlotUnavailable
	}

	err = s.locker.WithBookingLock(ctx, appt.DoctorID, appt.Time, func(lockCtx context.Context) error {
		// Re-check inside the critical section: another request may have
		// taken the instant between validation and here.
		taken, err := s.hasActiveConflict(lockCtx, appt.DoctorID, appt.Time)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotUnavailable
		}

		if appt.ID == uuid.Nil {
			appt.ID = uuid.New()
		}
		appt.Status = StatusScheduled
		if err := s.repo.SaveAppointment(lockCtx, appt); err != nil {
			if errors.Is(err, ErrDuplicateBooking) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("save appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return ErrSlotBeingBooked
		}
		return err
	}

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", appt.DoctorID.String()).
		Time("at", appt.Time).
		Msg("appointment booked")
	return nil
}

// Update moves an existing appointment to a new doctor and/or instant. Only
// the requesting patient may update their own appointment, the appointment
// must still be scheduled, and the new doctor/time pass the same validation
// as a fresh booking. All fields other than doctor and time are preserved.
func (s *Service) Update(ctx context.Context, updated *Appointment, requester uuid.UUID) (*Appointment, error) {
	existing, err := s.repo.GetAppointmentByID(ctx, updated.ID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if existing.PatientID != requester {
		return nil, ErrForbidden
	}
	if existing.Status != StatusScheduled {
		return nil, ErrNotModifiable
	}

	candidate := *existing
	candidate.DoctorID = updated.DoctorID
	candidate.Time = minuteUTC(updated.Time)

	outcome, err := s.Validate(ctx, &candidate)
	if err != nil {
		return nil, err
	}
	switch outcome {
	case OutcomeDoctorNotFound:
		return nil, ErrDoctorNotFound
	case OutcomeSlotUnavailable:
		return nil, ErrSlotUnavailable
	}

	var saved *Appointment
	err = s.locker.WithBookingLock(ctx, candidate.DoctorID, candidate.Time, func(lockCtx context.Context) error {
		appt, err := s.repo.UpdateAppointmentSchedule(lockCtx, existing.ID, candidate.DoctorID, candidate.Time)
		if err != nil {
			if errors.Is(err, ErrDuplicateBooking) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("update appointment: %w", err)
		}
		saved = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", saved.ID.String()).
		Str("doctor_id", saved.DoctorID.String()).
		Time("at", saved.Time).
		Msg("appointment rescheduled")
	return saved, nil
}

// Cancel soft-deletes an appointment by flipping its status; the record is
// retained. Cancelling an already-cancelled appointment is a no-op success,
// so retried cancellations stay idempotent.
func (s *Service) Cancel(ctx context.Context, id, requester uuid.UUID) error {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return err
		}
		return fmt.Errorf("load appointment: %w", err)
	}

	if appt.PatientID != requester {
		return ErrForbidden
	}

	switch appt.Status {
	case StatusCancelled:
		return nil
	case StatusCompleted:
		return ErrNotModifiable
	}

	if _, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, StatusCancelled); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost the race to a concurrent cancel; the end state is the same.
			return nil
		}
		return fmt.Errorf("cancel appointment: %w", err)
	}

	s.logger.Info().Str("appointment_id", id.String()).Msg("appointment cancelled")
	return nil
}

// ChangeStatus applies a status transition as a best-effort side effect of
// some primary action (prescription issuance marks the visit completed).
// Missing appointments, disallowed transitions and failed writes are logged
// and swallowed so the caller's primary action never aborts over them. The
// returned bool reports whether the transition was applied; callers are free
// to ignore it.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, newStatus Status) bool {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			s.logger.Warn().
				Str("appointment_id", id.String()).
				Msg("changeStatus: appointment does not exist")
		} else {
			s.logger.Warn().Err(err).
				Str("appointment_id", id.String()).
				Msg("changeStatus: load failed")
		}
		return false
	}

	if appt.Status == newStatus {
		return true
	}

	// Completed and Cancelled are terminal; nothing moves back to Scheduled.
	if appt.Status != StatusScheduled || newStatus == StatusScheduled {
		s.logger.Warn().
			Str("appointment_id", id.String()).
			Stringer("from", appt.Status).
			Stringer("to", newStatus).
			Msg("changeStatus: transition not allowed")
		return false
	}

	if _, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, newStatus); err != nil {
		s.logger.Warn().Err(err).
			Str("appointment_id", id.String()).
			Stringer("to", newStatus).
			Msg("changeStatus: update failed")
		return false
	}

	s.logger.Info().
		Str("appointment_id", id.String()).
		Stringer("status", newStatus).
		Msg("appointment status updated")
	return true
}

// RemoveDoctorAppointments deletes every appointment held by a doctor, used
// when a doctor leaves the clinic roster.
func (s *Service) RemoveDoctorAppointments(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	n, err := s.repo.DeleteAppointmentsForDoctor(ctx, doctorID)
	if err != nil {
		return 0, fmt.Errorf("delete doctor appointments: %w", err)
	}
	if n > 0 {
		s.logger.Info().
			Str("doctor_id", doctorID.String()).
			Int64("removed", n).
			Msg("doctor appointments removed")
	}
	return n, nil
}
