package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome is the tri-state result of booking validation. It distinguishes an
// invalid doctor from an invalid time so callers can surface each separately.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeDoctorNotFound
	OutcomeSlotUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeDoctorNotFound:
		return "doctor not found"
	case OutcomeSlotUnavailable:
		return "slot unavailable"
	}
	return "unknown"
}

// Validate checks a proposed appointment against the doctor's declared
// availability and existing bookings.
//
// The instant must exactly equal a declared slot's start - interval
// containment is not enough; a time inside a slot's range that misses its
// start is rejected. Storage errors are returned as errors, never folded
// into an Outcome.
func (s *Service) Validate(ctx context.Context, appt *Appointment) (Outcome, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, appt.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return OutcomeDoctorNotFound, nil
		}
		return OutcomeOK, fmt.Errorf("load doctor: %w", err)
	}

	target := minuteUTC(appt.Time)

	declared := false
	for _, raw := range doctor.AvailableTimes {
		slot, err := ParseSlot(raw)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("doctor_id", doctor.ID.String()).
				Str("entry", raw).
				Msg("skipping malformed availability entry")
			continue
		}
		if start, ok := slot.StartInstant(); ok && start.Equal(target) {
			declared = true
			break
		}
	}
	if !declared {
		return OutcomeSlotUnavailable, nil
	}

	taken, err := s.hasActiveConflict(ctx, appt.DoctorID, target)
	if err != nil {
		return OutcomeOK, err
	}
	if taken {
		return OutcomeSlotUnavailable, nil
	}
	return OutcomeOK, nil
}

// hasActiveConflict reports whether the doctor already holds a non-cancelled
// appointment at exactly the given instant. at must be minute-precision UTC.
func (s *Service) hasActiveConflict(ctx context.Context, doctorID uuid.UUID, at time.Time) (bool, error) {
	start, end := dayBounds(at)
	booked, err := s.repo.ListDoctorAppointmentsBetween(ctx, doctorID, start, end)
	if err != nil {
		return false, fmt.Errorf("list booked appointments: %w", err)
	}
	for _, b := range booked {
		if minuteUTC(b.Time).Equal(at) {
			return true, nil
		}
	}
	return false, nil
}
