package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FreeSlots returns the raw availability entries a doctor still has open on
// the given date: declared entries for that date whose start instant is not
// occupied by a non-cancelled appointment.
//
// A missing doctor yields an empty list, not an error. Output preserves the
// declared order and duplicates in the declared list surface as duplicate
// free slots; collapsing them here would change what the doctor published.
func (s *Service) FreeSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	doctor, err := s.repo.GetDoctorByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	start, end := dayBounds(date)
	booked, err := s.repo.ListDoctorAppointmentsBetween(ctx, doctorID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list booked appointments: %w", err)
	}

	taken := make(map[string]struct{}, len(booked))
	for _, a := range booked {
		taken[minuteUTC(a.Time).Format(InstantLayout)] = struct{}{}
	}

	free := make([]string, 0, len(doctor.AvailableTimes))
	for _, raw := range doctor.AvailableTimes {
		slot, err := ParseSlot(raw)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("doctor_id", doctor.ID.String()).
				Str("entry", raw).
				Msg("skipping malformed availability entry")
			continue
		}
		if !slot.OnDay(start) {
			continue
		}
		at, ok := slot.StartInstant()
		if !ok {
			continue
		}
		if _, busy := taken[at.Format(InstantLayout)]; busy {
			continue
		}
		free = append(free, raw)
	}
	return free, nil
}
