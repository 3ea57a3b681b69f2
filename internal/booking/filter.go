package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidCondition rejects patient history conditions outside the known set.
var ErrInvalidCondition = errors.New(`condition must be "past", "future" or "cancel"`)

// FilterDoctors composes the doctor search: name substring and specialty go
// to the repository, the AM/PM period is applied in memory on the declared
// slots. Every empty filter means "no constraint".
func (s *Service) FilterDoctors(ctx context.Context, name, specialty, period string) ([]Doctor, error) {
	doctors, err := s.repo.SearchDoctors(ctx, normalizeFilter(name), normalizeFilter(specialty))
	if err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}
	return s.filterDoctorsByPeriod(doctors, period), nil
}

// filterDoctorsByPeriod keeps the doctors with at least one declared slot in
// the given period. It is a pure filter: the doctors and their availability
// lists are returned as stored, never reduced in place.
func (s *Service) filterDoctorsByPeriod(doctors []Doctor, period string) []Doctor {
	if !strings.EqualFold(period, "AM") && !strings.EqualFold(period, "PM") {
		return doctors
	}

	out := make([]Doctor, 0, len(doctors))
	for _, d := range doctors {
		for _, raw := range d.AvailableTimes {
			slot, err := ParseSlot(raw)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("doctor_id", d.ID.String()).
					Str("entry", raw).
					Msg("skipping malformed availability entry")
				continue
			}
			if slot.MatchesPeriod(period) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// PatientAppointments returns a patient's appointment history, optionally
// narrowed by a condition (past=completed, future=scheduled,
// cancel=cancelled) and a doctor-name substring. An unknown non-empty
// condition is the one filter value that errors instead of degrading.
func (s *Service) PatientAppointments(ctx context.Context, patientID uuid.UUID, condition, doctorName string) ([]AppointmentDetail, error) {
	var status *Status
	if c := normalizeFilter(condition); c != "" {
		st, err := conditionStatus(c)
		if err != nil {
			return nil, err
		}
		status = &st
	}

	appts, err := s.repo.ListPatientAppointments(ctx, patientID, status, normalizeFilter(doctorName))
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	return appts, nil
}

// DoctorDay lists all of a doctor's appointments for one date, optionally
// narrowed by a patient-name substring. Cancelled visits are included; this
// is the doctor's full ledger for the day, not the availability view.
func (s *Service) DoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time, patientName string) ([]AppointmentDetail, error) {
	start, end := dayBounds(date)
	appts, err := s.repo.ListDoctorDay(ctx, doctorID, start, end, normalizeFilter(patientName))
	if err != nil {
		return nil, fmt.Errorf("list doctor day: %w", err)
	}
	return appts, nil
}

func conditionStatus(condition string) (Status, error) {
	switch strings.ToLower(condition) {
	case "past":
		return StatusCompleted, nil
	case "future":
		return StatusScheduled, nil
	case "cancel":
		return StatusCancelled, nil
	}
	return 0, ErrInvalidCondition
}

// normalizeFilter treats the literal string "null" the same as an absent
// filter; older clients send it for unset query fields.
func normalizeFilter(v string) string {
	if strings.EqualFold(v, "null") {
		return ""
	}
	return strings.TrimSpace(v)
}
