package booking_test

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/appointment-booking/internal/booking"
	redisclient "github.com/clinicdesk/appointment-booking/internal/redis"
)

// fakeRepo is an in-memory Repository with the same absence semantics as the
// pg implementation.
type fakeRepo struct {
	doctors  map[uuid.UUID]booking.Doctor
	patients map[uuid.UUID]booking.Patient
	appts    map[uuid.UUID]booking.Appointment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		doctors:  make(map[uuid.UUID]booking.Doctor),
		patients: make(map[uuid.UUID]booking.Patient),
		appts:    make(map[uuid.UUID]booking.Appointment),
	}
}

func (f *fakeRepo) addDoctor(name, specialty string, slots ...string) uuid.UUID {
	id := uuid.New()
	f.doctors[id] = booking.Doctor{
		ID:             id,
		FullName:       name,
		Specialty:      specialty,
		AvailableTimes: slots,
	}
	return id
}

func (f *fakeRepo) addPatient(name string) uuid.UUID {
	id := uuid.New()
	f.patients[id] = booking.Patient{ID: id, FullName: name}
	return id
}

func (f *fakeRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*booking.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, booking.ErrDoctorNotFound
	}
	return &d, nil
}

func (f *fakeRepo) SearchDoctors(_ context.Context, name, specialty string) ([]booking.Doctor, error) {
	var out []booking.Doctor
	for _, d := range f.doctors {
		if name != "" && !strings.Contains(strings.ToLower(d.FullName), strings.ToLower(name)) {
			continue
		}
		if specialty != "" && !strings.EqualFold(d.Specialty, specialty) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *fakeRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*booking.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, booking.ErrPatientNotFound
	}
	return &p, nil
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*booking.Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, booking.ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeRepo) ListDoctorAppointmentsBetween(_ context.Context, doctorID uuid.UUID, start, end time.Time) ([]booking.Appointment, error) {
	var out []booking.Appointment
	for _, a := range f.appts {
		if a.DoctorID != doctorID || a.Status == booking.StatusCancelled {
			continue
		}
		if a.Time.Before(start) || a.Time.After(end) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (f *fakeRepo) ListDoctorDay(_ context.Context, doctorID uuid.UUID, start, end time.Time, patientName string) ([]booking.AppointmentDetail, error) {
	var out []booking.AppointmentDetail
	for _, a := range f.appts {
		if a.DoctorID != doctorID || a.Time.Before(start) || a.Time.After(end) {
			continue
		}
		det, ok := f.detail(a, "", patientName)
		if !ok {
			continue
		}
		out = append(out, det)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (f *fakeRepo) SaveAppointment(_ context.Context, appt *booking.Appointment) error {
	for _, a := range f.appts {
		if a.DoctorID == appt.DoctorID && a.Status != booking.StatusCancelled && a.Time.Equal(appt.Time) {
			return booking.ErrDuplicateBooking
		}
	}
	f.appts[appt.ID] = *appt
	return nil
}

func (f *fakeRepo) UpdateAppointmentSchedule(_ context.Context, id, doctorID uuid.UUID, at time.Time) (*booking.Appointment, error) {
	a, ok := f.appts[id]
	if !ok {
		return nil, booking.ErrAppointmentNotFound
	}
	for otherID, other := range f.appts {
		if otherID == id {
			continue
		}
		if other.DoctorID == doctorID && other.Status != booking.StatusCancelled && other.Time.Equal(at) {
			return nil, booking.ErrDuplicateBooking
		}
	}
	a.DoctorID = doctorID
	a.Time = at
	f.appts[id] = a
	return &a, nil
}

func (f *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to booking.Status) (*booking.Appointment, error) {
	a, ok := f.appts[id]
	if !ok || a.Status != from {
		return nil, booking.ErrAppointmentNotFound
	}
	a.Status = to
	f.appts[id] = a
	return &a, nil
}

func (f *fakeRepo) ListPatientAppointments(_ context.Context, patientID uuid.UUID, status *booking.Status, doctorName string) ([]booking.AppointmentDetail, error) {
	var out []booking.AppointmentDetail
	for _, a := range f.appts {
		if a.PatientID != patientID {
			continue
		}
		if status != nil && a.Status != *status {
			continue
		}
		det, ok := f.detail(a, doctorName, "")
		if !ok {
			continue
		}
		out = append(out, det)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (f *fakeRepo) DeleteAppointmentsForDoctor(_ context.Context, doctorID uuid.UUID) (int64, error) {
	var n int64
	for id, a := range f.appts {
		if a.DoctorID == doctorID {
			delete(f.appts, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) detail(a booking.Appointment, doctorName, patientName string) (booking.AppointmentDetail, bool) {
	d := f.doctors[a.DoctorID]
	p := f.patients[a.PatientID]
	if doctorName != "" && !strings.Contains(strings.ToLower(d.FullName), strings.ToLower(doctorName)) {
		return booking.AppointmentDetail{}, false
	}
	if patientName != "" && !strings.Contains(strings.ToLower(p.FullName), strings.ToLower(patientName)) {
		return booking.AppointmentDetail{}, false
	}
	return booking.AppointmentDetail{Appointment: a, Doctor: &d, Patient: &p}, true
}

// passLocker runs critical sections inline; tests exercising the lock path
// use failLocker instead.
type passLocker struct{}

func (passLocker) WithBookingLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(context.Context) error) error {
	return fn(ctx)
}

type failLocker struct{}

func (failLocker) WithBookingLock(context.Context, uuid.UUID, time.Time, func(context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

func newTestService(repo booking.Repository) *booking.Service {
	return booking.NewService(repo, passLocker{}, zerolog.Nop())
}

func at(value string) time.Time {
	t, err := time.ParseInLocation(booking.InstantLayout, value, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func date(value string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}
