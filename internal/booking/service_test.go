package booking_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/appointment-booking/internal/booking"
)

func TestBook(t *testing.T) {
	ctx := context.Background()

	setup := func() (*fakeRepo, *booking.Service, uuid.UUID, uuid.UUID) {
		repo := newFakeRepo()
		doctorID := repo.addDoctor("Grace Yu", "Cardiology", "2030-04-01 09:00-10:00")
		patientID := repo.addPatient("Ann Smith")
		return repo, newTestService(repo), doctorID, patientID
	}

	t.Run("booking a free declared slot succeeds and consumes it", func(t *testing.T) {
		_, svc, doctorID, patientID := setup()

		appt := &booking.Appointment{
			DoctorID:  doctorID,
			PatientID: patientID,
			Time:      at("2030-04-01 09:00"),
		}
		require.NoError(t, svc.Book(ctx, appt))
		assert.NotEqual(t, uuid.Nil, appt.ID)
		assert.Equal(t, booking.StatusScheduled, appt.Status)

		free, err := svc.FreeSlots(ctx, doctorID, date("2030-04-01"))
		require.NoError(t, err)
		assert.Empty(t, free)
	})

	t.Run("second patient booking the same instant is rejected", func(t *testing.T) {
		repo, svc, doctorID, patientID := setup()
		other := repo.addPatient("Bob Jones")

		require.NoError(t, svc.Book(ctx, &booking.Appointment{
			DoctorID: doctorID, PatientID: patientID, Time: at("2030-04-01 09:00"),
		}))

		err := svc.Book(ctx, &booking.Appointment{
			DoctorID: doctorID, PatientID: other, Time: at("2030-04-01 09:00"),
		})
		assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
	})

	t.Run("unknown doctor", func(t *testing.T) {
		_, svc, _, patientID := setup()

		err := svc.Book(ctx, &booking.Appointment{
			DoctorID: uuid.New(), PatientID: patientID, Time: at("2030-04-01 09:00"),
		})
		assert.ErrorIs(t, err, booking.ErrDoctorNotFound)
	})

	t.Run("unknown patient", func(t *testing.T) {
		_, svc, doctorID, _ := setup()

		err := svc.Book(ctx, &booking.Appointment{
			DoctorID: doctorID, PatientID: uuid.New(), Time: at("2030-04-01 09:00"),
		})
		assert.ErrorIs(t, err, booking.ErrPatientNotFound)
	})

	t.Run("past instants are rejected at creation", func(t *testing.T) {
		repo, _, _, _ := setup()
		doctorID := repo.addDoctor("Old Slots", "Cardiology", "2019-04-01 09:00-10:00")
		patientID := repo.addPatient("Late Larry")
		svc := newTestService(repo)

		err := svc.Book(ctx, &booking.Appointment{
			DoctorID: doctorID, PatientID: patientID, Time: at("2019-04-01 09:00"),
		})
		assert.ErrorIs(t, err, booking.ErrPastInstant)
	})

	t.Run("contended lock surfaces as slot being booked", func(t *testing.T) {
		repo := newFakeRepo()
		doctorID := repo.addDoctor("Grace Yu", "Cardiology", "2030-04-01 09:00-10:00")
		patientID := repo.addPatient("Ann Smith")
		svc := booking.NewService(repo, failLocker{}, zerolog.Nop())

		err := svc.Book(ctx, &booking.Appointment{
			DoctorID: doctorID, PatientID: patientID, Time: at("2030-04-01 09:00"),
		})
		assert.ErrorIs(t, err, booking.ErrSlotBeingBooked)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	setup := func() (*fakeRepo, *booking.Service, *booking.Appointment, uuid.UUID, uuid.UUID) {
		repo := newFakeRepo()
		doctorID := repo.addDoctor("Grace Yu", "Cardiology",
			"2030-04-01 09:00-10:00",
			"2030-04-01 10:00-11:00",
		)
		patientID := repo.addPatient("Ann Smith")
		svc := newTestService(repo)

		appt := &booking.Appointment{
			DoctorID: doctorID, PatientID: patientID, Time: at("2030-04-01 09:00"),
		}
		require.NoError(t, svc.Book(ctx, appt))
		return repo, svc, appt, doctorID, patientID
	}

	t.Run("owner can move to another declared slot", func(t *testing.T) {
		_, svc, appt, doctorID, patientID := setup()

		updated, err := svc.Update(ctx, &booking.Appointment{
			ID: appt.ID, DoctorID: doctorID, Time: at("2030-04-01 10:00"),
		}, patientID)
		require.NoError(t, err)
		assert.Equal(t, at("2030-04-01 10:00"), updated.Time)
		assert.Equal(t, patientID, updated.PatientID, "patient is preserved")
		assert.Equal(t, booking.StatusScheduled, updated.Status)
	})

	t.Run("non-owner is forbidden and nothing mutates", func(t *testing.T) {
		repo, svc, appt, doctorID, _ := setup()
		stranger := repo.addPatient("Bob Jones")

		_, err := svc.Update(ctx, &booking.Appointment{
			ID: appt.ID, DoctorID: doctorID, Time: at("2030-04-01 10:00"),
		}, stranger)
		assert.ErrorIs(t, err, booking.ErrForbidden)

		stored, err := repo.GetAppointmentByID(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, at("2030-04-01 09:00"), stored.Time)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		_, svc, _, doctorID, patientID := setup()

		_, err := svc.Update(ctx, &booking.Appointment{
			ID: uuid.New(), DoctorID: doctorID, Time: at("2030-04-01 10:00"),
		}, patientID)
		assert.ErrorIs(t, err, booking.ErrAppointmentNotFound)
	})

	t.Run("moving to an unknown doctor is a distinct failure", func(t *testing.T) {
		_, svc, appt, _, patientID := setup()

		_, err := svc.Update(ctx, &booking.Appointment{
			ID: appt.ID, DoctorID: uuid.New(), Time: at("2030-04-01 10:00"),
		}, patientID)
		assert.ErrorIs(t, err, booking.ErrDoctorNotFound)
	})

	t.Run("moving to an undeclared time is unavailable", func(t *testing.T) {
		_, svc, appt, doctorID, patientID := setup()

		_, err := svc.Update(ctx, &booking.Appointment{
			ID: appt.ID, DoctorID: doctorID, Time: at("2030-04-01 13:00"),
		}, patientID)
		assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
	})

	t.Run("moving onto another patient's slot is unavailable", func(t *testing.T) {
		repo, svc, appt, doctorID, patientID := setup()
		other := repo.addPatient("Bob Jones")
		require.NoError(t, svc.Book(ctx, &booking.Appointment{
			DoctorID: doctorID, PatientID: other, Time: at("2030-04-01 10:00"),
		}))

		_, err := svc.Update(ctx, &booking.Appointment{
			ID: appt.ID, DoctorID: doctorID, Time: at("2030-04-01 10:00"),
		}, patientID)
		assert.ErrorIs(t, err, booking.ErrSlotUnavailable)
	})

	t.Run("cancelled appointments cannot be rescheduled", func(t *testing.T) {
		_, svc, appt, doctorID, patientID := setup()
		require.NoError(t, svc.Cancel(ctx, appt.ID, patientID))

		_, err := svc.Update(ctx, &booking.Appointment{
			ID: appt.ID, DoctorID: doctorID, Time: at("2030-04-01 10:00"),
		}, patientID)
		assert.ErrorIs(t, err, booking.ErrNotModifiable)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	setup := func() (*fakeRepo, *booking.Service, *booking.Appointment, uuid.UUID) {
		repo := newFakeRepo()
		doctorID := repo.addDoctor("Grace Yu", "Cardiology", "2030-04-01 09:00-10:00")
		patientID := repo.addPatient("Ann Smith")
		svc := newTestService(repo)

		appt := &booking.Appointment{
			DoctorID: doctorID, PatientID: patientID, Time: at("2030-04-01 09:00"),
		}
		require.NoError(t, svc.Book(ctx, appt))
		return repo, svc, appt, patientID
	}

	t.Run("cancel flips status and retains the record", func(t *testing.T) {
		repo, svc, appt, patientID := setup()

		require.NoError(t, svc.Cancel(ctx, appt.ID, patientID))

		stored, err := repo.GetAppointmentByID(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, stored.Status)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		repo, svc, appt, patientID := setup()

		require.NoError(t, svc.Cancel(ctx, appt.ID, patientID))
		require.NoError(t, svc.Cancel(ctx, appt.ID, patientID))

		stored, err := repo.GetAppointmentByID(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCancelled, stored.Status)
	})

	t.Run("cancelling frees the slot for rebooking", func(t *testing.T) {
		repo, svc, appt, patientID := setup()
		require.NoError(t, svc.Cancel(ctx, appt.ID, patientID))

		other := repo.addPatient("Bob Jones")
		err := svc.Book(ctx, &booking.Appointment{
			DoctorID: appt.DoctorID, PatientID: other, Time: at("2030-04-01 09:00"),
		})
		assert.NoError(t, err)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		repo, svc, appt, _ := setup()
		stranger := repo.addPatient("Bob Jones")

		assert.ErrorIs(t, svc.Cancel(ctx, appt.ID, stranger), booking.ErrForbidden)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		_, svc, _, patientID := setup()
		assert.ErrorIs(t, svc.Cancel(ctx, uuid.New(), patientID), booking.ErrAppointmentNotFound)
	})

	t.Run("completed visits cannot be cancelled", func(t *testing.T) {
		_, svc, appt, patientID := setup()
		require.True(t, svc.ChangeStatus(ctx, appt.ID, booking.StatusCompleted))

		assert.ErrorIs(t, svc.Cancel(ctx, appt.ID, patientID), booking.ErrNotModifiable)
	})
}

func TestChangeStatus(t *testing.T) {
	ctx := context.Background()

	setup := func() (*fakeRepo, *booking.Service, *booking.Appointment) {
		repo := newFakeRepo()
		doctorID := repo.addDoctor("Grace Yu", "Cardiology", "2030-04-01 09:00-10:00")
		patientID := repo.addPatient("Ann Smith")
		svc := newTestService(repo)

		appt := &booking.Appointment{
			DoctorID: doctorID, PatientID: patientID, Time: at("2030-04-01 09:00"),
		}
		require.NoError(t, svc.Book(ctx, appt))
		return repo, svc, appt
	}

	t.Run("scheduled to completed", func(t *testing.T) {
		repo, svc, appt := setup()

		assert.True(t, svc.ChangeStatus(ctx, appt.ID, booking.StatusCompleted))

		stored, err := repo.GetAppointmentByID(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCompleted, stored.Status)
	})

	t.Run("missing appointment is a logged no-op, never a failure", func(t *testing.T) {
		_, svc, _ := setup()
		assert.NotPanics(t, func() {
			applied := svc.ChangeStatus(ctx, uuid.New(), booking.StatusCompleted)
			assert.False(t, applied)
		})
	})

	t.Run("terminal states never move back to scheduled", func(t *testing.T) {
		repo, svc, appt := setup()
		require.True(t, svc.ChangeStatus(ctx, appt.ID, booking.StatusCompleted))

		assert.False(t, svc.ChangeStatus(ctx, appt.ID, booking.StatusScheduled))
		assert.False(t, svc.ChangeStatus(ctx, appt.ID, booking.StatusCancelled))

		stored, err := repo.GetAppointmentByID(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, booking.StatusCompleted, stored.Status)
	})

	t.Run("repeating the current status reports applied", func(t *testing.T) {
		_, svc, appt := setup()
		require.True(t, svc.ChangeStatus(ctx, appt.ID, booking.StatusCompleted))
		assert.True(t, svc.ChangeStatus(ctx, appt.ID, booking.StatusCompleted))
	})
}

func TestRemoveDoctorAppointments(t *testing.T) {
	ctx := context.Background()

	repo := newFakeRepo()
	doctorID := repo.addDoctor("Grace Yu", "Cardiology",
		"2030-04-01 09:00-10:00",
		"2030-04-01 10:00-11:00",
	)
	patientID := repo.addPatient("Ann Smith")
	svc := newTestService(repo)

	require.NoError(t, svc.Book(ctx, &booking.Appointment{
		DoctorID: doctorID, PatientID: patientID, Time: at("2030-04-01 09:00"),
	}))
	require.NoError(t, svc.Book(ctx, &booking.Appointment{
		DoctorID: doctorID, PatientID: patientID, Time: at("2030-04-01 10:00"),
	}))

	n, err := svc.RemoveDoctorAppointments(ctx, doctorID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	free, err := svc.FreeSlots(ctx, doctorID, date("2030-04-01"))
	require.NoError(t, err)
	assert.Len(t, free, 2)
}
