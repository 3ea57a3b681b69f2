package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index on (doctor_id, appointment_time) for active rows.
const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.FullName,
		&d.Specialty,
		&d.AvailableTimes,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.FullName,
		&p.Email,
		&p.Phone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Time,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Time = a.Time.UTC()
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, specialty, available_times, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) SearchDoctors(ctx context.Context, name, specialty string) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, full_name, specialty, available_times, created_at, updated_at
		FROM doctors
		WHERE ($1 = '' OR full_name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR lower(specialty) = lower($2))
		ORDER BY full_name, id
	`, name, specialty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, full_name, email, phone, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, patient_id, appointment_time, status, created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListDoctorAppointmentsBetween(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, patient_id, appointment_time, status, created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1
		  AND appointment_time BETWEEN $2 AND $3
		  AND status <> $4
		ORDER BY appointment_time
	`, doctorID, start, end, StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) SaveAppointment(ctx context.Context, appt *Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save appointment: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, appointment_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, doctor_id, patient_id, appointment_time, status, created_at, updated_at
	`, appt.ID, appt.DoctorID, appt.PatientID, appt.Time, appt.Status)

	saved, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBooking
		}
		return fmt.Errorf("insert appointment: %w", err)
	}

	if appt.Payment != nil {
		p := appt.Payment
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.AppointmentID = saved.ID
		_, err := tx.Exec(ctx, `
			INSERT INTO payments (id, appointment_id, amount, payment_method, payment_status, paid_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
		`, p.ID, p.AppointmentID, p.Amount, p.Method, p.Status, p.PaidAt)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save appointment: %w", err)
	}

	appt.CreatedAt = saved.CreatedAt
	appt.UpdatedAt = saved.UpdatedAt
	return nil
}

func (r *PgRepository) UpdateAppointmentSchedule(ctx context.Context, id, doctorID uuid.UUID, at time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET doctor_id = $2,
		    appointment_time = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, doctor_id, patient_id, appointment_time, status, created_at, updated_at
	`, id, doctorID, at)

	appt, err := scanAppointment(row)
	if err != nil && isUniqueViolation(err) {
		return nil, ErrDuplicateBooking
	}
	return appt, err
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, doctor_id, patient_id, appointment_time, status, created_at, updated_at
	`, id, to, from)

	return scanAppointment(row)
}

const detailColumns = `
	a.id, a.doctor_id, a.patient_id, a.appointment_time, a.status, a.created_at, a.updated_at,
	d.id, d.full_name, d.specialty, d.available_times, d.created_at, d.updated_at,
	p.id, p.full_name, p.email, p.phone, p.created_at, p.updated_at
`

func scanDetail(rows pgx.Rows) (*AppointmentDetail, error) {
	var det AppointmentDetail
	var d Doctor
	var p Patient

	err := rows.Scan(
		&det.ID, &det.DoctorID, &det.PatientID, &det.Time, &det.Status, &det.CreatedAt, &det.UpdatedAt,
		&d.ID, &d.FullName, &d.Specialty, &d.AvailableTimes, &d.CreatedAt, &d.UpdatedAt,
		&p.ID, &p.FullName, &p.Email, &p.Phone, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	det.Time = det.Time.UTC()
	det.Doctor = &d
	det.Patient = &p
	return &det, nil
}

func (r *PgRepository) ListDoctorDay(ctx context.Context, doctorID uuid.UUID, start, end time.Time, patientName string) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+detailColumns+`
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.doctor_id = $1
		  AND a.appointment_time BETWEEN $2 AND $3
		  AND ($4 = '' OR p.full_name ILIKE '%' || $4 || '%')
		ORDER BY a.appointment_time
	`, doctorID, start, end, patientName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func (r *PgRepository) ListPatientAppointments(ctx context.Context, patientID uuid.UUID, status *Status, doctorName string) ([]AppointmentDetail, error) {
	var statusVal *int
	if status != nil {
		v := int(*status)
		statusVal = &v
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+detailColumns+`
		FROM appointments a
		JOIN doctors d ON d.id = a.doctor_id
		JOIN patients p ON p.id = a.patient_id
		WHERE a.patient_id = $1
		  AND ($2::int IS NULL OR a.status = $2)
		  AND ($3 = '' OR d.full_name ILIKE '%' || $3 || '%')
		ORDER BY a.appointment_time
	`, patientID, statusVal, doctorName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

func collectDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	var result []AppointmentDetail
	for rows.Next() {
		det, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *det)
	}
	return result, rows.Err()
}

func (r *PgRepository) DeleteAppointmentsForDoctor(ctx context.Context, doctorID uuid.UUID) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	// Payments hang off appointments, so they go first.
	_, err = tx.Exec(ctx, `
		DELETE FROM payments
		WHERE appointment_id IN (SELECT id FROM appointments WHERE doctor_id = $1)
	`, doctorID)
	if err != nil {
		return 0, fmt.Errorf("delete payments: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return 0, fmt.Errorf("delete appointments: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return tag.RowsAffected(), nil
}
