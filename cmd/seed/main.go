package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/appointment-booking/internal/booking"
	"github.com/clinicdesk/appointment-booking/internal/db"
	"github.com/clinicdesk/appointment-booking/internal/logging"
)

func main() {
	logger := logging.New("dev", "seed")
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pool, 50)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	// Re-runs start each doctor from a clean book.
	repo := booking.NewPgRepository(pool)
	for _, id := range doctorIDs {
		if _, err := repo.DeleteAppointmentsForDoctor(context.Background(), id); err != nil {
			logger.Fatal().Err(err).Str("doctor_id", id.String()).Msg("reset doctor appointments")
		}
	}

	logger.Info().Msg("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, full_name, specialty, available_times, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (id) DO NOTHING
		`, id, name, specialty, fakeAvailability())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, tx.Commit(ctx)
}

// fakeAvailability builds date-qualified hour slots over the next two weeks,
// in the same raw string shape real doctors declare.
func fakeAvailability() []string {
	var slots []string
	base := time.Now().UTC().AddDate(0, 0, 1)
	for day := 0; day < 14; day++ {
		date := base.AddDate(0, 0, day).Format("2006-01-02")
		startHour := gofakeit.Number(8, 10)
		for h := startHour; h < startHour+gofakeit.Number(3, 6); h++ {
			slots = append(slots, fmt.Sprintf("%s %02d:00-%02d:00", date, h, h+1))
		}
	}
	return slots
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		email := gofakeit.Email()
		phone := gofakeit.Phone()

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, full_name, email, phone, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (id) DO NOTHING
		`, uuid.New(), gofakeit.Name(), email, phone)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
