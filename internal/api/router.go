package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/appointment-booking/internal/auth"
)

type RouterConfig struct {
	Service BookingService
	Tokens  *auth.TokenService
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public doctor discovery
	r.Get("/doctors", listDoctorsHandler(cfg.Service))
	r.Get("/doctors/{id}/availability", doctorAvailabilityHandler(cfg.Service))

	// Patient-facing booking lifecycle
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))
		r.Use(RequireRole(auth.RolePatient))

		r.Post("/appointments", bookAppointmentHandler(cfg.Service))
		r.Patch("/appointments/{id}", updateAppointmentHandler(cfg.Service))
		r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Service))
		r.Get("/patient/appointments", patientAppointmentsHandler(cfg.Service))
	})

	// Doctor-facing views and side effects
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))
		r.Use(RequireRole(auth.RoleDoctor))

		r.Get("/doctors/{id}/appointments", doctorDayHandler(cfg.Service))
		r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Service))
	})

	// Admin maintenance
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))
		r.Use(RequireRole(auth.RoleAdmin))

		r.Delete("/doctors/{id}/appointments", purgeDoctorAppointmentsHandler(cfg.Service))
	})

	return r
}
