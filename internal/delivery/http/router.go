package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vogiaan1904/ticketbottle-reservation/config"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
)

func NewRouter(h *HTTPHandler, cfg config.AdminConfig, l logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogContext(l))
	r.Use(logger.HTTPLogger(l))

	r.Get("/health", h.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	limit := cfg.RateLimitPerMin
	if limit <= 0 {
		limit = 60
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/bookings", h.Reserve)
		r.Get("/bookings/{bookingId}", h.GetBooking)
		r.Get("/bookings/{bookingId}/payments", h.ListBookingPayments)
		r.Post("/payments", h.CreatePayment)
		r.Get("/payments/{paymentId}", h.GetPayment)

		// Admin
		r.Group(func(r chi.Router) {
			r.Use(RateLimit(limit, time.Minute))
			r.Use(AdminAuth(cfg.JWTSecret))

			r.Post("/bookings/expire", h.ExpireBookings)
			r.Post("/bookings/{bookingId}/cancel", h.CancelBooking)
			r.Post("/payments/{paymentId}/confirm", h.ConfirmPayment)
			r.Post("/payments/{paymentId}/cancel", h.CancelPayment)
		})
	})

	return r
}
