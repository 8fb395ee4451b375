package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-reservation/pkg/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/response"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/util"
)

type HTTPHandler struct {
	bSvc  service.BookingService
	pSvc  service.PaymentService
	sweep service.SweepProcessor
	l     logger.Logger
	now   func() time.Time
}

func NewHTTPHandler(
	bSvc service.BookingService,
	pSvc service.PaymentService,
	sweep service.SweepProcessor,
	l logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		bSvc:  bSvc,
		pSvc:  pSvc,
		sweep: sweep,
		l:     l,
		now:   time.Now,
	}
}

// HealthCheck reports liveness together with the sweeper state.
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"status":  "healthy",
		"service": "reservation-service",
	}
	if h.sweep != nil {
		data["sweeper"] = h.sweep.GetStatus()
	}
	h.respond(w, r, response.OK(data))
}

func (h *HTTPHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var in service.ReserveInput
	if err := decodeBody(r, &in); err != nil {
		h.respond(w, r, response.FromError(err))
		return
	}

	b, err := h.bSvc.Reserve(r.Context(), in)
	h.respond(w, r, response.Build(b, err, http.StatusCreated))
}

func (h *HTTPHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.bSvc.Get(r.Context(), chi.URLParam(r, "bookingId"))
	h.respond(w, r, response.Build(b, err, http.StatusOK))
}

func (h *HTTPHandler) ListBookingPayments(w http.ResponseWriter, r *http.Request) {
	ps, err := h.pSvc.ListByBooking(r.Context(), chi.URLParam(r, "bookingId"))
	h.respond(w, r, response.Build(ps, err, http.StatusOK))
}

func (h *HTTPHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var in service.CancelBookingInput
	if err := decodeBody(r, &in); err != nil {
		h.respond(w, r, response.FromError(err))
		return
	}
	in.BookingID = chi.URLParam(r, "bookingId")

	b, err := h.bSvc.Cancel(r.Context(), in)
	h.respond(w, r, response.Build(b, err, http.StatusOK))
}

// ExpireBookings runs one sweep. The optional "at" query parameter
// (RFC3339) overrides the current time.
func (h *HTTPHandler) ExpireBookings(w http.ResponseWriter, r *http.Request) {
	at := h.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := util.ParseInstant(raw)
		if err != nil {
			h.respond(w, r, response.FromError(pkgErrors.InvalidInput("at must be an RFC3339 timestamp").Wrap(err)))
			return
		}
		at = parsed
	}

	expired := h.bSvc.ExpireStaleBookings(r.Context(), at)
	h.respond(w, r, response.OK(service.SweepOutput{Expired: expired, At: at.UTC()}))
}

func (h *HTTPHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var in service.CreateIntentInput
	if err := decodeBody(r, &in); err != nil {
		h.respond(w, r, response.FromError(err))
		return
	}

	p, err := h.pSvc.CreateIntent(r.Context(), in)
	h.respond(w, r, response.Build(p, err, http.StatusCreated))
}

func (h *HTTPHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.pSvc.Get(r.Context(), chi.URLParam(r, "paymentId"))
	h.respond(w, r, response.Build(p, err, http.StatusOK))
}

// ConfirmPayment confirms on behalf of the authenticated admin.
func (h *HTTPHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	admin, _ := AdminFromContext(r.Context())

	p, err := h.pSvc.Confirm(r.Context(), service.ConfirmPaymentInput{
		PaymentID:   chi.URLParam(r, "paymentId"),
		ConfirmedBy: admin,
	})
	h.respond(w, r, response.Build(p, err, http.StatusOK))
}

func (h *HTTPHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.pSvc.Cancel(r.Context(), chi.URLParam(r, "paymentId"))
	h.respond(w, r, response.Build(p, err, http.StatusOK))
}

// Helper functions

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return pkgErrors.InvalidInput("Invalid request body").Wrap(err)
}

func (h *HTTPHandler) respond(w http.ResponseWriter, r *http.Request, res response.Result) {
	if !res.Success && res.Status >= http.StatusInternalServerError {
		h.l.Errorf(r.Context(), "delivery.http.handler: %s %s: %s", r.Method, r.URL.Path, res.Error)
	}
	if err := response.WriteJSON(w, res); err != nil {
		h.l.Errorf(r.Context(), "Failed to encode JSON response: %v", err)
	}
}
