package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vogiaan1904/ticketbottle-reservation/internal/metrics"
)

func TestIncBookingTransition(t *testing.T) {
	before := testutil.ToFloat64(metrics.BookingTransitionsTotal.WithLabelValues("expired"))
	metrics.IncBookingTransition("expired")
	metrics.IncBookingTransition("expired")
	after := testutil.ToFloat64(metrics.BookingTransitionsTotal.WithLabelValues("expired"))
	assert.Equal(t, 2.0, after-before)
}

func TestAddSeatsRestoredIgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(metrics.SeatsRestoredTotal)
	metrics.AddSeatsRestored(0)
	metrics.AddSeatsRestored(-3)
	metrics.AddSeatsRestored(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SeatsRestoredTotal)-before)
}

func TestObserveSweep(t *testing.T) {
	runs := testutil.ToFloat64(metrics.SweepRunsTotal)
	expired := testutil.ToFloat64(metrics.SweepExpiredTotal)

	metrics.ObserveSweep(3, 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SweepRunsTotal)-runs)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.SweepExpiredTotal)-expired)
}

func TestIncNotificationDefaultsEvent(t *testing.T) {
	before := testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("unknown", metrics.ResultDropped))
	metrics.IncNotification("", metrics.ResultDropped)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues("unknown", metrics.ResultDropped))-before)
}

func TestPromhttpExposure(t *testing.T) {
	metrics.IncPaymentTransition("paid")

	srv := httptest.NewServer(promhttp.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), "reservation_payment_transitions_total")
}
