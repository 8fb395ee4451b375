package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_notifications_total",
		Help: "Notification dispatches by event and result",
	}, []string{"event", "result"})

	NotificationQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reservation_notification_queue_depth",
		Help: "Notifications waiting for the dispatch worker",
	})
)

const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
	ResultPanicked  = "panicked"
	ResultDropped   = "dropped"
)

func IncNotification(event, result string) {
	if event == "" {
		event = "unknown"
	}
	NotificationsTotal.WithLabelValues(event, result).Inc()
}

func SetNotificationQueueDepth(n int) {
	NotificationQueueDepth.Set(float64(n))
}
