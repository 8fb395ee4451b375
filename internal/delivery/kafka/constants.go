package kafka

// Lifecycle topics published by the reservation service.
const (
	TopicBookingCreated   = "booking.created"
	TopicBookingCancelled = "booking.cancelled"
	TopicPaymentCreated   = "payment.created"
	TopicPaymentConfirmed = "payment.confirmed"
)

// Admin command topics consumed by the reservation service.
const (
	TopicAdminPaymentConfirm = "admin.payment.confirm"
	TopicAdminPaymentCancel  = "admin.payment.cancel"
	TopicAdminBookingCancel  = "admin.booking.cancel"
)

const HeaderTimestamp = "timestamp"
