package repository

import "fmt"

const (
	bookingIndexKey = "reservation:bookings"
	eventIndexKey   = "reservation:events"
	paymentIndexKey = "reservation:payments"
)

func bookingKey(id string) string {
	return fmt.Sprintf("reservation:booking:%s", id)
}

func eventKey(id string) string {
	return fmt.Sprintf("reservation:event:%s", id)
}

func paymentKey(id string) string {
	return fmt.Sprintf("reservation:payment:%s", id)
}

func bookingPaymentsKey(bID string) string {
	return fmt.Sprintf("reservation:booking_payments:%s", bID)
}
