// Package payment prepares the handoff to the hosted checkout widget. The
// widget itself runs in the passenger's browser; this package only shapes
// the options it is constructed with and names the callback routes it
// reports back on.
package payment

import (
	"fmt"

	"github.com/cx-tal-miterani/flight-booking-client/internal/models"
)

// ThemeColor matches the checkout accent used by the booking screens.
const ThemeColor = "#3399cc"

// Prefill seeds the widget's contact form.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Theme styles the widget.
type Theme struct {
	Color string `json:"color"`
}

// CheckoutOptions is the construction contract of the hosted widget.
type CheckoutOptions struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

// CompletionResponse is what the widget's success handler receives.
type CompletionResponse struct {
	PaymentID string `json:"razorpay_payment_id"`
	OrderID   string `json:"razorpay_order_id"`
	Signature string `json:"razorpay_signature"`
}

// BuildCheckout assembles widget options from a created payment order and
// the booking it pays for. The amount always comes from the order, never
// from a client-side price computation.
func BuildCheckout(order *models.PaymentOrder, booking *models.Booking, user *models.User) CheckoutOptions {
	prefill := Prefill{Name: "Passenger", Email: "test@example.com", Contact: "9999999999"}
	if user != nil {
		prefill.Name = user.Name
		prefill.Email = user.Email
	}
	return CheckoutOptions{
		Key:         order.Key,
		Amount:      order.Amount,
		Currency:    order.Currency,
		Name:        "Flight Booking",
		Description: fmt.Sprintf("PNR: %s", booking.Reference()),
		OrderID:     order.OrderID,
		Prefill:     prefill,
		Theme:       Theme{Color: ThemeColor},
	}
}
