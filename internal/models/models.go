package models

import (
	"strconv"
	"time"
)

// Airline identifies the carrier operating a flight.
type Airline struct {
	ID        int64     `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Code      string    `json:"code"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

// Flight is an immutable snapshot of a flight as served by the backend.
// It is fetched fresh for every view; DynamicPrice and AvailableSeats are
// only trustworthy at the moment of the fetch, so snapshots are never
// cached or carried across screens.
type Flight struct {
	ID                int64      `json:"id" validate:"required"`
	Airline           Airline    `json:"airline"`
	FlightNumber      string     `json:"flight_number" validate:"required"`
	Source            string     `json:"source" validate:"required"`
	Destination       string     `json:"destination" validate:"required"`
	DepartureDatetime time.Time  `json:"departure_datetime"`
	ArrivalDatetime   *time.Time `json:"arrival_datetime"`
	TotalSeats        int        `json:"total_seats"`
	AvailableSeats    int        `json:"available_seats" validate:"min=0"`
	BasePrice         string     `json:"base_price"`
	DurationMinutes   *int       `json:"duration_minutes"`
	DynamicPrice      float64    `json:"dynamic_price" validate:"min=0"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Route renders "source -> destination" for logs and receipts.
func (f Flight) Route() string {
	return f.Source + " -> " + f.Destination
}

// Seat belongs to exactly one flight. The booked flag reflects backend
// state as of the last seat-list fetch.
type Seat struct {
	ID         int64  `json:"id" validate:"required"`
	FlightID   int64  `json:"flight"`
	SeatNumber string `json:"seat_number" validate:"required"`
	IsBooked   bool   `json:"is_booked"`
}

// Number returns the numeric value of the seat number, used for the
// ascending sort the seat grid expects. Non-numeric seat labels sort last.
func (s Seat) Number() int {
	n, err := strconv.Atoi(s.SeatNumber)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

// Booking statuses as reported by the backend.
const (
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)

// Booking is created by the backend in response to a booking request and is
// never mutated client-side except through the explicit cancel endpoint.
type Booking struct {
	ID             int64      `json:"id" validate:"required"`
	PNR            string     `json:"pnr"`
	User           User       `json:"user"`
	Flight         Flight     `json:"flight"`
	Seats          []Seat     `json:"seats"`
	SeatsBooked    int        `json:"seats_booked"`
	PricePerTicket string     `json:"price_per_ticket"`
	TotalPrice     string     `json:"total_price"`
	Status         string     `json:"status" validate:"required"`
	CancelledAt    *time.Time `json:"cancelled_at"`
	BookingTime    time.Time  `json:"booking_time"`
}

// Reference returns the PNR, falling back to the booking id when the
// backend did not assign one.
func (b Booking) Reference() string {
	if b.PNR != "" {
		return b.PNR
	}
	return strconv.FormatInt(b.ID, 10)
}

// SeatNumbers lists the booked seat numbers in backend order.
func (b Booking) SeatNumbers() []string {
	numbers := make([]string, 0, len(b.Seats))
	for _, s := range b.Seats {
		numbers = append(numbers, s.SeatNumber)
	}
	return numbers
}

// User is read-only from this application's perspective.
type User struct {
	ID        int64     `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentOrder holds the hosted-checkout parameters returned by the
// payment-order endpoint. Amount is in the currency's minor unit.
type PaymentOrder struct {
	OrderID  string `json:"order_id" validate:"required"`
	Amount   int64  `json:"amount" validate:"min=1"`
	Currency string `json:"currency" validate:"required"`
	Key      string `json:"key" validate:"required"`
}

// AuthResponse is returned by both the login and signup endpoints.
type AuthResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id" validate:"required"`
	Role    string `json:"role"`
}

// LoginRequest is the login endpoint payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the signup endpoint payload.
type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// BookSeatsRequest is the seat-booking payload. SeatNumbers preserves the
// click order of the selection.
type BookSeatsRequest struct {
	UserID      int64    `json:"user_id" validate:"required"`
	SeatNumbers []string `json:"seat_numbers" validate:"required,min=1"`
}

// FlightQuery holds the flight-search filters.
type FlightQuery struct {
	Source      string
	Destination string
	Date        string
	Sort        string
}

// Accepted values for FlightQuery.Sort.
const (
	SortPriceAsc     = "price_asc"
	SortPriceDesc    = "price_desc"
	SortDurationAsc  = "duration_asc"
	SortDurationDesc = "duration_desc"
)
