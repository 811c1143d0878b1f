package booking

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cx-tal-miterani/flight-booking-client/internal/api"
	"github.com/cx-tal-miterani/flight-booking-client/internal/api/mocks"
	"github.com/cx-tal-miterani/flight-booking-client/internal/models"
	"github.com/cx-tal-miterani/flight-booking-client/internal/payment"
	"github.com/cx-tal-miterani/flight-booking-client/internal/session"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testFlight() *models.Flight {
	return &models.Flight{
		ID:             1,
		FlightNumber:   "AI202",
		Source:         "DEL",
		Destination:    "BOM",
		AvailableSeats: 3,
		DynamicPrice:   5000,
	}
}

func testSeats() []models.Seat {
	return []models.Seat{
		{ID: 1, FlightID: 1, SeatNumber: "01"},
		{ID: 2, FlightID: 1, SeatNumber: "02"},
		{ID: 3, FlightID: 1, SeatNumber: "03", IsBooked: true},
	}
}

func loadedWorkflow(t *testing.T, client *mocks.MockService) *Workflow {
	t.Helper()
	client.On("GetFlight", mock.Anything, int64(1)).Return(testFlight(), nil).Once()
	client.On("ListSeats", mock.Anything, int64(1)).Return(testSeats(), nil).Once()

	w := New(client, testLogger(), 1)
	require.Equal(t, StateLoading, w.State())
	require.NoError(t, w.Load(context.Background()))
	require.Equal(t, StateSelecting, w.State())
	return w
}

func TestWorkflow_LoadFailureStaysLoading(t *testing.T) {
	client := new(mocks.MockService)
	client.On("GetFlight", mock.Anything, int64(1)).Return(nil, errors.New("connection refused"))
	client.On("ListSeats", mock.Anything, int64(1)).Return(testSeats(), nil).Maybe()

	w := New(client, testLogger(), 1)
	err := w.Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, StateLoading, w.State())
}

func TestWorkflow_SelectionScenario(t *testing.T) {
	// Two free seats, one booked, two requested: the exact flow a
	// passenger walks through on the seat screen.
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	w.SetSeatCount(2)

	require.NoError(t, w.ToggleSeat("01"))
	require.NoError(t, w.ToggleSeat("02"))
	assert.Equal(t, []string{"01", "02"}, w.Selected())
	assert.Equal(t, 10000.0, w.TotalPrice())

	// Booked seat: silent no-op.
	require.NoError(t, w.ToggleSeat("03"))
	assert.Equal(t, []string{"01", "02"}, w.Selected())

	// Selection already at the requested count.
	err := w.ToggleSeat("01")
	require.NoError(t, err)
	assert.Equal(t, []string{"02"}, w.Selected(), "toggling a selected seat removes it")

	require.NoError(t, w.ToggleSeat("01"))
	assert.Equal(t, []string{"02", "01"}, w.Selected(), "selection keeps click order")
}

func TestWorkflow_ToggleSeatLimit(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	w.SetSeatCount(1)

	require.NoError(t, w.ToggleSeat("01"))
	err := w.ToggleSeat("02")
	require.ErrorIs(t, err, ErrSelectionLimit)
	assert.Equal(t, []string{"01"}, w.Selected(), "rejected toggle leaves selection unchanged")
}

func TestWorkflow_ToggleSeatIdempotent(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	w.SetSeatCount(2)

	require.NoError(t, w.ToggleSeat("01"))
	before := w.Selected()
	require.NoError(t, w.ToggleSeat("02"))
	require.NoError(t, w.ToggleSeat("02"))
	assert.Equal(t, before, w.Selected())
}

func TestWorkflow_ToggleUnknownSeat(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	assert.ErrorIs(t, w.ToggleSeat("99"), ErrUnknownSeat)
}

func TestWorkflow_SetSeatCountClamps(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)

	assert.Equal(t, 1, w.SetSeatCount(0))
	assert.Equal(t, 3, w.SetSeatCount(10), "clamped to available seats")
	assert.Equal(t, 2, w.SetSeatCount(2))
}

func TestWorkflow_SetSeatCountTrimsSelection(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	w.SetSeatCount(2)

	require.NoError(t, w.ToggleSeat("01"))
	require.NoError(t, w.ToggleSeat("02"))

	w.SetSeatCount(1)
	assert.Equal(t, []string{"01"}, w.Selected(), "most recent picks dropped first")
}

func TestWorkflow_ConfirmEmptySelection(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)

	_, err := w.Confirm(context.Background(), &session.Context{UserID: 7})

	require.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, StateSelecting, w.State())
	// No network call may be issued for a local guard.
	client.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkflow_ConfirmWithoutSession(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	require.NoError(t, w.ToggleSeat("01"))

	_, err := w.Confirm(context.Background(), nil)

	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, StateSelecting, w.State())
	client.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkflow_ConfirmSuccess(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	w.SetSeatCount(2)
	require.NoError(t, w.ToggleSeat("01"))
	require.NoError(t, w.ToggleSeat("02"))

	created := &models.Booking{
		ID:     42,
		PNR:    "AB12CD34",
		Status: models.BookingStatusConfirmed,
		User:   models.User{ID: 7, Name: "Asha", Email: "asha@example.com"},
	}
	order := &models.PaymentOrder{
		OrderID:  "order_123",
		Amount:   1000000,
		Currency: "INR",
		Key:      "rzp_test_key",
	}

	client.On("CreateBooking", mock.Anything, int64(1), models.BookSeatsRequest{
		UserID:      7,
		SeatNumbers: []string{"01", "02"},
	}).Return(created, nil).Once()
	client.On("CreatePaymentOrder", mock.Anything, int64(42)).Return(order, nil).Once()

	options, err := w.Confirm(context.Background(), &session.Context{UserID: 7})

	require.NoError(t, err)
	assert.Equal(t, StateSubmitting, w.State())
	assert.Equal(t, "rzp_test_key", options.Key)
	assert.Equal(t, int64(1000000), options.Amount)
	assert.Equal(t, "INR", options.Currency)
	assert.Equal(t, "order_123", options.OrderID)
	assert.Equal(t, "PNR: AB12CD34", options.Description)
	assert.Equal(t, "Asha", options.Prefill.Name)
	client.AssertExpectations(t)
}

func TestWorkflow_ConfirmBookingRejected(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	w.SetSeatCount(2)
	require.NoError(t, w.ToggleSeat("01"))
	require.NoError(t, w.ToggleSeat("02"))

	reqErr := &api.RequestError{StatusCode: http.StatusBadRequest, Message: "Seat 01 already booked"}
	client.On("CreateBooking", mock.Anything, int64(1), mock.Anything).Return(nil, reqErr).Once()

	// The refresh shows seat 01 claimed by another passenger.
	refreshed := []models.Seat{
		{ID: 1, FlightID: 1, SeatNumber: "01", IsBooked: true},
		{ID: 2, FlightID: 1, SeatNumber: "02"},
		{ID: 3, FlightID: 1, SeatNumber: "03", IsBooked: true},
	}
	client.On("ListSeats", mock.Anything, int64(1)).Return(refreshed, nil).Once()

	_, err := w.Confirm(context.Background(), &session.Context{UserID: 7})

	require.Error(t, err)
	assert.Equal(t, StateSelecting, w.State(), "failure is recoverable")
	assert.Equal(t, "Seat 01 already booked", w.LastError(), "server message surfaced verbatim")
	assert.Equal(t, []string{"02"}, w.Selected(), "now-booked seat dropped from selection")
	client.AssertNotCalled(t, "CreatePaymentOrder", mock.Anything, mock.Anything)
	client.AssertExpectations(t)
}

func TestWorkflow_ConfirmPaymentOrderFails(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	require.NoError(t, w.ToggleSeat("01"))

	created := &models.Booking{ID: 42, PNR: "AB12CD34", Status: models.BookingStatusConfirmed}
	client.On("CreateBooking", mock.Anything, int64(1), mock.Anything).Return(created, nil).Once()
	client.On("CreatePaymentOrder", mock.Anything, int64(42)).
		Return(nil, &api.RequestError{StatusCode: http.StatusInternalServerError}).Once()
	client.On("ListSeats", mock.Anything, int64(1)).Return(testSeats(), nil).Once()

	_, err := w.Confirm(context.Background(), &session.Context{UserID: 7})

	require.Error(t, err)
	assert.Equal(t, StateSelecting, w.State())
	assert.Equal(t, "Booking failed", w.LastError(), "generic fallback when the server gave no message")
}

func TestWorkflow_CompletePayment(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	require.NoError(t, w.ToggleSeat("01"))

	created := &models.Booking{ID: 42, PNR: "AB12CD34", Status: models.BookingStatusConfirmed}
	client.On("CreateBooking", mock.Anything, int64(1), mock.Anything).Return(created, nil).Once()
	client.On("CreatePaymentOrder", mock.Anything, int64(42)).Return(&models.PaymentOrder{
		OrderID: "order_123", Amount: 500000, Currency: "INR", Key: "rzp_test_key",
	}, nil).Once()

	_, err := w.Confirm(context.Background(), &session.Context{UserID: 7})
	require.NoError(t, err)

	confirmed, err := w.CompletePayment(paymentResponse())
	require.NoError(t, err)
	assert.Equal(t, StateConfirmed, w.State())
	assert.Equal(t, "AB12CD34", confirmed.Reference())
}

func TestWorkflow_CompletePaymentWithoutBooking(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)

	_, err := w.CompletePayment(paymentResponse())
	require.Error(t, err)
	assert.Equal(t, StateSelecting, w.State())
}

func TestWorkflow_AbortPaymentVoidsBooking(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	require.NoError(t, w.ToggleSeat("01"))

	created := &models.Booking{ID: 42, PNR: "AB12CD34", Status: models.BookingStatusConfirmed}
	client.On("CreateBooking", mock.Anything, int64(1), mock.Anything).Return(created, nil).Once()
	client.On("CreatePaymentOrder", mock.Anything, int64(42)).Return(&models.PaymentOrder{
		OrderID: "order_123", Amount: 500000, Currency: "INR", Key: "rzp_test_key",
	}, nil).Once()
	client.On("CancelBooking", mock.Anything, int64(42)).Return(nil).Once()
	client.On("ListSeats", mock.Anything, int64(1)).Return(testSeats(), nil).Once()

	_, err := w.Confirm(context.Background(), &session.Context{UserID: 7})
	require.NoError(t, err)

	require.NoError(t, w.AbortPayment(context.Background()))
	assert.Equal(t, StateSelecting, w.State())
	assert.Nil(t, w.Booking())
	client.AssertExpectations(t)
}

func TestWorkflow_TotalPriceTracksSelection(t *testing.T) {
	client := new(mocks.MockService)
	w := loadedWorkflow(t, client)
	w.SetSeatCount(2)

	assert.Equal(t, 0.0, w.TotalPrice())
	require.NoError(t, w.ToggleSeat("01"))
	assert.Equal(t, 5000.0, w.TotalPrice())
	require.NoError(t, w.ToggleSeat("02"))
	assert.Equal(t, 10000.0, w.TotalPrice())
	require.NoError(t, w.ToggleSeat("02"))
	assert.Equal(t, 5000.0, w.TotalPrice())
}

func paymentResponse() payment.CompletionResponse {
	return payment.CompletionResponse{
		PaymentID: "pay_123",
		OrderID:   "order_123",
		Signature: "sig",
	}
}
