// Package booking drives the seat-selection and booking-confirmation
// workflow: fetch flight and seats, build a selection, create the booking
// and payment order, hand off to the checkout widget, and reconcile seat
// availability when a step fails.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lithammer/shortuuid/v3"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cx-tal-miterani/flight-booking-client/internal/api"
	"github.com/cx-tal-miterani/flight-booking-client/internal/models"
	"github.com/cx-tal-miterani/flight-booking-client/internal/payment"
	"github.com/cx-tal-miterani/flight-booking-client/internal/seatmap"
	"github.com/cx-tal-miterani/flight-booking-client/internal/session"
)

// State is the workflow phase. Failures during submission are recoverable:
// the workflow drops back to StateSelecting after reconciling seats.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSelecting  State = "selecting"
	StateSubmitting State = "submitting"
	StateFailed     State = "failed"
	StateConfirmed  State = "confirmed"
)

// Local recoverable errors. They block the action and map to inline
// warnings; no state changes and no network calls happen on their account.
var (
	ErrEmptySelection   = errors.New("select at least one seat")
	ErrNotAuthenticated = errors.New("log in to book a flight")
	ErrSelectionLimit   = errors.New("seat selection limit reached")
	ErrUnknownSeat      = errors.New("seat not on this flight")
	ErrNotSelecting     = errors.New("booking already in progress")
)

// Workflow is one seat-selection session for one flight. It is scoped to a
// single open view; navigating back to the seat screen starts a fresh one
// so flight price and availability are always re-fetched.
type Workflow struct {
	ID       string
	FlightID int64

	client api.Service
	log    *logrus.Entry

	mu       sync.Mutex
	state    State
	flight   *models.Flight
	seats    []models.Seat
	numSeats int
	selected []string
	booking  *models.Booking
	order    *models.PaymentOrder
	lastErr  string
}

// New creates a workflow in StateLoading. Nothing is fetched until Load.
func New(client api.Service, log *logrus.Logger, flightID int64) *Workflow {
	id := shortuuid.New()
	return &Workflow{
		ID:       id,
		FlightID: flightID,
		client:   client,
		log:      log.WithFields(logrus.Fields{"component": "booking", "workflow": id, "flight": flightID}),
		state:    StateLoading,
		numSeats: 1,
	}
}

// Load fetches the flight and its seats concurrently; the two reads are
// independent. On any failure the workflow stays in StateLoading and the
// caller surfaces the error; a manual reload is the only retry.
func (w *Workflow) Load(ctx context.Context) error {
	var (
		flight *models.Flight
		seats  []models.Seat
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		flight, err = w.client.GetFlight(gctx, w.FlightID)
		return err
	})
	g.Go(func() error {
		var err error
		seats, err = w.client.ListSeats(gctx, w.FlightID)
		return err
	})
	if err := g.Wait(); err != nil {
		w.log.WithError(err).Error("loading flight and seats failed")
		return fmt.Errorf("loading flight %d: %w", w.FlightID, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.flight = flight
	w.seats = seatmap.Sort(seats)
	w.state = StateReady
	// The grid is derived synchronously from the sorted list, so the
	// workflow is immediately selectable.
	w.state = StateSelecting
	w.log.WithField("seats", len(seats)).Info("seat selection ready")
	return nil
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) Flight() *models.Flight {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flight
}

// Grid derives the cabin layout from the current seat list.
func (w *Workflow) Grid() seatmap.Grid {
	w.mu.Lock()
	defer w.mu.Unlock()
	return seatmap.Build(w.seats)
}

// Booking returns the backend booking once one has been created.
func (w *Workflow) Booking() *models.Booking {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.booking
}

// LastError returns the message surfaced by the most recent failed
// submission, empty when none.
func (w *Workflow) LastError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// SeatCount returns the requested number of seats.
func (w *Workflow) SeatCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.numSeats
}

// SetSeatCount clamps n to 1..available_seats and trims the selection if it
// now exceeds the new bound, dropping the most recently picked seats first.
func (w *Workflow) SetSeatCount(n int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	max := 1
	if w.flight != nil && w.flight.AvailableSeats > 0 {
		max = w.flight.AvailableSeats
	}
	if n < 1 {
		n = 1
	}
	if n > max {
		n = max
	}
	w.numSeats = n
	if len(w.selected) > n {
		w.selected = w.selected[:n]
	}
	return n
}

// ToggleSeat flips membership of a seat in the selection. Booked seats are
// a no-op. Adding past the requested seat count is rejected with
// ErrSelectionLimit and leaves the selection unchanged.
func (w *Workflow) ToggleSeat(seatNumber string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state != StateSelecting {
		return ErrNotSelecting
	}

	seat, found := lo.Find(w.seats, func(s models.Seat) bool {
		return s.SeatNumber == seatNumber
	})
	if !found {
		return ErrUnknownSeat
	}
	if seat.IsBooked {
		return nil
	}

	if lo.Contains(w.selected, seatNumber) {
		w.selected = lo.Without(w.selected, seatNumber)
		return nil
	}
	if len(w.selected) >= w.numSeats {
		return fmt.Errorf("%w: you can select up to %d seats", ErrSelectionLimit, w.numSeats)
	}
	// Append order is click order; the backend receives the seats in the
	// sequence the passenger picked them.
	w.selected = append(w.selected, seatNumber)
	return nil
}

// Selected returns the current selection in click order.
func (w *Workflow) Selected() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.selected))
	copy(out, w.selected)
	return out
}

// IsSelected reports whether a seat number is part of the selection.
func (w *Workflow) IsSelected(seatNumber string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return lo.Contains(w.selected, seatNumber)
}

// TotalPrice is selection size times the freshly fetched dynamic price.
// It is never derived from a previously cached flight snapshot.
func (w *Workflow) TotalPrice() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.flight == nil {
		return 0
	}
	return float64(len(w.selected)) * w.flight.DynamicPrice
}

// Confirm runs the booking-mutating steps in order: create the booking for
// the selected seats, create the payment order for it, and return the
// checkout options for the hosted widget. The two steps are strictly
// sequential; the order needs the booking id.
//
// Guards fail fast without any network call or state change: an empty
// selection and a missing session are both local warnings.
func (w *Workflow) Confirm(ctx context.Context, sess *session.Context) (*payment.CheckoutOptions, error) {
	w.mu.Lock()
	if w.state != StateSelecting {
		w.mu.Unlock()
		return nil, ErrNotSelecting
	}
	if len(w.selected) == 0 {
		w.mu.Unlock()
		return nil, ErrEmptySelection
	}
	if sess == nil {
		w.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	w.state = StateSubmitting
	w.lastErr = ""
	selected := make([]string, len(w.selected))
	copy(selected, w.selected)
	userID := sess.UserID
	w.mu.Unlock()

	created, err := w.client.CreateBooking(ctx, w.FlightID, models.BookSeatsRequest{
		UserID:      userID,
		SeatNumbers: selected,
	})
	if err != nil {
		return nil, w.failSubmission(ctx, "creating booking", err)
	}

	order, err := w.client.CreatePaymentOrder(ctx, created.ID)
	if err != nil {
		return nil, w.failSubmission(ctx, "creating payment order", err)
	}

	w.mu.Lock()
	w.booking = created
	w.order = order
	w.mu.Unlock()

	w.log.WithFields(logrus.Fields{"booking": created.ID, "pnr": created.Reference()}).
		Info("booking created, handing off to checkout")

	options := payment.BuildCheckout(order, created, &created.User)
	return &options, nil
}

// CompletePayment is the checkout widget's success callback. The booking is
// confirmed and the workflow is finished.
func (w *Workflow) CompletePayment(resp payment.CompletionResponse) (*models.Booking, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateSubmitting || w.booking == nil {
		return nil, fmt.Errorf("no booking awaiting payment")
	}
	w.state = StateConfirmed
	w.log.WithFields(logrus.Fields{"booking": w.booking.ID, "payment": resp.PaymentID}).
		Info("payment completed")
	return w.booking, nil
}

// AbortPayment is the checkout widget's dismissal path. The already-created
// booking is voided via the cancel endpoint so the held seats return to the
// pool, then the workflow reconciles availability and returns to selecting.
func (w *Workflow) AbortPayment(ctx context.Context) error {
	w.mu.Lock()
	created := w.booking
	w.booking = nil
	w.order = nil
	w.mu.Unlock()

	if created != nil {
		if err := w.client.CancelBooking(ctx, created.ID); err != nil {
			w.log.WithError(err).WithField("booking", created.ID).
				Warn("voiding unpaid booking failed")
		}
	}
	w.refreshSeats(ctx)

	w.mu.Lock()
	w.state = StateSelecting
	w.mu.Unlock()
	return nil
}

// failSubmission handles a failed booking or payment-order call: surface
// the server message, re-fetch seats to pick up availability claimed by
// other passengers, drop selected seats that are now booked, and return to
// selecting with the rest of the selection intact.
func (w *Workflow) failSubmission(ctx context.Context, step string, err error) error {
	w.mu.Lock()
	w.state = StateFailed
	w.mu.Unlock()

	message := "Booking failed"
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		message = reqErr.Message
	}

	w.log.WithError(err).Warnf("%s failed", step)
	w.refreshSeats(ctx)

	w.mu.Lock()
	w.lastErr = message
	w.state = StateSelecting
	w.mu.Unlock()
	return fmt.Errorf("%s: %w", step, err)
}

// refreshSeats re-fetches the seat list and drops now-booked seats from the
// selection. A failed refresh keeps the previous list; the next render or
// attempt will fetch again.
func (w *Workflow) refreshSeats(ctx context.Context) {
	seats, err := w.client.ListSeats(ctx, w.FlightID)
	if err != nil {
		w.log.WithError(err).Warn("seat refresh after failure did not succeed")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.seats = seatmap.Sort(seats)

	kept := lo.Filter(w.selected, func(number string, _ int) bool {
		seat, found := lo.Find(w.seats, func(s models.Seat) bool {
			return s.SeatNumber == number
		})
		return found && !seat.IsBooked
	})
	if len(kept) != len(w.selected) {
		w.log.WithFields(logrus.Fields{
			"dropped": len(w.selected) - len(kept),
		}).Info("removed seats claimed by another passenger from selection")
	}
	w.selected = kept
}
