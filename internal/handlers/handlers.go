package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-booking-client/internal/api"
	"github.com/cx-tal-miterani/flight-booking-client/internal/booking"
	"github.com/cx-tal-miterani/flight-booking-client/internal/models"
	"github.com/cx-tal-miterani/flight-booking-client/internal/payment"
	"github.com/cx-tal-miterani/flight-booking-client/internal/receipt"
	"github.com/cx-tal-miterani/flight-booking-client/internal/seatmap"
	"github.com/cx-tal-miterani/flight-booking-client/internal/session"
	"github.com/cx-tal-miterani/flight-booking-client/internal/web"
)

// viewCookie scopes a seat-selection workflow to one browser, signed in or
// not. The session cookie only appears after login.
const viewCookie = "fb_view"

// Handler contains the HTTP handlers for the booking screens.
type Handler struct {
	client   api.Service
	sessions *session.Manager
	bookings *booking.Manager
	renderer *web.Renderer
	log      *logrus.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(client api.Service, sessions *session.Manager, bookings *booking.Manager, renderer *web.Renderer, log *logrus.Logger) *Handler {
	return &Handler{
		client:   client,
		sessions: sessions,
		bookings: bookings,
		renderer: renderer,
		log:      log,
	}
}

// baseData carries what every screen needs from the layout.
type baseData struct {
	LoggedIn  bool
	Flash     string
	FlashKind string
}

func (h *Handler) base(w http.ResponseWriter, r *http.Request) baseData {
	flash, kind := takeFlash(w, r)
	_, err := h.sessions.FromRequest(r)
	return baseData{LoggedIn: err == nil, Flash: flash, FlashKind: kind}
}

func (h *Handler) render(w http.ResponseWriter, page string, data interface{}) {
	if err := h.renderer.Render(w, page, data); err != nil {
		h.log.WithError(err).WithField("page", page).Error("rendering failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// Home handles GET /: signed-in users land on flight search.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.FromRequest(r); err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/home/flights", http.StatusSeeOther)
}

// ShowLogin handles GET /login.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	data := struct {
		baseData
		Email string
	}{baseData: h.base(w, r)}
	h.render(w, "login", data)
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	resp, err := h.client.Login(r.Context(), models.LoginRequest{Email: email, Password: password})
	if err != nil {
		h.log.WithError(err).Warn("login failed")
		setFlash(w, flashError, "Invalid credentials!")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := h.sessions.Issue(w, resp.UserID); err != nil {
		h.log.WithError(err).Error("issuing session failed")
		setFlash(w, flashError, "Login failed, please try again.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	setFlash(w, flashSuccess, "Login successful!")
	http.Redirect(w, r, "/home/flights", http.StatusSeeOther)
}

// ShowSignup handles GET /signup.
func (h *Handler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	data := struct {
		baseData
		Name  string
		Email string
	}{baseData: h.base(w, r)}
	h.render(w, "signup", data)
}

// Signup handles POST /signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	req := models.SignupRequest{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if _, err := h.client.Signup(r.Context(), req); err != nil {
		h.log.WithError(err).Warn("signup failed")
		setFlash(w, flashError, serverMessage(err, "Failed to create account!"))
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}
	setFlash(w, flashSuccess, "Account created successfully!")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout handles POST /logout. Destroying the session is the only state
// change; nothing is sent to the backend.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	setFlash(w, flashSuccess, "Logged out successfully!")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// SearchFlights handles GET /home/flights.
func (h *Handler) SearchFlights(w http.ResponseWriter, r *http.Request) {
	query := models.FlightQuery{
		Source:      r.URL.Query().Get("source"),
		Destination: r.URL.Query().Get("destination"),
		Date:        r.URL.Query().Get("date"),
		Sort:        r.URL.Query().Get("sort"),
	}

	data := struct {
		baseData
		Query   models.FlightQuery
		Flights []models.Flight
		Message string
	}{baseData: h.base(w, r), Query: query}

	// Render the empty search form until a route is entered.
	if query.Source != "" || query.Destination != "" || query.Date != "" {
		flights, err := h.client.SearchFlights(r.Context(), query)
		switch {
		case err != nil:
			h.log.WithError(err).Warn("flight search failed")
			data.Message = "Error contacting server."
		case len(flights) == 0:
			data.Message = "No flights available for this route."
		default:
			data.Flights = flights
		}
	}
	h.render(w, "flights", data)
}

// OpenSeats handles POST /home/flights/{id}/seats/open: starts a fresh
// seat-selection workflow so price and availability are re-fetched, then
// redirects to the seat grid.
func (h *Handler) OpenSeats(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	token := h.browserToken(w, r)
	if _, err := h.bookings.Open(r.Context(), token, flightID); err != nil {
		setFlash(w, flashError, "Could not load flight details, please try again.")
		http.Redirect(w, r, "/home/flights", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/home/flights/%d/seats", flightID), http.StatusSeeOther)
}

// ShowSeats handles GET /home/flights/{id}/seats. Re-renders the live
// workflow when one exists (so a toggle keeps the selection); otherwise
// starts a fresh one.
func (h *Handler) ShowSeats(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	token := h.browserToken(w, r)

	flow, ok := h.bookings.Get(token, flightID)
	if !ok {
		flow, err = h.bookings.Open(r.Context(), token, flightID)
		if err != nil {
			setFlash(w, flashError, "Could not load flight details, please try again.")
			http.Redirect(w, r, "/home/flights", http.StatusSeeOther)
			return
		}
	}

	selected := flow.Selected()
	selectedSet := make(map[string]bool, len(selected))
	for _, s := range selected {
		selectedSet[s] = true
	}

	data := struct {
		baseData
		Flight      *models.Flight
		Grid        seatmap.Grid
		NumSeats    int
		Selected    []string
		SelectedSet map[string]bool
		TotalPrice  float64
	}{
		baseData:    h.base(w, r),
		Flight:      flow.Flight(),
		Grid:        flow.Grid(),
		NumSeats:    flow.SeatCount(),
		Selected:    selected,
		SelectedSet: selectedSet,
		TotalPrice:  flow.TotalPrice(),
	}
	h.render(w, "seats", data)
}

// LeaveSeats handles POST /home/flights/{id}/seats/leave: navigating away
// discards the workflow and its selection.
func (h *Handler) LeaveSeats(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	h.bookings.Drop(h.browserToken(w, r), flightID)
	http.Redirect(w, r, "/home/flights", http.StatusSeeOther)
}

// SetSeatCount handles POST /home/flights/{id}/seats/count.
func (h *Handler) SetSeatCount(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	flow, ok := h.bookings.Get(h.browserToken(w, r), flightID)
	if !ok {
		http.Redirect(w, r, fmt.Sprintf("/home/flights/%d/seats", flightID), http.StatusSeeOther)
		return
	}
	n, err := strconv.Atoi(r.PostFormValue("num_seats"))
	if err != nil {
		n = 1
	}
	flow.SetSeatCount(n)
	http.Redirect(w, r, fmt.Sprintf("/home/flights/%d/seats", flightID), http.StatusSeeOther)
}

// ToggleSeat handles POST /home/flights/{id}/seats/toggle.
func (h *Handler) ToggleSeat(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	seatsURL := fmt.Sprintf("/home/flights/%d/seats", flightID)

	flow, ok := h.bookings.Get(h.browserToken(w, r), flightID)
	if !ok {
		http.Redirect(w, r, seatsURL, http.StatusSeeOther)
		return
	}
	if err := flow.ToggleSeat(r.PostFormValue("seat_number")); err != nil {
		if errors.Is(err, booking.ErrSelectionLimit) {
			setFlash(w, flashError, fmt.Sprintf("You can select up to %d seats", flow.SeatCount()))
		}
	}
	http.Redirect(w, r, seatsURL, http.StatusSeeOther)
}

// ConfirmBooking handles POST /home/flights/{id}/seats/confirm: creates the
// booking and payment order, then renders the checkout handoff page.
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	seatsURL := fmt.Sprintf("/home/flights/%d/seats", flightID)

	flow, ok := h.bookings.Get(h.browserToken(w, r), flightID)
	if !ok {
		http.Redirect(w, r, seatsURL, http.StatusSeeOther)
		return
	}

	sess, sessErr := h.sessions.FromRequest(r)
	if sessErr != nil {
		setFlash(w, flashError, "Please log in to book a flight.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	options, err := flow.Confirm(r.Context(), sess)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrEmptySelection):
			setFlash(w, flashError, "Please select at least one seat")
		default:
			message := flow.LastError()
			if message == "" {
				message = "Booking failed"
			}
			setFlash(w, flashError, message)
		}
		http.Redirect(w, r, seatsURL, http.StatusSeeOther)
		return
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		h.log.WithError(err).Error("encoding checkout options failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := struct {
		baseData
		FlightID    int64
		Options     *payment.CheckoutOptions
		OptionsJSON template.JS
		AmountMajor string
	}{
		baseData:    h.base(w, r),
		FlightID:    flightID,
		Options:     options,
		OptionsJSON: template.JS(optionsJSON),
		AmountMajor: fmt.Sprintf("%.2f", float64(options.Amount)/100),
	}
	h.render(w, "checkout", data)
}

// PaymentSuccess handles POST /home/flights/{id}/payment/success, the
// checkout widget's completion callback.
func (h *Handler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	token := h.browserToken(w, r)

	flow, ok := h.bookings.Get(token, flightID)
	if !ok {
		http.Redirect(w, r, "/home/bookings", http.StatusSeeOther)
		return
	}

	confirmed, err := flow.CompletePayment(payment.CompletionResponse{
		PaymentID: r.PostFormValue("razorpay_payment_id"),
		OrderID:   r.PostFormValue("razorpay_order_id"),
		Signature: r.PostFormValue("razorpay_signature"),
	})
	if err != nil {
		setFlash(w, flashError, "No booking awaiting payment.")
		http.Redirect(w, r, "/home/bookings", http.StatusSeeOther)
		return
	}

	h.bookings.Drop(token, flightID)
	setFlash(w, flashSuccess, fmt.Sprintf("Booking Confirmed! Your PNR is %s.", confirmed.Reference()))
	http.Redirect(w, r, "/home/bookings", http.StatusSeeOther)
}

// PaymentCancel handles both the explicit cancel button (POST) and the
// widget's dismiss callback (GET). The unpaid booking is voided and the
// passenger returns to seat selection.
func (h *Handler) PaymentCancel(w http.ResponseWriter, r *http.Request) {
	flightID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	seatsURL := fmt.Sprintf("/home/flights/%d/seats", flightID)

	flow, ok := h.bookings.Get(h.browserToken(w, r), flightID)
	if ok {
		if err := flow.AbortPayment(r.Context()); err != nil {
			h.log.WithError(err).Warn("aborting payment failed")
		}
	}
	setFlash(w, flashError, "Payment cancelled, your seats were released.")
	http.Redirect(w, r, seatsURL, http.StatusSeeOther)
}

// ListBookings handles GET /home/bookings.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.FromRequest(r)
	if err != nil {
		setFlash(w, flashError, "Please log in to view your bookings.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	data := struct {
		baseData
		Bookings []models.Booking
	}{baseData: h.base(w, r)}

	bookings, err := h.client.ListUserBookings(r.Context(), sess.UserID)
	if err != nil {
		h.log.WithError(err).Warn("fetching bookings failed")
		data.Flash = "Could not fetch bookings."
		data.FlashKind = flashError
	} else {
		data.Bookings = bookings
	}
	h.render(w, "bookings", data)
}

// CancelBooking handles POST /home/bookings/{id}/cancel.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if _, err := h.sessions.FromRequest(r); err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	bookingID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.client.CancelBooking(r.Context(), bookingID); err != nil {
		h.log.WithError(err).Warn("cancelling booking failed")
		setFlash(w, flashError, serverMessage(err, "Cancellation failed."))
	} else {
		setFlash(w, flashSuccess, "Booking cancelled successfully!")
	}
	http.Redirect(w, r, "/home/bookings", http.StatusSeeOther)
}

// DownloadReceipt handles GET /home/bookings/{id}/receipt: renders the
// booking into a PDF named by PNR.
func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.FromRequest(r)
	if err != nil {
		setFlash(w, flashError, "Please log in to download a receipt.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	bookingID, err := pathID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	bookings, err := h.client.ListUserBookings(r.Context(), sess.UserID)
	if err != nil {
		setFlash(w, flashError, "Could not fetch bookings.")
		http.Redirect(w, r, "/home/bookings", http.StatusSeeOther)
		return
	}
	var target *models.Booking
	for i := range bookings {
		if bookings[i].ID == bookingID {
			target = &bookings[i]
			break
		}
	}
	if target == nil {
		http.NotFound(w, r)
		return
	}

	document, err := receipt.Generate(target)
	if err != nil {
		h.log.WithError(err).Error("generating receipt failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", receipt.Filename(target)))
	w.Write(document)
}

// Profile handles GET /home/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.FromRequest(r)
	if err != nil {
		setFlash(w, flashError, "Please log in to view your profile.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	user, err := h.client.GetUser(r.Context(), sess.UserID)
	if err != nil {
		h.log.WithError(err).Warn("fetching user failed")
		setFlash(w, flashError, "Could not fetch user profile.")
		http.Redirect(w, r, "/home/flights", http.StatusSeeOther)
		return
	}
	data := struct {
		baseData
		User *models.User
	}{baseData: h.base(w, r), User: user}
	h.render(w, "profile", data)
}

// browserToken returns the per-browser token scoping seat-selection
// workflows, minting one when absent.
func (h *Handler) browserToken(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(viewCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     viewCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// serverMessage prefers the backend-provided error text, falling back to a
// generic message.
func serverMessage(err error, fallback string) string {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	return fallback
}
