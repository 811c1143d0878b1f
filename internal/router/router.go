package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-booking-client/internal/handlers"
)

// New creates and configures the HTTP router for the booking screens.
func New(h *handlers.Handler, log *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(log))

	r.HandleFunc("/", h.Home).Methods(http.MethodGet)
	r.HandleFunc("/login", h.ShowLogin).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/signup", h.ShowSignup).Methods(http.MethodGet)
	r.HandleFunc("/signup", h.Signup).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)

	home := r.PathPrefix("/home").Subrouter()
	home.HandleFunc("/flights", h.SearchFlights).Methods(http.MethodGet)
	home.HandleFunc("/flights/{id}/seats/open", h.OpenSeats).Methods(http.MethodPost)
	home.HandleFunc("/flights/{id}/seats", h.ShowSeats).Methods(http.MethodGet)
	home.HandleFunc("/flights/{id}/seats/leave", h.LeaveSeats).Methods(http.MethodPost)
	home.HandleFunc("/flights/{id}/seats/count", h.SetSeatCount).Methods(http.MethodPost)
	home.HandleFunc("/flights/{id}/seats/toggle", h.ToggleSeat).Methods(http.MethodPost)
	home.HandleFunc("/flights/{id}/seats/confirm", h.ConfirmBooking).Methods(http.MethodPost)
	home.HandleFunc("/flights/{id}/payment/success", h.PaymentSuccess).Methods(http.MethodPost)
	home.HandleFunc("/flights/{id}/payment/cancel", h.PaymentCancel).Methods(http.MethodPost)
	home.HandleFunc("/flights/{id}/payment/cancelled", h.PaymentCancel).Methods(http.MethodGet)
	home.HandleFunc("/bookings", h.ListBookings).Methods(http.MethodGet)
	home.HandleFunc("/bookings/{id}/cancel", h.CancelBooking).Methods(http.MethodPost)
	home.HandleFunc("/bookings/{id}/receipt", h.DownloadReceipt).Methods(http.MethodGet)
	home.HandleFunc("/profile", h.Profile).Methods(http.MethodGet)

	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	return r
}

func requestLogger(log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("request served")
		})
	}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
