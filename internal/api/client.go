package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-booking-client/internal/models"
)

// Service defines the backend operations the application depends on. All
// other components reach the network exclusively through this interface.
type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	SearchFlights(ctx context.Context, query models.FlightQuery) ([]models.Flight, error)
	GetFlight(ctx context.Context, flightID int64) (*models.Flight, error)
	ListSeats(ctx context.Context, flightID int64) ([]models.Seat, error)
	CreateBooking(ctx context.Context, flightID int64, req models.BookSeatsRequest) (*models.Booking, error)
	CreatePaymentOrder(ctx context.Context, bookingID int64) (*models.PaymentOrder, error)
	CancelBooking(ctx context.Context, bookingID int64) error
	ListUserBookings(ctx context.Context, userID int64) ([]models.Booking, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// Client implements Service against the flight-booking REST backend.
// It issues plain request/response calls: no retries, no caching, no
// per-call timeout beyond what the injected http.Client carries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	log        *logrus.Entry
}

// NewClient creates a Client for the given backend base URL. A nil
// httpClient falls back to http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, log *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		validate:   validator.New(),
		log:        log.WithField("component", "api"),
	}
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.post(ctx, "/login/", req, &resp); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&resp); err != nil {
		return nil, fmt.Errorf("invalid login response: %w", err)
	}
	return &resp, nil
}

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.post(ctx, "/signup/", req, &resp); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&resp); err != nil {
		return nil, fmt.Errorf("invalid signup response: %w", err)
	}
	return &resp, nil
}

func (c *Client) SearchFlights(ctx context.Context, query models.FlightQuery) ([]models.Flight, error) {
	params := url.Values{}
	if query.Source != "" {
		params.Set("source", query.Source)
	}
	if query.Destination != "" {
		params.Set("destination", query.Destination)
	}
	if query.Date != "" {
		params.Set("date", query.Date)
	}
	if query.Sort != "" {
		params.Set("sort", query.Sort)
	}

	var flights []models.Flight
	if err := c.get(ctx, "/flights/", params, &flights); err != nil {
		return nil, err
	}
	for i := range flights {
		if err := c.validate.Struct(&flights[i]); err != nil {
			return nil, fmt.Errorf("invalid flight in search response: %w", err)
		}
	}
	return flights, nil
}

func (c *Client) GetFlight(ctx context.Context, flightID int64) (*models.Flight, error) {
	var flight models.Flight
	if err := c.get(ctx, fmt.Sprintf("/flights/%d/", flightID), nil, &flight); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&flight); err != nil {
		return nil, fmt.Errorf("invalid flight response: %w", err)
	}
	return &flight, nil
}

func (c *Client) ListSeats(ctx context.Context, flightID int64) ([]models.Seat, error) {
	var seats []models.Seat
	if err := c.get(ctx, fmt.Sprintf("/flights/%d/seats/", flightID), nil, &seats); err != nil {
		return nil, err
	}
	for i := range seats {
		if err := c.validate.Struct(&seats[i]); err != nil {
			return nil, fmt.Errorf("invalid seat in response: %w", err)
		}
	}
	return seats, nil
}

func (c *Client) CreateBooking(ctx context.Context, flightID int64, req models.BookSeatsRequest) (*models.Booking, error) {
	if err := c.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid booking request: %w", err)
	}
	var booking models.Booking
	if err := c.post(ctx, fmt.Sprintf("/flights/%d/seats/book/", flightID), req, &booking); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&booking); err != nil {
		return nil, fmt.Errorf("invalid booking response: %w", err)
	}
	return &booking, nil
}

func (c *Client) CreatePaymentOrder(ctx context.Context, bookingID int64) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	if err := c.post(ctx, fmt.Sprintf("/bookings/%d/create-razorpay-order/", bookingID), nil, &order); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&order); err != nil {
		return nil, fmt.Errorf("invalid payment order response: %w", err)
	}
	return &order, nil
}

func (c *Client) CancelBooking(ctx context.Context, bookingID int64) error {
	return c.post(ctx, fmt.Sprintf("/bookings/%d/cancel/", bookingID), nil, nil)
}

func (c *Client) ListUserBookings(ctx context.Context, userID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	if err := c.get(ctx, fmt.Sprintf("/users/%d/bookings/", userID), nil, &bookings); err != nil {
		return nil, err
	}
	for i := range bookings {
		if err := c.validate.Struct(&bookings[i]); err != nil {
			return nil, fmt.Errorf("invalid booking in response: %w", err)
		}
	}
	return bookings, nil
}

func (c *Client) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, fmt.Sprintf("/users/%d/", userID), nil, &user); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(&user); err != nil {
		return nil, fmt.Errorf("invalid user response: %w", err)
	}
	return &user, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request for %s: %w", path, err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		reqErr := newRequestError(resp.StatusCode, data)
		c.log.WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
			"status": resp.StatusCode,
		}).Warn("backend request failed")
		return reqErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}
	return nil
}
