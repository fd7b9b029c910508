package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/zeluilo/hms-sub001/pkg/config"
	"github.com/zeluilo/hms-sub001/pkg/logger"
	"github.com/zeluilo/hms-sub001/pkg/monitoring"
	"github.com/zeluilo/hms-sub001/pkg/types"
)

// Client issues read and write requests against the backend REST API.
// Each GET returns an object with named array fields; this client
// unwraps them into typed slices and tags each record with its kind.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
}

// NewClient creates a new upstream client
func NewClient(cfg *config.UpstreamConfig, log *logger.Logger, metrics *monitoring.MetricsCollector) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
			Transport: &http.Transport{
				MaxIdleConns: cfg.MaxIdleConns,
			},
		},
		logger:  log,
		metrics: metrics,
	}
}

// GetPaymentData fetches the combined billing collections in one call.
func (c *Client) GetPaymentData(ctx context.Context) (*types.BillingData, error) {
	var data types.BillingData
	if err := c.getJSON(ctx, "/get-payment-data", &data); err != nil {
		return nil, err
	}
	tagKinds(&data)
	return &data, nil
}

// GetGroupedAppointments fetches the appointment billing lines.
func (c *Client) GetGroupedAppointments(ctx context.Context) ([]types.Record, error) {
	var payload struct {
		Appointments []types.Record `json:"appointments"`
	}
	if err := c.getJSON(ctx, "/get-grouped-appointments", &payload); err != nil {
		return nil, err
	}
	setKind(payload.Appointments, types.KindAppointment)
	return payload.Appointments, nil
}

// GetGroupedPrescriptions fetches the prescription billing lines.
func (c *Client) GetGroupedPrescriptions(ctx context.Context) ([]types.Record, error) {
	var payload struct {
		Prescriptions []types.Record `json:"prescriptions"`
	}
	if err := c.getJSON(ctx, "/get-GroupedPrescriptions", &payload); err != nil {
		return nil, err
	}
	setKind(payload.Prescriptions, types.KindPrescription)
	return payload.Prescriptions, nil
}

// GetGroupedInvestigations fetches the lab investigation billing lines.
func (c *Client) GetGroupedInvestigations(ctx context.Context) ([]types.Record, error) {
	var payload struct {
		Investigations []types.Record `json:"investigations"`
	}
	if err := c.getJSON(ctx, "/get-GroupedInvestigations", &payload); err != nil {
		return nil, err
	}
	setKind(payload.Investigations, types.KindInvestigation)
	return payload.Investigations, nil
}

// GetAllBookings fetches every booking record.
func (c *Client) GetAllBookings(ctx context.Context) ([]types.Record, error) {
	var payload struct {
		Bookings []types.Record `json:"bookings"`
	}
	if err := c.getJSON(ctx, "/getallbookings", &payload); err != nil {
		return nil, err
	}
	setKind(payload.Bookings, types.KindAppointment)
	return payload.Bookings, nil
}

// GetPaymentPrice fetches the visit base price used when a booking has no
// explicit amount.
func (c *Client) GetPaymentPrice(ctx context.Context) (decimal.Decimal, error) {
	var payload struct {
		Price decimal.Decimal `json:"price"`
	}
	if err := c.getJSON(ctx, "/get-payment-price", &payload); err != nil {
		return decimal.Zero, err
	}
	return payload.Price, nil
}

// GetNotifications fetches the staff notification feed.
func (c *Client) GetNotifications(ctx context.Context) ([]types.Notification, error) {
	var payload struct {
		Notifications []types.Notification `json:"notifications"`
	}
	if err := c.getJSON(ctx, "/get-notifications", &payload); err != nil {
		return nil, err
	}
	return payload.Notifications, nil
}

// FetchBillingSources fetches appointments, prescriptions and
// investigations concurrently and joins the results before returning.
// Derived computation must never start on a partial set, so any single
// failure fails the whole fetch.
func (c *Client) FetchBillingSources(ctx context.Context) (*types.BillingData, error) {
	var data types.BillingData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := c.GetGroupedAppointments(gctx)
		if err != nil {
			return err
		}
		data.Appointments = records
		return nil
	})
	g.Go(func() error {
		records, err := c.GetGroupedPrescriptions(gctx)
		if err != nil {
			return err
		}
		data.Prescriptions = records
		return nil
	})
	g.Go(func() error {
		records, err := c.GetGroupedInvestigations(gctx)
		if err != nil {
			return err
		}
		data.Investigations = records
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

// PaymentRequest is the payload for creating a payment.
type PaymentRequest struct {
	BookingID   int             `json:"bookingId"`
	PatientID   int             `json:"pId"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Method      string          `json:"method"`
}

// AddPayment creates a payment record.
func (c *Client) AddPayment(ctx context.Context, req *PaymentRequest) (*WriteResult, error) {
	return c.write(ctx, http.MethodPost, "/addpayment", req)
}

// UpdatePayment updates an existing payment record.
func (c *Client) UpdatePayment(ctx context.Context, paymentID int, req *PaymentRequest) (*WriteResult, error) {
	return c.write(ctx, http.MethodPut, fmt.Sprintf("/update-payment/%d", paymentID), req)
}

// UpdateBookingStatus updates the payment status of a booking.
func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID int, status types.PaymentStatus) (*WriteResult, error) {
	payload := map[string]string{"status": string(status)}
	return c.write(ctx, http.MethodPut, fmt.Sprintf("/updateBookingStatus/%d", bookingID), payload)
}

// getJSON performs a GET and decodes the response body into v.
func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, http.MethodGet, path, 0, start, false)
		return types.NewTransportError(types.ErrCodeUpstreamUnavailable, fmt.Sprintf("GET %s failed", path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.record(ctx, http.MethodGet, path, resp.StatusCode, start, false)
		return types.NewTransportError(types.ErrCodeUpstreamUnavailable, fmt.Sprintf("GET %s returned %d", path, resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		c.record(ctx, http.MethodGet, path, resp.StatusCode, start, false)
		return types.NewBadResponseError(types.ErrCodeBadResponseShape, fmt.Sprintf("GET %s returned an unexpected body", path), err)
	}

	c.record(ctx, http.MethodGet, path, resp.StatusCode, start, true)
	return nil
}

// write performs a POST/PUT and classifies the backend's message string
// into a structured result.
func (c *Client) write(ctx context.Context, method, path string, body interface{}) (*WriteResult, error) {
	start := time.Now()

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, method, path, 0, start, false)
		return nil, types.NewTransportError(types.ErrCodeUpstreamUnavailable, fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	// The backend signals business outcomes inside a 2xx body, so a
	// non-2xx status is always a transport-level problem.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.record(ctx, method, path, resp.StatusCode, start, false)
		return nil, types.NewTransportError(types.ErrCodeUpstreamUnavailable, fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode), nil)
	}

	var raw writeResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.record(ctx, method, path, resp.StatusCode, start, false)
		return nil, types.NewBadResponseError(types.ErrCodeBadResponseShape, fmt.Sprintf("%s %s returned an unexpected body", method, path), err)
	}

	result := &WriteResult{
		Outcome: ClassifyMessage(raw.Message),
		Message: raw.Message,
		ID:      raw.ID,
	}

	c.record(ctx, method, path, resp.StatusCode, start, result.Outcome == OutcomeSuccess)
	return result, nil
}

func (c *Client) record(ctx context.Context, method, path string, statusCode int, start time.Time, success bool) {
	duration := time.Since(start)
	if c.metrics != nil {
		outcome := "error"
		if success {
			outcome = "ok"
		}
		c.metrics.RecordUpstreamRequest(path, outcome, duration)
	}
	if c.logger != nil {
		c.logger.UpstreamCall(ctx, method, path, statusCode, duration.Milliseconds(), success, nil)
	}
}

func setKind(records []types.Record, kind types.RecordKind) {
	for i := range records {
		if records[i].Kind == "" {
			records[i].Kind = kind
		}
	}
}

func tagKinds(data *types.BillingData) {
	setKind(data.Appointments, types.KindAppointment)
	setKind(data.Prescriptions, types.KindPrescription)
	setKind(data.Investigations, types.KindInvestigation)
}

// Login authenticates a staff member against the backend and returns the
// user profile on success.
func (c *Client) Login(ctx context.Context, username, password string) (*types.User, error) {
	start := time.Now()

	encoded, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to encode credentials", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(encoded))
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.record(ctx, http.MethodPost, "/login", 0, start, false)
		return nil, types.NewTransportError(types.ErrCodeUpstreamUnavailable, "POST /login failed", err)
	}
	defer resp.Body.Close()

	// Invalid credentials come back as a 2xx with a message, like every
	// other business outcome.
	var raw struct {
		Message string      `json:"message"`
		User    *types.User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.record(ctx, http.MethodPost, "/login", resp.StatusCode, start, false)
		return nil, types.NewBadResponseError(types.ErrCodeBadResponseShape, "POST /login returned an unexpected body", err)
	}

	if ClassifyMessage(raw.Message) != OutcomeSuccess || raw.User == nil {
		c.record(ctx, http.MethodPost, "/login", resp.StatusCode, start, false)
		return nil, types.NewAuthenticationError(types.ErrCodeAuthenticationFailed, raw.Message)
	}

	c.record(ctx, http.MethodPost, "/login", resp.StatusCode, start, true)
	return raw.User, nil
}
