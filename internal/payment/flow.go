package payment

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/zeluilo/hms-sub001/internal/upstream"
	"github.com/zeluilo/hms-sub001/pkg/logger"
	"github.com/zeluilo/hms-sub001/pkg/monitoring"
	"github.com/zeluilo/hms-sub001/pkg/types"
)

// State is the submission flow state.
type State string

const (
	StateIdle       State = "idle"
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateFailed     State = "failed"
)

// Form holds the payment form values.
type Form struct {
	BookingID   int             `json:"bookingId" validate:"required"`
	PatientID   int             `json:"pId" validate:"required"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Method      string          `json:"method" validate:"required"`
}

// Balance is the amount still owed after this payment.
func (f *Form) Balance() decimal.Decimal {
	return f.TotalAmount.Sub(f.AmountPaid)
}

// Submitter is the subset of the upstream client the flow needs.
type Submitter interface {
	AddPayment(ctx context.Context, req *upstream.PaymentRequest) (*upstream.WriteResult, error)
	UpdatePayment(ctx context.Context, paymentID int, req *upstream.PaymentRequest) (*upstream.WriteResult, error)
	UpdateBookingStatus(ctx context.Context, bookingID int, status types.PaymentStatus) (*upstream.WriteResult, error)
}

// Flow drives one payment submission through
// Idle -> Editing -> Validating -> Submitting -> {Idle, Failed}.
// Validation failures never reach the network; a failed submission keeps
// the entered values so the user can correct and resubmit. A Flow belongs
// to a single view and is not safe for concurrent use.
type Flow struct {
	state   State
	form    Form
	message string

	client    Submitter
	logger    *logger.Logger
	metrics   *monitoring.MetricsCollector
	validate  *validator.Validate
	onSuccess func(ctx context.Context)
}

// NewFlow creates a payment flow. onSuccess is the refetch-and-recompute
// hook invoked after a completed submission; it may be nil.
func NewFlow(client Submitter, log *logger.Logger, metrics *monitoring.MetricsCollector, onSuccess func(ctx context.Context)) *Flow {
	return &Flow{
		state:     StateIdle,
		client:    client,
		logger:    log,
		metrics:   metrics,
		validate:  validator.New(),
		onSuccess: onSuccess,
	}
}

// State returns the current flow state.
func (f *Flow) State() State { return f.state }

// Form returns the current form values.
func (f *Flow) Form() Form { return f.form }

// Message returns the user-visible banner message, if any.
func (f *Flow) Message() string { return f.message }

// Edit moves the flow into editing with the given form values.
func (f *Flow) Edit(form Form) {
	f.form = form
	f.message = ""
	f.state = StateEditing
}

// Acknowledge clears a failure banner and returns to editing, keeping the
// entered values. No automatic retry happens.
func (f *Flow) Acknowledge() {
	if f.state == StateFailed {
		f.message = ""
		f.state = StateEditing
	}
}

// Submit validates the form and, when valid, issues the payment creation
// followed by the booking status update. The status update is only
// attempted after the payment call succeeds.
func (f *Flow) Submit(ctx context.Context) error {
	if f.state != StateEditing {
		return types.NewInternalError(types.ErrCodeInternalError, fmt.Sprintf("submit called in state %q", f.state), nil)
	}

	f.state = StateValidating
	if err := f.check(); err != nil {
		f.fail(err.Message, "validation_failed")
		return err
	}

	f.state = StateSubmitting

	result, err := f.client.AddPayment(ctx, &upstream.PaymentRequest{
		BookingID:   f.form.BookingID,
		PatientID:   f.form.PatientID,
		AmountPaid:  f.form.AmountPaid,
		TotalAmount: f.form.TotalAmount,
		Method:      f.form.Method,
	})
	if err != nil {
		f.fail("Unable to record payment. Please try again.", "transport_error")
		return err
	}

	switch result.Outcome {
	case upstream.OutcomeSuccess:
		// fall through to the status update
	case upstream.OutcomeDuplicate:
		dupErr := types.NewDuplicateError(types.ErrCodeDuplicateEntry, result.Message)
		f.fail(result.Message, "duplicate")
		return dupErr
	case upstream.OutcomeValidationFailed:
		valErr := types.NewValidationError(types.ErrCodeValidationFailed, result.Message, nil)
		f.fail(result.Message, "rejected")
		return valErr
	default:
		unkErr := types.NewBadResponseError(types.ErrCodeBadResponseShape, result.Message, nil)
		f.fail(result.Message, "rejected")
		return unkErr
	}

	// The backend gives no atomicity across the two calls. A failure here
	// leaves the payment recorded with the booking status unchanged; all
	// this layer can do is surface it loudly.
	if _, err := f.client.UpdateBookingStatus(ctx, f.form.BookingID, types.StatusHasPaid); err != nil {
		if f.logger != nil {
			f.logger.WithError(err).WithField("booking_id", f.form.BookingID).
				Error("Payment recorded but booking status update failed")
		}
		f.fail("Payment was recorded but the booking status could not be updated.", "status_update_failed")
		return err
	}

	if f.metrics != nil {
		f.metrics.RecordPaymentSubmission("success")
	}
	if f.logger != nil {
		f.logger.PaymentSubmission(ctx, "", f.form.BookingID, f.form.AmountPaid.String(), true,
			map[string]interface{}{"payment_id": result.ID})
	}

	if f.onSuccess != nil {
		f.onSuccess(ctx)
	}

	// Reset the form to initial values and return to idle.
	f.form = Form{}
	f.message = "Payment recorded successfully"
	f.state = StateIdle
	return nil
}

// Amend corrects an existing payment record. The same preconditions as
// Submit apply, but the booking is already settled so no status update
// follows.
func (f *Flow) Amend(ctx context.Context, paymentID int) error {
	if f.state != StateEditing {
		return types.NewInternalError(types.ErrCodeInternalError, fmt.Sprintf("amend called in state %q", f.state), nil)
	}

	f.state = StateValidating
	if err := f.check(); err != nil {
		f.fail(err.Message, "validation_failed")
		return err
	}

	f.state = StateSubmitting

	result, err := f.client.UpdatePayment(ctx, paymentID, &upstream.PaymentRequest{
		BookingID:   f.form.BookingID,
		PatientID:   f.form.PatientID,
		AmountPaid:  f.form.AmountPaid,
		TotalAmount: f.form.TotalAmount,
		Method:      f.form.Method,
	})
	if err != nil {
		f.fail("Unable to update payment. Please try again.", "transport_error")
		return err
	}

	switch result.Outcome {
	case upstream.OutcomeSuccess:
	case upstream.OutcomeValidationFailed:
		valErr := types.NewValidationError(types.ErrCodeValidationFailed, result.Message, nil)
		f.fail(result.Message, "rejected")
		return valErr
	default:
		unkErr := types.NewBadResponseError(types.ErrCodeBadResponseShape, result.Message, nil)
		f.fail(result.Message, "rejected")
		return unkErr
	}

	if f.metrics != nil {
		f.metrics.RecordPaymentSubmission("success")
	}
	if f.logger != nil {
		f.logger.PaymentSubmission(ctx, "", f.form.BookingID, f.form.AmountPaid.String(), true,
			map[string]interface{}{"payment_id": paymentID, "amended": true})
	}

	if f.onSuccess != nil {
		f.onSuccess(ctx)
	}

	f.form = Form{}
	f.message = "Payment updated successfully"
	f.state = StateIdle
	return nil
}

// check enforces the form preconditions: required fields plus the
// full-payment-only rule.
func (f *Flow) check() *types.ServiceError {
	if err := f.validate.Struct(&f.form); err != nil {
		return types.NewValidationError(types.ErrCodeValidationFailed,
			"Booking, patient and payment method are required", map[string]interface{}{"cause": err.Error()})
	}
	if f.form.AmountPaid.IsZero() && !f.form.TotalAmount.IsZero() {
		return types.NewValidationError(types.ErrCodeValidationFailed,
			"amount_paid is required", nil)
	}
	if f.form.Balance().IsPositive() {
		return types.NewValidationError(types.ErrCodePartialPayment,
			"Bill should be paid in full", map[string]interface{}{"balance": f.form.Balance().String()})
	}
	return nil
}

func (f *Flow) fail(message, metric string) {
	f.message = message
	f.state = StateFailed
	if f.metrics != nil {
		f.metrics.RecordPaymentSubmission(metric)
	}
}
