package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zeluilo/hms-sub001/internal/upstream"
	"github.com/zeluilo/hms-sub001/pkg/logger"
	"github.com/zeluilo/hms-sub001/pkg/types"
)

// MockSubmitter is a mock implementation of Submitter
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) AddPayment(ctx context.Context, req *upstream.PaymentRequest) (*upstream.WriteResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.WriteResult), args.Error(1)
}

func (m *MockSubmitter) UpdatePayment(ctx context.Context, paymentID int, req *upstream.PaymentRequest) (*upstream.WriteResult, error) {
	args := m.Called(ctx, paymentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.WriteResult), args.Error(1)
}

func (m *MockSubmitter) UpdateBookingStatus(ctx context.Context, bookingID int, status types.PaymentStatus) (*upstream.WriteResult, error) {
	args := m.Called(ctx, bookingID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*upstream.WriteResult), args.Error(1)
}

func fullPaymentForm() Form {
	return Form{
		BookingID:   9,
		PatientID:   12,
		AmountPaid:  decimal.NewFromInt(100),
		TotalAmount: decimal.NewFromInt(100),
		Method:      "cash",
	}
}

func TestFlow_PartialPaymentRejectedBeforeNetwork(t *testing.T) {
	client := &MockSubmitter{}
	flow := NewFlow(client, logger.New("error"), nil, nil)

	flow.Edit(Form{
		BookingID:   9,
		PatientID:   12,
		AmountPaid:  decimal.NewFromInt(80),
		TotalAmount: decimal.NewFromInt(100),
		Method:      "cash",
	})

	err := flow.Submit(context.Background())
	require.Error(t, err)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.ErrCodePartialPayment, svcErr.Code)
	assert.Contains(t, flow.Message(), "paid in full")
	assert.Equal(t, StateFailed, flow.State())

	client.AssertNotCalled(t, "AddPayment")
	client.AssertNotCalled(t, "UpdateBookingStatus")
}

func TestFlow_MissingMethodRejected(t *testing.T) {
	client := &MockSubmitter{}
	flow := NewFlow(client, logger.New("error"), nil, nil)

	form := fullPaymentForm()
	form.Method = ""
	flow.Edit(form)

	err := flow.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, flow.State())
	client.AssertNotCalled(t, "AddPayment")
}

func TestFlow_SuccessfulSubmission(t *testing.T) {
	client := &MockSubmitter{}
	client.On("AddPayment", mock.Anything, mock.Anything).
		Return(&upstream.WriteResult{Outcome: upstream.OutcomeSuccess, Message: "Payment added successfully!", ID: 42}, nil)
	client.On("UpdateBookingStatus", mock.Anything, 9, types.StatusHasPaid).
		Return(&upstream.WriteResult{Outcome: upstream.OutcomeSuccess, Message: "Status updated successfully"}, nil)

	refetched := false
	flow := NewFlow(client, logger.New("error"), nil, func(ctx context.Context) { refetched = true })

	flow.Edit(fullPaymentForm())
	err := flow.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateIdle, flow.State())
	assert.True(t, refetched, "success must trigger the refetch hook")
	assert.Equal(t, Form{}, flow.Form(), "form resets to initial values")
	client.AssertExpectations(t)
}

func TestFlow_OverpaymentIsAccepted(t *testing.T) {
	client := &MockSubmitter{}
	client.On("AddPayment", mock.Anything, mock.Anything).
		Return(&upstream.WriteResult{Outcome: upstream.OutcomeSuccess, Message: "Payment added successfully!"}, nil)
	client.On("UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything).
		Return(&upstream.WriteResult{Outcome: upstream.OutcomeSuccess, Message: "Status updated successfully"}, nil)

	flow := NewFlow(client, logger.New("error"), nil, nil)

	form := fullPaymentForm()
	form.AmountPaid = decimal.NewFromInt(120)
	flow.Edit(form)

	require.NoError(t, flow.Submit(context.Background()))
	assert.Equal(t, StateIdle, flow.State())
}

func TestFlow_TransportFailureKeepsFormValues(t *testing.T) {
	client := &MockSubmitter{}
	client.On("AddPayment", mock.Anything, mock.Anything).
		Return(nil, types.NewTransportError(types.ErrCodeUpstreamUnavailable, "POST /addpayment failed", nil))

	flow := NewFlow(client, logger.New("error"), nil, nil)
	form := fullPaymentForm()
	flow.Edit(form)

	err := flow.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, flow.State())
	assert.Equal(t, form, flow.Form(), "entered values stay for correction")
	client.AssertNotCalled(t, "UpdateBookingStatus")
}

func TestFlow_DuplicatePaymentSurfacesMessage(t *testing.T) {
	client := &MockSubmitter{}
	client.On("AddPayment", mock.Anything, mock.Anything).
		Return(&upstream.WriteResult{Outcome: upstream.OutcomeDuplicate, Message: "Payment already exists"}, nil)

	flow := NewFlow(client, logger.New("error"), nil, nil)
	flow.Edit(fullPaymentForm())

	err := flow.Submit(context.Background())
	require.Error(t, err)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.ErrorTypeDuplicate, svcErr.Type)
	assert.Equal(t, "Payment already exists", flow.Message())
	client.AssertNotCalled(t, "UpdateBookingStatus")
}

func TestFlow_BackendValidationRejectionKeepsItsClass(t *testing.T) {
	client := &MockSubmitter{}
	client.On("AddPayment", mock.Anything, mock.Anything).
		Return(&upstream.WriteResult{Outcome: upstream.OutcomeValidationFailed, Message: "amount_paid is required"}, nil)

	flow := NewFlow(client, logger.New("error"), nil, nil)
	flow.Edit(fullPaymentForm())

	err := flow.Submit(context.Background())
	require.Error(t, err)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.ErrorTypeValidation, svcErr.Type)
	assert.Equal(t, "amount_paid is required", flow.Message())
	client.AssertNotCalled(t, "UpdateBookingStatus")
}

func TestFlow_AmendUpdatesExistingPayment(t *testing.T) {
	client := &MockSubmitter{}
	client.On("UpdatePayment", mock.Anything, 42, mock.Anything).
		Return(&upstream.WriteResult{Outcome: upstream.OutcomeSuccess, Message: "Payment updated successfully!"}, nil)

	refetched := false
	flow := NewFlow(client, logger.New("error"), nil, func(ctx context.Context) { refetched = true })
	flow.Edit(fullPaymentForm())

	require.NoError(t, flow.Amend(context.Background(), 42))
	assert.Equal(t, StateIdle, flow.State())
	assert.True(t, refetched)
	assert.Equal(t, Form{}, flow.Form())
	// Amending a settled payment never touches the booking status.
	client.AssertNotCalled(t, "UpdateBookingStatus")
	client.AssertExpectations(t)
}

func TestFlow_AmendPartialPaymentRejectedBeforeNetwork(t *testing.T) {
	client := &MockSubmitter{}
	flow := NewFlow(client, logger.New("error"), nil, nil)

	form := fullPaymentForm()
	form.AmountPaid = decimal.NewFromInt(50)
	flow.Edit(form)

	err := flow.Amend(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, StateFailed, flow.State())
	client.AssertNotCalled(t, "UpdatePayment")
}

func TestFlow_AmendTransportFailureKeepsFormValues(t *testing.T) {
	client := &MockSubmitter{}
	client.On("UpdatePayment", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, types.NewTransportError(types.ErrCodeUpstreamUnavailable, "PUT /update-payment/42 failed", nil))

	flow := NewFlow(client, logger.New("error"), nil, nil)
	form := fullPaymentForm()
	flow.Edit(form)

	err := flow.Amend(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, StateFailed, flow.State())
	assert.Equal(t, form, flow.Form())
}

func TestFlow_StatusUpdateFailureIsSurfaced(t *testing.T) {
	client := &MockSubmitter{}
	client.On("AddPayment", mock.Anything, mock.Anything).
		Return(&upstream.WriteResult{Outcome: upstream.OutcomeSuccess, Message: "Payment added successfully!", ID: 42}, nil)
	client.On("UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, types.NewTransportError(types.ErrCodeUpstreamUnavailable, "PUT failed", nil))

	flow := NewFlow(client, logger.New("error"), nil, nil)
	flow.Edit(fullPaymentForm())

	err := flow.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, flow.State())
	assert.Contains(t, flow.Message(), "status could not be updated")
}

func TestFlow_AcknowledgeReturnsToEditing(t *testing.T) {
	client := &MockSubmitter{}
	flow := NewFlow(client, logger.New("error"), nil, nil)

	form := fullPaymentForm()
	form.AmountPaid = decimal.NewFromInt(10)
	flow.Edit(form)

	require.Error(t, flow.Submit(context.Background()))
	require.Equal(t, StateFailed, flow.State())

	flow.Acknowledge()
	assert.Equal(t, StateEditing, flow.State())
	assert.Empty(t, flow.Message())
	assert.Equal(t, form, flow.Form())
}

func TestFlow_SubmitOutsideEditingIsAnError(t *testing.T) {
	flow := NewFlow(&MockSubmitter{}, logger.New("error"), nil, nil)

	err := flow.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateIdle, flow.State())
}
