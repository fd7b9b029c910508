package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeluilo/hms-sub001/pkg/config"
	"github.com/zeluilo/hms-sub001/pkg/logger"
	"github.com/zeluilo/hms-sub001/pkg/types"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&config.UpstreamConfig{
		BaseURL:        server.URL,
		RequestTimeout: 5,
		MaxIdleConns:   2,
	}, logger.New("error"), nil)
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		message string
		want    Outcome
	}{
		{"Payment added successfully!", OutcomeSuccess},
		{"Record Already Exists", OutcomeDuplicate},
		{"amount_paid is required", OutcomeValidationFailed},
		{"Invalid booking id", OutcomeValidationFailed},
		{"something odd happened", OutcomeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyMessage(tt.message), tt.message)
	}
}

func TestClient_GetGroupedPrescriptions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-GroupedPrescriptions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prescriptions":[{"pId":12,"firstname":"John","lastname":"Doe","paymentId":4,"prescription_price":300,"payment_datecreate":"2024-03-05"}]}`))
	}))

	records, err := client.GetGroupedPrescriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.KindPrescription, records[0].Kind)
	assert.True(t, records[0].Amount().Equal(decimal.NewFromInt(300)))
}

func TestClient_GetPaymentDataTagsKinds(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"appointments":[{"pId":1,"total_amount":500}],"prescriptions":[{"pId":1,"prescription_price":300}],"investigations":[{"pId":1,"investigation_price":250}]}`))
	}))

	data, err := client.GetPaymentData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.KindAppointment, data.Appointments[0].Kind)
	assert.Equal(t, types.KindPrescription, data.Prescriptions[0].Kind)
	assert.Equal(t, types.KindInvestigation, data.Investigations[0].Kind)
	assert.Len(t, data.All(), 3)
}

func TestClient_NullAmountsDecodeAsFree(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"appointments":[{"pId":1,"total_amount":null,"price":null}],"prescriptions":[],"investigations":[]}`))
	}))

	data, err := client.GetPaymentData(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Appointments, 1)
	assert.True(t, data.Appointments[0].Amount().IsZero())
}

func TestClient_FetchBillingSourcesJoinsAll(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get-grouped-appointments":
			w.Write([]byte(`{"appointments":[{"pId":1,"total_amount":500}]}`))
		case "/get-GroupedPrescriptions":
			w.Write([]byte(`{"prescriptions":[{"pId":1,"prescription_price":300}]}`))
		case "/get-GroupedInvestigations":
			w.Write([]byte(`{"investigations":[{"pId":1,"investigation_price":250}]}`))
		default:
			http.NotFound(w, r)
		}
	}))

	data, err := client.FetchBillingSources(context.Background())
	require.NoError(t, err)
	assert.Len(t, data.Appointments, 1)
	assert.Len(t, data.Prescriptions, 1)
	assert.Len(t, data.Investigations, 1)
}

func TestClient_FetchBillingSourcesFailsOnAnyError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/get-GroupedInvestigations" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"appointments":[],"prescriptions":[]}`))
	}))

	_, err := client.FetchBillingSources(context.Background())
	require.Error(t, err)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.ErrorTypeTransport, svcErr.Type)
}

func TestClient_AddPaymentClassifiesOutcome(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/addpayment", r.URL.Path)
		w.Write([]byte(`{"message":"Payment added successfully!","id":42}`))
	}))

	result, err := client.AddPayment(context.Background(), &PaymentRequest{
		BookingID:  9,
		PatientID:  12,
		AmountPaid: decimal.NewFromInt(500),
		Method:     "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
	assert.Equal(t, 42, result.ID)
}

func TestClient_AddPaymentDuplicate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"Payment already exists"}`))
	}))

	result, err := client.AddPayment(context.Background(), &PaymentRequest{BookingID: 9})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, result.Outcome)
}

func TestClient_UpdateBookingStatusPath(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/updateBookingStatus/9", r.URL.Path)
		w.Write([]byte(`{"message":"Status updated successfully"}`))
	}))

	result, err := client.UpdateBookingStatus(context.Background(), 9, types.StatusHasPaid)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, result.Outcome)
}

func TestClient_ServerErrorIsTransportError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))

	_, err := client.GetAllBookings(context.Background())
	require.Error(t, err)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.ErrCodeUpstreamUnavailable, svcErr.Code)
}

func TestClient_MalformedBodyIsBadResponse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))

	_, err := client.GetAllBookings(context.Background())
	require.Error(t, err)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.ErrorTypeBadResponse, svcErr.Type)
}

func TestClient_LoginSuccess(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		w.Write([]byte(`{"message":"Logged in successfully","user":{"id":"u-1","username":"adaeze","firstname":"Adaeze","lastname":"Okafor","role":"accountant"}}`))
	}))

	user, err := client.Login(context.Background(), "adaeze", "secret")
	require.NoError(t, err)
	assert.Equal(t, types.RoleAccountant, user.Role)
}

func TestClient_LoginRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"Invalid username or password"}`))
	}))

	_, err := client.Login(context.Background(), "adaeze", "wrong")
	require.Error(t, err)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.ErrorTypeAuthentication, svcErr.Type)
}
