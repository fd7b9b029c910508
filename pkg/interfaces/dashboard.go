package interfaces

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/zeluilo/hms-sub001/pkg/types"
)

// BillingReader fetches the flat billing collections dashboards are
// computed from.
type BillingReader interface {
	// FetchBillingSources fetches appointments, prescriptions and
	// investigations concurrently and joins the results.
	FetchBillingSources(ctx context.Context) (*types.BillingData, error)

	GetPaymentData(ctx context.Context) (*types.BillingData, error)
	GetGroupedAppointments(ctx context.Context) ([]types.Record, error)
	GetGroupedPrescriptions(ctx context.Context) ([]types.Record, error)
	GetGroupedInvestigations(ctx context.Context) ([]types.Record, error)
	GetAllBookings(ctx context.Context) ([]types.Record, error)
	GetPaymentPrice(ctx context.Context) (decimal.Decimal, error)
}

// NotificationReader fetches the staff notification feed.
type NotificationReader interface {
	GetNotifications(ctx context.Context) ([]types.Notification, error)
}

// Authenticator verifies staff credentials against the backend.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*types.User, error)
}
