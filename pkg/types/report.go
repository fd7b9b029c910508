package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupKey identifies a payment group. Paid items group by payment id and
// payment date; unpaid items carry no payment id yet and group by patient.
// Keeping the parts typed avoids the ambiguity of a separator-joined string.
type GroupKey struct {
	PaymentID   int    `json:"payment_id,omitempty"`
	PaymentDate string `json:"payment_date,omitempty"`
	PatientID   int    `json:"patient_id,omitempty"`
}

// Group bundles the records sharing one key, in first-seen input order.
type Group struct {
	Key   GroupKey `json:"key"`
	Items []Record `json:"items"`
}

// Period selects the calendar granularity for aggregation buckets.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// PeriodKey is a bucket identifier: "2006-01-02", "2006-01" or "2006"
// depending on the period.
type PeriodKey string

// PeriodBucket accumulates amounts and transaction counts for one
// calendar bucket. Amounts are decimal currency; display rounding is the
// caller's concern.
type PeriodBucket struct {
	Appointments   decimal.Decimal `json:"appointments"`
	Prescriptions  decimal.Decimal `json:"prescriptions"`
	Investigations decimal.Decimal `json:"investigations"`
	Total          decimal.Decimal `json:"total"`
	Count          int             `json:"transaction_count"`
}

// DateRange is an inclusive [Start, End] window.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Contains reports whether t falls within the range, inclusive at both ends.
func (dr DateRange) Contains(t time.Time) bool {
	return !t.Before(dr.Start) && !t.After(dr.End)
}

// FilterState holds the three user-driven predicates for a view. Zero
// values mean "no filtering" for the corresponding predicate.
type FilterState struct {
	Term   string        `json:"search_term"`
	Status PaymentStatus `json:"status"`
	Range  *DateRange    `json:"date_range,omitempty"`
}

// PageState holds pagination input for a view request.
type PageState struct {
	Index int `json:"page_index"`
	Size  int `json:"entries_per_page"`
}
